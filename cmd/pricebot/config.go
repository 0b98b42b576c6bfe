package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/pricebot/pkg/adapters/monday"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Prints the configuration after defaults, the config file and the environment
are merged. Secrets are never printed. With --check the partition source is probed:
monday.com is pinged with the token, board documents are checked for every partition.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		os.Stdout.Write(out)

		if check, _ := cmd.Flags().GetBool("check"); !check {
			return nil
		}

		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		if client, ok := engine.Lookup().(*monday.Client); ok {
			account, err := client.Ping(ctx)
			if err != nil {
				return fmt.Errorf("monday.com check failed: %w", err)
			}
			fmt.Printf("monday.com: authenticated as %s\n", account)
			return nil
		}

		missing, err := engine.CheckBoards(ctx)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing board documents: %v", missing)
		}
		fmt.Println("boards: ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().Bool("check", false, "Verify the partition source is reachable")
}
