package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <domain>",
	Short: "Find every board that lists a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		matches := engine.Searcher.Search(cmd.Context(), args[0])

		if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		}

		if len(matches) == 0 {
			fmt.Printf("Domain %q was not found in any board.\n", args[0])
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%-4s board %-12s %s €\n", m.LanguageCode, m.PartitionID, pricing.FormatCost(m.PublisherCost))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Bool("json", false, "Print matches as JSON")
}
