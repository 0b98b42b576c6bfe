package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage in-flight quote sessions",
	Long: `List, inspect and remove the conversations waiting for an answer.
Only useful with the redis store; memory sessions live inside the server process.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List users with an active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		users, err := engine.Sessions.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing sessions: %w", err)
		}
		if len(users) == 0 {
			fmt.Println("No active sessions found.")
			return nil
		}

		fmt.Println("Active Sessions:")
		for _, u := range users {
			fmt.Println("- " + u)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <user-id>",
	Short: "Print the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		s, err := engine.Sessions.Load(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("no session for '%s'", args[0])
		}
		if err != nil {
			return fmt.Errorf("error loading session '%s': %w", args[0], err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <user-id>...",
	Short: "Abandon one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		var errs []error
		for _, user := range args {
			if err := engine.Sessions.Delete(cmd.Context(), user); err != nil {
				errs = append(errs, fmt.Errorf("error removing '%s': %w", user, err))
				continue
			}
			fmt.Printf("Removed session '%s'\n", user)
		}
		return errors.Join(errs...)
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Abandon every session",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		if err := engine.Sessions.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("All sessions removed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}
