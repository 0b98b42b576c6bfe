package main

import (
	"context"
	"os"

	"github.com/aretw0/pricebot"
	"github.com/aretw0/pricebot/internal/cli"
	"github.com/aretw0/pricebot/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the bot from the terminal",
	Long: `Reads messages from stdin and prints the bot's replies, exactly as a chat user would
see them. With --json every line is a message object ({"sender_id","text","bot"}) and
every answer is a JSON object, which suits scripted tests and pipes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}
		defer closeEngine(context.Background(), engine, logger)

		user, _ := cmd.Flags().GetString("user")
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")

		interactive := !jsonMode && cli.IsTerminal(os.Stdin)
		if interactive && !quiet {
			tui.PrintBanner(os.Stdout, pricebot.Version)
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		return cli.Chat(ctx, engine.Bot, os.Stdin, os.Stdout, cli.ChatOptions{
			UserID: user,
			JSON:   jsonMode,
			Render: cli.RendererFor(os.Stdout),
			Quiet:  quiet || !interactive,
			Logger: logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("user", "u", cli.DefaultUserID, "Sender id used for text messages")
	chatCmd.Flags().Bool("json", false, "Read and write JSON Lines")
	chatCmd.Flags().BoolP("quiet", "q", false, "Hide the banner and prompt")
}
