package main

import (
	"fmt"

	"github.com/aretw0/pricebot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pricebot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pricebot version %s\n", pricebot.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
