package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a publisher cost without a conversation",
	Example: `  pricebot quote --cost 350 --lang EN
  pricebot quote --cost 400 --lang DE --words 100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		calc, err := cfg.Calculator()
		if err != nil {
			return err
		}

		rawCost, _ := cmd.Flags().GetString("cost")
		lang, _ := cmd.Flags().GetString("lang")
		words, _ := cmd.Flags().GetInt("words")
		jsonMode, _ := cmd.Flags().GetBool("json")

		cost, err := decimal.NewFromString(rawCost)
		if err != nil || cost.IsNegative() {
			return fmt.Errorf("--cost must be a non-negative number, got %q", rawCost)
		}
		lang = domain.NormalizeCode(lang)
		if lang == "" {
			return errors.New("--lang is required")
		}
		if words < 0 {
			return errors.New("--words must not be negative")
		}

		price := pricing.FormatPrice(calc.ComputeFinalPrice(cost, lang, words))
		if jsonMode {
			return json.NewEncoder(os.Stdout).Encode(map[string]any{
				"language":       lang,
				"publisher_cost": cost.String(),
				"words":          words,
				"price":          price,
			})
		}
		fmt.Printf("Final price = %s€\n", price)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().String("cost", "", "Publisher cost in euros")
	quoteCmd.Flags().StringP("lang", "l", "", "Article language code")
	quoteCmd.Flags().IntP("words", "w", 0, "Word count when copywriting is included")
	quoteCmd.Flags().Bool("json", false, "Print the quote as JSON")
	quoteCmd.MarkFlagRequired("cost")
	quoteCmd.MarkFlagRequired("lang")
}
