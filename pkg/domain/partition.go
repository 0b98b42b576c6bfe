package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Partition binds a language code to the board that lists its domains.
// Several codes may point to the same board.
type Partition struct {
	LanguageCode string `json:"language_code" yaml:"code"`
	ID           string `json:"id" yaml:"board"`
}

// Match is a partition that listed the searched domain.
type Match struct {
	LanguageCode  string          `json:"language_code"`
	PartitionID   string          `json:"partition_id"`
	PublisherCost decimal.Decimal `json:"publisher_cost"`
}

// NormalizeCode canonicalizes a language code typed by a user or read from config.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LanguageCodes returns the codes of the given matches, in order.
func LanguageCodes(matches []Match) []string {
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, m.LanguageCode)
	}
	return codes
}
