package conversation

import (
	"fmt"
	"strings"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/shopspring/decimal"
)

func usageReply(prefix string) string {
	return fmt.Sprintf("Usage: %s <domainName>", prefix)
}

func notFoundReply(domainName string) string {
	return fmt.Sprintf("Domain %q was not found in any board.", domainName)
}

func foundReply(domainName string, matches []domain.Match) string {
	if len(matches) == 1 {
		return fmt.Sprintf("Found domain: **%s**\nPublisher Cost: **%s €**\n"+
			"Please enter the language code of the article (e.g., IT, EN, DE, etc.).",
			domainName, pricing.FormatCost(matches[0].PublisherCost))
	}
	return fmt.Sprintf("Found domain: **%s** in multiple boards.\n"+
		"Please enter the language code of the article from the following options: %s",
		domainName, joinCodes(matches))
}

func invalidCodeReply(matches []domain.Match) string {
	return "Invalid language code. Please enter one of the following: " + joinCodes(matches)
}

func selectedReply(sel domain.Selection) string {
	return fmt.Sprintf("Selected Language Code: **%s**\nPublisher Cost: **%s €**\nIs copywriting included? (yes/no)",
		sel.LanguageCode, pricing.FormatCost(sel.PublisherCost))
}

const (
	askWordCountReply     = "How many words is the article? (Please enter a number)"
	invalidYesNoReply     = `Please type "yes" or "no".`
	invalidWordCountReply = "Please enter a valid number for word count."
)

func finalPriceReply(price decimal.Decimal) string {
	return fmt.Sprintf("Final price = **%s€**", pricing.FormatPrice(price))
}

func joinCodes(matches []domain.Match) string {
	return strings.Join(domain.LanguageCodes(matches), ", ")
}
