package conversation_test

import (
	"strings"
	"testing"

	"github.com/aretw0/pricebot/pkg/adapters/memory"
	"github.com/aretw0/pricebot/pkg/conversation"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/aretw0/pricebot/pkg/search"
	"github.com/aretw0/pricebot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInputBot(opts ...conversation.Option) *conversation.Bot {
	return conversation.New(
		session.NewManager(memory.NewStore()),
		search.New(partitions, memory.NewBoards()),
		pricing.Default(),
		opts...,
	)
}

func TestCleanInput(t *testing.T) {
	bot := newInputBot()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain command", "/price acme.com", "/price acme.com"},
		{"padded answer", "  EN \r\n", "EN"},
		{"line breaks become spaces", "/price\nacme.com", "/price acme.com"},
		{"tab", "/price\tacme.com", "/price acme.com"},
		{"ansi colors", "\x1b[31myes\x1b[0m", "yes"},
		{"unterminated escape", "no\x1b[", "no"},
		{"lone escape", "\x1bno", "no"},
		{"null byte", "n\x00o", "no"},
		{"bell", "250\x07", "250"},
		{"non-ascii kept", "/price café.fr", "/price café.fr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bot.CleanInput(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanInput_InvalidUTF8(t *testing.T) {
	_, err := newInputBot().CleanInput("EN\xff")
	assert.ErrorIs(t, err, conversation.ErrInvalidUTF8)
}

func TestCleanInput_SizeLimit(t *testing.T) {
	bot := newInputBot()

	_, err := bot.CleanInput(strings.Repeat("a", conversation.DefaultMaxInputSize))
	assert.NoError(t, err)

	_, err = bot.CleanInput(strings.Repeat("a", conversation.DefaultMaxInputSize+1))
	assert.ErrorIs(t, err, conversation.ErrInputTooLarge)
}

func TestCleanInput_LimitAppliesToCleanedText(t *testing.T) {
	bot := newInputBot(conversation.WithMaxInputSize(8))

	got, err := bot.CleanInput("   yes   \r\n\r\n\x1b[0m")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)

	_, err = bot.CleanInput("/price acme.com")
	assert.ErrorIs(t, err, conversation.ErrInputTooLarge)
}

func TestWithMaxInputSize_IgnoresNonPositive(t *testing.T) {
	bot := newInputBot(conversation.WithMaxInputSize(0))

	_, err := bot.CleanInput(strings.Repeat("a", conversation.DefaultMaxInputSize))
	assert.NoError(t, err)
}
