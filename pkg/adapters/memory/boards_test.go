package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/pricebot/pkg/adapters/memory"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/ports/tests"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBoards_Contract(t *testing.T) {
	boards := memory.NewBoards().
		Add("391082834", "acme.com", decimal.NewFromInt(350)).
		Add("2698281907", "acme.com", decimal.RequireFromString("120.5")).
		Add("2698281907", "blog.example.org", decimal.NewFromInt(80))

	tests.PartitionLookupContractTest(t, boards, map[string]map[string]string{
		"391082834":  {"acme.com": "350"},
		"2698281907": {"acme.com": "120.5", "blog.example.org": "80"},
	})
}

func TestBoards_UnknownBoard(t *testing.T) {
	_, err := memory.NewBoards().Lookup(context.Background(), "404", "acme.com")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestBoards_CanceledContext(t *testing.T) {
	boards := memory.NewBoards().Add("1", "acme.com", decimal.NewFromInt(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := boards.Lookup(ctx, "1", "acme.com")
	assert.ErrorIs(t, err, context.Canceled)
}
