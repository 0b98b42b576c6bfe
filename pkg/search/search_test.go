package search_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/pricebot/pkg/adapters/memory"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/observability"
	"github.com/aretw0/pricebot/pkg/ports"
	"github.com/aretw0/pricebot/pkg/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var table = []domain.Partition{
	{LanguageCode: "ES", ID: "169441688"},
	{LanguageCode: "IT", ID: "166197610"},
	{LanguageCode: "EN", ID: "391082834"},
	{LanguageCode: "RU", ID: "2698281907"},
	{LanguageCode: "LT", ID: "2698281907"},
	{LanguageCode: "FI", ID: "2698281907"},
}

func codes(matches []domain.Match) []string {
	return domain.LanguageCodes(matches)
}

func TestSearch_PreservesTableOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Later partitions answer first.
	lookup := ports.LookupFunc(func(ctx context.Context, id, name string) (decimal.Decimal, error) {
		for i, p := range table {
			if p.ID == id {
				time.Sleep(time.Duration(len(table)-i) * 5 * time.Millisecond)
				break
			}
		}
		return decimal.NewFromInt(100), nil
	})

	matches := search.New(table, lookup).Search(context.Background(), "acme.com")
	assert.Equal(t, []string{"ES", "IT", "EN", "RU", "LT", "FI"}, codes(matches))
}

func TestSearch_SharedPartitionsAreNotDeduplicated(t *testing.T) {
	defer goleak.VerifyNone(t)

	boards := memory.NewBoards().
		Add("391082834", "acme.com", decimal.NewFromInt(350)).
		Add("2698281907", "acme.com", decimal.RequireFromString("80.5"))

	matches := search.New(table, boards).Search(context.Background(), "acme.com")

	require.Equal(t, []string{"EN", "RU", "LT", "FI"}, codes(matches))
	assert.True(t, matches[0].PublisherCost.Equal(decimal.NewFromInt(350)))
	for _, m := range matches[1:] {
		assert.Equal(t, "2698281907", m.PartitionID)
		assert.True(t, m.PublisherCost.Equal(decimal.RequireFromString("80.5")))
	}
}

func TestSearch_NoMatch(t *testing.T) {
	matches := search.New(table, memory.NewBoards()).Search(context.Background(), "nowhere.com")
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestSearch_AllLookupsFail(t *testing.T) {
	defer goleak.VerifyNone(t)

	lookup := ports.LookupFunc(func(ctx context.Context, id, name string) (decimal.Decimal, error) {
		return decimal.Zero, errors.New("connection refused")
	})

	var matches []domain.Match
	assert.NotPanics(t, func() {
		matches = search.New(table, lookup).Search(context.Background(), "acme.com")
	})
	assert.Empty(t, matches)
}

func TestSearch_FailuresCountAsAbsent(t *testing.T) {
	lookup := ports.LookupFunc(func(ctx context.Context, id, name string) (decimal.Decimal, error) {
		switch id {
		case "166197610":
			return decimal.Zero, errors.New("502 bad gateway")
		case "391082834":
			panic("adapter bug")
		case "169441688":
			return decimal.NewFromInt(-5), nil
		default:
			return decimal.NewFromInt(42), nil
		}
	})

	matches := search.New(table, lookup).Search(context.Background(), "acme.com")
	assert.Equal(t, []string{"RU", "LT", "FI"}, codes(matches))
}

func TestSearch_TimeoutPerLookup(t *testing.T) {
	defer goleak.VerifyNone(t)

	lookup := ports.LookupFunc(func(ctx context.Context, id, name string) (decimal.Decimal, error) {
		if id == "166197610" {
			<-ctx.Done()
			return decimal.Zero, ctx.Err()
		}
		return decimal.NewFromInt(10), nil
	})

	start := time.Now()
	matches := search.New(table, lookup, search.WithTimeout(50*time.Millisecond)).
		Search(context.Background(), "acme.com")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, []string{"ES", "EN", "RU", "LT", "FI"}, codes(matches))
}

func TestSearch_ConcurrencyLimit(t *testing.T) {
	var inFlight, peak int32
	var mu sync.Mutex

	lookup := ports.LookupFunc(func(ctx context.Context, id, name string) (decimal.Decimal, error) {
		n := atomic.AddInt32(&inFlight, 1)
		mu.Lock()
		if n > peak {
			peak = n
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return decimal.Zero, domain.ErrItemNotFound
	})

	search.New(table, lookup, search.WithConcurrency(2)).Search(context.Background(), "acme.com")
	assert.LessOrEqual(t, peak, int32(2))
}

func TestSearch_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	boards := memory.NewBoards().Add("391082834", "acme.com", decimal.NewFromInt(350))
	search.New(table, boards, search.WithMetrics(metrics)).Search(context.Background(), "acme.com")

	expected := `
# HELP pricebot_searches_total Federated domain searches by outcome
# TYPE pricebot_searches_total counter
pricebot_searches_total{outcome="found"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "pricebot_searches_total"))
}
