package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/ports"
	"github.com/shopspring/decimal"
)

// PartitionLookupContractTest is a reusable test suite that verifies if an adapter complies with ports.PartitionLookup.
// listed maps partition ID -> domain -> expected publisher cost, and must already be loaded into the adapter.
func PartitionLookupContractTest(t *testing.T, lookup ports.PartitionLookup, listed map[string]map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Lookup_Found", func(t *testing.T) {
		for partitionID, items := range listed {
			for domainName, cost := range items {
				got, err := lookup.Lookup(ctx, partitionID, domainName)
				if err != nil {
					t.Fatalf("unexpected error looking up %s in %s: %v", domainName, partitionID, err)
				}
				want := decimal.RequireFromString(cost)
				if !got.Equal(want) {
					t.Errorf("cost mismatch for %s in %s. got %s, want %s", domainName, partitionID, got, want)
				}
			}
		}
	})

	t.Run("Lookup_NotFound", func(t *testing.T) {
		for partitionID := range listed {
			_, err := lookup.Lookup(ctx, partitionID, "non-existent-domain.invalid")
			if !errors.Is(err, domain.ErrItemNotFound) {
				t.Errorf("expected ErrItemNotFound for %s, got %v", partitionID, err)
			}
		}
	})
}
