package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// PartitionLookup finds a domain in one partition (board).
type PartitionLookup interface {
	// Lookup returns the publisher cost listed for domainName in the partition.
	// Returns domain.ErrItemNotFound if the partition does not list it; any other
	// error is a transport or data failure.
	Lookup(ctx context.Context, partitionID, domainName string) (decimal.Decimal, error)
}

// LookupFunc adapts a function to PartitionLookup.
type LookupFunc func(ctx context.Context, partitionID, domainName string) (decimal.Decimal, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, partitionID, domainName string) (decimal.Decimal, error) {
	return f(ctx, partitionID, domainName)
}
