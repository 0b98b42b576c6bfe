package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/shopspring/decimal"
)

// Boards implements ports.PartitionLookup over in-memory board listings.
// It backs demos and tests; items are keyed by board ID then by exact domain name.
type Boards struct {
	mu     sync.RWMutex
	boards map[string]map[string]decimal.Decimal
}

// NewBoards creates an empty board set.
func NewBoards() *Boards {
	return &Boards{
		boards: make(map[string]map[string]decimal.Decimal),
	}
}

// Add lists a domain on a board with the given publisher cost.
func (b *Boards) Add(boardID, domainName string, cost decimal.Decimal) *Boards {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, ok := b.boards[boardID]
	if !ok {
		items = make(map[string]decimal.Decimal)
		b.boards[boardID] = items
	}
	items[strings.TrimSpace(domainName)] = cost
	return b
}

// Lookup returns the cost of a domain listed on a board.
func (b *Boards) Lookup(ctx context.Context, boardID, domainName string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	items, ok := b.boards[boardID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: board %s", domain.ErrItemNotFound, boardID)
	}
	cost, ok := items[domainName]
	if !ok {
		return decimal.Zero, domain.ErrItemNotFound
	}
	return cost, nil
}
