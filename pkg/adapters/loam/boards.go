// Package loam serves partitions from board documents on disk.
//
// A board is a Markdown, YAML or JSON document named after its partition ID
// (e.g. 391082834.md) whose frontmatter lists items:
//
//	---
//	language: EN
//	items:
//	  - name: acme.com
//	    cost: 350
//	---
package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/shopspring/decimal"
)

// Boards adapts a Loam repository to ports.PartitionLookup.
type Boards struct {
	Repo *loam.TypedRepository[BoardMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[BoardMetadata]) *Boards {
	return &Boards{
		Repo: repo,
	}
}

// Open initializes a read-only Loam repository rooted at dir.
func Open(dir string) (*Boards, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps numbers as json.Number across Markdown, YAML and JSON.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[BoardMetadata](repo)), nil
}

// Lookup reads the board document and returns the cost listed for domainName.
// Domain names match case-insensitively.
func (b *Boards) Lookup(ctx context.Context, boardID, domainName string) (decimal.Decimal, error) {
	doc, err := b.Repo.Get(ctx, boardID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("loam get failed for board %s: %w", boardID, err)
	}

	for _, item := range doc.Data.Items {
		if !strings.EqualFold(strings.TrimSpace(item.Name), domainName) {
			continue
		}
		cost, err := parseCost(item.Cost)
		if err != nil {
			return decimal.Zero, fmt.Errorf("board %s item %s: %w", boardID, item.Name, err)
		}
		return cost, nil
	}
	return decimal.Zero, domain.ErrItemNotFound
}

// List returns the IDs of every board document in the repository.
func (b *Boards) List(ctx context.Context) ([]string, error) {
	docs, err := b.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: board '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func parseCost(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, nil
	case json.Number:
		return pricing.ParseCost(v.String())
	case string:
		return pricing.ParseCost(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unexpected type %T", pricing.ErrInvalidCost, raw)
	}
}
