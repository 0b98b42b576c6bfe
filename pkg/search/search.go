// Package search finds a publisher domain across every configured partition.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/observability"
	"github.com/aretw0/pricebot/pkg/ports"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Searcher fans a domain lookup out to all partitions and joins the matches
// back in partition-table order.
type Searcher struct {
	partitions  []domain.Partition
	lookup      ports.PartitionLookup
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// Option configures the Searcher.
type Option func(*Searcher)

// WithTimeout bounds each partition lookup. Zero leaves it to the transport.
func WithTimeout(d time.Duration) Option {
	return func(s *Searcher) {
		s.timeout = d
	}
}

// WithConcurrency limits in-flight lookups. Zero or less means one goroutine per partition.
func WithConcurrency(n int) Option {
	return func(s *Searcher) {
		s.concurrency = n
	}
}

// WithLogger configures a logger for lookup failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = logger
	}
}

// WithMetrics records lookup outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Searcher) {
		s.metrics = m
	}
}

// New creates a Searcher over a partition table. Duplicate partition IDs are kept:
// each entry is looked up and reported under its own language code.
func New(partitions []domain.Partition, lookup ports.PartitionLookup, opts ...Option) *Searcher {
	s := &Searcher{
		partitions: append([]domain.Partition(nil), partitions...),
		lookup:     lookup,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Partitions returns a copy of the partition table.
func (s *Searcher) Partitions() []domain.Partition {
	return append([]domain.Partition(nil), s.partitions...)
}

// Search returns the partitions listing domainName, in table order.
// Failed lookups count as "not listed"; Search itself never fails.
func (s *Searcher) Search(ctx context.Context, domainName string) []domain.Match {
	found := make([]*domain.Match, len(s.partitions))

	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, p := range s.partitions {
		g.Go(func() error {
			if cost, ok := s.lookupOne(ctx, p, domainName); ok {
				found[i] = &domain.Match{
					LanguageCode:  p.LanguageCode,
					PartitionID:   p.ID,
					PublisherCost: cost,
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]domain.Match, 0, len(found))
	for _, m := range found {
		if m != nil {
			matches = append(matches, *m)
		}
	}

	s.metrics.ObserveSearch(len(matches))
	s.logger.Debug("Search finished", "domain", domainName, "partitions", len(s.partitions), "matches", len(matches))
	return matches
}

func (s *Searcher) lookupOne(ctx context.Context, p domain.Partition, domainName string) (decimal.Decimal, bool) {
	start := time.Now()
	outcome := observability.OutcomeError
	defer func() {
		s.metrics.ObserveLookup(p.ID, outcome, time.Since(start))
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	c, err := s.safeLookup(ctx, p.ID, domainName)
	switch {
	case err == nil && c.IsNegative():
		s.logger.Warn("Partition returned a negative cost",
			"partition", p.ID, "language", p.LanguageCode, "domain", domainName, "cost", c.String())
		return decimal.Zero, false
	case err == nil:
		outcome = observability.OutcomeFound
		s.logger.Debug("Found domain in partition",
			"partition", p.ID, "language", p.LanguageCode, "domain", domainName, "cost", c.String())
		return c, true
	case errors.Is(err, domain.ErrItemNotFound):
		outcome = observability.OutcomeNotFound
		return decimal.Zero, false
	default:
		s.logger.Warn("Partition lookup failed",
			"partition", p.ID, "language", p.LanguageCode, "domain", domainName, "err", err)
		return decimal.Zero, false
	}
}

// safeLookup turns a panicking adapter into an ordinary lookup failure.
func (s *Searcher) safeLookup(ctx context.Context, partitionID, domainName string) (c decimal.Decimal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lookup panicked: %v", r)
		}
	}()
	return s.lookup.Lookup(ctx, partitionID, domainName)
}
