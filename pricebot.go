package pricebot

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/pricebot/internal/logging"
	loamAdapter "github.com/aretw0/pricebot/pkg/adapters/loam"
	"github.com/aretw0/pricebot/pkg/adapters/memory"
	"github.com/aretw0/pricebot/pkg/adapters/monday"
	"github.com/aretw0/pricebot/pkg/adapters/process"
	redisAdapter "github.com/aretw0/pricebot/pkg/adapters/redis"
	"github.com/aretw0/pricebot/pkg/config"
	"github.com/aretw0/pricebot/pkg/conversation"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/observability"
	"github.com/aretw0/pricebot/pkg/persistence/middleware"
	"github.com/aretw0/pricebot/pkg/ports"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/aretw0/pricebot/pkg/search"
	"github.com/aretw0/pricebot/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

//go:embed VERSION
var version string

// Version is the release of this build.
var Version = strings.TrimSpace(version)

// ErrNoLookup is returned when no partition source is configured.
var ErrNoLookup = fmt.Errorf("no partition lookup configured: set %s, boards_dir or lookup_command", config.EnvMondayToken)

// Engine wires configuration into a ready-to-use bot.
type Engine struct {
	Bot        *conversation.Bot
	Sessions   *session.Manager
	Searcher   *search.Searcher
	Calculator *pricing.Calculator
	Metrics    *observability.Metrics
	Registry   *prometheus.Registry

	cfg     *config.Config
	lookup  ports.PartitionLookup
	store   ports.SessionStore
	logger  *slog.Logger
	closers []io.Closer
	// ephemeral is set when the store lives in this process.
	ephemeral bool
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLookup injects a custom partition lookup, bypassing monday.com and Loam.
func WithLookup(l ports.PartitionLookup) Option {
	return func(e *Engine) {
		e.lookup = l
	}
}

// WithStore injects a custom session store, bypassing store.driver.
func WithStore(s ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New builds the engine described by cfg.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	eng := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	calc, err := cfg.Calculator()
	if err != nil {
		return nil, err
	}
	eng.Calculator = calc

	eng.Registry = prometheus.NewRegistry()
	eng.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	eng.Metrics = observability.NewMetrics(eng.Registry)

	if eng.lookup == nil {
		if eng.lookup, err = eng.newLookup(); err != nil {
			return nil, err
		}
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if cfg.Store.LockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(cfg.Store.LockTTL))
	}
	if eng.store == nil {
		eng.ephemeral = cfg.Store.Driver != config.DriverRedis
		store, locker := eng.newStore()
		eng.store = store
		if locker != nil {
			sessionOpts = append(sessionOpts, session.WithLocker(locker))
		}
	}
	enc, err := cfg.Encryption()
	if err != nil {
		return nil, err
	}
	if enc != nil {
		seal, err := middleware.NewEncryptionMiddleware(*enc)
		if err != nil {
			return nil, err
		}
		eng.store = middleware.Chain(eng.store, seal)
		eng.logger.Info("Session encryption enabled", "fallback_keys", len(enc.FallbackKeys))
	}
	eng.Sessions = session.NewManager(eng.store, sessionOpts...)

	eng.Searcher = search.New(cfg.PartitionTable(), eng.lookup,
		search.WithTimeout(cfg.Search.Timeout),
		search.WithConcurrency(cfg.Search.Concurrency),
		search.WithLogger(eng.logger),
		search.WithMetrics(eng.Metrics),
	)

	eng.Bot = conversation.New(eng.Sessions, eng.Searcher, eng.Calculator,
		conversation.WithCommandPrefix(cfg.CommandPrefix),
		conversation.WithMaxInputSize(cfg.MaxInputSize),
		conversation.WithLogger(eng.logger),
		conversation.WithMetrics(eng.Metrics),
	)

	return eng, nil
}

func (e *Engine) newLookup() (ports.PartitionLookup, error) {
	if e.cfg.BoardsDir != "" {
		boards, err := loamAdapter.Open(e.cfg.BoardsDir)
		if err != nil {
			return nil, err
		}
		e.logger.Info("Using board documents", "dir", e.cfg.BoardsDir)
		return boards, nil
	}
	if c := e.cfg.LookupCommand; c.Path != "" {
		e.logger.Info("Using lookup command", "path", c.Path)
		return process.New(process.Command{
			Path: c.Path,
			Args: c.Args,
			Env:  c.Env,
			Dir:  c.Dir,
		}, process.WithLogger(e.logger))
	}
	if e.cfg.Monday.Token == "" {
		return nil, ErrNoLookup
	}
	opts := []monday.Option{
		monday.WithURL(e.cfg.Monday.URL),
		monday.WithAPIVersion(e.cfg.Monday.APIVersion),
		monday.WithCostColumn(e.cfg.Monday.CostColumn),
		monday.WithLogger(e.logger),
	}
	if e.cfg.Monday.Timeout > 0 {
		opts = append(opts, monday.WithHTTPClient(&http.Client{Timeout: e.cfg.Monday.Timeout}))
	}
	return monday.New(e.cfg.Monday.Token, opts...), nil
}

func (e *Engine) newStore() (ports.SessionStore, ports.DistributedLocker) {
	if e.cfg.Store.Driver != config.DriverRedis {
		return memory.NewStore(), nil
	}

	rc := e.cfg.Store.Redis
	store := redisAdapter.New(rc.Addr, rc.Password, rc.DB,
		redisAdapter.WithPrefix(rc.Prefix),
		redisAdapter.WithTTL(rc.TTL),
	)
	e.closers = append(e.closers, store)
	e.logger.Info("Using redis session store", "addr", rc.Addr, "ttl", rc.TTL)

	if !rc.Lock {
		return store, nil
	}
	return store, redisAdapter.NewLocker(store.Client(), rc.Prefix)
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Lookup returns the partition lookup in use.
func (e *Engine) Lookup() ports.PartitionLookup {
	return e.lookup
}

// Handle is a shortcut for Bot.Handle.
func (e *Engine) Handle(ctx context.Context, msg domain.Message) (domain.Reply, error) {
	return e.Bot.Handle(ctx, msg)
}

// CheckBoards reports configured partitions whose board documents are missing.
// It is a no-op unless the lookup is file-backed.
func (e *Engine) CheckBoards(ctx context.Context) ([]string, error) {
	boards, ok := e.lookup.(*loamAdapter.Boards)
	if !ok {
		return nil, nil
	}
	ids, err := boards.List(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	var missing []string
	seen := make(map[string]bool)
	for _, p := range e.Searcher.Partitions() {
		if !present[p.ID] && !seen[p.ID] {
			missing = append(missing, p.ID)
			seen[p.ID] = true
		}
	}
	return missing, nil
}

// Close abandons in-flight sessions of an in-process store and releases
// external connections.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error
	if e.ephemeral {
		if err := e.Sessions.Clear(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to clear sessions: %w", err))
		}
	}
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
