package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/observability"
	"github.com/aretw0/pricebot/pkg/ports"
	"github.com/aretw0/pricebot/pkg/session"
	"github.com/shopspring/decimal"
)

// DefaultCommandPrefix starts a price request.
const DefaultCommandPrefix = "/price"

// Searcher finds the partitions listing a domain.
type Searcher interface {
	Search(ctx context.Context, domainName string) []domain.Match
}

// Calculator turns a publisher cost into a quoted price.
type Calculator interface {
	ComputeFinalPrice(cost decimal.Decimal, languageCode string, wordCount int) decimal.Decimal
}

// Bot is the per-user quote state machine.
type Bot struct {
	sessions *session.Manager
	searcher Searcher
	calc     Calculator
	prefix   string
	maxInput int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// Option configures the Bot.
type Option func(*Bot)

// WithCommandPrefix changes the price request command (default "/price").
func WithCommandPrefix(prefix string) Option {
	return func(b *Bot) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithMaxInputSize caps the cleaned message size in bytes. Non-positive values
// keep DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(b *Bot) {
		if n > 0 {
			b.maxInput = n
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// WithMetrics records quotes and abandoned sessions.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bot) {
		b.metrics = m
	}
}

// New creates a Bot.
func New(sessions *session.Manager, searcher Searcher, calc Calculator, opts ...Option) *Bot {
	b := &Bot{
		sessions: sessions,
		searcher: searcher,
		calc:     calc,
		prefix:   DefaultCommandPrefix,
		maxInput: DefaultMaxInputSize,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CommandPrefix returns the price request command.
func (b *Bot) CommandPrefix() string {
	return b.prefix
}

// Handle consumes one inbound message and returns the reply to send, if any.
//
// User input errors never surface as errors: they produce a reprompt. A returned
// error means the turn failed (store unavailable, adapter bug); the sender's
// session has been abandoned and nothing should be sent.
func (b *Bot) Handle(ctx context.Context, msg domain.Message) (domain.Reply, error) {
	if msg.FromBot || msg.SenderID == "" {
		return domain.Reply{}, nil
	}

	text, err := b.CleanInput(msg.Text)
	if err != nil {
		b.logger.Warn("Input rejected", "user_id", msg.SenderID, "size", len(msg.Text), "err", err)
		return domain.Reply{}, nil
	}

	var reply domain.Reply
	err = b.sessions.WithLock(ctx, msg.SenderID, func(ctx context.Context) error {
		var turnErr error
		reply, turnErr = b.safeTurn(ctx, msg.SenderID, text)
		if turnErr != nil {
			b.abandon(ctx, msg.SenderID, "error")
		}
		return turnErr
	})
	if err != nil {
		return domain.Reply{}, fmt.Errorf("failed to handle message from %s: %w", msg.SenderID, err)
	}
	return reply, nil
}

func (b *Bot) safeTurn(ctx context.Context, userID, text string) (reply domain.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panicked: %v", r)
		}
	}()
	return b.turn(ctx, userID, text)
}

func (b *Bot) turn(ctx context.Context, userID, text string) (domain.Reply, error) {
	store := b.sessions.Store()

	if domainName, ok := b.parseCommand(text); ok {
		return b.startQuote(ctx, store, userID, domainName)
	}

	s, err := store.Load(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Reply{}, nil
	}
	if err != nil {
		return domain.Reply{}, fmt.Errorf("failed to load session: %w", err)
	}

	if err := s.Validate(); err != nil {
		b.logger.Warn("Dropping session in unknown state", "user_id", userID, "step", s.Step, "err", err)
		b.abandon(ctx, userID, "unknown_step")
		return domain.Reply{}, nil
	}

	switch s.Step {
	case domain.StepAwaitingLanguageCode:
		return b.answerLanguage(ctx, store, s, text)
	case domain.StepAwaitingCopyDecision:
		return b.answerCopy(ctx, store, s, text)
	default:
		return b.answerWordCount(ctx, store, s, text)
	}
}

// parseCommand reports whether text is a price request and returns its domain
// argument (empty when missing). Tokens after the domain are ignored.
func (b *Bot) parseCommand(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != b.prefix {
		return "", false
	}
	if len(fields) < 2 {
		return "", true
	}
	return fields[1], true
}

func (b *Bot) startQuote(ctx context.Context, store ports.SessionStore, userID, domainName string) (domain.Reply, error) {
	if domainName == "" {
		return domain.Reply{Text: usageReply(b.prefix)}, nil
	}

	matches := b.searcher.Search(ctx, domainName)
	if len(matches) == 0 {
		// Nothing to quote: whatever the user was in the middle of stays.
		b.logger.Info("Domain not found", "user_id", userID, "domain", domainName)
		return domain.Reply{Text: notFoundReply(domainName)}, nil
	}

	// A found domain replaces the active session, if any.
	s := domain.NewSession(userID, domainName, matches)
	if err := store.Save(ctx, userID, s); err != nil {
		return domain.Reply{}, fmt.Errorf("failed to save session: %w", err)
	}

	b.logger.Debug("Session started", "user_id", userID, "domain", domainName, "matches", len(matches))
	return domain.Reply{Text: foundReply(domainName, matches)}, nil
}

func (b *Bot) answerLanguage(ctx context.Context, store ports.SessionStore, s *domain.Session, text string) (domain.Reply, error) {
	m, ok := s.FindMatch(text)
	if !ok {
		return domain.Reply{Text: invalidCodeReply(s.Language.Matches)}, nil
	}

	s.SelectLanguage(m)
	if err := store.Save(ctx, s.UserID, s); err != nil {
		return domain.Reply{}, fmt.Errorf("failed to save session: %w", err)
	}
	return domain.Reply{Text: selectedReply(s.Copy.Selection)}, nil
}

func (b *Bot) answerCopy(ctx context.Context, store ports.SessionStore, s *domain.Session, text string) (domain.Reply, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes":
		s.IncludeCopy()
		if err := store.Save(ctx, s.UserID, s); err != nil {
			return domain.Reply{}, fmt.Errorf("failed to save session: %w", err)
		}
		return domain.Reply{Text: askWordCountReply}, nil
	case "no":
		return b.finish(ctx, store, s, s.Copy.Selection, 0), nil
	default:
		return domain.Reply{Text: invalidYesNoReply}, nil
	}
}

func (b *Bot) answerWordCount(ctx context.Context, store ports.SessionStore, s *domain.Session, text string) (domain.Reply, error) {
	words, ok := parseWordCount(text)
	if !ok || words <= 0 {
		return domain.Reply{Text: invalidWordCountReply}, nil
	}
	return b.finish(ctx, store, s, s.WordCount.Selection, words), nil
}

// finish quotes the price and closes the session. The quote is sent even if the
// delete fails; the stale session is then replaced by the user's next request.
func (b *Bot) finish(ctx context.Context, store ports.SessionStore, s *domain.Session, sel domain.Selection, words int) domain.Reply {
	price := b.calc.ComputeFinalPrice(sel.PublisherCost, sel.LanguageCode, words)

	if err := store.Delete(ctx, s.UserID); err != nil {
		b.logger.Warn("Failed to delete completed session", "user_id", s.UserID, "err", err)
	}

	b.metrics.ObserveQuote(sel.LanguageCode, sel.CopyIncluded)
	b.logger.Info("Price quoted",
		"user_id", s.UserID,
		"domain", s.Domain,
		"language", sel.LanguageCode,
		"publisher_cost", sel.PublisherCost.String(),
		"words", words,
		"price", price.String(),
	)
	return domain.Reply{Text: finalPriceReply(price)}
}

// abandon drops a session without quoting. Failures are only logged: the turn
// is already lost.
func (b *Bot) abandon(ctx context.Context, userID, reason string) {
	b.metrics.ObserveAbandoned(reason)
	if err := b.sessions.Store().Delete(ctx, userID); err != nil {
		b.logger.Warn("Failed to delete abandoned session", "user_id", userID, "reason", reason, "err", err)
	}
}

// parseWordCount reads the leading integer of s ("250", "+40", "300 words").
func parseWordCount(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
