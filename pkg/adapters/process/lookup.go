// Package process looks domains up by running a local command.
//
// The command receives the board and domain in the environment, never as
// flags, so a hostile domain name cannot inject arguments. It prints the
// publisher cost on stdout, or nothing when the domain is not listed.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/shopspring/decimal"
)

const (
	EnvBoardID = "PRICEBOT_BOARD_ID"
	EnvDomain  = "PRICEBOT_DOMAIN"

	waitDelay = 500 * time.Millisecond
)

// Command is an allow-listed executable.
type Command struct {
	Path string
	Args []string
	// Env is appended to the parent environment.
	Env map[string]string
	Dir string
}

// Lookup implements ports.PartitionLookup by executing Command once per call.
type Lookup struct {
	cmd    Command
	logger *slog.Logger
}

type Option func(*Lookup)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lookup) {
		l.logger = logger
	}
}

// New creates a process-backed lookup.
func New(cmd Command, opts ...Option) (*Lookup, error) {
	if strings.TrimSpace(cmd.Path) == "" {
		return nil, errors.New("process: command is required")
	}
	l := &Lookup{cmd: cmd, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Lookup runs the command and parses its output.
// Stdout is either a bare number or a JSON object {"cost": ...}; empty output
// or {"found": false} means the domain is not on the board.
func (l *Lookup) Lookup(ctx context.Context, boardID, domainName string) (decimal.Decimal, error) {
	cmd := exec.CommandContext(ctx, l.cmd.Path, l.cmd.Args...)
	cmd.Dir = l.cmd.Dir
	// Children that inherit stdout would otherwise hold Run open past cancellation.
	cmd.WaitDelay = waitDelay

	env := cmd.Environ()
	for k, v := range l.cmd.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(env, EnvBoardID+"="+boardID, EnvDomain+"="+domainName)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, ctxErr
		}
		return decimal.Zero, fmt.Errorf("process: execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	if stderr.Len() > 0 {
		l.logger.Debug("Lookup command wrote to stderr",
			"board_id", boardID,
			"domain", domainName,
			"stderr", strings.TrimSpace(stderr.String()),
		)
	}
	return parseOutput(stdout.String())
}

func parseOutput(out string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return decimal.Zero, domain.ErrItemNotFound
	}

	if !strings.HasPrefix(trimmed, "{") {
		return pricing.ParseCost(trimmed)
	}

	var res struct {
		Found *bool           `json:"found"`
		Cost  json.RawMessage `json:"cost"`
	}
	if err := json.Unmarshal([]byte(trimmed), &res); err != nil {
		return decimal.Zero, fmt.Errorf("process: invalid JSON output: %w", err)
	}
	if res.Found != nil && !*res.Found {
		return decimal.Zero, domain.ErrItemNotFound
	}
	// Accept both "cost": 120.5 and "cost": "120.5".
	raw := strings.Trim(string(res.Cost), `"`)
	if raw == "null" {
		raw = ""
	}
	return pricing.ParseCost(raw)
}
