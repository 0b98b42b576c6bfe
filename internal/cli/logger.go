package cli

import (
	"io"
	"log/slog"

	"github.com/aretw0/pricebot/internal/logging"
)

// NewLogger builds the process logger. Text goes to stderr so stdout stays
// free for chat output; JSON is meant for servers.
func NewLogger(level string, json bool, w io.Writer) (*slog.Logger, error) {
	if level == "off" || level == "none" {
		return logging.NewNop(), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if json {
		return logging.NewJSON(w, lvl), nil
	}
	return logging.New(lvl), nil
}
