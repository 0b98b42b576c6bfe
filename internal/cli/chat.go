package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/internal/presentation/tui"
	"github.com/aretw0/pricebot/pkg/domain"
)

// DefaultUserID is the sender used by interactive chats.
const DefaultUserID = "local"

var errInterrupted = errors.New("interrupted")

// Bot handles one chat message.
type Bot interface {
	Handle(ctx context.Context, msg domain.Message) (domain.Reply, error)
}

// ChatOptions configures a Chat loop.
type ChatOptions struct {
	// UserID is the sender of every line in text mode.
	UserID string
	// JSON switches to JSON Lines: one domain.Message in, one reply object out.
	// Lines without a sender_id are sent as UserID.
	JSON bool
	// Render formats replies in text mode. Nil prints them as-is.
	Render tui.Renderer
	// Quiet suppresses the prompt and system messages.
	Quiet  bool
	Logger *slog.Logger
}

type jsonReply struct {
	SenderID string `json:"sender_id,omitempty"`
	Reply    string `json:"reply,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Chat feeds lines from in to the bot until EOF, ctx cancellation or /quit.
func Chat(ctx context.Context, bot Bot, in io.Reader, out io.Writer, opts ChatOptions) error {
	if opts.UserID == "" {
		opts.UserID = DefaultUserID
	}
	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	scanner := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
	enc := json.NewEncoder(out)

	if !opts.JSON && !opts.Quiet {
		printSystemMessage(out, "Chatting as '%s'. Type /quit to leave.", opts.UserID)
	}

	for {
		if !opts.JSON && !opts.Quiet {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return handleInputError(scanner.Err())
		}
		line := scanner.Text()

		if opts.JSON {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := chatJSON(ctx, bot, line, enc, opts); err != nil {
				return handleInputError(err)
			}
			continue
		}

		switch strings.TrimSpace(line) {
		case "/quit", "/exit":
			if !opts.Quiet {
				printSystemMessage(out, "Bye.")
			}
			return nil
		}

		reply, err := bot.Handle(ctx, domain.Message{SenderID: opts.UserID, Text: line})
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			opts.Logger.Error("Turn failed", "user_id", opts.UserID, "err", err)
			printSystemMessage(out, "Message could not be processed: %v", err)
			continue
		}
		if reply.Empty() {
			continue
		}

		rendered, err := opts.Render(reply.Text)
		if err != nil {
			opts.Logger.Warn("Render failed, printing raw reply", "err", err)
			rendered = reply.Text + "\n"
		}
		fmt.Fprint(out, rendered)
	}
}

func chatJSON(ctx context.Context, bot Bot, line string, enc *json.Encoder, opts ChatOptions) error {
	var msg domain.Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return enc.Encode(jsonReply{Error: fmt.Sprintf("invalid JSON: %v", err)})
	}
	if msg.SenderID == "" {
		msg.SenderID = opts.UserID
	}

	reply, err := bot.Handle(ctx, msg)
	if err != nil {
		if isInterrupted(err) {
			return errInterrupted
		}
		opts.Logger.Error("Turn failed", "user_id", msg.SenderID, "err", err)
		return enc.Encode(jsonReply{SenderID: msg.SenderID, Error: "message could not be processed"})
	}
	return enc.Encode(jsonReply{SenderID: msg.SenderID, Reply: reply.Text})
}

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{
		base:   base,
		cancel: cancel,
	}
}

func (r *InterruptibleReader) Read(p []byte) (n int, err error) {
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	// Blocks until the base reader returns.
	n, err = r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, errInterrupted) ||
		errors.Is(err, io.EOF)
}

func handleInputError(err error) error {
	if err == nil || isInterrupted(err) {
		return nil
	}
	return fmt.Errorf("failed to read input: %w", err)
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
