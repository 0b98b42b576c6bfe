package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const partitionsURI = "pricebot://partitions"

// Bot handles one chat message.
type Bot interface {
	CleanInput(text string) (string, error)
	Handle(ctx context.Context, msg domain.Message) (domain.Reply, error)
}

// Searcher finds the partitions listing a domain.
type Searcher interface {
	Search(ctx context.Context, domainName string) []domain.Match
	Partitions() []domain.Partition
}

// Calculator prices a publisher cost.
type Calculator interface {
	ComputeFinalPrice(cost decimal.Decimal, languageCode string, wordCount int) decimal.Decimal
}

type SearchArgs struct {
	Domain string `json:"domain"`
}

type SearchResponse struct {
	Domain  string         `json:"domain" jsonschema_description:"The searched domain"`
	Matches []domain.Match `json:"matches" jsonschema_description:"Boards listing the domain, in partition order"`
}

type QuoteArgs struct {
	Cost     string `json:"cost"`
	Language string `json:"language"`
	Words    int    `json:"words,omitempty"`
}

type QuoteResponse struct {
	Language      string `json:"language" jsonschema_description:"Normalized language code"`
	PublisherCost string `json:"publisher_cost" jsonschema_description:"Publisher cost used for the quote"`
	Words         int    `json:"words" jsonschema_description:"Copywriting word count, zero when not included"`
	Price         string `json:"price" jsonschema_description:"Final price in euros"`
}

type ChatArgs struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

type ChatResponse struct {
	Reply string `json:"reply" jsonschema_description:"Bot reply; empty when the bot has nothing to say"`
}

// Server exposes the quote workflow as MCP tools.
type Server struct {
	bot       Bot
	searcher  Searcher
	calc      Calculator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer registers the tools and resources.
func NewServer(bot Bot, searcher Searcher, calc Calculator, version string, opts ...Option) *Server {
	s := &Server{
		bot:       bot,
		searcher:  searcher,
		calc:      calc,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("pricebot-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on stdin/stdout until EOF.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over HTTP server-sent events until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	searchTool := mcp.NewTool("search_domain",
		mcp.WithDescription("Find every board that lists a publisher domain and its publisher cost."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain name, e.g. acme.com")),
		mcp.WithOutputSchema[SearchResponse](),
	)
	s.mcpServer.AddTool(searchTool, mcp.NewStructuredToolHandler(s.handleSearch))

	quoteTool := mcp.NewTool("quote_price",
		mcp.WithDescription("Compute the final price for a publisher cost, language and optional copywriting."),
		mcp.WithString("cost", mcp.Required(), mcp.Description("Publisher cost in euros, e.g. 350 or 120.5")),
		mcp.WithString("language", mcp.Required(), mcp.Description("Language code, e.g. EN")),
		mcp.WithNumber("words", mcp.Description("Article word count when copywriting is included")),
		mcp.WithOutputSchema[QuoteResponse](),
	)
	s.mcpServer.AddTool(quoteTool, mcp.NewStructuredToolHandler(s.handleQuote))

	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send one chat message to the quote bot as the given sender, e.g. \"/price acme.com\"."),
		mcp.WithString("sender_id", mcp.Required(), mcp.Description("Stable identifier of the chat user")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		mcp.WithOutputSchema[ChatResponse](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest, args SearchArgs) (SearchResponse, error) {
	if args.Domain == "" {
		return SearchResponse{}, errors.New("domain is required")
	}
	matches := s.searcher.Search(ctx, args.Domain)
	if matches == nil {
		matches = []domain.Match{}
	}
	return SearchResponse{Domain: args.Domain, Matches: matches}, nil
}

func (s *Server) handleQuote(ctx context.Context, request mcp.CallToolRequest, args QuoteArgs) (QuoteResponse, error) {
	cost, err := decimal.NewFromString(args.Cost)
	if err != nil || cost.IsNegative() {
		return QuoteResponse{}, fmt.Errorf("cost must be a non-negative number, got %q", args.Cost)
	}
	lang := domain.NormalizeCode(args.Language)
	if lang == "" {
		return QuoteResponse{}, errors.New("language is required")
	}
	if args.Words < 0 {
		return QuoteResponse{}, errors.New("words must not be negative")
	}

	price := s.calc.ComputeFinalPrice(cost, lang, args.Words)
	return QuoteResponse{
		Language:      lang,
		PublisherCost: cost.String(),
		Words:         args.Words,
		Price:         pricing.FormatPrice(price),
	}, nil
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (ChatResponse, error) {
	clean, err := s.bot.CleanInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP Chat: Input rejected", "err", err, "size", len(args.Text))
		return ChatResponse{}, fmt.Errorf("input rejected: %w", err)
	}

	reply, err := s.bot.Handle(ctx, domain.Message{SenderID: args.SenderID, Text: clean})
	if err != nil {
		s.logger.Error("MCP Chat: Turn failed", "sender_id", args.SenderID, "err", err)
		return ChatResponse{}, errors.New("message could not be processed")
	}
	return ChatResponse{Reply: reply.Text}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(partitionsURI, "Partition table",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.searcher.Partitions())
		if err != nil {
			return nil, fmt.Errorf("failed to encode partitions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      partitionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
