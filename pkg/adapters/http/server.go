package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxBodySize bounds POST bodies; the bot rejects long texts anyway.
const maxBodySize = 64 << 10

var loadSpec = sync.OnceValues(func() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI spec: %w", err)
	}
	return doc, nil
})

// Bot handles one chat message.
type Bot interface {
	Handle(ctx context.Context, msg domain.Message) (domain.Reply, error)
}

// Calculator prices a publisher cost without a conversation.
type Calculator interface {
	ComputeFinalPrice(cost decimal.Decimal, languageCode string, wordCount int) decimal.Decimal
}

// Server exposes the bot as a JSON webhook.
type Server struct {
	Bot     Bot
	Calc    Calculator
	Streams *StreamManager

	doc     *openapi3.T
	logger  *slog.Logger
	metrics http.Handler
	version string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// NewHandler creates the HTTP handler for the bot.
func NewHandler(bot Bot, calc Calculator, opts ...Option) (http.Handler, error) {
	doc, err := loadSpec()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Bot:     bot,
		Calc:    calc,
		doc:     doc,
		logger:  logging.NewNop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Post("/messages", s.PostMessage)
	r.Get("/quote", s.GetQuote)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r), nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>pricebot API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// MessageRequest is the body of POST /messages.
type MessageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
	Bot      bool   `json:"bot,omitempty"`
}

// QuoteResponse is the body of GET /quote.
type QuoteResponse struct {
	Language      string `json:"language"`
	PublisherCost string `json:"publisher_cost"`
	Words         int    `json:"words"`
	Price         string `json:"price"`
}

// PostMessage handles the POST /messages request.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body MessageRequest
	if err := s.decodeBody(r, "MessageRequest", &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		s.logger.Warn("PostMessage: Invalid request body", "err", err)
		return
	}

	reply, err := s.Bot.Handle(r.Context(), domain.Message{
		SenderID: body.SenderID,
		Text:     body.Text,
		FromBot:  body.Bot,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "message could not be processed")
		s.logger.Error("PostMessage: Turn failed", "sender_id", body.SenderID, "err", err)
		return
	}

	if reply.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if bytes, err := json.Marshal(reply); err == nil {
		s.Streams.Broadcast(body.SenderID, string(bytes))
	}
	s.writeJSON(w, http.StatusOK, reply)
}

// GetQuote handles the GET /quote request.
func (s *Server) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cost, err := decimal.NewFromString(strings.TrimSpace(q.Get("cost")))
	if err != nil || cost.IsNegative() {
		s.writeError(w, http.StatusBadRequest, "cost must be a non-negative number")
		return
	}

	lang := domain.NormalizeCode(q.Get("lang"))
	if lang == "" {
		s.writeError(w, http.StatusBadRequest, "lang is required")
		return
	}

	words := 0
	if raw := q.Get("words"); raw != "" {
		words, err = strconv.Atoi(raw)
		if err != nil || words < 0 {
			s.writeError(w, http.StatusBadRequest, "words must be a non-negative integer")
			return
		}
	}

	price := s.Calc.ComputeFinalPrice(cost, lang, words)
	s.writeJSON(w, http.StatusOK, QuoteResponse{
		Language:      lang,
		PublisherCost: cost.String(),
		Words:         words,
		Price:         pricing.FormatPrice(price),
	})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	senderID := r.URL.Query().Get("sender_id")
	if senderID == "" {
		s.writeError(w, http.StatusBadRequest, "sender_id is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(senderID)
	defer cancel()

	s.logger.Info("SSE: Subscribed to replies", "sender_id", senderID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "sender_id", senderID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reply\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.doc.Info != nil {
		apiVersion = s.doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "pricebot-http",
		"version":     s.version,
		"api_version": apiVersion,
	})
}

// decodeBody validates the JSON body against a component schema, then
// decodes it into out.
func (s *Server) decodeBody(r *http.Request, schema string, out any) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read body: %w", err)
	}
	if len(raw) > maxBodySize {
		return errors.New("request body too large")
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	ref, ok := s.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %s", schema)
	}
	if err := ref.Value.VisitJSON(generic); err != nil {
		return fmt.Errorf("request does not match %s: %w", schema, err)
	}

	return json.Unmarshal(raw, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
