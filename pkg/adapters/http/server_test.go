package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pricebot/pkg/adapters/memory"
	"github.com/aretw0/pricebot/pkg/conversation"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/aretw0/pricebot/pkg/search"
	"github.com/aretw0/pricebot/pkg/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBot struct {
	reply domain.Reply
	err   error
	got   []domain.Message
}

func (b *stubBot) Handle(ctx context.Context, msg domain.Message) (domain.Reply, error) {
	b.got = append(b.got, msg)
	return b.reply, b.err
}

func newTestHandler(t *testing.T, bot Bot, opts ...Option) http.Handler {
	t.Helper()
	h, err := NewHandler(bot, pricing.Default(), opts...)
	require.NoError(t, err)
	return h
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestPostMessage_Conversation(t *testing.T) {
	boards := memory.NewBoards().Add("391082834", "acme.com", decimal.NewFromInt(350))
	bot := conversation.New(
		session.NewManager(memory.NewStore()),
		search.New([]domain.Partition{{LanguageCode: "EN", ID: "391082834"}}, boards),
		pricing.Default(),
	)
	h := newTestHandler(t, bot)

	w := post(h, `{"sender_id":"u1","text":"/price acme.com"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Found domain: **acme.com**")

	w = post(h, `{"sender_id":"u1","text":"en"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = post(h, `{"sender_id":"u1","text":"no"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var reply domain.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "Final price = **467.0€**", reply.Text)

	w = post(h, `{"sender_id":"u1","text":"hello again"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPostMessage_PassesBotFlag(t *testing.T) {
	bot := &stubBot{}
	h := newTestHandler(t, bot)

	w := post(h, `{"sender_id":"b1","text":"/price acme.com","bot":true}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, bot.got, 1)
	assert.True(t, bot.got[0].FromBot)
}

func TestPostMessage_SchemaValidation(t *testing.T) {
	bot := &stubBot{reply: domain.Reply{Text: "hi"}}
	h := newTestHandler(t, bot)

	cases := map[string]string{
		"not json":        `/price acme.com`,
		"missing sender":  `{"text":"hi"}`,
		"empty sender":    `{"sender_id":"","text":"hi"}`,
		"wrong type":      `{"sender_id":"u1","text":42}`,
		"unknown field":   `{"sender_id":"u1","text":"hi","channel":"x"}`,
		"top-level array": `[]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := post(h, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
	assert.Empty(t, bot.got, "invalid requests never reach the bot")
}

func TestPostMessage_TooLarge(t *testing.T) {
	h := newTestHandler(t, &stubBot{})
	body := `{"sender_id":"u1","text":"` + strings.Repeat("a", maxBodySize) + `"}`

	w := post(h, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostMessage_TurnFailure(t *testing.T) {
	h := newTestHandler(t, &stubBot{err: errors.New("redis down")})

	w := post(h, `{"sender_id":"u1","text":"EN"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "redis down")
}

func TestGetQuote(t *testing.T) {
	h := newTestHandler(t, &stubBot{})

	w := get(h, "/quote?cost=400&lang=de&words=100")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var q QuoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, QuoteResponse{Language: "DE", PublisherCost: "400", Words: 100, Price: "525.0"}, q)

	w = get(h, "/quote?cost=350&lang=EN")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":"467.0"`)
}

func TestGetQuote_InvalidParams(t *testing.T) {
	h := newTestHandler(t, &stubBot{})

	for _, target := range []string{
		"/quote?lang=EN",
		"/quote?cost=abc&lang=EN",
		"/quote?cost=-1&lang=EN",
		"/quote?cost=100",
		"/quote?cost=100&lang=EN&words=-5",
		"/quote?cost=100&lang=EN&words=many",
	} {
		t.Run(target, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, get(h, target).Code)
		})
	}
}

func TestHealthInfoAndSpec(t *testing.T) {
	h := newTestHandler(t, &stubBot{}, WithVersion("1.2.3\n"))

	assert.Equal(t, http.StatusOK, get(h, "/health").Code)

	w := get(h, "/info")
	assert.JSONEq(t, `{"app":"pricebot-http","version":"1.2.3","api_version":"1.0.0"}`, w.Body.String())

	w = get(h, "/openapi.yaml")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "MessageRequest")

	assert.Equal(t, http.StatusNotFound, get(h, "/metrics").Code, "metrics are opt-in")
}

func TestMetricsHandler(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pricebot_quotes_total 1\n"))
	})
	h := newTestHandler(t, &stubBot{}, WithMetricsHandler(metrics))

	w := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pricebot_quotes_total")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, &stubBot{})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/messages", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents_RequiresSender(t *testing.T) {
	h := newTestHandler(t, &stubBot{})
	assert.Equal(t, http.StatusBadRequest, get(h, "/events").Code)
}

func TestSubscribeEvents_StreamsReplies(t *testing.T) {
	bot := &stubBot{reply: domain.Reply{Text: "Final price = **467.0€**"}}
	handler, err := NewHandler(bot, pricing.Default())
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?sender_id=u1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := make(chan string, 16)
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				lines <- string(buf[:n])
			}
			if err != nil {
				close(lines)
				return
			}
		}
	}()

	waitFor := func(substr string) {
		t.Helper()
		var seen strings.Builder
		deadline := time.After(2 * time.Second)
		for {
			select {
			case chunk, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q; got %q", substr, seen.String())
				}
				seen.WriteString(chunk)
				if strings.Contains(seen.String(), substr) {
					return
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %q; got %q", substr, seen.String())
			}
		}
	}

	waitFor("event: ping")

	// Replies to other senders are not streamed to u1.
	require.Equal(t, http.StatusOK, postTo(t, srv.URL, `{"sender_id":"u2","text":"no"}`))
	require.Equal(t, http.StatusOK, postTo(t, srv.URL, `{"sender_id":"u1","text":"no"}`))

	waitFor(`event: reply`)
}

func postTo(t *testing.T, base, body string) int {
	t.Helper()
	resp, err := http.Post(base+"/messages", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}
