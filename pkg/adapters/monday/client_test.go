package monday_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/pricebot/pkg/adapters/monday"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/ports/tests"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// fakeMonday serves boards as board ID -> item name -> cost cell text.
func fakeMonday(t *testing.T, boards map[string]map[string]string) (*httptest.Server, *[]fakeRequest) {
	t.Helper()
	var seen []fakeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2023-10", r.Header.Get("API-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req fakeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)

		if strings.Contains(req.Query, "me {") {
			fmt.Fprint(w, `{"data":{"me":{"id":42,"name":"Sales Bot"}}}`)
			return
		}

		board, _ := req.Variables["board"].(string)
		values, _ := req.Variables["values"].([]any)
		name, _ := values[0].(string)

		items := []map[string]any{}
		if cost, ok := boards[board][name]; ok {
			items = append(items, map[string]any{
				"id":            "1001",
				"name":          name,
				"column_values": []map[string]any{{"text": cost}},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"items_page_by_column_values": map[string]any{"items": items},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClient_Contract(t *testing.T) {
	srv, _ := fakeMonday(t, map[string]map[string]string{
		"391082834":  {"acme.com": "350"},
		"2698281907": {"acme.com": "120.5", "blog.example.org": "80 €"},
	})
	client := monday.New("secret-token", monday.WithURL(srv.URL))

	tests.PartitionLookupContractTest(t, client, map[string]map[string]string{
		"391082834":  {"acme.com": "350"},
		"2698281907": {"acme.com": "120.5", "blog.example.org": "80"},
	})
}

func TestClient_SendsDomainAsVariable(t *testing.T) {
	srv, seen := fakeMonday(t, nil)
	client := monday.New("secret-token", monday.WithURL(srv.URL), monday.WithCostColumn("numbers"))

	_, err := client.Lookup(context.Background(), "169441688", `evil"] } } }`)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	assert.NotContains(t, req.Query, "evil")
	assert.Equal(t, "169441688", req.Variables["board"])
	assert.Equal(t, []any{`evil"] } } }`}, req.Variables["values"])
	assert.Equal(t, []any{"numbers"}, req.Variables["columns"])
	assert.Contains(t, req.Query, "limit: 50")
}

func TestClient_EmptyCostCellIsZero(t *testing.T) {
	srv, _ := fakeMonday(t, map[string]map[string]string{"1": {"free.com": ""}})
	client := monday.New("secret-token", monday.WithURL(srv.URL))

	cost, err := client.Lookup(context.Background(), "1", "free.com")
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestClient_InvalidCost(t *testing.T) {
	srv, _ := fakeMonday(t, map[string]map[string]string{"1": {"odd.com": "call us"}})
	client := monday.New("secret-token", monday.WithURL(srv.URL))

	_, err := client.Lookup(context.Background(), "1", "odd.com")
	assert.ErrorIs(t, err, pricing.ErrInvalidCost)
}

func TestClient_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"Board not found"}],"data":null}`)
	}))
	defer srv.Close()

	_, err := monday.New("t", monday.WithURL(srv.URL)).Lookup(context.Background(), "1", "acme.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrItemNotFound)
	assert.Contains(t, err.Error(), "Board not found")
}

func TestClient_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := monday.New("t", monday.WithURL(srv.URL)).Lookup(context.Background(), "1", "acme.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := monday.New("t", monday.WithURL(srv.URL),
		monday.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	_, err := client.Lookup(context.Background(), "1", "acme.com")
	assert.Error(t, err)
}

func TestClient_Ping(t *testing.T) {
	srv, _ := fakeMonday(t, nil)
	name, err := monday.New("secret-token", monday.WithURL(srv.URL)).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sales Bot", name)
}
