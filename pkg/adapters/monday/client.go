// Package monday looks up publisher costs on monday.com boards.
//
// Each board is a partition: items are named after the domain they list and
// carry the publisher cost in a text column.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/pricebot/internal/logging"
	"github.com/aretw0/pricebot/pkg/domain"
	"github.com/aretw0/pricebot/pkg/pricing"
	"github.com/shopspring/decimal"
)

const (
	DefaultURL        = "https://api.monday.com/v2"
	DefaultAPIVersion = "2023-10"
	DefaultCostColumn = "_"
	DefaultTimeout    = 10 * time.Second

	// pageLimit bounds the items returned per board; only the first is used.
	pageLimit = 50
)

const itemsQuery = `query ($board: ID!, $values: [String]!, $columns: [String!]) {
  items_page_by_column_values(
    limit: %d,
    board_id: $board,
    columns: [{column_id: "name", column_values: $values}]
  ) {
    items {
      id
      name
      column_values(ids: $columns) {
        text
      }
    }
  }
}`

const meQuery = `query { me { id name } }`

// Client is a ports.PartitionLookup backed by the monday.com GraphQL API.
type Client struct {
	url        string
	apiVersion string
	token      string
	costColumn string
	http       *http.Client
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithURL overrides the API endpoint.
func WithURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.url = url
		}
	}
}

// WithAPIVersion sets the API-version header.
func WithAPIVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.apiVersion = v
		}
	}
}

// WithCostColumn selects the column holding the publisher cost.
func WithCostColumn(id string) Option {
	return func(c *Client) {
		if id != "" {
			c.costColumn = id
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client authenticating with the given API token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		url:        DefaultURL,
		apiVersion: DefaultAPIVersion,
		token:      token,
		costColumn: DefaultCostColumn,
		http:       &http.Client{Timeout: DefaultTimeout},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
	// Older API versions report failures at the top level.
	ErrorMessage string `json:"error_message"`
}

type itemsPageData struct {
	Page *struct {
		Items []struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			ColumnValues []struct {
				Text *string `json:"text"`
			} `json:"column_values"`
		} `json:"items"`
	} `json:"items_page_by_column_values"`
}

// Lookup returns the publisher cost of domainName on the given board, or
// domain.ErrItemNotFound when the board does not list it.
func (c *Client) Lookup(ctx context.Context, boardID, domainName string) (decimal.Decimal, error) {
	var data itemsPageData
	err := c.do(ctx, fmt.Sprintf(itemsQuery, pageLimit), map[string]any{
		"board":   boardID,
		"values":  []string{domainName},
		"columns": []string{c.costColumn},
	}, &data)
	if err != nil {
		return decimal.Zero, fmt.Errorf("board %s: %w", boardID, err)
	}

	if data.Page == nil || len(data.Page.Items) == 0 {
		return decimal.Zero, domain.ErrItemNotFound
	}

	item := data.Page.Items[0]
	var text string
	for _, cv := range item.ColumnValues {
		if cv.Text != nil {
			text = *cv.Text
			break
		}
	}

	cost, err := pricing.ParseCost(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("board %s item %s: %w", boardID, item.ID, err)
	}
	c.logger.Debug("Found domain on board", "board", boardID, "domain", domainName, "cost", cost.String())
	return cost, nil
}

// Ping checks that the token is accepted and returns the account user name.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var data struct {
		Me *struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		} `json:"me"`
	}
	if err := c.do(ctx, meQuery, nil, &data); err != nil {
		return "", err
	}
	if data.Me == nil {
		return "", errors.New("monday: empty me response")
	}
	return data.Me.Name, nil
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	req.Header.Set("API-version", c.apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("monday: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var gr graphQLResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("monday: %s", strings.Join(msgs, "; "))
	}
	if gr.ErrorMessage != "" {
		return fmt.Errorf("monday: %s", gr.ErrorMessage)
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return errors.New("monday: response has no data")
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}
