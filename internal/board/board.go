// Package board wraps the work-management platform's GraphQL API: boards,
// items, columns, tags, and file columns.
//
// The API is a single POST endpoint accepting {"query": ..., "variables": ...}
// envelopes with token authentication. Structured column values are encoded
// per column type by [ColumnValue]; everything else is plain request/response
// plumbing with wrapped errors.
package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/uplift-labs/uplift/internal/resilience"
)

const (
	defaultEndpoint     = "https://api.monday.com/v2"
	defaultFileEndpoint = "https://api.monday.com/v2/file"
	apiVersion          = "2024-10"
)

// ErrNotFound is returned when the API reports no board, item, or tag for the
// requested identifier.
var ErrNotFound = errors.New("board: not found")

// APIError is a structured error returned by the platform, either as a
// GraphQL errors array or as a non-2xx HTTP status.
type APIError struct {
	StatusCode int
	Messages   []string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("board: api error (status %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("board: api error (status %d)", e.StatusCode)
}

// Board is a work board with its column schema.
type Board struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []Column `json:"columns"`
}

// Column is one column of a board's schema.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Item is a row on a board.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is a board-scoped label that tag columns reference by ID.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint. Useful for tests and
// self-hosted deployments.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithFileEndpoint overrides the multipart file-upload endpoint.
func WithFileEndpoint(url string) Option {
	return func(c *Client) {
		c.fileEndpoint = url
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client issues authenticated requests against the work-management API.
// It is safe for concurrent use.
type Client struct {
	token        string
	endpoint     string
	fileEndpoint string
	httpClient   *http.Client
	breaker      *resilience.CircuitBreaker
}

// New creates a [Client]. token must be non-empty.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("board: token must not be empty")
	}
	c := &Client{
		token:        token,
		endpoint:     defaultEndpoint,
		fileEndpoint: defaultFileEndpoint,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		breaker:      resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "board_api"}),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// do executes the HTTP request through the circuit breaker. Transport
// failures and 5xx responses count against the breaker; API-level errors in
// a 2xx/4xx body do not, so a stream of bad inputs never trips it.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	err := c.breaker.Execute(func() error {
		var derr error
		resp, derr = c.httpClient.Do(req)
		if derr != nil {
			return derr
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	})
	if resp == nil && err != nil {
		return nil, err
	}
	return resp, nil
}

// envelope is the GraphQL response wrapper.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ErrorMessage string `json:"error_message"`
}

// query posts a GraphQL document and decodes the data payload into out.
func (c *Client) query(ctx context.Context, document string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     document,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("board: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("board: build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("board: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("board: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("board: decode response (status %d): %w", resp.StatusCode, err)
	}

	if len(env.Errors) > 0 || env.ErrorMessage != "" || resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		for _, e := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
		if env.ErrorMessage != "" {
			apiErr.Messages = append(apiErr.Messages, env.ErrorMessage)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("board: decode data: %w", err)
		}
	}
	return nil
}

// ListBoards returns up to limit boards visible to the token, newest first.
func (c *Client) ListBoards(ctx context.Context, limit int) ([]Board, error) {
	if limit <= 0 {
		limit = 25
	}
	var data struct {
		Boards []Board `json:"boards"`
	}
	err := c.query(ctx, `query ($limit: Int!) {
		boards(limit: $limit, order_by: created_at) { id name description }
	}`, map[string]any{"limit": limit}, &data)
	if err != nil {
		return nil, fmt.Errorf("board: list boards: %w", err)
	}
	return data.Boards, nil
}

// GetBoard returns the board with its full column schema.
// Returns [ErrNotFound] when the board does not exist or is not visible.
func (c *Client) GetBoard(ctx context.Context, id string) (*Board, error) {
	var data struct {
		Boards []Board `json:"boards"`
	}
	err := c.query(ctx, `query ($ids: [ID!]) {
		boards(ids: $ids) { id name description columns { id title type } }
	}`, map[string]any{"ids": []string{id}}, &data)
	if err != nil {
		return nil, fmt.Errorf("board: get board %s: %w", id, err)
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("board: get board %s: %w", id, ErrNotFound)
	}
	return &data.Boards[0], nil
}

// CreateItem creates a new item on the board with the given column values.
// columnValues maps column IDs to API-formatted values (see [ColumnValue]);
// it may be nil for an item with only a name. Returns the new item's ID.
func (c *Client) CreateItem(ctx context.Context, boardID, name string, columnValues map[string]any) (string, error) {
	encoded, err := encodeColumnValues(columnValues)
	if err != nil {
		return "", fmt.Errorf("board: create item: %w", err)
	}
	var data struct {
		CreateItem Item `json:"create_item"`
	}
	err = c.query(ctx, `mutation ($board: ID!, $name: String!, $values: JSON) {
		create_item(board_id: $board, item_name: $name, column_values: $values) { id name }
	}`, map[string]any{"board": boardID, "name": name, "values": encoded}, &data)
	if err != nil {
		return "", fmt.Errorf("board: create item on %s: %w", boardID, err)
	}
	return data.CreateItem.ID, nil
}

// ChangeColumnValues overwrites the given columns of an existing item.
func (c *Client) ChangeColumnValues(ctx context.Context, boardID, itemID string, columnValues map[string]any) error {
	encoded, err := encodeColumnValues(columnValues)
	if err != nil {
		return fmt.Errorf("board: change column values: %w", err)
	}
	err = c.query(ctx, `mutation ($board: ID!, $item: ID!, $values: JSON!) {
		change_multiple_column_values(board_id: $board, item_id: $item, column_values: $values) { id }
	}`, map[string]any{"board": boardID, "item": itemID, "values": encoded}, nil)
	if err != nil {
		return fmt.Errorf("board: change column values on item %s: %w", itemID, err)
	}
	return nil
}

// ListItems returns up to limit items of a board.
func (c *Client) ListItems(ctx context.Context, boardID string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 100
	}
	var data struct {
		Boards []struct {
			ItemsPage struct {
				Items []Item `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	}
	err := c.query(ctx, `query ($ids: [ID!], $limit: Int!) {
		boards(ids: $ids) { items_page(limit: $limit) { items { id name } } }
	}`, map[string]any{"ids": []string{boardID}, "limit": limit}, &data)
	if err != nil {
		return nil, fmt.Errorf("board: list items of %s: %w", boardID, err)
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("board: list items of %s: %w", boardID, ErrNotFound)
	}
	return data.Boards[0].ItemsPage.Items, nil
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	err := c.query(ctx, `mutation ($item: ID!) {
		delete_item(item_id: $item) { id }
	}`, map[string]any{"item": itemID}, nil)
	if err != nil {
		return fmt.Errorf("board: delete item %s: %w", itemID, err)
	}
	return nil
}

// CreateColumn adds a column of the given type to a board.
func (c *Client) CreateColumn(ctx context.Context, boardID, title, columnType string) (*Column, error) {
	var data struct {
		CreateColumn Column `json:"create_column"`
	}
	err := c.query(ctx, `mutation ($board: ID!, $title: String!, $type: ColumnType!) {
		create_column(board_id: $board, title: $title, column_type: $type) { id title type }
	}`, map[string]any{"board": boardID, "title": title, "type": columnType}, &data)
	if err != nil {
		return nil, fmt.Errorf("board: create column %q on %s: %w", title, boardID, err)
	}
	return &data.CreateColumn, nil
}

// GetOrCreateTag resolves a tag name to its ID, creating the tag on the board
// when it does not exist yet.
func (c *Client) GetOrCreateTag(ctx context.Context, boardID, name string) (*Tag, error) {
	var data struct {
		Tag Tag `json:"create_or_get_tag"`
	}
	err := c.query(ctx, `mutation ($board: ID!, $name: String!) {
		create_or_get_tag(board_id: $board, tag_name: $name) { id name color }
	}`, map[string]any{"board": boardID, "name": name}, &data)
	if err != nil {
		return nil, fmt.Errorf("board: get or create tag %q on %s: %w", name, boardID, err)
	}
	if data.Tag.ID == "" {
		return nil, fmt.Errorf("board: get or create tag %q on %s: %w", name, boardID, ErrNotFound)
	}
	return &data.Tag, nil
}

// AddFileToColumn uploads a file into a file column of an item via the
// multipart upload endpoint. Returns the asset ID of the stored file.
func (c *Client) AddFileToColumn(ctx context.Context, itemID, columnID, filename string, r io.Reader) (string, error) {
	var buf strings.Builder
	w := multipart.NewWriter(&buf)

	document := fmt.Sprintf(`mutation ($file: File!) {
		add_file_to_column(item_id: %s, column_id: %q, file: $file) { id }
	}`, itemID, columnID)
	if err := w.WriteField("query", document); err != nil {
		return "", fmt.Errorf("board: upload file: %w", err)
	}
	part, err := w.CreateFormFile("variables[file]", filename)
	if err != nil {
		return "", fmt.Errorf("board: upload file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("board: upload file: read %q: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("board: upload file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.fileEndpoint, strings.NewReader(buf.String()))
	if err != nil {
		return "", fmt.Errorf("board: upload file: build request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("board: upload file: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("board: upload file: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("board: upload file: decode response (status %d): %w", resp.StatusCode, err)
	}
	if len(env.Errors) > 0 || resp.StatusCode/100 != 2 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		for _, e := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
		return "", apiErr
	}

	var data struct {
		AddFile struct {
			ID string `json:"id"`
		} `json:"add_file_to_column"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("board: upload file: decode data: %w", err)
	}
	return data.AddFile.ID, nil
}

// encodeColumnValues serialises a column-values map to the JSON string the
// mutation variables expect. A nil map encodes as nil so the variable is
// omitted server-side.
func encodeColumnValues(values map[string]any) (any, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal column values: %w", err)
	}
	return string(raw), nil
}
