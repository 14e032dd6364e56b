// Package toolserver builds the MCP server that exposes uplift's planning
// and board tools to agent platforms.
//
// Tools are registered with the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk) using typed input/output structs;
// the SDK derives each tool's JSON schema from the struct tags. Handlers
// translate domain errors into tool errors rather than protocol failures, so
// a bad input never tears down the session.
package toolserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/uplift-labs/uplift/internal/board"
	"github.com/uplift-labs/uplift/internal/observe"
	"github.com/uplift-labs/uplift/internal/settings"
)

// serverName and serverVersion identify this MCP server to clients.
const (
	serverName    = "uplift"
	serverVersion = "1.0.0"
)

// defaultAccountID is used when a tool call names no account. Stdio
// deployments are single-tenant, so most callers never set one.
const defaultAccountID = "default"

// BoardAPI is the subset of the work-management client the tools use.
// *board.Client satisfies this interface.
type BoardAPI interface {
	ListBoards(ctx context.Context, limit int) ([]board.Board, error)
	GetBoard(ctx context.Context, id string) (*board.Board, error)
	CreateItem(ctx context.Context, boardID, name string, columnValues map[string]any) (string, error)
	ChangeColumnValues(ctx context.Context, boardID, itemID string, columnValues map[string]any) error
	ListItems(ctx context.Context, boardID string, limit int) ([]board.Item, error)
	DeleteItem(ctx context.Context, itemID string) error
	CreateColumn(ctx context.Context, boardID, title, columnType string) (*board.Column, error)
	GetOrCreateTag(ctx context.Context, boardID, name string) (*board.Tag, error)
	AddFileToColumn(ctx context.Context, itemID, columnID, filename string, r io.Reader) (string, error)
}

// ClientFactory builds a [BoardAPI] for an account's API token. The default
// factory constructs a [board.Client]; tests substitute fakes.
type ClientFactory func(token string) (BoardAPI, error)

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithClientFactory replaces the board client factory.
func WithClientFactory(f ClientFactory) Option {
	return func(s *Server) {
		s.newClient = f
	}
}

// WithMetrics sets the metrics instance handlers record to.
// Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// Server holds the shared state behind all tool handlers.
type Server struct {
	store     settings.Store
	newClient ClientFactory
	metrics   *observe.Metrics
}

// New creates a [Server] backed by the given settings store.
func New(store settings.Store, opts ...Option) *Server {
	s := &Server{
		store: store,
		newClient: func(token string) (BoardAPI, error) {
			return board.New(token)
		},
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// MCPServer builds the MCP server with every tool registered.
func (s *Server) MCPServer() *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "estimate_sample_size",
		Description: "Estimate the per-variant sample size and test duration for an A/B test " +
			"on a conversion metric, given a baseline rate, a relative minimum detectable " +
			"effect, and a confidence level in percent.",
	}, s.estimateSampleSize)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "connect_account",
		Description: "Store the work-management API token (and optional default board) for an account.",
	}, s.connectAccount)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "disconnect_account",
		Description: "Remove all stored settings for an account.",
	}, s.disconnectAccount)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_boards",
		Description: "List boards visible to the connected account.",
	}, s.listBoards)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "get_board",
		Description: "Fetch a board with its full column schema.",
	}, s.getBoard)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_item",
		Description: "Create an item on a board. Column values are keyed by column ID and formatted per the column's type.",
	}, s.createItem)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "update_item",
		Description: "Overwrite column values of an existing item.",
	}, s.updateItem)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_items",
		Description: "List items on a board.",
	}, s.listItems)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_item",
		Description: "Delete an item.",
	}, s.deleteItem)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_column",
		Description: "Add a column of a given type to a board.",
	}, s.createColumn)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "create_tag",
		Description: "Resolve a tag name to its ID on a board, creating it when missing.",
	}, s.createTag)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "upload_file",
		Description: "Upload a base64-encoded file into a file column of an item.",
	}, s.uploadFile)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "push_research",
		Description: "Map a generic research record onto a board's column schema and create " +
			"an item for it. Field names are matched to column titles, exactly first and " +
			"fuzzily as a fallback.",
	}, s.pushResearch)

	return srv
}

// clientFor resolves the account's stored token into a board client.
func (s *Server) clientFor(ctx context.Context, accountID string) (BoardAPI, error) {
	token, err := s.store.Get(ctx, accountID, settings.KeyAPIToken)
	if errors.Is(err, settings.ErrNotFound) {
		return nil, fmt.Errorf("account %q is not connected; call connect_account first", accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("load settings for account %q: %w", accountID, err)
	}
	return s.newClient(token)
}

// account normalises an optional account ID input.
func account(id string) string {
	if id == "" {
		return defaultAccountID
	}
	return id
}

// observeTool returns a func to defer that records call count and duration
// for one tool invocation.
func (s *Server) observeTool(ctx context.Context, tool string, start time.Time, errp *error) {
	status := "ok"
	if *errp != nil {
		status = "error"
	}
	s.metrics.RecordToolCall(ctx, tool, status)
	s.metrics.ToolDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("tool", tool)))
}

// observeBoardCall records latency and, on failure, the error counter for
// one upstream board-API request.
func (s *Server) observeBoardCall(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.RecordBoardAPICall(ctx, op, time.Since(start), err)
}
