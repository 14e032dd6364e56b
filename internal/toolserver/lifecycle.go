package toolserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uplift-labs/uplift/internal/observe"
	"github.com/uplift-labs/uplift/internal/settings"
)

// ConnectInput is the connect_account tool input.
type ConnectInput struct {
	// AccountID identifies the tenant. Optional for single-tenant (stdio)
	// deployments.
	AccountID string `json:"account_id,omitempty"`

	// APIToken is the work-management API token to store.
	APIToken string `json:"api_token"`

	// DefaultBoard is the board research records go to when a call names
	// none. Optional.
	DefaultBoard string `json:"default_board,omitempty"`
}

// ConnectOutput is the connect_account tool output.
type ConnectOutput struct {
	AccountID string `json:"account_id"`
}

// connectAccount is the install hook: it verifies the token against the API
// and persists the account's settings.
func (s *Server) connectAccount(ctx context.Context, req *mcp.CallToolRequest, in ConnectInput) (res *mcp.CallToolResult, out ConnectOutput, err error) {
	defer s.observeTool(ctx, "connect_account", time.Now(), &err)

	if in.APIToken == "" {
		err = errors.New("api_token must not be empty")
		return nil, ConnectOutput{}, err
	}
	acct := account(in.AccountID)

	// Reject tokens the API does not accept before storing them.
	client, cerr := s.newClient(in.APIToken)
	if cerr != nil {
		err = fmt.Errorf("build client: %w", cerr)
		return nil, ConnectOutput{}, err
	}
	call := time.Now()
	_, lerr := client.ListBoards(ctx, 1)
	s.observeBoardCall(ctx, "list_boards", call, lerr)
	if lerr != nil {
		err = fmt.Errorf("token rejected by the work-management API: %w", lerr)
		return nil, ConnectOutput{}, err
	}

	if serr := s.store.Set(ctx, acct, settings.KeyAPIToken, in.APIToken); serr != nil {
		err = serr
		return nil, ConnectOutput{}, err
	}
	if in.DefaultBoard != "" {
		if serr := s.store.Set(ctx, acct, settings.KeyDefaultBoard, in.DefaultBoard); serr != nil {
			err = serr
			return nil, ConnectOutput{}, err
		}
	}

	observe.Logger(ctx).Info("account connected", "account_id", acct)
	return nil, ConnectOutput{AccountID: acct}, nil
}

// DisconnectInput is the disconnect_account tool input.
type DisconnectInput struct {
	AccountID string `json:"account_id,omitempty"`
}

// DisconnectOutput is the disconnect_account tool output.
type DisconnectOutput struct {
	AccountID string `json:"account_id"`
}

// disconnectAccount is the uninstall hook: it purges every stored setting
// for the account, including its API token.
func (s *Server) disconnectAccount(ctx context.Context, req *mcp.CallToolRequest, in DisconnectInput) (res *mcp.CallToolResult, out DisconnectOutput, err error) {
	defer s.observeTool(ctx, "disconnect_account", time.Now(), &err)

	acct := account(in.AccountID)
	if err = s.store.PurgeAccount(ctx, acct); err != nil {
		return nil, DisconnectOutput{}, err
	}

	observe.Logger(ctx).Info("account disconnected", "account_id", acct)
	return nil, DisconnectOutput{AccountID: acct}, nil
}
