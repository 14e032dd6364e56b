package toolserver

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uplift-labs/uplift/internal/observe"
	"github.com/uplift-labs/uplift/internal/research"
	"github.com/uplift-labs/uplift/internal/settings"
)

// PushResearchInput is the push_research tool input.
type PushResearchInput struct {
	AccountID string `json:"account_id,omitempty"`

	// BoardID names the target board. When empty, the account's stored
	// default board is used.
	BoardID string `json:"board_id,omitempty"`

	Record research.Record `json:"record"`
}

// PushResearchOutput is the push_research tool output.
type PushResearchOutput struct {
	ItemID  string `json:"item_id"`
	BoardID string `json:"board_id"`

	// Leftovers lists record fields that matched no column and could not be
	// folded into a long-text column, as "Field: value" descriptions.
	Leftovers []string `json:"leftovers,omitempty"`
}

func (s *Server) pushResearch(ctx context.Context, req *mcp.CallToolRequest, in PushResearchInput) (res *mcp.CallToolResult, out PushResearchOutput, err error) {
	defer s.observeTool(ctx, "push_research", time.Now(), &err)

	acct := account(in.AccountID)
	boardID, err := s.resolveBoard(ctx, acct, in.BoardID)
	if err != nil {
		return nil, PushResearchOutput{}, err
	}
	client, err := s.clientFor(ctx, acct)
	if err != nil {
		return nil, PushResearchOutput{}, err
	}

	call := time.Now()
	b, err := client.GetBoard(ctx, boardID)
	s.observeBoardCall(ctx, "get_board", call, err)
	if err != nil {
		return nil, PushResearchOutput{}, err
	}
	tr := research.NewTransformer(b.Columns)

	// Resolve tag names to board tag IDs before transforming, but only when
	// the schema can hold them; otherwise the tags fall through to leftovers.
	var tagIDs []string
	if len(in.Record.Tags) > 0 && tr.TagsColumn() != nil {
		tagIDs = make([]string, 0, len(in.Record.Tags))
		for _, name := range in.Record.Tags {
			call = time.Now()
			tag, terr := client.GetOrCreateTag(ctx, boardID, name)
			s.observeBoardCall(ctx, "create_tag", call, terr)
			if terr != nil {
				err = terr
				return nil, PushResearchOutput{}, err
			}
			tagIDs = append(tagIDs, tag.ID)
		}
	}

	name, values, leftovers, err := tr.Transform(in.Record, tagIDs)
	if err != nil {
		return nil, PushResearchOutput{}, err
	}
	call = time.Now()
	itemID, err := client.CreateItem(ctx, boardID, name, values)
	s.observeBoardCall(ctx, "create_item", call, err)
	if err != nil {
		return nil, PushResearchOutput{}, err
	}

	observe.Logger(ctx).Info("research record pushed",
		"account_id", acct, "board_id", boardID, "item_id", itemID, "leftovers", len(leftovers))
	return nil, PushResearchOutput{ItemID: itemID, BoardID: boardID, Leftovers: leftovers}, nil
}

// resolveBoard picks the explicit board ID or falls back to the account's
// stored default.
func (s *Server) resolveBoard(ctx context.Context, accountID, boardID string) (string, error) {
	if boardID != "" {
		return boardID, nil
	}
	def, err := s.store.Get(ctx, accountID, settings.KeyDefaultBoard)
	if errors.Is(err, settings.ErrNotFound) {
		return "", errors.New("no board_id given and the account has no default board; pass board_id or reconnect with default_board set")
	}
	if err != nil {
		return "", err
	}
	return def, nil
}
