package toolserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/uplift-labs/uplift/internal/board"
)

// defaultBoardLimit bounds list_boards when the caller sets no limit.
const defaultBoardLimit = 25

// ListBoardsInput is the list_boards tool input.
type ListBoardsInput struct {
	AccountID string `json:"account_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// ListBoardsOutput is the list_boards tool output.
type ListBoardsOutput struct {
	Boards []BoardSummary `json:"boards"`
}

// BoardSummary is one board in a list_boards response.
type BoardSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (s *Server) listBoards(ctx context.Context, req *mcp.CallToolRequest, in ListBoardsInput) (res *mcp.CallToolResult, out ListBoardsOutput, err error) {
	defer s.observeTool(ctx, "list_boards", time.Now(), &err)

	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, ListBoardsOutput{}, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultBoardLimit
	}
	call := time.Now()
	boards, err := client.ListBoards(ctx, limit)
	s.observeBoardCall(ctx, "list_boards", call, err)
	if err != nil {
		return nil, ListBoardsOutput{}, err
	}

	out.Boards = make([]BoardSummary, 0, len(boards))
	for _, b := range boards {
		out.Boards = append(out.Boards, BoardSummary{ID: b.ID, Name: b.Name, Description: b.Description})
	}
	return nil, out, nil
}

// GetBoardInput is the get_board tool input.
type GetBoardInput struct {
	AccountID string `json:"account_id,omitempty"`
	BoardID   string `json:"board_id"`
}

// GetBoardOutput is the get_board tool output.
type GetBoardOutput struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Columns     []board.Column `json:"columns"`
}

func (s *Server) getBoard(ctx context.Context, req *mcp.CallToolRequest, in GetBoardInput) (res *mcp.CallToolResult, out GetBoardOutput, err error) {
	defer s.observeTool(ctx, "get_board", time.Now(), &err)

	if in.BoardID == "" {
		err = errors.New("board_id must not be empty")
		return nil, GetBoardOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, GetBoardOutput{}, err
	}
	call := time.Now()
	b, err := client.GetBoard(ctx, in.BoardID)
	s.observeBoardCall(ctx, "get_board", call, err)
	if err != nil {
		return nil, GetBoardOutput{}, err
	}
	return nil, GetBoardOutput{ID: b.ID, Name: b.Name, Description: b.Description, Columns: b.Columns}, nil
}

// CreateItemInput is the create_item tool input.
type CreateItemInput struct {
	AccountID string `json:"account_id,omitempty"`
	BoardID   string `json:"board_id"`
	Name      string `json:"name"`

	// ColumnValues maps column IDs to plain values. Each value is formatted
	// for the wire according to the column's type in the board schema.
	ColumnValues map[string]any `json:"column_values,omitempty"`
}

// CreateItemOutput is the create_item tool output.
type CreateItemOutput struct {
	ItemID string `json:"item_id"`
}

func (s *Server) createItem(ctx context.Context, req *mcp.CallToolRequest, in CreateItemInput) (res *mcp.CallToolResult, out CreateItemOutput, err error) {
	defer s.observeTool(ctx, "create_item", time.Now(), &err)

	if in.BoardID == "" || in.Name == "" {
		err = errors.New("board_id and name must not be empty")
		return nil, CreateItemOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, CreateItemOutput{}, err
	}

	values, err := s.formatColumnValues(ctx, client, in.BoardID, in.ColumnValues)
	if err != nil {
		return nil, CreateItemOutput{}, err
	}
	call := time.Now()
	itemID, err := client.CreateItem(ctx, in.BoardID, in.Name, values)
	s.observeBoardCall(ctx, "create_item", call, err)
	if err != nil {
		return nil, CreateItemOutput{}, err
	}
	return nil, CreateItemOutput{ItemID: itemID}, nil
}

// UpdateItemInput is the update_item tool input.
type UpdateItemInput struct {
	AccountID    string         `json:"account_id,omitempty"`
	BoardID      string         `json:"board_id"`
	ItemID       string         `json:"item_id"`
	ColumnValues map[string]any `json:"column_values"`
}

// UpdateItemOutput is the update_item tool output.
type UpdateItemOutput struct {
	ItemID string `json:"item_id"`
}

func (s *Server) updateItem(ctx context.Context, req *mcp.CallToolRequest, in UpdateItemInput) (res *mcp.CallToolResult, out UpdateItemOutput, err error) {
	defer s.observeTool(ctx, "update_item", time.Now(), &err)

	if in.BoardID == "" || in.ItemID == "" {
		err = errors.New("board_id and item_id must not be empty")
		return nil, UpdateItemOutput{}, err
	}
	if len(in.ColumnValues) == 0 {
		err = errors.New("column_values must not be empty")
		return nil, UpdateItemOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, UpdateItemOutput{}, err
	}

	values, err := s.formatColumnValues(ctx, client, in.BoardID, in.ColumnValues)
	if err != nil {
		return nil, UpdateItemOutput{}, err
	}
	call := time.Now()
	err = client.ChangeColumnValues(ctx, in.BoardID, in.ItemID, values)
	s.observeBoardCall(ctx, "update_item", call, err)
	if err != nil {
		return nil, UpdateItemOutput{}, err
	}
	return nil, UpdateItemOutput{ItemID: in.ItemID}, nil
}

// formatColumnValues converts plain values keyed by column ID into their
// wire shapes using the board's column schema. Unknown column IDs are an
// error so typos surface before the API call.
func (s *Server) formatColumnValues(ctx context.Context, client BoardAPI, boardID string, raw map[string]any) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	call := time.Now()
	b, err := client.GetBoard(ctx, boardID)
	s.observeBoardCall(ctx, "get_board", call, err)
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(b.Columns))
	for _, col := range b.Columns {
		types[col.ID] = col.Type
	}

	values := make(map[string]any, len(raw))
	for id, v := range raw {
		colType, ok := types[id]
		if !ok {
			return nil, fmt.Errorf("board %s has no column %q", boardID, id)
		}
		formatted, err := board.ColumnValue(colType, v)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", id, err)
		}
		values[id] = formatted
	}
	return values, nil
}

// ListItemsInput is the list_items tool input.
type ListItemsInput struct {
	AccountID string `json:"account_id,omitempty"`
	BoardID   string `json:"board_id"`
	Limit     int    `json:"limit,omitempty"`
}

// ListItemsOutput is the list_items tool output.
type ListItemsOutput struct {
	Items []board.Item `json:"items"`
}

func (s *Server) listItems(ctx context.Context, req *mcp.CallToolRequest, in ListItemsInput) (res *mcp.CallToolResult, out ListItemsOutput, err error) {
	defer s.observeTool(ctx, "list_items", time.Now(), &err)

	if in.BoardID == "" {
		err = errors.New("board_id must not be empty")
		return nil, ListItemsOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, ListItemsOutput{}, err
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultBoardLimit
	}
	call := time.Now()
	items, err := client.ListItems(ctx, in.BoardID, limit)
	s.observeBoardCall(ctx, "list_items", call, err)
	if err != nil {
		return nil, ListItemsOutput{}, err
	}
	if items == nil {
		items = []board.Item{}
	}
	return nil, ListItemsOutput{Items: items}, nil
}

// DeleteItemInput is the delete_item tool input.
type DeleteItemInput struct {
	AccountID string `json:"account_id,omitempty"`
	ItemID    string `json:"item_id"`
}

// DeleteItemOutput is the delete_item tool output.
type DeleteItemOutput struct {
	ItemID string `json:"item_id"`
}

func (s *Server) deleteItem(ctx context.Context, req *mcp.CallToolRequest, in DeleteItemInput) (res *mcp.CallToolResult, out DeleteItemOutput, err error) {
	defer s.observeTool(ctx, "delete_item", time.Now(), &err)

	if in.ItemID == "" {
		err = errors.New("item_id must not be empty")
		return nil, DeleteItemOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, DeleteItemOutput{}, err
	}
	call := time.Now()
	err = client.DeleteItem(ctx, in.ItemID)
	s.observeBoardCall(ctx, "delete_item", call, err)
	if err != nil {
		return nil, DeleteItemOutput{}, err
	}
	return nil, DeleteItemOutput{ItemID: in.ItemID}, nil
}

// CreateColumnInput is the create_column tool input.
type CreateColumnInput struct {
	AccountID string `json:"account_id,omitempty"`
	BoardID   string `json:"board_id"`
	Title     string `json:"title"`

	// Type is the column type, e.g. "text", "numbers", "status", "date".
	Type string `json:"type"`
}

// CreateColumnOutput is the create_column tool output.
type CreateColumnOutput struct {
	ColumnID string `json:"column_id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
}

func (s *Server) createColumn(ctx context.Context, req *mcp.CallToolRequest, in CreateColumnInput) (res *mcp.CallToolResult, out CreateColumnOutput, err error) {
	defer s.observeTool(ctx, "create_column", time.Now(), &err)

	if in.BoardID == "" || in.Title == "" || in.Type == "" {
		err = errors.New("board_id, title and type must not be empty")
		return nil, CreateColumnOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, CreateColumnOutput{}, err
	}
	call := time.Now()
	col, err := client.CreateColumn(ctx, in.BoardID, in.Title, in.Type)
	s.observeBoardCall(ctx, "create_column", call, err)
	if err != nil {
		return nil, CreateColumnOutput{}, err
	}
	return nil, CreateColumnOutput{ColumnID: col.ID, Title: col.Title, Type: col.Type}, nil
}

// CreateTagInput is the create_tag tool input.
type CreateTagInput struct {
	AccountID string `json:"account_id,omitempty"`
	BoardID   string `json:"board_id"`
	Name      string `json:"name"`
}

// CreateTagOutput is the create_tag tool output.
type CreateTagOutput struct {
	TagID string `json:"tag_id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func (s *Server) createTag(ctx context.Context, req *mcp.CallToolRequest, in CreateTagInput) (res *mcp.CallToolResult, out CreateTagOutput, err error) {
	defer s.observeTool(ctx, "create_tag", time.Now(), &err)

	if in.BoardID == "" || in.Name == "" {
		err = errors.New("board_id and name must not be empty")
		return nil, CreateTagOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, CreateTagOutput{}, err
	}
	call := time.Now()
	tag, err := client.GetOrCreateTag(ctx, in.BoardID, in.Name)
	s.observeBoardCall(ctx, "create_tag", call, err)
	if err != nil {
		return nil, CreateTagOutput{}, err
	}
	return nil, CreateTagOutput{TagID: tag.ID, Name: tag.Name, Color: tag.Color}, nil
}

// UploadFileInput is the upload_file tool input.
type UploadFileInput struct {
	AccountID string `json:"account_id,omitempty"`
	ItemID    string `json:"item_id"`
	ColumnID  string `json:"column_id"`
	Filename  string `json:"filename"`

	// Content is the file body, base64-encoded.
	Content string `json:"content"`
}

// UploadFileOutput is the upload_file tool output.
type UploadFileOutput struct {
	AssetID string `json:"asset_id"`
}

func (s *Server) uploadFile(ctx context.Context, req *mcp.CallToolRequest, in UploadFileInput) (res *mcp.CallToolResult, out UploadFileOutput, err error) {
	defer s.observeTool(ctx, "upload_file", time.Now(), &err)

	if in.ItemID == "" || in.ColumnID == "" || in.Filename == "" {
		err = errors.New("item_id, column_id and filename must not be empty")
		return nil, UploadFileOutput{}, err
	}
	body, err := base64.StdEncoding.DecodeString(in.Content)
	if err != nil {
		err = fmt.Errorf("content is not valid base64: %w", err)
		return nil, UploadFileOutput{}, err
	}
	client, err := s.clientFor(ctx, account(in.AccountID))
	if err != nil {
		return nil, UploadFileOutput{}, err
	}
	call := time.Now()
	assetID, err := client.AddFileToColumn(ctx, in.ItemID, in.ColumnID, in.Filename, bytes.NewReader(body))
	s.observeBoardCall(ctx, "upload_file", call, err)
	if err != nil {
		return nil, UploadFileOutput{}, err
	}
	return nil, UploadFileOutput{AssetID: assetID}, nil
}
