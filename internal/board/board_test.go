package board

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/uplift-labs/uplift/internal/resilience"
)

// fakeAPI serves canned GraphQL responses and records the last request.
type fakeAPI struct {
	t        *testing.T
	response string
	status   int

	lastQuery     string
	lastVariables map[string]any
	lastToken     string
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.lastToken = r.Header.Get("Authorization")

		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.t.Errorf("decode request: %v", err)
		}
		f.lastQuery = body.Query
		f.lastVariables = body.Variables

		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(f.response))
	}
}

func newTestClient(t *testing.T, f *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	c, err := New("test-token", WithEndpoint(srv.URL), WithFileEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresToken(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") returned nil error")
	}
}

func TestListBoards(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"boards":[
		{"id":"101","name":"Research","description":"UX research"},
		{"id":"102","name":"Experiments","description":""}
	]}}`}
	c := newTestClient(t, f)

	boards, err := c.ListBoards(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	if len(boards) != 2 {
		t.Fatalf("len(boards) = %d, want 2", len(boards))
	}
	if boards[0].ID != "101" || boards[0].Name != "Research" {
		t.Errorf("boards[0] = %+v", boards[0])
	}
	if f.lastToken != "test-token" {
		t.Errorf("Authorization = %q, want test-token", f.lastToken)
	}
	if f.lastVariables["limit"] != float64(10) {
		t.Errorf("limit variable = %v, want 10", f.lastVariables["limit"])
	}
}

func TestGetBoard(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"boards":[{
		"id":"101","name":"Research","description":"",
		"columns":[
			{"id":"title","title":"Name","type":"text"},
			{"id":"status","title":"Status","type":"status"}
		]
	}]}}`}
	c := newTestClient(t, f)

	b, err := c.GetBoard(context.Background(), "101")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if len(b.Columns) != 2 {
		t.Fatalf("len(Columns) = %d, want 2", len(b.Columns))
	}
	if b.Columns[1].Type != "status" {
		t.Errorf("Columns[1].Type = %q, want status", b.Columns[1].Type)
	}
}

func TestGetBoard_NotFound(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"boards":[]}}`}
	c := newTestClient(t, f)

	_, err := c.GetBoard(context.Background(), "999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBoard error = %v, want ErrNotFound", err)
	}
}

func TestCreateItem_EncodesColumnValues(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"create_item":{"id":"555","name":"Interview 12"}}}`}
	c := newTestClient(t, f)

	id, err := c.CreateItem(context.Background(), "101", "Interview 12", map[string]any{
		"status": map[string]any{"label": "Done"},
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if id != "555" {
		t.Errorf("id = %q, want 555", id)
	}

	// Column values travel as a JSON-encoded string variable.
	encoded, ok := f.lastVariables["values"].(string)
	if !ok {
		t.Fatalf("values variable is %T, want string", f.lastVariables["values"])
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
		t.Fatalf("values variable is not valid JSON: %v", err)
	}
	status, _ := decoded["status"].(map[string]any)
	if status["label"] != "Done" {
		t.Errorf("decoded status = %v", decoded["status"])
	}
}

func TestQuery_GraphQLErrors(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"errors":[{"message":"User unauthorized"}]}`}
	c := newTestClient(t, f)

	_, err := c.ListBoards(context.Background(), 5)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if !strings.Contains(apiErr.Error(), "User unauthorized") {
		t.Errorf("error message %q does not mention the API failure", apiErr.Error())
	}
}

func TestQuery_HTTPError(t *testing.T) {
	f := &fakeAPI{t: t, status: http.StatusInternalServerError, response: `{}`}
	c := newTestClient(t, f)

	_, err := c.ListBoards(context.Background(), 5)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", apiErr.StatusCode)
	}
}

func TestGetOrCreateTag(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"create_or_get_tag":{"id":"77","name":"usability","color":"#ff642e"}}}`}
	c := newTestClient(t, f)

	tag, err := c.GetOrCreateTag(context.Background(), "101", "usability")
	if err != nil {
		t.Fatalf("GetOrCreateTag: %v", err)
	}
	if tag.ID != "77" || tag.Name != "usability" {
		t.Errorf("tag = %+v", tag)
	}
	if f.lastVariables["name"] != "usability" {
		t.Errorf("name variable = %v", f.lastVariables["name"])
	}
}

func TestListItems(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"boards":[{"items_page":{"items":[
		{"id":"1","name":"Interview 1"},{"id":"2","name":"Interview 2"}
	]}}]}}`}
	c := newTestClient(t, f)

	items, err := c.ListItems(context.Background(), "101", 50)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 || items[1].Name != "Interview 2" {
		t.Errorf("items = %+v", items)
	}
}

func TestDeleteItem(t *testing.T) {
	f := &fakeAPI{t: t, response: `{"data":{"delete_item":{"id":"1"}}}`}
	c := newTestClient(t, f)

	if err := c.DeleteItem(context.Background(), "1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if !strings.Contains(f.lastQuery, "delete_item") {
		t.Errorf("query = %q, want delete_item mutation", f.lastQuery)
	}
}

func TestAddFileToColumn(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if q := r.FormValue("query"); !strings.Contains(q, "add_file_to_column") {
			t.Errorf("query field = %q", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"add_file_to_column":{"id":"asset-9"}}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New("test-token", WithFileEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	assetID, err := c.AddFileToColumn(context.Background(), "555", "files", "notes.pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("AddFileToColumn: %v", err)
	}
	if assetID != "asset-9" {
		t.Errorf("assetID = %q, want asset-9", assetID)
	}
	if !strings.HasPrefix(gotContentType, "multipart/form-data") {
		t.Errorf("Content-Type = %q, want multipart", gotContentType)
	}
}

func TestQuery_CircuitBreakerTrips(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New("test-token", WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Five consecutive server errors open the breaker.
	for i := 0; i < 5; i++ {
		if _, err := c.ListBoards(context.Background(), 1); err == nil {
			t.Fatalf("call %d: want error", i)
		}
	}
	served := calls

	_, err = c.ListBoards(context.Background(), 1)
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if calls != served {
		t.Errorf("open breaker still reached the server (%d calls, want %d)", calls, served)
	}
}
