package settings

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

// mockDB implements the DB interface for testing.
type mockDB struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return m.queryRowFunc(ctx, sql, args...)
}

func (m *mockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return m.queryFunc(ctx, sql, args...)
}

func (m *mockDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return m.execFunc(ctx, sql, args...)
}

func TestPostgresStore_Migrate(t *testing.T) {
	var gotSQL string
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			return pgconn.NewCommandTag("CREATE TABLE"), nil
		},
	}

	if err := NewPostgresStore(db).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !strings.Contains(gotSQL, "account_settings") {
		t.Errorf("Migrate executed %q, want account_settings DDL", gotSQL)
	}
}

func TestPostgresStore_SetUpserts(t *testing.T) {
	var gotSQL string
	var gotArgs []any
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotSQL = sql
			gotArgs = args
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	err := NewPostgresStore(db).Set(context.Background(), "acct-1", KeyAPIToken, "tok-abc")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !strings.Contains(gotSQL, "ON CONFLICT") {
		t.Errorf("Set executed %q, want upsert", gotSQL)
	}
	if len(gotArgs) != 3 || gotArgs[0] != "acct-1" || gotArgs[1] != KeyAPIToken || gotArgs[2] != "tok-abc" {
		t.Errorf("Set args = %v", gotArgs)
	}
}

func TestPostgresStore_Get(t *testing.T) {
	db := &mockDB{
		queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &mockRow{scanFunc: func(dest ...any) error {
				*(dest[0].(*string)) = "tok-abc"
				return nil
			}}
		},
	}

	got, err := NewPostgresStore(db).Get(context.Background(), "acct-1", KeyAPIToken)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "tok-abc" {
		t.Errorf("Get = %q, want tok-abc", got)
	}
}

func TestPostgresStore_GetMissing(t *testing.T) {
	db := &mockDB{
		queryRowFunc: func(_ context.Context, _ string, _ ...any) pgx.Row {
			return &mockRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
		},
	}

	_, err := NewPostgresStore(db).Get(context.Background(), "acct-1", KeyAPIToken)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestPostgresStore_DeleteMissing(t *testing.T) {
	db := &mockDB{
		execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}

	err := NewPostgresStore(db).Delete(context.Background(), "acct-1", KeyAPIToken)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete error = %v, want ErrNotFound", err)
	}
}

func TestPostgresStore_Delete(t *testing.T) {
	db := &mockDB{
		execFunc: func(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 1"), nil
		},
	}

	if err := NewPostgresStore(db).Delete(context.Background(), "acct-1", KeyAPIToken); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestPostgresStore_PurgeAccount(t *testing.T) {
	var gotArgs []any
	db := &mockDB{
		execFunc: func(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			gotArgs = args
			if !strings.Contains(sql, "DELETE FROM account_settings") {
				t.Errorf("PurgeAccount executed %q", sql)
			}
			return pgconn.NewCommandTag("DELETE 3"), nil
		},
	}

	if err := NewPostgresStore(db).PurgeAccount(context.Background(), "acct-1"); err != nil {
		t.Fatalf("PurgeAccount: %v", err)
	}
	if len(gotArgs) != 1 || gotArgs[0] != "acct-1" {
		t.Errorf("PurgeAccount args = %v", gotArgs)
	}
}
