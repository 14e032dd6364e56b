package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the account_settings table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS account_settings (
    account_id TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (account_id, key)
);
CREATE INDEX IF NOT EXISTS idx_account_settings_account ON account_settings(account_id);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] using the given connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("settings: migrate: %w", err)
	}
	return nil
}

// Set implements [Store.Set] with an upsert.
func (s *PostgresStore) Set(ctx context.Context, accountID, key, value string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO account_settings (account_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		accountID, key, value)
	if err != nil {
		return fmt.Errorf("settings: set %s/%s: %w", accountID, key, err)
	}
	return nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, accountID, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx,
		`SELECT value FROM account_settings WHERE account_id = $1 AND key = $2`,
		accountID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("settings: get %s/%s: %w", accountID, key, err)
	}
	return value, nil
}

// Delete implements [Store.Delete].
func (s *PostgresStore) Delete(ctx context.Context, accountID, key string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM account_settings WHERE account_id = $1 AND key = $2`,
		accountID, key)
	if err != nil {
		return fmt.Errorf("settings: delete %s/%s: %w", accountID, key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeAccount implements [Store.PurgeAccount].
func (s *PostgresStore) PurgeAccount(ctx context.Context, accountID string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM account_settings WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("settings: purge account %s: %w", accountID, err)
	}
	return nil
}
