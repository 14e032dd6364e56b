// Package settings stores per-account integration settings: API tokens,
// default board IDs, and other small key/value pairs the tool server needs
// between requests.
//
// Two implementations are provided: [MemStore] for single-process and test
// use, and [PostgresStore] backed by PostgreSQL via pgx.
package settings

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when no value exists for the
// requested account and key.
var ErrNotFound = errors.New("settings: not found")

// Well-known setting keys.
const (
	// KeyAPIToken is the work-management API token for an account.
	KeyAPIToken = "api_token"

	// KeyDefaultBoard is the board research records are pushed to when the
	// caller names none.
	KeyDefaultBoard = "default_board"
)

// Store persists settings per account. All implementations must be safe for
// concurrent use.
type Store interface {
	// Set stores value under (accountID, key), overwriting any previous value.
	Set(ctx context.Context, accountID, key, value string) error

	// Get retrieves the value stored under (accountID, key).
	// Returns [ErrNotFound] when no value exists.
	Get(ctx context.Context, accountID, key string) (string, error)

	// Delete removes the value stored under (accountID, key).
	// Returns [ErrNotFound] when no value exists.
	Delete(ctx context.Context, accountID, key string) error

	// PurgeAccount removes all settings for an account. Removing an account
	// that holds no settings is not an error.
	PurgeAccount(ctx context.Context, accountID string) error
}
