// Package watchlist is the persistence boundary for per-user watchlists.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
//
// Callers pass the session email; the store resolves it to the internal owner
// identifier through a UserDirectory. The pair (userID, symbol) is unique:
// duplicate adds are rejected, never upserted. Symbols are uppercased at this
// boundary so all comparisons are case-insensitive from the caller's side.
package watchlist

import (
	"context"
	"errors"
	"strings"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

var (
	// ErrAlreadyExists is returned when (userID, symbol) is already present.
	ErrAlreadyExists = errors.New("watchlist: symbol already in watchlist")

	// ErrNotFound is returned when removing a symbol that is not present.
	ErrNotFound = errors.New("watchlist: entry not found")

	// ErrUserNotFound is returned when the email cannot be resolved to an
	// owner. No operation ever proceeds against an empty owner id.
	ErrUserNotFound = errors.New("watchlist: user not found")
)

// Store is the watchlist persistence interface.
type Store interface {
	// Add creates an entry for the resolved user. Returns ErrAlreadyExists
	// if (userID, symbol) is present, ErrUserNotFound if the email does not
	// resolve.
	Add(ctx context.Context, email, symbol, company string) (*model.WatchlistEntry, error)

	// Remove deletes the entry for (userID, symbol). Returns ErrNotFound if
	// absent, ErrUserNotFound if the email does not resolve.
	Remove(ctx context.Context, email, symbol string) error

	// List returns the user's entries ordered newest-first by AddedAt.
	List(ctx context.Context, email string) ([]model.WatchlistEntry, error)

	// Symbols returns the set of watched symbols for cheap membership
	// checks without loading full entries.
	Symbols(ctx context.Context, email string) (map[string]struct{}, error)
}

// UserDirectory resolves a session email to the internal owner identifier.
// The directory itself (auth provider's user collection) is an external
// collaborator.
type UserDirectory interface {
	LookupUserID(ctx context.Context, email string) (string, error)
}

// NormalizeSymbol uppercases and trims a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
