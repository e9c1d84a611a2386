package watchlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryDirectory is an in-memory UserDirectory for testing and development.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]string // email -> userID
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]string)}
}

// Register adds or replaces an email -> userID mapping.
func (d *MemoryDirectory) Register(email, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[strings.ToLower(email)] = userID
}

func (d *MemoryDirectory) LookupUserID(_ context.Context, email string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.users[strings.ToLower(email)]
	if !ok || id == "" {
		return "", ErrUserNotFound
	}
	return id, nil
}

// PostgresDirectory resolves emails against the auth provider's users table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a directory backed by the users table.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) LookupUserID(ctx context.Context, email string) (string, error) {
	var id string
	err := d.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE LOWER(email) = LOWER($1)`, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup user by email: %w", err)
	}
	if id == "" {
		return "", ErrUserNotFound
	}
	return id, nil
}
