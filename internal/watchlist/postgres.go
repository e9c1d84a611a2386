package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// schema is the watchlist table. The unique index on (user_id, symbol) is the
// concurrency backstop behind the check-then-insert in Add.
const schema = `
CREATE TABLE IF NOT EXISTS watchlist_entries (
    id       TEXT PRIMARY KEY,
    user_id  TEXT NOT NULL,
    symbol   TEXT NOT NULL,
    company  TEXT NOT NULL,
    added_at TIMESTAMPTZ NOT NULL,
    UNIQUE (user_id, symbol)
);
CREATE INDEX IF NOT EXISTS watchlist_entries_user_added_idx
    ON watchlist_entries (user_id, added_at DESC);
`

const pgUniqueViolation = "23505"

// PostgresStore implements Store using PostgreSQL as the source of truth.
type PostgresStore struct {
	pool      *pgxpool.Pool
	directory UserDirectory
}

// NewPostgresStore creates a PostgreSQL-backed store resolving users
// through dir.
func NewPostgresStore(pool *pgxpool.Pool, dir UserDirectory) *PostgresStore {
	return &PostgresStore{pool: pool, directory: dir}
}

// EnsureSchema creates the watchlist table and indexes if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure watchlist schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, email, symbol, company string) (*model.WatchlistEntry, error) {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	// Existence check first so the common duplicate path returns cleanly;
	// the unique index catches the race between identical concurrent adds.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM watchlist_entries WHERE user_id = $1 AND symbol = $2)`,
		userID, symbol).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check watchlist entry: %w", err)
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	entry := model.WatchlistEntry{
		ID:      uuid.New().String(),
		UserID:  userID,
		Symbol:  symbol,
		Company: company,
		AddedAt: time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO watchlist_entries (id, user_id, symbol, company, added_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.UserID, entry.Symbol, entry.Company, entry.AddedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert watchlist entry: %w", err)
	}
	return &entry, nil
}

func (s *PostgresStore) Remove(ctx context.Context, email, symbol string) error {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return err
	}
	symbol = NormalizeSymbol(symbol)

	tag, err := s.pool.Exec(ctx,
		`DELETE FROM watchlist_entries WHERE user_id = $1 AND symbol = $2`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, email string) ([]model.WatchlistEntry, error) {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, symbol, company, added_at
		 FROM watchlist_entries
		 WHERE user_id = $1
		 ORDER BY added_at DESC, symbol`, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty watchlist marshals as [] rather than null.
	entries := []model.WatchlistEntry{}
	for rows.Next() {
		var e model.WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.Company, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) Symbols(ctx context.Context, email string) (map[string]struct{}, error) {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT symbol FROM watchlist_entries WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list watchlist symbols: %w", err)
	}
	defer rows.Close()

	symbols := make(map[string]struct{})
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan watchlist symbol: %w", err)
		}
		symbols[sym] = struct{}{}
	}
	return symbols, rows.Err()
}
