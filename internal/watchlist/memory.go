package watchlist

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// development. Not suitable for production (no persistence).
type MemoryStore struct {
	directory UserDirectory

	mu      sync.RWMutex
	entries map[string]map[string]model.WatchlistEntry // userID -> symbol -> entry
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store resolving users through dir.
func NewMemoryStore(dir UserDirectory) *MemoryStore {
	return &MemoryStore{
		directory: dir,
		entries:   make(map[string]map[string]model.WatchlistEntry),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Add(ctx context.Context, email, symbol, company string) (*model.WatchlistEntry, error) {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	userEntries, ok := s.entries[userID]
	if !ok {
		userEntries = make(map[string]model.WatchlistEntry)
		s.entries[userID] = userEntries
	}
	if _, exists := userEntries[symbol]; exists {
		return nil, ErrAlreadyExists
	}

	entry := model.WatchlistEntry{
		ID:      uuid.New().String(),
		UserID:  userID,
		Symbol:  symbol,
		Company: company,
		AddedAt: s.now(),
	}
	userEntries[symbol] = entry
	return &entry, nil
}

func (s *MemoryStore) Remove(ctx context.Context, email, symbol string) error {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return err
	}
	symbol = NormalizeSymbol(symbol)

	s.mu.Lock()
	defer s.mu.Unlock()

	userEntries := s.entries[userID]
	if _, exists := userEntries[symbol]; !exists {
		return ErrNotFound
	}
	delete(userEntries, symbol)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, email string) ([]model.WatchlistEntry, error) {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]model.WatchlistEntry, 0, len(s.entries[userID]))
	for _, e := range s.entries[userID] {
		entries = append(entries, e)
	}
	// Newest first; equal timestamps fall back to symbol for determinism.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].AddedAt.Equal(entries[j].AddedAt) {
			return entries[i].AddedAt.After(entries[j].AddedAt)
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries, nil
}

func (s *MemoryStore) Symbols(ctx context.Context, email string) (map[string]struct{}, error) {
	userID, err := s.directory.LookupUserID(ctx, email)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make(map[string]struct{}, len(s.entries[userID]))
	for sym := range s.entries[userID] {
		symbols[sym] = struct{}{}
	}
	return symbols, nil
}
