package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockpulse/dashboard-engine/internal/model"
)

// CachedStore wraps a primary Store with a Redis read-through cache for List
// and Symbols. Mutations go to the primary store and invalidate the cache so
// the next poll reflects them.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{primary: primary, rdb: rdb, ttl: ttl}
}

// --- Mutations (write to primary, invalidate cache) ---

func (s *CachedStore) Add(ctx context.Context, email, symbol, company string) (*model.WatchlistEntry, error) {
	entry, err := s.primary.Add(ctx, email, symbol, company)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, email)
	return entry, nil
}

func (s *CachedStore) Remove(ctx context.Context, email, symbol string) error {
	if err := s.primary.Remove(ctx, email, symbol); err != nil {
		return err
	}
	s.invalidate(ctx, email)
	return nil
}

// --- Reads (check cache first) ---

func (s *CachedStore) List(ctx context.Context, email string) ([]model.WatchlistEntry, error) {
	data, err := s.rdb.Get(ctx, listKey(email)).Bytes()
	if err == nil {
		var entries []model.WatchlistEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.List(ctx, email)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(entries); err == nil {
		s.rdb.Set(ctx, listKey(email), data, s.ttl)
	}
	return entries, nil
}

func (s *CachedStore) Symbols(ctx context.Context, email string) (map[string]struct{}, error) {
	members, err := s.rdb.SMembers(ctx, symbolsKey(email)).Result()
	if err == nil && len(members) > 0 {
		symbols := make(map[string]struct{}, len(members))
		for _, m := range members {
			if m == emptySetMarker {
				continue
			}
			symbols[m] = struct{}{}
		}
		return symbols, nil
	}

	symbols, err := s.primary.Symbols(ctx, email)
	if err != nil {
		return nil, err
	}

	// Cache with a marker member so an empty watchlist is still a cache hit.
	members = make([]string, 0, len(symbols)+1)
	members = append(members, emptySetMarker)
	for sym := range symbols {
		members = append(members, sym)
	}
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, symbolsKey(email))
	pipe.SAdd(ctx, symbolsKey(email), members)
	pipe.Expire(ctx, symbolsKey(email), s.ttl)
	pipe.Exec(ctx)

	return symbols, nil
}

func (s *CachedStore) invalidate(ctx context.Context, email string) {
	s.rdb.Del(ctx, listKey(email), symbolsKey(email))
}

const emptySetMarker = "__none__"

func listKey(email string) string    { return fmt.Sprintf("watchlist:%s", email) }
func symbolsKey(email string) string { return fmt.Sprintf("watchsyms:%s", email) }
