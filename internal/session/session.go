// Package session manages opaque bearer tokens for dashboard users. Sessions
// live in Redis when configured, or in memory for development and tests. The
// auth provider that proves identity is an external collaborator; this
// package only stores the resolved identity behind a token.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for a missing or expired session token.
var ErrNotFound = errors.New("session: not found")

// Session is a resolved user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager stores and resolves sessions.
type Manager interface {
	Create(ctx context.Context, userID, email string) (*Session, error)
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

// NewToken returns a 64-character hex session token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// --- In-memory manager ---

// MemoryManager keeps sessions in a map. Used when Redis is not configured.
type MemoryManager struct {
	ttl time.Duration

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemoryManager creates an in-memory session manager.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	return &MemoryManager{ttl: ttl, sessions: make(map[string]Session)}
}

func (m *MemoryManager) Create(_ context.Context, userID, email string) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()
	return &s, nil
}

func (m *MemoryManager) Get(_ context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(s.ExpiresAt) {
		// Reap on lookup so expired sessions do not accumulate.
		delete(m.sessions, token)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryManager) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

// --- Redis manager ---

// RedisManager stores sessions in Redis with the TTL as expiry.
type RedisManager struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisManager creates a Redis-backed session manager.
func NewRedisManager(rdb *redis.Client, ttl time.Duration) *RedisManager {
	return &RedisManager{rdb: rdb, ttl: ttl}
}

func sessionKey(token string) string { return "session:" + token }

func (m *RedisManager) Create(ctx context.Context, userID, email string) (*Session, error) {
	token, err := NewToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	s := Session{
		Token:     token,
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := m.rdb.Set(ctx, sessionKey(token), data, m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &s, nil
}

func (m *RedisManager) Get(ctx context.Context, token string) (*Session, error) {
	data, err := m.rdb.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if time.Now().After(s.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *RedisManager) Delete(ctx context.Context, token string) error {
	if err := m.rdb.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
