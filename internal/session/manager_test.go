package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryManagerReapsExpiredOnGet(t *testing.T) {
	mgr := NewMemoryManager(-time.Minute) // sessions expire immediately
	ctx := context.Background()

	var tokens []string
	for i := 0; i < 5; i++ {
		s, err := mgr.Create(ctx, "user-1", "a@b.com")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		tokens = append(tokens, s.Token)
	}

	for _, tok := range tokens {
		if _, err := mgr.Get(ctx, tok); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get expired = %v, want ErrNotFound", err)
		}
	}

	mgr.mu.RLock()
	n := len(mgr.sessions)
	mgr.mu.RUnlock()
	if n != 0 {
		t.Errorf("%d expired sessions retained, want 0", n)
	}
}
