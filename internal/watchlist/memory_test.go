package watchlist

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newTestStore builds an in-memory store with two known users and a fake
// clock that advances one second per Add.
func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	dir := NewMemoryDirectory()
	dir.Register("alice@example.com", "user-alice")
	dir.Register("bob@example.com", "user-bob")

	st := NewMemoryStore(dir)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	st.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return st
}

func TestAddNormalizesSymbol(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entry, err := st.Add(ctx, "alice@example.com", "  aapl ", "Apple Inc.")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if entry.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", entry.Symbol)
	}
	if entry.ID == "" {
		t.Error("entry ID should be generated")
	}
	if entry.UserID != "user-alice" {
		t.Errorf("userID = %q, want user-alice", entry.UserID)
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, "alice@example.com", "aapl", "Apple Inc."); err != nil {
		t.Fatalf("first Add: %v", err)
	}

	// Same symbol in different case is still a duplicate.
	_, err := st.Add(ctx, "alice@example.com", "AAPL", "Apple Inc.")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Add error = %v, want ErrAlreadyExists", err)
	}

	entries, err := st.List(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("len(entries) = %d, want 1", len(entries))
	}
}

func TestListNewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "MSFT", "GOOGL"} {
		if _, err := st.Add(ctx, "alice@example.com", sym, sym+" Corp"); err != nil {
			t.Fatalf("Add %s: %v", sym, err)
		}
	}

	entries, err := st.List(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"GOOGL", "MSFT", "AAPL"}
	if len(entries) != len(want) {
		t.Fatalf("len(entries) = %d, want %d", len(entries), len(want))
	}
	for i, sym := range want {
		if entries[i].Symbol != sym {
			t.Errorf("entries[%d].Symbol = %q, want %q", i, entries[i].Symbol, sym)
		}
	}
}

func TestUnknownUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, "nobody@example.com", "AAPL", "Apple Inc."); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Add error = %v, want ErrUserNotFound", err)
	}
	if _, err := st.List(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("List error = %v, want ErrUserNotFound", err)
	}
	if err := st.Remove(ctx, "nobody@example.com", "AAPL"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Remove error = %v, want ErrUserNotFound", err)
	}
}

func TestRemoveMissing(t *testing.T) {
	st := newTestStore(t)
	err := st.Remove(context.Background(), "alice@example.com", "TSLA")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Remove error = %v, want ErrNotFound", err)
	}
}

func TestRemoveCaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, "alice@example.com", "TSLA", "Tesla"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := st.Remove(ctx, "alice@example.com", "tsla"); err != nil {
		t.Fatalf("Remove lowercase: %v", err)
	}

	entries, _ := st.List(ctx, "alice@example.com")
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d after remove, want 0", len(entries))
	}
}

func TestSymbolsSet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, sym := range []string{"AAPL", "MSFT"} {
		if _, err := st.Add(ctx, "alice@example.com", sym, sym); err != nil {
			t.Fatalf("Add %s: %v", sym, err)
		}
	}

	set, err := st.Symbols(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("len(set) = %d, want 2", len(set))
	}
	for _, sym := range []string{"AAPL", "MSFT"} {
		if _, ok := set[sym]; !ok {
			t.Errorf("set missing %s", sym)
		}
	}
}

func TestUserIsolation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.Add(ctx, "alice@example.com", "AAPL", "Apple"); err != nil {
		t.Fatalf("alice Add: %v", err)
	}
	if _, err := st.Add(ctx, "bob@example.com", "TSLA", "Tesla"); err != nil {
		t.Fatalf("bob Add: %v", err)
	}

	// Bob can add a symbol alice already holds.
	if _, err := st.Add(ctx, "bob@example.com", "AAPL", "Apple"); err != nil {
		t.Fatalf("bob Add AAPL: %v", err)
	}

	alice, _ := st.List(ctx, "alice@example.com")
	bob, _ := st.List(ctx, "bob@example.com")
	if len(alice) != 1 {
		t.Errorf("alice entries = %d, want 1", len(alice))
	}
	if len(bob) != 2 {
		t.Errorf("bob entries = %d, want 2", len(bob))
	}

	// Removing alice's AAPL leaves bob's untouched.
	if err := st.Remove(ctx, "alice@example.com", "AAPL"); err != nil {
		t.Fatalf("alice Remove: %v", err)
	}
	bobSet, _ := st.Symbols(ctx, "bob@example.com")
	if _, ok := bobSet["AAPL"]; !ok {
		t.Error("bob's AAPL should survive alice's remove")
	}
}
