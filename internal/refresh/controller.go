// Package refresh runs interval polling loops that keep display snapshots
// warm. A controller fetches once on start, then re-fetches on a fixed
// interval. The previous snapshot is always served while a refresh is in
// flight (stale-while-revalidate); overlapping fetches are ordered by a
// monotonic sequence number so a slow stale response can never overwrite a
// fresher one; Stop tears the loop down and guarantees no snapshot write
// lands afterwards.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stockpulse/dashboard-engine/internal/metrics"
)

// State is the controller lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Displaying
	Refreshing
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Displaying:
		return "displaying"
	case Refreshing:
		return "refreshing"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// FetchFunc produces one snapshot. Errors keep the previous snapshot in
// place; they never blank the display.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Controller polls a FetchFunc on a fixed interval.
type Controller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	onUpdate func(T) // optional push hook, called outside the lock
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	snapshot    T
	hasSnapshot bool
	nextSeq     uint64
	appliedSeq  uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller. onUpdate may be nil.
func New[T any](name string, interval time.Duration, fetch FetchFunc[T], onUpdate func(T), logger *slog.Logger) *Controller[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		onUpdate: onUpdate,
		logger:   logger.With("controller", name),
		state:    Idle,
	}
}

// Start transitions Idle -> Loading, issues the initial fetch, and begins
// the interval loop. It is a no-op if the controller was already started.
func (c *Controller[T]) Start(ctx context.Context) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return
	}
	c.state = Loading
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(ctx)
}

func (c *Controller[T]) run(ctx context.Context) {
	defer close(c.done)

	// Initial snapshot. Even a wholly synthetic response is a valid display
	// state, so Loading ends on the first resolution either way.
	c.poll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state == Displaying {
				c.state = Refreshing
			}
			c.mu.Unlock()
			// Each tick polls in its own goroutine so a slow fetch cannot
			// delay the next tick; the sequence guard resolves collisions.
			go c.poll(ctx)
		}
	}
}

// poll runs one fetch and applies the result unless the controller stopped
// or a newer result has already been applied.
func (c *Controller[T]) poll(ctx context.Context) {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	c.nextSeq++
	seq := c.nextSeq
	c.mu.Unlock()

	snapshot, err := c.fetch(ctx)

	c.mu.Lock()
	if c.state == Stopped || ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	if err != nil {
		// Keep the last good snapshot; just leave the refreshing state.
		if c.hasSnapshot {
			c.state = Displaying
		}
		c.mu.Unlock()
		c.logger.Warn("refresh fetch failed, keeping last snapshot", "err", err)
		return
	}
	if seq <= c.appliedSeq {
		// A fresher fetch already landed; discard this stale response.
		c.mu.Unlock()
		return
	}
	c.appliedSeq = seq
	c.snapshot = snapshot
	c.hasSnapshot = true
	c.state = Displaying
	c.mu.Unlock()

	metrics.RefreshCycles.WithLabelValues(c.name).Inc()
	if c.onUpdate != nil {
		c.onUpdate(snapshot)
	}
}

// Stop cancels the interval loop and the in-flight fetch context. After Stop
// returns, no fetch result will be applied to the snapshot.
func (c *Controller[T]) Stop() {
	c.mu.Lock()
	if c.state == Stopped || c.cancel == nil {
		if c.state != Stopped {
			c.state = Stopped
		}
		c.mu.Unlock()
		return
	}
	c.state = Stopped
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	cancel()
	<-done
}

// Snapshot returns the last good snapshot, if any.
func (c *Controller[T]) Snapshot() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot, c.hasSnapshot
}

// State returns the current lifecycle state.
func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
