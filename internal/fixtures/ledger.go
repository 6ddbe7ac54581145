// Package fixtures tracks every entity a run creates on the shared backend
// and guarantees a best-effort cleanup pass afterwards.
//
// Deleting a fixture is a courtesy, not a correctness requirement: a failed
// deletion is logged and counted, never escalated into a test failure. The
// ledger is consumed by exactly one Flush; after that its entries are
// considered released whether or not the backend honored the DELETE.
//
// When a run dies before its Flush (crashed worker, killed CI job), the
// ledger mirror in the Store lets `mediaprobe cleanup` delete the leak
// later.
package fixtures

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/collection"
)

// Entity kinds a scenario can create.
const (
	KindCoupon      = "coupon"
	KindCouponGroup = "coupon_group"
	KindCategory    = "category"
	KindMedia       = "media"
)

// Entry is one created fixture awaiting deletion.
type Entry struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// DeleteEndpoint maps an entry to its DELETE endpoint.
func (e Entry) DeleteEndpoint() string {
	switch e.Kind {
	case KindCouponGroup:
		return "/coupon/group/" + e.ID
	case KindCategory:
		return "/category/" + e.ID
	case KindMedia:
		return "/media/" + e.ID
	default:
		return "/coupon/" + e.ID
	}
}

// Store mirrors ledger entries outside the process so leaked fixtures from
// a crashed run can still be cleaned up. Implementations must tolerate
// concurrent appends from pooled scenario workers.
type Store interface {
	Append(ctx context.Context, runID string, e Entry) error
	Entries(ctx context.Context, runID string) ([]Entry, error)
	Clear(ctx context.Context, runID string) error
	Runs(ctx context.Context) ([]string, error)
}

// Ledger is the ordered record of fixtures one scenario (or suite) created.
type Ledger struct {
	runID string
	store Store

	mu      sync.Mutex
	entries []Entry
	flushed bool
}

// NewLedger creates a ledger for runID. store may be nil when no external
// mirror is configured.
func NewLedger(runID string, store Store) *Ledger {
	return &Ledger{runID: runID, store: store}
}

// Track appends a created fixture. Call it immediately after any create
// succeeds — before the verifying GET, so a failure mid-scenario still
// leaves the fixture on the ledger.
func (l *Ledger) Track(kind, id string) {
	if id == "" {
		return
	}
	e := Entry{Kind: kind, ID: id}

	l.mu.Lock()
	l.entries = append(l.entries, e)
	l.mu.Unlock()

	if l.store != nil {
		// Mirror failures must not disturb the scenario.
		if err := l.store.Append(context.Background(), l.runID, e); err != nil {
			slog.Warn("fixtures: ledger mirror append failed", "run_id", l.runID, "error", err)
		}
	}
}

// Entries returns a copy of the tracked fixtures, in creation order.
func (l *Ledger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// take hands the entries to the coordinator exactly once.
func (l *Ledger) take() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.flushed {
		return nil
	}
	l.flushed = true
	out := l.entries
	l.entries = nil
	return out
}

// ─── Coordinator ──────────────────────────────────────────────────────────────

// Deleter is the slice of the API client the coordinator needs.
type Deleter interface {
	Delete(ctx context.Context, endpoint string) (*apiclient.Envelope, error)
}

// FlushStats summarizes one cleanup pass.
type FlushStats struct {
	Attempted int
	Deleted   int
	Failed    int
}

// Coordinator deletes tracked fixtures through the API client.
type Coordinator struct {
	client Deleter
	log    *slog.Logger
}

// NewCoordinator creates a cleanup coordinator.
func NewCoordinator(client Deleter, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{client: client, log: log}
}

// Flush attempts to delete every fixture on the ledger. Individual failures
// are logged and counted but never returned as an error — cleanup must not
// mask the outcome of the tests it follows. A second Flush of the same
// ledger is a no-op.
func (c *Coordinator) Flush(ctx context.Context, l *Ledger) FlushStats {
	// A fixture tracked twice (FlushRun replaying a mirror that already held
	// the entry, say) gets exactly one DELETE.
	entries := collection.UniqueBy(l.take(), func(e Entry) string { return e.Kind + "/" + e.ID })
	stats := FlushStats{Attempted: len(entries)}

	for _, e := range entries {
		env, err := c.client.Delete(ctx, e.DeleteEndpoint())
		switch {
		case err != nil:
			stats.Failed++
			c.log.Warn("fixtures: delete failed", "kind", e.Kind, "id", e.ID, "error", err)
		case env.Code != 200 && env.Code != 204:
			stats.Failed++
			c.log.Warn("fixtures: delete rejected", "kind", e.Kind, "id", e.ID, "code", env.Code)
		default:
			stats.Deleted++
			c.log.Debug("fixtures: deleted", "kind", e.Kind, "id", e.ID)
		}
	}

	if l.store != nil && stats.Failed == 0 {
		if err := l.store.Clear(ctx, l.runID); err != nil {
			c.log.Warn("fixtures: ledger mirror clear failed", "run_id", l.runID, "error", err)
		}
	}

	return stats
}

// FlushRun deletes the mirrored fixtures of a past run directly from the
// store. Used by the cleanup command against runs that never flushed.
func (c *Coordinator) FlushRun(ctx context.Context, store Store, runID string) (FlushStats, error) {
	entries, err := store.Entries(ctx, runID)
	if err != nil {
		return FlushStats{}, fmt.Errorf("fixtures: load run %q: %w", runID, err)
	}

	l := NewLedger(runID, nil)
	for _, e := range entries {
		l.Track(e.Kind, e.ID)
	}
	stats := c.Flush(ctx, l)

	if stats.Failed == 0 {
		if err := store.Clear(ctx, runID); err != nil {
			return stats, fmt.Errorf("fixtures: clear run %q: %w", runID, err)
		}
	}
	return stats, nil
}
