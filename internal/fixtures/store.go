// Package fixtures — store.go
//
// Ledger mirror implementations. MemoryStore is the default; RedisStore is
// used when REDIS_ADDR is configured so fixtures leaked by a crashed run
// survive the process and can be swept by `mediaprobe cleanup`.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ─── MemoryStore ──────────────────────────────────────────────────────────────

// MemoryStore keeps ledger mirrors in-process. It satisfies Store for runs
// without Redis and doubles as the test double for coordinator tests.
type MemoryStore struct {
	mu   sync.Mutex
	runs map[string][]Entry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]Entry)}
}

func (s *MemoryStore) Append(_ context.Context, runID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = append(s.runs[runID], e)
	return nil
}

func (s *MemoryStore) Entries(_ context.Context, runID string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.runs[runID]...), nil
}

func (s *MemoryStore) Clear(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runs, runID)
	return nil
}

func (s *MemoryStore) Runs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.runs))
	for id := range s.runs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ─── RedisStore ───────────────────────────────────────────────────────────────

const (
	redisRunSet    = "mediaprobe:runs"
	redisLedgerTTL = 7 * 24 * time.Hour // leaked ledgers expire after a week
)

// RedisStore mirrors ledgers into Redis, one list per run plus a set of
// known run IDs for discovery.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(addr, password string) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("fixtures: redis ping %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func ledgerKey(runID string) string { return "mediaprobe:ledger:" + runID }

func (s *RedisStore) Append(ctx context.Context, runID string, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("fixtures: marshal entry: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, ledgerKey(runID), raw)
	pipe.Expire(ctx, ledgerKey(runID), redisLedgerTTL)
	pipe.SAdd(ctx, redisRunSet, runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fixtures: redis append: %w", err)
	}
	return nil
}

func (s *RedisStore) Entries(ctx context.Context, runID string) ([]Entry, error) {
	raws, err := s.rdb.LRange(ctx, ledgerKey(runID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("fixtures: redis lrange: %w", err)
	}

	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue // a corrupt entry should not block the rest of the sweep
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) Clear(ctx context.Context, runID string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, ledgerKey(runID))
	pipe.SRem(ctx, redisRunSet, runID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("fixtures: redis clear: %w", err)
	}
	return nil
}

func (s *RedisStore) Runs(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, redisRunSet).Result()
	if err != nil {
		return nil, fmt.Errorf("fixtures: redis smembers: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error { return s.rdb.Close() }
