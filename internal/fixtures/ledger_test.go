package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
)

// fakeDeleter records DELETE endpoints and scripts failures per endpoint.
type fakeDeleter struct {
	mu       sync.Mutex
	deleted  []string
	failWith map[string]error // endpoint -> transport error
	rejects  map[string]int   // endpoint -> transport code
}

func (f *fakeDeleter) Delete(_ context.Context, endpoint string) (*apiclient.Envelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failWith[endpoint]; ok {
		return nil, err
	}
	code := 200
	if c, ok := f.rejects[endpoint]; ok {
		code = c
	}
	f.deleted = append(f.deleted, endpoint)
	return &apiclient.Envelope{Code: code, Status: apiclient.StatusOK, Data: json.RawMessage(`null`)}, nil
}

func TestDeleteEndpointPerKind(t *testing.T) {
	assert.Equal(t, "/coupon/1", Entry{Kind: KindCoupon, ID: "1"}.DeleteEndpoint())
	assert.Equal(t, "/coupon/group/2", Entry{Kind: KindCouponGroup, ID: "2"}.DeleteEndpoint())
	assert.Equal(t, "/category/3", Entry{Kind: KindCategory, ID: "3"}.DeleteEndpoint())
	assert.Equal(t, "/media/4", Entry{Kind: KindMedia, ID: "4"}.DeleteEndpoint())
}

func TestFlushDeletesInCreationOrder(t *testing.T) {
	l := NewLedger("run1", nil)
	l.Track(KindCouponGroup, "g1")
	l.Track(KindCoupon, "c1")
	l.Track(KindCoupon, "c2")

	d := &fakeDeleter{}
	stats := NewCoordinator(d, nil).Flush(context.Background(), l)

	assert.Equal(t, FlushStats{Attempted: 3, Deleted: 3}, stats)
	assert.Equal(t, []string{"/coupon/group/g1", "/coupon/c1", "/coupon/c2"}, d.deleted)
}

func TestFlushIsBestEffort(t *testing.T) {
	l := NewLedger("run1", nil)
	l.Track(KindCoupon, "ok")
	l.Track(KindCoupon, "boom")
	l.Track(KindCoupon, "rejected")

	d := &fakeDeleter{
		failWith: map[string]error{"/coupon/boom": errors.New("connection reset")},
		rejects:  map[string]int{"/coupon/rejected": 500},
	}
	stats := NewCoordinator(d, nil).Flush(context.Background(), l)

	// One transport failure, one non-2xx rejection, one success. The pass
	// keeps going after each failure and never returns an error.
	assert.Equal(t, FlushStats{Attempted: 3, Deleted: 1, Failed: 2}, stats)
}

func TestFlushDeletesDoubleTrackedFixtureOnce(t *testing.T) {
	l := NewLedger("run1", nil)
	l.Track(KindCoupon, "c1")
	l.Track(KindCouponGroup, "c1") // same id, different kind: distinct fixture
	l.Track(KindCoupon, "c1")

	d := &fakeDeleter{}
	stats := NewCoordinator(d, nil).Flush(context.Background(), l)

	assert.Equal(t, FlushStats{Attempted: 2, Deleted: 2}, stats)
	assert.Equal(t, []string{"/coupon/c1", "/coupon/group/c1"}, d.deleted)
}

func TestFlushConsumesTheLedgerExactlyOnce(t *testing.T) {
	l := NewLedger("run1", nil)
	l.Track(KindCoupon, "c1")

	d := &fakeDeleter{}
	coord := NewCoordinator(d, nil)

	first := coord.Flush(context.Background(), l)
	second := coord.Flush(context.Background(), l)

	assert.Equal(t, 1, first.Attempted)
	assert.Zero(t, second.Attempted, "second flush must be a no-op")
	assert.Len(t, d.deleted, 1)
}

func TestTrackIgnoresEmptyIDs(t *testing.T) {
	l := NewLedger("run1", nil)
	l.Track(KindCoupon, "")
	assert.Empty(t, l.Entries())
}

func TestTrackMirrorsToStore(t *testing.T) {
	store := NewMemoryStore()
	l := NewLedger("run1", store)
	l.Track(KindCoupon, "c1")
	l.Track(KindMedia, "m1")

	mirrored, err := store.Entries(context.Background(), "run1")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Kind: KindCoupon, ID: "c1"}, {Kind: KindMedia, ID: "m1"}}, mirrored)
}

func TestFlushClearsMirrorOnlyWhenNothingFailed(t *testing.T) {
	t.Run("all deleted clears the mirror", func(t *testing.T) {
		store := NewMemoryStore()
		l := NewLedger("run1", store)
		l.Track(KindCoupon, "c1")

		NewCoordinator(&fakeDeleter{}, nil).Flush(context.Background(), l)

		left, err := store.Entries(context.Background(), "run1")
		require.NoError(t, err)
		assert.Empty(t, left)
	})

	t.Run("a failure keeps the mirror for a later sweep", func(t *testing.T) {
		store := NewMemoryStore()
		l := NewLedger("run1", store)
		l.Track(KindCoupon, "c1")

		d := &fakeDeleter{failWith: map[string]error{"/coupon/c1": errors.New("down")}}
		NewCoordinator(d, nil).Flush(context.Background(), l)

		left, err := store.Entries(context.Background(), "run1")
		require.NoError(t, err)
		assert.Len(t, left, 1)
	})
}

func TestFlushRunSweepsAMirroredRun(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Append(context.Background(), "crashed", Entry{Kind: KindCoupon, ID: "c1"}))
	require.NoError(t, store.Append(context.Background(), "crashed", Entry{Kind: KindCouponGroup, ID: "g1"}))

	d := &fakeDeleter{}
	stats, err := NewCoordinator(d, nil).FlushRun(context.Background(), store, "crashed")
	require.NoError(t, err)
	assert.Equal(t, FlushStats{Attempted: 2, Deleted: 2}, stats)

	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "a fully swept run leaves the store")
}

func TestMemoryStoreRuns(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "b", Entry{Kind: KindCoupon, ID: "1"}))
	require.NoError(t, store.Append(ctx, "a", Entry{Kind: KindCoupon, ID: "2"}))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, runs)
}
