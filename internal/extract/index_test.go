package extract

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
)

func listEnvelope(t *testing.T, payload string) *apiclient.Envelope {
	t.Helper()
	return &apiclient.Envelope{
		Code:   200,
		Status: apiclient.StatusOK,
		Data:   json.RawMessage(payload),
	}
}

func TestIngestDeduplicatesAndResolvesRelations(t *testing.T) {
	ix := New(rand.New(rand.NewSource(1)))

	ix.Ingest(listEnvelope(t, `[
		{"_id": "c1", "code": "SUMMER", "group": "g1", "subgroup": "sg1"},
		{"_id": "c2", "code": "WINTER", "group": {"_id": "g1", "name": "seasonal"}, "subgroup": "sg1"},
		{"_id": "c3", "code": "SUMMER", "group": "g2"}
	]`))

	assert.Equal(t, []string{"g1", "g2"}, ix.GroupIDs(), "object and string relations resolve to the same id")
	assert.Equal(t, []string{"sg1"}, ix.SubgroupIDs())
	assert.Equal(t, []string{"SUMMER", "WINTER"}, ix.CouponCodes())
	assert.Empty(t, ix.MediaIDs(), "coupon identifiers are not media identifiers")

	stats := ix.Stats()
	assert.Equal(t, 3, stats.RecordsSeen)
	assert.Equal(t, 2, stats.GroupIDs)
	assert.Equal(t, 1, stats.SubgroupIDs)
	assert.Equal(t, 2, stats.CouponCodes)
}

func TestIngestIndexesMediaByShape(t *testing.T) {
	ix := New(rand.New(rand.NewSource(1)))

	ix.Ingest(listEnvelope(t, `[
		{"_id": "m1", "title": "First Film", "slug": "first-film"},
		{"_id": "m2", "title": "Second Film", "slug": "second-film"},
		{"_id": "m1", "title": "First Film", "slug": "first-film"}
	]`))

	assert.Equal(t, []string{"m1", "m2"}, ix.MediaIDs())
	assert.Empty(t, ix.GroupIDs())
	assert.Empty(t, ix.CouponCodes())
	assert.Equal(t, 2, ix.Stats().MediaIDs)
}

func TestIngestReplacesInsteadOfAccumulating(t *testing.T) {
	ix := New(rand.New(rand.NewSource(1)))

	ix.Ingest(listEnvelope(t, `[{"_id": "m1", "title": "First Film", "group": "g1"}]`))
	ix.Ingest(listEnvelope(t, `[{"_id": "m9", "title": "Ninth Film", "group": "g9"}]`))

	assert.Equal(t, []string{"g9"}, ix.GroupIDs())
	assert.Equal(t, []string{"m9"}, ix.MediaIDs())
	assert.Equal(t, 1, ix.Stats().RecordsSeen)
}

func TestIngestIgnoresNonListPayloads(t *testing.T) {
	ix := New(rand.New(rand.NewSource(1)))
	ix.Ingest(listEnvelope(t, `[{"_id": "c1", "group": "g1"}]`))

	// A single-entity payload must not wipe the index.
	ix.Ingest(listEnvelope(t, `{"_id": "c2", "group": "g2"}`))

	assert.Equal(t, []string{"g1"}, ix.GroupIDs())
}

func TestRandomSelectionIsSeedDriven(t *testing.T) {
	payload := `[
		{"_id": "c1", "group": "g1", "code": "A"},
		{"_id": "c2", "group": "g2", "code": "B"},
		{"_id": "c3", "group": "g3", "code": "C"}
	]`

	a := New(rand.New(rand.NewSource(42)))
	a.Ingest(listEnvelope(t, payload))
	b := New(rand.New(rand.NewSource(42)))
	b.Ingest(listEnvelope(t, payload))

	for i := 0; i < 10; i++ {
		ga, oka := a.RandomGroupID()
		gb, okb := b.RandomGroupID()
		require.True(t, oka)
		require.True(t, okb)
		assert.Equal(t, ga, gb, "same seed must replay the same picks")
	}
}

func TestSelectionOnEmptyIndex(t *testing.T) {
	ix := New(rand.New(rand.NewSource(1)))

	_, ok := ix.FirstGroupID()
	assert.False(t, ok)
	_, ok = ix.RandomGroupID()
	assert.False(t, ok)
	_, ok = ix.RandomCouponCode()
	assert.False(t, ok)
}
