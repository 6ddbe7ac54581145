// Package extract builds the cross-entity identifier index a run needs to
// parameterize later scenarios: which coupon groups exist, which coupon
// codes are taken, which media items can be referenced.
//
// The index is rebuilt from a list response, not accumulated — callers that
// want a union ingest the union themselves. Identifiers are deduplicated
// but keep insertion order so "first" selection is reproducible.
package extract

import (
	"math/rand"

	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/collection"
)

// Stats summarizes one ingest pass.
type Stats struct {
	RecordsSeen int `json:"records_seen"`
	GroupIDs    int `json:"group_ids"`
	SubgroupIDs int `json:"subgroup_ids"`
	CouponCodes int `json:"coupon_codes"`
	MediaIDs    int `json:"media_ids"`
}

// Index holds the deduplicated identifier sets for the current run.
type Index struct {
	groupIDs    []string
	subgroupIDs []string
	couponCodes []string
	mediaIDs    []string
	recordsSeen int

	rng *rand.Rand
}

// New creates an empty Index. rng drives random selection; pass a seeded
// source when a failure needs to be replayed.
func New(rng *rand.Rand) *Index {
	return &Index{rng: rng}
}

// Ingest replaces the index contents by scanning the list payload of env.
// A non-list payload is a no-op: single-entity responses carry no indexable
// population.
func (ix *Index) Ingest(env *apiclient.Envelope) {
	records, err := env.Records()
	if err != nil || records == nil {
		return
	}

	ix.recordsSeen = len(records)
	ix.groupIDs = uniqueField(records, func(rec apiclient.Record) string { return rec.Relation("group") })
	ix.subgroupIDs = uniqueField(records, func(rec apiclient.Record) string { return rec.Relation("subgroup") })
	ix.couponCodes = uniqueField(records, func(rec apiclient.Record) string { return rec.String("code") })

	// Only media-shaped records feed the media set. Coupons and groups have
	// "_id" fields too, but their identifiers are not referenceable as media.
	media := collection.Filter(records, func(rec apiclient.Record) bool { return rec.Has("title") })
	ix.mediaIDs = uniqueField(media, apiclient.Record.ID)
}

// uniqueField projects records through field, drops empties, and
// deduplicates while keeping first-seen order.
func uniqueField(records []apiclient.Record, field func(apiclient.Record) string) []string {
	ids := collection.Filter(collection.Map(records, field), func(s string) bool { return s != "" })
	return collection.Unique(ids)
}

// GroupIDs returns the resolved coupon-group identifiers, insertion order.
func (ix *Index) GroupIDs() []string { return append([]string(nil), ix.groupIDs...) }

// SubgroupIDs returns the resolved coupon-subgroup identifiers, insertion order.
func (ix *Index) SubgroupIDs() []string { return append([]string(nil), ix.subgroupIDs...) }

// CouponCodes returns the unique coupon codes, insertion order.
func (ix *Index) CouponCodes() []string { return append([]string(nil), ix.couponCodes...) }

// MediaIDs returns the unique media identifiers, insertion order.
func (ix *Index) MediaIDs() []string { return append([]string(nil), ix.mediaIDs...) }

// FirstGroupID returns the first group identifier, ok=false when empty.
func (ix *Index) FirstGroupID() (string, bool) {
	if len(ix.groupIDs) == 0 {
		return "", false
	}
	return ix.groupIDs[0], true
}

// RandomGroupID returns a uniformly chosen group identifier.
func (ix *Index) RandomGroupID() (string, bool) {
	return collection.Sample(ix.rng, ix.groupIDs)
}

// RandomSubgroupID returns a uniformly chosen subgroup identifier.
func (ix *Index) RandomSubgroupID() (string, bool) {
	return collection.Sample(ix.rng, ix.subgroupIDs)
}

// RandomCouponCode returns a uniformly chosen known coupon code.
func (ix *Index) RandomCouponCode() (string, bool) {
	return collection.Sample(ix.rng, ix.couponCodes)
}

// Stats reports how many raw records the last ingest saw and how many
// unique identifiers survive per category.
func (ix *Index) Stats() Stats {
	return Stats{
		RecordsSeen: ix.recordsSeen,
		GroupIDs:    len(ix.groupIDs),
		SubgroupIDs: len(ix.subgroupIDs),
		CouponCodes: len(ix.couponCodes),
		MediaIDs:    len(ix.mediaIDs),
	}
}
