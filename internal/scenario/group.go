// Package scenario — group.go
//
// Coupon-group flows, including the index-driven "coupons by group" read
// which needs a group identifier harvested from live data.
package scenario

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
)

// CouponGroupList asserts the list contract and schema on GET /coupon/group.
func CouponGroupList(ctx context.Context, env *Env) error {
	resp, err := env.Client.Get(ctx, "/coupon/group", nil)
	if err != nil {
		return err
	}
	return env.check("list_groups", resp, contract.Expect{
		Codes:  []int{200},
		Status: apiclient.StatusOK,
		Schema: "group_list",
	})
}

// CouponsByGroup harvests the identifier index from the full coupon list,
// picks a random group and asserts the group-filtered list contract: every
// returned coupon's group relation resolves to the requested identifier.
//
// Skips when the backend holds no coupons with a resolvable group — a
// shared environment we do not control may legitimately be empty.
func CouponsByGroup(ctx context.Context, env *Env) error {
	all, err := env.Client.Get(ctx, "/coupon", nil)
	if err != nil {
		return err
	}
	if err := env.check("list_coupons", all, contract.ExpectList(contract.KindCoupon, "coupon_list")); err != nil {
		return err
	}

	env.Index.Ingest(all)
	stats := env.Index.Stats()
	env.Log.Info("identifier index rebuilt",
		"records", stats.RecordsSeen,
		"groups", stats.GroupIDs,
		"codes", stats.CouponCodes,
	)
	env.Reporter.AttachValue(env.Name, "index_stats", stats)

	groupID, ok := env.Index.RandomGroupID()
	if !ok {
		return Skipf("no group identifiers available in live data")
	}

	filtered, err := env.Client.Get(ctx, "/coupon", url.Values{"group": {groupID}})
	if err != nil {
		return err
	}
	if err := env.check("coupons_by_group", filtered, contract.ExpectList(contract.KindCoupon, "coupon_list")); err != nil {
		return err
	}

	records, err := filtered.Records()
	if err != nil {
		return fmt.Errorf("coupons_by_group: %w", err)
	}
	for i, rec := range records {
		if got := rec.Relation("group"); got != groupID {
			return fmt.Errorf("coupons_by_group: record[%d] group %q, filtered by %q", i, got, groupID)
		}
	}
	return nil
}

// CouponsBySubgroup is the subgroup twin of CouponsByGroup: harvest the
// index, pick a random subgroup, assert the subgroup-filtered list against
// its own schema and check every record's subgroup relation.
//
// Skips when no coupon in live data carries a subgroup — the field is
// optional on the platform.
func CouponsBySubgroup(ctx context.Context, env *Env) error {
	all, err := env.Client.Get(ctx, "/coupon", nil)
	if err != nil {
		return err
	}
	if err := env.check("list_coupons", all, contract.ExpectList(contract.KindCoupon, "coupon_list")); err != nil {
		return err
	}

	env.Index.Ingest(all)

	subID, ok := env.Index.RandomSubgroupID()
	if !ok {
		return Skipf("no subgroup identifiers available in live data")
	}

	filtered, err := env.Client.Get(ctx, "/coupon", url.Values{"subgroup": {subID}})
	if err != nil {
		return err
	}
	if err := env.check("coupons_by_subgroup", filtered, contract.ExpectList(contract.KindCoupon, "coupon_subgroup_list")); err != nil {
		return err
	}

	records, err := filtered.Records()
	if err != nil {
		return fmt.Errorf("coupons_by_subgroup: %w", err)
	}
	for i, rec := range records {
		if got := rec.Relation("subgroup"); got != subID {
			return fmt.Errorf("coupons_by_subgroup: record[%d] subgroup %q, filtered by %q", i, got, subID)
		}
	}
	return nil
}
