// Package scenario — coupon.go
//
// Coupon flows carry the platform's two trickiest business rules, both
// asserted here exactly as documented:
//
//   - Creating a coupon with a custom code that already exists on a
//     REUSABLE coupon is a hard error (400 + ERROR +
//     "COUPON_CODE_ALREADY_EXISTS"). The same collision on a NON-REUSABLE
//     coupon is resolved silently: the platform generates a fresh system
//     code and the create succeeds.
//   - Updating a coupon to a code that already exists is silently
//     rejected: the call reports success, the other submitted fields are
//     applied, and the original code is retained. Callers cannot tell a
//     full update from a partial one; that permissiveness is the
//     platform's documented contract, so the harness asserts it rather
//     than flagging it.
package scenario

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
)

const codeAlreadyExists = "COUPON_CODE_ALREADY_EXISTS"

// createGroup creates a throwaway coupon group so write scenarios never
// depend on live data. Returns the group identifier.
func (e *Env) createGroup(ctx context.Context) (string, error) {
	rec, err := e.create(ctx, fixtures.KindCouponGroup, "/coupon/group", url.Values{
		"name": {uniqueName("probe-group")},
	}, contract.KindNone)
	if err != nil {
		return "", err
	}
	return rec.ID(), nil
}

// createCoupon creates a coupon in groupID with the given custom code and
// extra fields, tracking it for cleanup.
func (e *Env) createCoupon(ctx context.Context, groupID, code string, extra url.Values) (apiclient.Record, error) {
	fields := url.Values{
		"group": {groupID},
		"code":  {code},
	}
	for k, vs := range extra {
		fields[k] = vs
	}
	return e.create(ctx, fixtures.KindCoupon, "/coupon", fields, contract.KindCoupon)
}

// CouponLifecycle drives one coupon through the full state machine inside
// a throwaway group.
func CouponLifecycle(ctx context.Context, env *Env) error {
	groupID, err := env.createGroup(ctx)
	if err != nil {
		return err
	}

	code := uniqueName("MP")
	rec, err := env.createCoupon(ctx, groupID, code, url.Values{
		"detail": {"lifecycle probe"},
		"amount": {"10"},
	})
	if err != nil {
		return err
	}
	id := rec.ID()

	detail, err := env.verify(ctx, fixtures.KindCoupon, "/coupon/"+id, id, contract.KindCouponDetail)
	if err != nil {
		return err
	}
	if got := detail.Relation("group"); got != groupID {
		return fmt.Errorf("verify coupon: group %q, created in %q", got, groupID)
	}

	resp, err := env.Client.PostForm(ctx, "/coupon/"+id, url.Values{
		"detail": {"lifecycle probe updated"},
		"amount": {"25"},
	})
	if err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	if err := env.check("update_coupon", resp, contract.ExpectOK(contract.KindCoupon)); err != nil {
		return err
	}
	updated, err := resp.Record()
	if err != nil || updated == nil {
		return fmt.Errorf("update coupon: no record in response: %v", err)
	}
	if err := fieldChanged(updated, "detail", "lifecycle probe updated"); err != nil {
		return err
	}

	return env.deleteAndVerifyAbsent(ctx, fixtures.KindCoupon, "/coupon/"+id)
}

// CouponNotFound asserts the not-found contract for an identifier that was
// never created: transport 200, domain ERROR, null payload — never a 404.
func CouponNotFound(ctx context.Context, env *Env) error {
	ghost := strings.ReplaceAll(uuid.NewString(), "-", "")[:24]

	resp, err := env.Client.Get(ctx, "/coupon/"+ghost, nil)
	if err != nil {
		return err
	}
	if err := env.check("coupon_not_found", resp, contract.ExpectNotFound()); err != nil {
		return err
	}
	if !resp.DataIsNull() {
		return fmt.Errorf("coupon_not_found: payload is not null for a never-created identifier")
	}
	return nil
}

// CouponDuplicateCodeReusable asserts the hard-error branch of the
// duplicate-code rule: a custom code colliding with an existing coupon
// fails the create of a REUSABLE coupon outright.
func CouponDuplicateCodeReusable(ctx context.Context, env *Env) error {
	groupID, err := env.createGroup(ctx)
	if err != nil {
		return err
	}

	code := uniqueName("DUP")
	if _, err := env.createCoupon(ctx, groupID, code, nil); err != nil {
		return err
	}

	resp, err := env.Client.PostForm(ctx, "/coupon", url.Values{
		"group":       {groupID},
		"code":        {code},
		"is_reusable": {"true"},
	})
	if err != nil {
		return fmt.Errorf("duplicate reusable create: %w", err)
	}

	// Track defensively if the platform created it anyway, so a contract
	// regression never leaks a fixture.
	if resp.IsOK() {
		if rec, _ := resp.Record(); rec != nil {
			env.Ledger.Track(fixtures.KindCoupon, rec.ID())
		}
	}

	if err := env.check("duplicate_reusable", resp, contract.Expect{
		Codes:  []int{400},
		Status: apiclient.StatusError,
	}); err != nil {
		return err
	}
	if got := resp.DataText(); got != codeAlreadyExists {
		return fmt.Errorf("duplicate_reusable: payload %q, expected %q", got, codeAlreadyExists)
	}
	return nil
}

// CouponDuplicateCodeNonReusable asserts the divergent branch: the same
// collision on a NON-REUSABLE coupon succeeds with a fresh system code.
func CouponDuplicateCodeNonReusable(ctx context.Context, env *Env) error {
	groupID, err := env.createGroup(ctx)
	if err != nil {
		return err
	}

	code := uniqueName("DUP")
	if _, err := env.createCoupon(ctx, groupID, code, nil); err != nil {
		return err
	}

	second, err := env.createCoupon(ctx, groupID, code, url.Values{
		"is_reusable": {"false"},
	})
	if err != nil {
		return err
	}

	got := second.String("code")
	if got == code {
		return fmt.Errorf("duplicate_nonreusable: platform kept the colliding code %q instead of generating a fresh one", code)
	}
	if got == "" {
		return fmt.Errorf("duplicate_nonreusable: created coupon has no code")
	}
	return nil
}

// CouponUpdateSilentRejection asserts the silent-rejection rule on update:
// requesting an already-taken code reports success, keeps the original
// code, and still applies the other submitted fields.
func CouponUpdateSilentRejection(ctx context.Context, env *Env) error {
	groupID, err := env.createGroup(ctx)
	if err != nil {
		return err
	}

	codeA := uniqueName("SRA")
	first, err := env.createCoupon(ctx, groupID, codeA, url.Values{
		"detail": {"original detail"},
		"amount": {"10"},
	})
	if err != nil {
		return err
	}

	codeB := uniqueName("SRB")
	if _, err := env.createCoupon(ctx, groupID, codeB, nil); err != nil {
		return err
	}

	resp, err := env.Client.PostForm(ctx, "/coupon/"+first.ID(), url.Values{
		"code":   {codeB},
		"detail": {"updated detail"},
		"amount": {"25"},
	})
	if err != nil {
		return fmt.Errorf("silent rejection update: %w", err)
	}
	if err := env.check("silent_rejection", resp, contract.ExpectOK(contract.KindCoupon)); err != nil {
		return err
	}

	updated, err := resp.Record()
	if err != nil || updated == nil {
		return fmt.Errorf("silent rejection update: no record in response: %v", err)
	}
	if got := updated.String("code"); got != codeA {
		return fmt.Errorf("silent_rejection: code is %q, expected the original %q to be retained", got, codeA)
	}
	if err := fieldChanged(updated, "detail", "updated detail"); err != nil {
		return err
	}
	if got := fmt.Sprint(updated["amount"]); got != "25" {
		return fmt.Errorf("silent_rejection: amount is %v, submitted 25", updated["amount"])
	}
	return nil
}

// CouponMalformedCreate asserts the error contract for an intentionally
// broken payload: empty group and an unparseable valid_from must be
// rejected with a non-null explanation.
func CouponMalformedCreate(ctx context.Context, env *Env) error {
	resp, err := env.Client.PostForm(ctx, "/coupon", url.Values{
		"group":      {""},
		"code":       {uniqueName("BAD")},
		"valid_from": {"not-a-date"},
	})
	if err != nil {
		return fmt.Errorf("malformed create: %w", err)
	}

	if resp.IsOK() {
		if rec, _ := resp.Record(); rec != nil {
			env.Ledger.Track(fixtures.KindCoupon, rec.ID())
		}
	}

	if err := env.check("malformed_create", resp, contract.Expect{
		Codes:  []int{400, 500},
		Status: apiclient.StatusError,
	}); err != nil {
		return err
	}
	if resp.DataIsNull() {
		return fmt.Errorf("malformed_create: error payload is null, expected an explanation")
	}
	return nil
}
