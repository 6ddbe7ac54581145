// Package scenario contains the black-box flows the harness drives against
// the media platform: create → read → update → delete → verify per entity
// type, plus the negative flows around duplicate coupon codes and malformed
// input.
//
// A scenario receives everything it may touch through Env — the
// authenticated client, the identifier index, the fixture ledger, the
// validator and the reporter — constructed by the suite driver and injected
// per scenario. Scenarios never share fixtures and never reach for global
// state, so they can run on concurrent workers against the same live
// backend.
//
// The backend is shared and not under our control: another team's run may
// be mutating it at the same time. Human-chosen identifiers therefore
// always carry a timestamp + random suffix, and a scenario whose
// precondition data cannot be obtained (say, no coupon groups exist yet)
// skips rather than fails.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/extract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/internal/report"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
)

// ErrSkip marks a scenario whose precondition data could not be obtained.
// The runner reports it as skipped, not failed.
var ErrSkip = errors.New("scenario: skipped")

// Skipf builds an ErrSkip with a reason.
func Skipf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrSkip}, args...)...)
}

// Func is the body of one scenario.
type Func func(ctx context.Context, env *Env) error

// Scenario is a named, taggable flow.
type Scenario struct {
	Name string
	Tags []string
	Run  Func
}

// Env carries everything a scenario may use. One Env is built per scenario
// execution; the ledger in it belongs to that execution alone.
type Env struct {
	Client    *apiclient.Client
	Index     *extract.Index
	Ledger    *fixtures.Ledger
	Validator *contract.Validator
	Reporter  *report.Reporter
	Log       *slog.Logger
	Rand      *rand.Rand

	// Name of the scenario currently running, used to key attachments.
	Name string
}

// Suite returns every registered scenario in a stable order.
func Suite() []Scenario {
	return []Scenario{
		{Name: "category_list", Tags: []string{"category", "read"}, Run: CategoryList},
		{Name: "category_lifecycle", Tags: []string{"category", "write"}, Run: CategoryLifecycle},
		{Name: "media_list", Tags: []string{"media", "read"}, Run: MediaList},
		{Name: "media_lifecycle", Tags: []string{"media", "write"}, Run: MediaLifecycle},
		{Name: "coupon_group_list", Tags: []string{"coupon", "read"}, Run: CouponGroupList},
		{Name: "coupons_by_group", Tags: []string{"coupon", "read"}, Run: CouponsByGroup},
		{Name: "coupons_by_subgroup", Tags: []string{"coupon", "read"}, Run: CouponsBySubgroup},
		{Name: "coupon_lifecycle", Tags: []string{"coupon", "write"}, Run: CouponLifecycle},
		{Name: "coupon_not_found", Tags: []string{"coupon", "negative"}, Run: CouponNotFound},
		{Name: "coupon_duplicate_code_reusable", Tags: []string{"coupon", "negative"}, Run: CouponDuplicateCodeReusable},
		{Name: "coupon_duplicate_code_nonreusable", Tags: []string{"coupon", "negative"}, Run: CouponDuplicateCodeNonReusable},
		{Name: "coupon_update_silent_rejection", Tags: []string{"coupon", "write"}, Run: CouponUpdateSilentRejection},
		{Name: "coupon_malformed_create", Tags: []string{"coupon", "negative"}, Run: CouponMalformedCreate},
	}
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

// uniqueName builds a human-chosen identifier that cannot collide with a
// concurrently running worker: timestamp plus random suffix.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

// check validates env's response and returns the report error, attaching
// the payload when the contract is violated.
func (e *Env) check(step string, env *apiclient.Envelope, exp contract.Expect) error {
	rep := e.Validator.Check(env, exp)
	if !rep.OK() {
		e.Reporter.Attach(e.Name, step+"_payload", env.Raw())
		return fmt.Errorf("%s: %w", step, rep.Err())
	}
	return nil
}

// create POSTs fields, asserts the create contract, tracks the new fixture
// and returns the created record.
func (e *Env) create(ctx context.Context, kind, endpoint string, fields url.Values, ck contract.Kind) (apiclient.Record, error) {
	env, err := e.Client.PostForm(ctx, endpoint, fields)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", kind, err)
	}
	if err := e.check("create_"+kind, env, contract.ExpectOK(ck)); err != nil {
		return nil, err
	}

	rec, err := env.Record()
	if err != nil || rec == nil {
		return nil, fmt.Errorf("create %s: no record in response: %v", kind, err)
	}
	if rec.ID() == "" {
		return nil, fmt.Errorf("create %s: record has no identifier", kind)
	}

	// Track before any further call so a failure mid-scenario still leaves
	// the fixture on the ledger.
	e.Ledger.Track(kind, rec.ID())
	e.Log.Debug("fixture created", "kind", kind, "id", rec.ID())
	return rec, nil
}

// verify GETs the entity back and asserts the identity round-trip law.
func (e *Env) verify(ctx context.Context, kind, endpoint, wantID string, ck contract.Kind) (apiclient.Record, error) {
	env, err := e.Client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("verify %s: %w", kind, err)
	}
	if err := e.check("verify_"+kind, env, contract.ExpectOK(ck)); err != nil {
		return nil, err
	}

	rec, err := env.Record()
	if err != nil || rec == nil {
		return nil, fmt.Errorf("verify %s: no record in response: %v", kind, err)
	}
	if rec.ID() != wantID {
		return nil, fmt.Errorf("verify %s: identifier %q, created %q", kind, rec.ID(), wantID)
	}
	return rec, nil
}

// deleteAndVerifyAbsent DELETEs the entity, then re-GETs it and asserts the
// not-found contract: transport 200, domain ERROR, null payload.
func (e *Env) deleteAndVerifyAbsent(ctx context.Context, kind, endpoint string) error {
	env, err := e.Client.Delete(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if err := e.check("delete_"+kind, env, contract.Expect{Codes: []int{200, 204}}); err != nil {
		return err
	}

	// Two reads, because not-found must be stable: an entity that flaps
	// back into existence after its delete is a backend defect.
	for _, step := range []string{"verify_absent_", "verify_absent_stable_"} {
		env, err = e.Client.Get(ctx, endpoint, nil)
		if err != nil {
			return fmt.Errorf("verify absent %s: %w", kind, err)
		}
		if err := e.check(step+kind, env, contract.ExpectNotFound()); err != nil {
			return err
		}
		if !env.DataIsNull() {
			return fmt.Errorf("verify absent %s: payload is not null after delete", kind)
		}
	}
	return nil
}

// fieldChanged asserts that an updated record carries the submitted value.
func fieldChanged(rec apiclient.Record, field, want string) error {
	if got := rec.String(field); got != want {
		return fmt.Errorf("update: field %q is %q, submitted %q", field, got, want)
	}
	return nil
}

// slugify mirrors how the platform derives slugs from display names; used
// only to build plausible fixture payloads, never asserted on.
func slugify(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}
