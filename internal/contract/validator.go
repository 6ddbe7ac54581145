// Package contract validates API responses against the platform's wire
// contract: acceptable transport status, expected domain tag, per-entity
// required fields, and optionally a named CUE schema.
//
// Violations are collected, never short-circuited — a response that is
// wrong in three ways produces three findings in one pass, each report
// keeping the full payload for diagnosis.
//
// The not-found contract is deliberate and easy to get wrong: a missing
// single entity arrives as transport 200 + domain ERROR + null data, while
// a list filter that matches nothing arrives as 200 + OK + empty. Checks
// therefore branch on the domain tag and never infer existence from the
// transport code.
package contract

import (
	"fmt"

	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
)

// Kind names an entity type for required-field checks.
type Kind string

const (
	KindNone         Kind = ""
	KindCategory     Kind = "category"
	KindMedia        Kind = "media"
	KindCoupon       Kind = "coupon"
	KindCouponDetail Kind = "coupon_detail"
)

// requiredFields is the structural contract per entity kind.
var requiredFields = map[Kind][]string{
	KindCategory: {"_id", "name", "slug", "date_created", "visible"},
	KindMedia:    {"id", "_id", "title", "type", "status", "duration", "views", "categories", "date_created", "slug"},
	KindCoupon:   {"_id", "group", "code", "date_created"},
	KindCouponDetail: {
		"_id", "group", "code", "date_created",
		"is_reusable", "is_used", "is_valid",
	},
}

// Expect declares what a response must look like.
type Expect struct {
	// Codes is the set of acceptable transport statuses. Empty accepts any.
	Codes []int
	// Status is the expected domain tag; "" skips the check.
	Status string
	// Kind triggers required-field checks on the payload record(s).
	Kind Kind
	// Schema names a registered CUE schema to validate the body against.
	Schema string
}

// Report is the outcome of one Check: zero violations means the response
// honors the contract. The payload is retained verbatim for diagnosis.
type Report struct {
	Violations []string
	Payload    []byte
}

// OK reports whether the response passed every check.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

// Err returns the report as an error, nil when OK. The report itself is
// the error value so callers up the stack can recover the violation list
// with errors.As.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return r
}

// Error implements the error interface.
func (r *Report) Error() string {
	return fmt.Sprintf("contract: %d violation(s): %v (payload: %.500s)",
		len(r.Violations), r.Violations, string(r.Payload))
}

func (r *Report) add(format string, args ...interface{}) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// Validator checks envelopes against Expect declarations.
type Validator struct {
	schemas *SchemaRegistry
}

// New creates a Validator. reg may be nil when no scenario is schema-bound.
func New(reg *SchemaRegistry) *Validator {
	return &Validator{schemas: reg}
}

// Check runs every applicable assertion against env and returns the
// collected findings.
func (v *Validator) Check(env *apiclient.Envelope, exp Expect) *Report {
	report := &Report{Payload: env.Raw()}

	v.checkTransport(env, exp, report)
	v.checkDomainTag(env, exp, report)
	v.checkFields(env, exp, report)
	v.checkSchema(env, exp, report)

	return report
}

// CheckRecordFields verifies one record carries the required field set for
// its kind. Exposed for scenarios that assert on a single fetched entity.
func CheckRecordFields(rec apiclient.Record, kind Kind) []string {
	fields, ok := requiredFields[kind]
	if !ok {
		return nil
	}
	var missing []string
	for _, f := range fields {
		if !rec.Has(f) {
			missing = append(missing, fmt.Sprintf("%s: missing required field %q", kind, f))
		}
	}
	return missing
}

// ─── Individual checks ────────────────────────────────────────────────────────

func (v *Validator) checkTransport(env *apiclient.Envelope, exp Expect, report *Report) {
	if len(exp.Codes) == 0 {
		return
	}
	for _, code := range exp.Codes {
		if env.Code == code {
			return
		}
	}
	report.add("transport status %d not in expected set %v", env.Code, exp.Codes)
}

func (v *Validator) checkDomainTag(env *apiclient.Envelope, exp Expect, report *Report) {
	if exp.Status == "" || env.Status == "" {
		return
	}
	if env.Status != exp.Status {
		report.add("domain status %q, expected %q", env.Status, exp.Status)
	}
}

// checkFields applies the required-field table. For a list payload every
// element is checked; for a single record just that record. A null payload
// is skipped — whether null was allowed is the domain-tag check's job.
func (v *Validator) checkFields(env *apiclient.Envelope, exp Expect, report *Report) {
	if exp.Kind == KindNone || env.DataIsNull() {
		return
	}

	if records, err := env.Records(); err == nil {
		for i, rec := range records {
			for _, m := range CheckRecordFields(rec, exp.Kind) {
				report.add("record[%d]: %s", i, m)
			}
		}
		return
	}

	rec, err := env.Record()
	if err != nil {
		report.add("payload is neither a record nor a list: %v", err)
		return
	}
	report.Violations = append(report.Violations, CheckRecordFields(rec, exp.Kind)...)
}

func (v *Validator) checkSchema(env *apiclient.Envelope, exp Expect, report *Report) {
	if exp.Schema == "" {
		return
	}
	if v.schemas == nil {
		report.add("schema %q requested but no registry is loaded", exp.Schema)
		return
	}
	report.Violations = append(report.Violations, v.schemas.Validate(exp.Schema, env.Raw())...)
}

// ─── Common Expect shapes ─────────────────────────────────────────────────────

// ExpectOK is the happy-path single-entity expectation.
func ExpectOK(kind Kind) Expect {
	return Expect{Codes: []int{200}, Status: apiclient.StatusOK, Kind: kind}
}

// ExpectNotFound is the platform's single-entity not-found contract.
func ExpectNotFound() Expect {
	return Expect{Codes: []int{200}, Status: apiclient.StatusError}
}

// ExpectList is the happy-path list expectation.
func ExpectList(kind Kind, schema string) Expect {
	return Expect{Codes: []int{200}, Status: apiclient.StatusOK, Kind: kind, Schema: schema}
}
