// Package apiclient — envelope.go
//
// The platform wraps every response body in {"status": "OK"|"ERROR",
// "data": <payload>}. The domain status tag is independent of the
// transport code: a missing entity comes back as 200 + ERROR + null, never
// as a 404. Envelope keeps both so validators can check them separately.
package apiclient

import (
	"encoding/json"
	"fmt"
)

// Domain status tags carried in the response body.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Envelope is the normalized result of one API call.
type Envelope struct {
	// Code is the HTTP transport status.
	Code int
	// Status is the domain tag from the body ("OK" or "ERROR").
	Status string
	// Data is the raw payload: an object, an array, or JSON null.
	Data json.RawMessage

	raw []byte
}

func decodeEnvelope(code int, raw []byte) (*Envelope, error) {
	var wire struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode envelope: %w (body: %.200s)", err, string(raw))
	}
	return &Envelope{
		Code:   code,
		Status: wire.Status,
		Data:   wire.Data,
		raw:    raw,
	}, nil
}

// IsOK reports whether the domain tag is "OK".
func (e *Envelope) IsOK() bool { return e.Status == StatusOK }

// DataIsNull reports whether the payload is absent or JSON null.
func (e *Envelope) DataIsNull() bool {
	return len(e.Data) == 0 || string(e.Data) == "null"
}

// Record decodes a single-entity payload. A null payload yields nil with no
// error — that is the platform's not-found shape, not a decode failure.
func (e *Envelope) Record() (Record, error) {
	if e.DataIsNull() {
		return nil, nil
	}
	var r Record
	if err := json.Unmarshal(e.Data, &r); err != nil {
		return nil, fmt.Errorf("apiclient: payload is not an object: %w", err)
	}
	return r, nil
}

// Records decodes a list payload. A null payload yields an empty list.
func (e *Envelope) Records() ([]Record, error) {
	if e.DataIsNull() {
		return nil, nil
	}
	var rs []Record
	if err := json.Unmarshal(e.Data, &rs); err != nil {
		return nil, fmt.Errorf("apiclient: payload is not a list: %w", err)
	}
	return rs, nil
}

// DataText decodes a bare string payload — error endpoints answer with a
// code like "COUPON_CODE_ALREADY_EXISTS" in data. Falls back to the raw
// payload text when data is not a JSON string.
func (e *Envelope) DataText() string {
	var s string
	if err := json.Unmarshal(e.Data, &s); err == nil {
		return s
	}
	return string(e.Data)
}

// Raw returns the undecoded response body, for report attachments.
func (e *Envelope) Raw() []byte { return e.raw }

// ─── Record ───────────────────────────────────────────────────────────────────

// Record is one entity as the API returns it: a loose field map. The
// identifier and relation fields vary in shape between endpoints, so all
// access goes through the helpers below.
type Record map[string]interface{}

// ID returns the record identifier, trying "_id" then "id".
func (r Record) ID() string {
	if id := r.String("_id"); id != "" {
		return id
	}
	return r.String("id")
}

// String returns the field as a string, or "" when absent or another type.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Bool returns the field as a bool; ok is false when absent or another type.
func (r Record) Bool(key string) (bool, bool) {
	b, ok := r[key].(bool)
	return b, ok
}

// Has reports whether the field is present at all.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Relation resolves the named relation field to a scalar identifier.
func (r Record) Relation(key string) string {
	return ResolveRelation(r[key])
}

// ResolveRelation normalizes a relation field to its identifier. The API is
// inconsistent here: depending on the endpoint the same field arrives as a
// bare ID string or as the embedded object. Returns "" for anything else.
func ResolveRelation(v interface{}) string {
	switch rel := v.(type) {
	case string:
		return rel
	case map[string]interface{}:
		id, _ := rel["_id"].(string)
		return id
	default:
		return ""
	}
}
