// Package testkit provides the test doubles the harness's own tests lean
// on: a canned-response HTTP transport that speaks the platform's envelope
// format, and assertion helpers for envelopes.
//
// Most tests prefer the full in-memory platform in internal/stubapi; the
// canned transport is for the cases that need exact control over a single
// response — a malformed body, a transport error, a specific status code.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CannedResponse is one scripted reply, matched by method and path prefix.
type CannedResponse struct {
	Method string // empty matches any method
	Path   string // prefix match on the request path; empty matches any
	Code   int    // 0 means 200
	Body   string // returned verbatim
}

// Transport is an http.RoundTripper that replies from a script instead of
// the network. Install it on the client under test:
//
//	mt := testkit.NewTransport(
//	    testkit.OKEnvelope("GET", "/coupon", `[]`),
//	)
//	client, _ := apiclient.New(base, token,
//	    apiclient.WithHTTPClient(&http.Client{Transport: mt}))
type Transport struct {
	mu    sync.Mutex
	steps []cannedEntry
}

type cannedEntry struct {
	resp  CannedResponse
	calls int
}

// NewTransport builds a Transport from the scripted responses.
func NewTransport(responses ...CannedResponse) *Transport {
	t := &Transport{}
	for _, r := range responses {
		t.steps = append(t.steps, cannedEntry{resp: r})
	}
	return t
}

// RoundTrip matches req against the script. An unmatched request is an
// error so tests fail loudly on unexpected calls.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.steps {
		e := &t.steps[i]
		if e.resp.Method != "" && e.resp.Method != req.Method {
			continue
		}
		if e.resp.Path != "" && !strings.HasPrefix(req.URL.Path, e.resp.Path) {
			continue
		}

		e.calls++
		code := e.resp.Code
		if code == 0 {
			code = http.StatusOK
		}
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: code,
			Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
			Header:     header,
			Body:       io.NopCloser(bytes.NewReader([]byte(e.resp.Body))),
			Request:    req,
		}, nil
	}

	return nil, fmt.Errorf("testkit: unexpected %s %s — no matching canned response", req.Method, req.URL.Path)
}

// Uncalled returns the scripted responses that were never matched. Tests
// assert this is empty when every reply must be consumed.
func (t *Transport) Uncalled() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, e := range t.steps {
		if e.calls == 0 {
			out = append(out, fmt.Sprintf("%s %s", e.resp.Method, e.resp.Path))
		}
	}
	return out
}

// ─── Envelope builders ────────────────────────────────────────────────────────

// OKEnvelope scripts a 200 {status: OK} reply with data as raw JSON.
func OKEnvelope(method, path, data string) CannedResponse {
	return CannedResponse{
		Method: method,
		Path:   path,
		Code:   http.StatusOK,
		Body:   fmt.Sprintf(`{"status":"OK","data":%s}`, data),
	}
}

// ErrorEnvelope scripts a {status: ERROR} reply with data as raw JSON.
func ErrorEnvelope(method, path string, code int, data string) CannedResponse {
	return CannedResponse{
		Method: method,
		Path:   path,
		Code:   code,
		Body:   fmt.Sprintf(`{"status":"ERROR","data":%s}`, data),
	}
}

// NotFoundEnvelope scripts the platform's single-entity not-found contract:
// transport 200, domain ERROR, null data.
func NotFoundEnvelope(method, path string) CannedResponse {
	return ErrorEnvelope(method, path, http.StatusOK, "null")
}

// MustJSON marshals v for scripted bodies and panics on failure; test-only.
func MustJSON(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(raw)
}
