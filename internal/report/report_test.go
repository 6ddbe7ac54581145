package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskSinkWritesUnderRoot(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewDiskSink(dir)
	require.NoError(t, err)

	require.NoError(t, sink.Put(filepath.Join("run1", "scenario", "payload.json"), []byte(`{"a":1}`)))

	raw, err := os.ReadFile(filepath.Join(dir, "run1", "scenario", "payload.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(raw))
}

func TestReporterFansOutToEverySink(t *testing.T) {
	a := &memSink{}
	b := &memSink{}
	r := NewReporter("run1", nil, nil, a, b)

	r.Attach("coupon_lifecycle", "create_payload", []byte(`{}`))

	wantPath := filepath.Join("run1", "coupon_lifecycle", "create_payload.json")
	assert.Contains(t, a.puts, wantPath)
	assert.Contains(t, b.puts, wantPath)
}

func TestReporterSinkFailureIsSwallowed(t *testing.T) {
	bad := &memSink{err: errors.New("disk full")}
	good := &memSink{}
	r := NewReporter("run1", nil, nil, bad, good)

	// Must not panic, and the healthy sink still receives the artifact.
	r.Attach("s", "n", []byte(`{}`))
	assert.Len(t, good.puts, 1)
}

func TestFinishWritesSummary(t *testing.T) {
	sink := &memSink{}
	r := NewReporter("run1", nil, nil, sink)

	r.Finish(RunSummary{
		RunID:     "run1",
		StartedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Passed:    3,
		Failed:    1,
		Scenarios: []ScenarioResult{{Name: "x", Status: "passed", Duration: "1s"}},
	})

	wantPath := filepath.Join("run1", "summary.json")
	require.Contains(t, sink.puts, wantPath)

	var sum RunSummary
	require.NoError(t, json.Unmarshal(sink.puts[wantPath], &sum))
	assert.Equal(t, 3, sum.Passed)
	assert.Equal(t, 1, sum.Failed)
}

func TestAttachValueMarshalsIndented(t *testing.T) {
	sink := &memSink{}
	r := NewReporter("run1", nil, nil, sink)

	r.AttachValue("s", "stats", map[string]int{"groups": 2})

	raw := sink.puts[filepath.Join("run1", "s", "stats.json")]
	require.NotNil(t, raw)
	assert.JSONEq(t, `{"groups":2}`, string(raw))
}

// memSink collects artifacts in memory for assertions.
type memSink struct {
	puts map[string][]byte
	err  error
}

func (m *memSink) Put(path string, content []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.puts == nil {
		m.puts = make(map[string][]byte)
	}
	m.puts[path] = content
	return nil
}
