package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/logger"
)

// Monitor mode re-keys the same runtime once per cycle. The run-scoped
// pieces must be fresh each time while the shared backends and the global
// logger chain stay exactly as wired at startup.
func TestNewRunReKeysWithoutRewiring(t *testing.T) {
	client, err := apiclient.New("http://platform.test", "tok")
	require.NoError(t, err)
	reg, err := contract.LoadSchemas()
	require.NoError(t, err)

	rt := &runtime{
		client:    client,
		validator: contract.New(reg),
		store:     fixtures.NewMemoryStore(),
	}
	handlerBefore := logger.L.Handler()

	rt.newRun()
	firstID := rt.runID
	firstRunner := rt.runner
	require.NotEmpty(t, firstID)

	rt.newRun()

	assert.NotEqual(t, firstID, rt.runID, "every cycle gets its own run ID")
	assert.NotSame(t, firstRunner, rt.runner)
	assert.Equal(t, rt.runID, rt.runner.RunID)

	assert.Same(t, client, rt.runner.Client, "the API client is wired once and shared")
	assert.Same(t, rt.validator, rt.runner.Validator)

	assert.Same(t, handlerBefore, logger.L.Handler(),
		"re-keying a run must not stack another handler onto the global logger")
}
