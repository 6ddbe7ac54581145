package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mediaprobe/internal/scenario"
	"github.com/shashiranjanraj/mediaprobe/pkg/collection"
)

func names(scs []scenario.Scenario) []string {
	return collection.Map(scs, func(s scenario.Scenario) string { return s.Name })
}

func TestPlanZeroValueSelectsEverything(t *testing.T) {
	selected, err := Plan{}.Select(scenario.Suite())
	require.NoError(t, err)
	assert.Len(t, selected, len(scenario.Suite()))
}

func TestPlanSelectByName(t *testing.T) {
	selected, err := Plan{Scenarios: []string{"coupon_not_found", "media_list"}}.Select(scenario.Suite())
	require.NoError(t, err)
	// Suite order is preserved regardless of plan order.
	assert.Equal(t, []string{"media_list", "coupon_not_found"}, names(selected))
}

func TestPlanSelectByTag(t *testing.T) {
	selected, err := Plan{Tags: []string{"negative"}}.Select(scenario.Suite())
	require.NoError(t, err)
	for _, sc := range selected {
		tagged := collection.Contains(sc.Tags, func(tag string) bool { return tag == "negative" })
		assert.True(t, tagged, "%s selected without the tag", sc.Name)
	}
	assert.NotEmpty(t, selected)
}

func TestPlanNameAndTagIntersect(t *testing.T) {
	selected, err := Plan{
		Scenarios: []string{"coupon_lifecycle", "coupon_not_found"},
		Tags:      []string{"write"},
	}.Select(scenario.Suite())
	require.NoError(t, err)
	assert.Equal(t, []string{"coupon_lifecycle"}, names(selected))
}

func TestPlanUnknownNameFailsLoudly(t *testing.T) {
	_, err := Plan{Scenarios: []string{"coupon_lifecycel"}}.Select(scenario.Suite())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coupon_lifecycel")
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workers: 4
scenario_timeout: 45s
tags: [coupon]
scenarios:
  - coupon_lifecycle
`), 0o644))

	plan, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Workers)
	assert.Equal(t, 45*time.Second, plan.ScenarioTimeout)
	assert.Equal(t, []string{"coupon"}, plan.Tags)
	assert.Equal(t, []string{"coupon_lifecycle"}, plan.Scenarios)
}

func TestLoadPlanRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`workers: [not an int`), 0o644))
	_, err := LoadPlan(path)
	require.Error(t, err)
}
