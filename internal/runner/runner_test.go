package runner

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/internal/report"
	"github.com/shashiranjanraj/mediaprobe/internal/scenario"
	"github.com/shashiranjanraj/mediaprobe/internal/stubapi"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/logger"
)

const testToken = "test-token"

func testRunner(t *testing.T) *Runner {
	t.Helper()

	srv := httptest.NewServer(stubapi.New(testToken).Handler())
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL, testToken)
	require.NoError(t, err)

	reg, err := contract.LoadSchemas()
	require.NoError(t, err)

	return &Runner{
		RunID:     "test-run",
		Client:    client,
		Validator: contract.New(reg),
		Reporter:  report.NewReporter("test-run", logger.L, nil),
		Store:     fixtures.NewMemoryStore(),
		Log:       logger.L,
		Seed:      1,
	}
}

func TestRunSequential(t *testing.T) {
	r := testRunner(t)

	sum, err := r.Run(context.Background(), Plan{
		Scenarios: []string{"category_lifecycle", "coupon_lifecycle", "coupon_not_found"},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Passed)
	assert.Zero(t, sum.Failed)
	assert.Zero(t, sum.Skipped)
	assert.Len(t, sum.Scenarios, 3)
	assert.Zero(t, sum.Cleanup.Failed)
	assert.Equal(t, "test-run", sum.RunID)
}

func TestRunConcurrentWorkers(t *testing.T) {
	r := testRunner(t)

	sum, err := r.Run(context.Background(), Plan{Workers: 4})
	require.NoError(t, err)

	assert.Len(t, sum.Scenarios, len(scenario.Suite()))
	assert.Zero(t, sum.Failed, "scenarios must be isolated enough to run concurrently: %+v", sum.Scenarios)
}

func TestRunMarksSkipsSeparately(t *testing.T) {
	r := testRunner(t)

	// coupons_by_group skips on an empty backend.
	sum, err := r.Run(context.Background(), Plan{Scenarios: []string{"coupons_by_group"}})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Failed)
	require.Len(t, sum.Scenarios, 1)
	assert.Equal(t, "skipped", sum.Scenarios[0].Status)
	assert.NotEmpty(t, sum.Scenarios[0].Reason)
}

func TestRunRejectsUnknownScenario(t *testing.T) {
	r := testRunner(t)
	_, err := r.Run(context.Background(), Plan{Scenarios: []string{"no_such_scenario"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such_scenario")
}

func TestRunOnePanicBecomesFailure(t *testing.T) {
	r := testRunner(t)

	sc := scenario.Scenario{
		Name: "panics",
		Run: func(ctx context.Context, env *scenario.Env) error {
			panic("boom")
		},
	}
	res, _ := r.runOne(context.Background(), sc, time.Second, 1)

	assert.Equal(t, "failed", res.Status)
	assert.Contains(t, res.Reason, "panicked")
}

func TestRunOneFlushesLedgerOnFailure(t *testing.T) {
	r := testRunner(t)

	// The scenario creates a fixture and then fails; cleanup must still
	// delete it.
	sc := scenario.Scenario{
		Name: "creates_then_fails",
		Run: func(ctx context.Context, env *scenario.Env) error {
			resp, err := env.Client.PostForm(ctx, "/coupon/group", url.Values{"name": {"doomed"}})
			if err != nil {
				return err
			}
			rec, err := resp.Record()
			if err != nil {
				return err
			}
			env.Ledger.Track(fixtures.KindCouponGroup, rec.ID())
			return errors.New("deliberate failure")
		},
	}
	res, flush := r.runOne(context.Background(), sc, time.Second, 1)

	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, 1, flush.Attempted)
	assert.Equal(t, 1, flush.Deleted)
}

func TestRunOneRecoversContractViolations(t *testing.T) {
	r := testRunner(t)

	sc := scenario.Scenario{
		Name: "violates",
		Run: func(ctx context.Context, env *scenario.Env) error {
			resp, err := env.Client.Get(ctx, "/coupon/nope", nil)
			if err != nil {
				return err
			}
			// The stub answers 200+ERROR+null; demanding OK yields a report.
			return env.Validator.Check(resp, contract.ExpectOK(contract.KindCoupon)).Err()
		},
	}
	res, _ := r.runOne(context.Background(), sc, time.Second, 1)

	assert.Equal(t, "failed", res.Status)
	assert.NotEmpty(t, res.Violations, "violations must surface in the scenario result")
}

func TestRunEmptySelectionIsAnError(t *testing.T) {
	r := testRunner(t)
	_, err := r.Run(context.Background(), Plan{Tags: []string{"no-such-tag"}})
	require.Error(t, err)
}
