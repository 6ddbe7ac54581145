// Package runner executes a selection of scenarios against the live
// platform and folds the outcomes into a run summary.
//
// Each scenario gets its own Env: a fresh ledger, a fresh identifier index
// and a scenario-scoped logger, so pooled workers never share mutable
// state. Cleanup runs per scenario on every exit path, including panics,
// and its result never changes the scenario's outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/extract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/internal/report"
	"github.com/shashiranjanraj/mediaprobe/internal/scenario"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/collection"
	"github.com/shashiranjanraj/mediaprobe/pkg/metrics"
	"github.com/shashiranjanraj/mediaprobe/pkg/workerpool"
)

const defaultScenarioTimeout = 90 * time.Second

// Runner drives one suite run.
type Runner struct {
	RunID     string
	Client    *apiclient.Client
	Validator *contract.Validator
	Reporter  *report.Reporter
	Store     fixtures.Store // nil disables the ledger mirror
	Log       *slog.Logger
	Seed      int64
}

// Run executes the plan's selection of scenarios and returns the summary.
// The summary is also handed to the reporter, which persists it.
func (r *Runner) Run(ctx context.Context, plan Plan) (report.RunSummary, error) {
	selected, err := plan.Select(scenario.Suite())
	if err != nil {
		return report.RunSummary{}, err
	}
	if len(selected) == 0 {
		return report.RunSummary{}, errors.New("runner: plan selects no scenarios")
	}

	timeout := plan.ScenarioTimeout
	if timeout <= 0 {
		timeout = defaultScenarioTimeout
	}

	start := time.Now()
	r.Log.Info("run started",
		"run_id", r.RunID,
		"scenarios", collection.Map(selected, func(sc scenario.Scenario) string { return sc.Name }),
		"workers", plan.Workers,
		"seed", r.Seed,
	)

	results := make([]report.ScenarioResult, len(selected))
	var cleanup report.CleanupSummary
	var mu sync.Mutex

	execute := func(i int, sc scenario.Scenario) {
		res, flush := r.runOne(ctx, sc, timeout, r.Seed+int64(i))
		mu.Lock()
		results[i] = res
		cleanup.Attempted += flush.Attempted
		cleanup.Deleted += flush.Deleted
		cleanup.Failed += flush.Failed
		mu.Unlock()
	}

	if plan.Workers > 1 {
		pool := workerpool.New(plan.Workers)
		var wg sync.WaitGroup
		for i, sc := range selected {
			i, sc := i, sc
			wg.Add(1)
			if err := pool.SubmitWait(func() {
				defer wg.Done()
				execute(i, sc)
			}); err != nil {
				wg.Done()
				r.Log.Error("runner: submit failed", "scenario", sc.Name, "error", err)
			}
		}
		wg.Wait()
		pool.Shutdown()
	} else {
		for i, sc := range selected {
			execute(i, sc)
		}
	}

	sum := report.RunSummary{
		RunID:     r.RunID,
		StartedAt: start.UTC(),
		Duration:  time.Since(start).Round(time.Millisecond).String(),
		Cleanup:   cleanup,
		Scenarios: results,
	}
	for _, res := range results {
		switch res.Status {
		case "passed":
			sum.Passed++
		case "skipped":
			sum.Skipped++
		default:
			sum.Failed++
		}
	}

	metrics.RecordRun(sum.Passed, sum.Failed, sum.Skipped, start)
	metrics.RecordCleanup(cleanup.Deleted, cleanup.Failed)
	r.Reporter.Finish(sum)

	r.Log.Info("run finished",
		"run_id", r.RunID,
		"passed", sum.Passed,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"cleanup_deleted", cleanup.Deleted,
		"cleanup_failed", cleanup.Failed,
		"duration", sum.Duration,
	)
	return sum, nil
}

// runOne executes a single scenario with its own Env and timeout, flushing
// the scenario's ledger on every exit path.
func (r *Runner) runOne(ctx context.Context, sc scenario.Scenario, timeout time.Duration, seed int64) (report.ScenarioResult, fixtures.FlushStats) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rng := rand.New(rand.NewSource(seed))
	log := r.Log.With("scenario", sc.Name)
	ledger := fixtures.NewLedger(r.RunID, r.Store)

	env := &scenario.Env{
		Client:    r.Client,
		Index:     extract.New(rng),
		Ledger:    ledger,
		Validator: r.Validator,
		Reporter:  r.Reporter,
		Log:       log,
		Rand:      rng,
		Name:      sc.Name,
	}

	start := time.Now()
	log.Info("scenario started")
	err := runGuarded(ctx, sc, env)
	elapsed := time.Since(start)

	// Cleanup is bounded separately: the scenario's deadline may already
	// have expired, and leaked fixtures still deserve their DELETEs.
	flushCtx, flushCancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer flushCancel()
	flush := fixtures.NewCoordinator(r.Client, log).Flush(flushCtx, ledger)

	res := report.ScenarioResult{
		Name:     sc.Name,
		Duration: elapsed.Round(time.Millisecond).String(),
	}
	switch {
	case err == nil:
		res.Status = "passed"
		log.Info("scenario passed", "duration", res.Duration)
	case errors.Is(err, scenario.ErrSkip):
		res.Status = "skipped"
		res.Reason = err.Error()
		log.Info("scenario skipped", "reason", res.Reason)
	default:
		res.Status = "failed"
		res.Reason = err.Error()
		var rep *contract.Report
		if errors.As(err, &rep) {
			res.Violations = rep.Violations
		}
		log.Error("scenario failed", "reason", res.Reason, "duration", res.Duration)
	}
	metrics.RecordScenario(sc.Name, res.Status, start)
	return res, flush
}

// runGuarded runs the scenario body, converting a panic into a failure so
// one bad scenario cannot take down the pooled workers or skip cleanup.
func runGuarded(ctx context.Context, sc scenario.Scenario, env *scenario.Env) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scenario panicked: %v", rec)
		}
	}()
	return sc.Run(ctx, env)
}
