package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/mediaprobe/config"
	"github.com/shashiranjanraj/mediaprobe/internal/runner"
)

var (
	flagPlan      string
	flagScenarios []string
	flagTags      []string
	flagWorkers   int
	flagTimeout   time.Duration
)

func init() {
	runCmd.Flags().StringVar(&flagPlan, "plan", "", "YAML plan file (flags override its fields)")
	runCmd.Flags().StringSliceVar(&flagScenarios, "scenario", nil, "scenario names to run (default: all)")
	runCmd.Flags().StringSliceVar(&flagTags, "tag", nil, "only run scenarios carrying one of these tags")
	runCmd.Flags().IntVar(&flagWorkers, "workers", 0, "concurrent scenario workers (default: WORKERS config)")
	runCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-scenario timeout (default: SCENARIO_TIMEOUT config)")
}

// mediaprobe run — execute the suite once against the configured platform.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the contract suite against the configured platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()
		warnNearExpiry(rt.log)

		plan, err := assemblePlan()
		if err != nil {
			return err
		}

		// Ctrl-C cancels in-flight scenarios; their deferred cleanup still
		// runs before the process exits.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sum, err := rt.runner.Run(ctx, plan)
		if err != nil {
			return err
		}
		if sum.Failed > 0 {
			return fmt.Errorf("run %s: %d scenario(s) failed", sum.RunID, sum.Failed)
		}
		return nil
	},
}

// assemblePlan merges the plan file with CLI flags and config defaults.
// Precedence: flags > plan file > config.
func assemblePlan() (runner.Plan, error) {
	var plan runner.Plan
	if flagPlan != "" {
		loaded, err := runner.LoadPlan(flagPlan)
		if err != nil {
			return runner.Plan{}, err
		}
		plan = loaded
	}

	if len(flagScenarios) > 0 {
		plan.Scenarios = flagScenarios
	}
	if len(flagTags) > 0 {
		plan.Tags = flagTags
	}
	if flagWorkers > 0 {
		plan.Workers = flagWorkers
	}
	if flagTimeout > 0 {
		plan.ScenarioTimeout = flagTimeout
	}

	if plan.Workers <= 0 {
		plan.Workers = config.Workers()
	}
	if plan.ScenarioTimeout <= 0 {
		plan.ScenarioTimeout = config.ScenarioTimeout()
	}
	return plan, nil
}
