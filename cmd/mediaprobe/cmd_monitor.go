package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/mediaprobe/config"
	"github.com/shashiranjanraj/mediaprobe/internal/monitor"
	"github.com/shashiranjanraj/mediaprobe/internal/report"
)

// mediaprobe monitor — run the suite on an interval and serve the results.
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the suite continuously and expose results over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		plan, err := assemblePlan()
		if err != nil {
			return err
		}

		m := &monitor.Monitor{
			Addr:     config.MonitorAddr(),
			Interval: config.MonitorInterval(),
			Archive:  rt.archive,
			Log:      rt.log,
			Run: func(ctx context.Context) (report.RunSummary, error) {
				// Each cycle is its own run: fresh ID, fresh ledger mirror key,
				// fresh artifact prefix. The backends stay as wired at startup.
				rt.newRun()
				return rt.runner.Run(ctx, plan)
			},
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return m.Start(ctx)
	},
}
