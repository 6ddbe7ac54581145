package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/mediaprobe/config"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/logger"
)

var flagCleanupRun string

func init() {
	cleanupCmd.Flags().StringVar(&flagCleanupRun, "run", "", "sweep only this run ID (default: every mirrored run)")
}

// mediaprobe cleanup — delete fixtures leaked by runs that never flushed.
// Requires the Redis ledger mirror; without it nothing survives a crash.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete fixtures leaked by crashed or killed runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Validate(); err != nil {
			return err
		}
		if config.RedisAddr() == "" {
			return fmt.Errorf("cleanup: REDIS_ADDR is not configured, no ledger mirror to sweep")
		}

		store, err := fixtures.NewRedisStore(config.RedisAddr(), config.RedisPassword())
		if err != nil {
			return err
		}
		defer store.Close()

		client, err := apiclient.New(config.BaseURL(), config.APIToken(),
			apiclient.WithTimeout(config.ActionTimeout()))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		runIDs := []string{flagCleanupRun}
		if flagCleanupRun == "" {
			runIDs, err = store.Runs(ctx)
			if err != nil {
				return err
			}
		}
		if len(runIDs) == 0 {
			logger.Info("cleanup: no mirrored runs found")
			return nil
		}

		coord := fixtures.NewCoordinator(client, logger.L)
		var failed int
		for _, runID := range runIDs {
			stats, err := coord.FlushRun(ctx, store, runID)
			if err != nil {
				logger.Error("cleanup: sweep failed", "run_id", runID, "error", err)
				failed++
				continue
			}
			logger.Info("cleanup: run swept",
				"run_id", runID,
				"attempted", stats.Attempted,
				"deleted", stats.Deleted,
				"failed", stats.Failed,
			)
			if stats.Failed > 0 {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("cleanup: %d run(s) could not be fully swept", failed)
		}
		return nil
	},
}
