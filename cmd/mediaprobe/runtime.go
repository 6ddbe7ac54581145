package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/mediaprobe/config"
	"github.com/shashiranjanraj/mediaprobe/internal/contract"
	"github.com/shashiranjanraj/mediaprobe/internal/fixtures"
	"github.com/shashiranjanraj/mediaprobe/internal/report"
	"github.com/shashiranjanraj/mediaprobe/internal/runner"
	"github.com/shashiranjanraj/mediaprobe/pkg/apiclient"
	"github.com/shashiranjanraj/mediaprobe/pkg/logger"
)

// runtime bundles everything a run command needs. The shared backends
// (client, schemas, sinks, stores, log handlers) are wired exactly once per
// process; newRun re-keys the run-scoped pieces so monitor mode can execute
// many runs without re-wiring anything.
type runtime struct {
	runID  string
	log    *slog.Logger
	client *apiclient.Client
	runner *runner.Runner

	validator *contract.Validator
	archive   *report.MongoArchive
	store     fixtures.Store
	sinks     []report.Sink

	closers []func()
}

// newRunID is short enough for log lines and unique enough for artifact
// paths and the ledger mirror.
func newRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// buildRuntime runs the preflight checks and wires the optional backends:
// Mongo log archive, Redis ledger mirror, disk and S3 artifact sinks. Any
// optional backend that fails to come up is logged and skipped — only the
// target API itself is a hard precondition.
func buildRuntime() (*runtime, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := config.CheckToken(); err != nil {
		return nil, err
	}

	rt := &runtime{}

	if uri := config.MongoURI(); uri != "" {
		if mh, err := logger.NewMongoHandler(uri, config.MongoDB(), "logs"); err != nil {
			logger.Warn("mongo log archive unavailable", "error", err)
		} else {
			logger.SetHandler(logger.NewMultiHandler(logger.L.Handler(), mh))
			rt.closers = append(rt.closers, mh.Close)
		}

		if archive, err := report.NewMongoArchive(uri, config.MongoDB()); err != nil {
			logger.Warn("mongo run archive unavailable", "error", err)
		} else {
			rt.archive = archive
			rt.closers = append(rt.closers, archive.Close)
		}
	}

	client, err := apiclient.New(config.BaseURL(), config.APIToken(),
		apiclient.WithTimeout(config.ActionTimeout()))
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.client = client

	reg, err := contract.LoadSchemas()
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	rt.validator = contract.New(reg)

	if addr := config.RedisAddr(); addr != "" {
		rs, err := fixtures.NewRedisStore(addr, config.RedisPassword())
		if err != nil {
			logger.Warn("redis ledger mirror unavailable", "error", err)
		} else {
			rt.store = rs
			rt.closers = append(rt.closers, func() { _ = rs.Close() })
		}
	}

	if disk, err := report.NewDiskSink(config.ArtifactDir()); err != nil {
		logger.Warn("disk artifact sink unavailable", "error", err)
	} else {
		rt.sinks = append(rt.sinks, disk)
	}
	if config.S3Bucket() != "" {
		if s3, err := report.NewS3Sink(); err != nil {
			logger.Warn("s3 artifact sink unavailable", "error", err)
		} else {
			rt.sinks = append(rt.sinks, s3)
		}
	}

	rt.newRun()
	return rt, nil
}

// newRun re-keys the runtime for a fresh run: new run ID, new run-scoped
// logger and reporter, new seed. The shared backends stay as wired by
// buildRuntime, so calling this per monitor cycle never stacks another
// handler onto the global logger.
func (rt *runtime) newRun() {
	rt.runID = newRunID()
	rt.log = logger.WithRun(rt.runID)
	rt.runner = &runner.Runner{
		RunID:     rt.runID,
		Client:    rt.client,
		Validator: rt.validator,
		Reporter:  report.NewReporter(rt.runID, rt.log, rt.archive, rt.sinks...),
		Store:     rt.store,
		Log:       rt.log,
		Seed:      time.Now().UnixNano(),
	}
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// warnNearExpiry prints a heads-up when the token is a JWT close to expiry:
// a long suite can outlive a token that was valid at start.
func warnNearExpiry(log *slog.Logger) {
	if exp, ok := config.TokenExpiry(config.APIToken()); ok {
		if left := time.Until(exp); left < 15*time.Minute {
			log.Warn("API token expires soon", "expires_at", exp.Format(time.RFC3339), "remaining", left.Round(time.Second).String())
		}
	}
}
