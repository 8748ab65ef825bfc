package main

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/cleaner"
	"github.com/opscart/hardware-explorer/pkg/config"
	"github.com/opscart/hardware-explorer/pkg/explorer"
	"github.com/opscart/hardware-explorer/pkg/logging"
	"github.com/opscart/hardware-explorer/pkg/metrics"
	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/pricing"
	"github.com/opscart/hardware-explorer/pkg/recommender"
	"github.com/opscart/hardware-explorer/pkg/storage"
	"github.com/opscart/hardware-explorer/pkg/tolerance"
	"github.com/opscart/hardware-explorer/pkg/trial"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// session is everything one command invocation needs, built once in setup
type session struct {
	plan    config.Plan
	logger  *zap.Logger
	runID   string
	cache   storage.ResultCache
	metrics *metrics.Recorder
	rec     *recommender.Recommender
}

// setup loads configuration and opens the cache. Commands that run trials
// call explorer on top of it.
func setup(ctx context.Context) (*session, error) {
	applyFlags()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	plan, err := config.LoadPlan(planPath)
	if err != nil {
		return nil, err
	}

	base, err := logging.New(logging.Config{Level: cfg.LogLevel, Development: cfg.Verbose})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger, runID := logging.WithRun(base)

	cacheConfig := cfg.Cache
	cacheConfig.Path = cfg.CachePath()
	if cacheConfig.Type == "" || cacheConfig.Type == "bolt" {
		if _, err := workspace.NewRoot(filepath.Dir(cacheConfig.Path)); err != nil {
			return nil, err
		}
	}
	cache, err := storage.New(ctx, cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize result cache: %w", err)
	}

	provider, err := pricing.NewProvider(plan.Pricing)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("failed to initialize pricing: %w", err)
	}

	logger.Info("session started",
		zap.String("workload", plan.Workload.Label),
		zap.String("cache", cacheConfig.Type),
		zap.String("pricing", provider.Name()))

	return &session{
		plan:    plan,
		logger:  logger,
		runID:   runID,
		cache:   cache,
		metrics: metrics.NewRecorder(),
		rec:     recommender.New(plan.Thresholds, provider),
	}, nil
}

// explorer wires the trial runner, cleanup and tolerance for a task directory
func (s *session) explorer(ctx context.Context, task string) (*explorer.Explorer, error) {
	if cfg.TrialCommand == "" {
		return nil, fmt.Errorf("HWX_TRIAL_COMMAND must be set to run trials")
	}

	root, err := workspace.NewRoot(cfg.WorkspaceDir)
	if err != nil {
		return nil, err
	}
	taskDir, err := root.Task(task)
	if err != nil {
		return nil, err
	}

	source, err := s.measurementSource(ctx)
	if err != nil {
		return nil, err
	}
	runner, err := trial.NewCommandRunner(cfg.TrialCommand, cfg.TrialTimeout, source, s.logger)
	if err != nil {
		return nil, err
	}

	var clean cleaner.Cleaner = cleaner.NopCleaner{}
	if cfg.Cleanup == "kubernetes" {
		kc, err := cleaner.NewKubernetesCleaner(cfg.Kubeconfig, s.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cleanup: %w", err)
		}
		clean = kc
	}

	return explorer.New(explorer.Runtime{
		Runner:      runner,
		Cache:       s.cache,
		Tolerance:   tolerance.NewBugAwareTolerance(s.plan.KnownIssues, clean, s.logger),
		Task:        taskDir,
		Logger:      s.logger,
		Metrics:     s.metrics,
		Concurrency: s.plan.Concurrency,
		RetryFailed: s.plan.RetryFailed,
		Budget:      s.plan.Budget,
	})
}

// measurementSource prefers Prometheus when configured and reachable
func (s *session) measurementSource(ctx context.Context) (trial.MeasurementSource, error) {
	if cfg.PrometheusURL == "" {
		s.logger.Info("reading measurements from trial workspaces", zap.String("file", trial.MeasurementFile))
		return trial.FileSource{}, nil
	}

	prom, err := trial.NewPrometheusSource(cfg.PrometheusURL, s.plan.Prometheus, s.logger)
	if err != nil {
		return nil, err
	}
	if !prom.IsAvailable(ctx) {
		s.logger.Warn("Prometheus not reachable, falling back to measurement files", zap.String("url", cfg.PrometheusURL))
		return trial.FileSource{}, nil
	}
	s.logger.Info("reading measurements from Prometheus", zap.String("url", cfg.PrometheusURL))
	return prom, nil
}

// cachedResults returns the cached results of the plan's workload
func (s *session) cachedResults(ctx context.Context) ([]models.ExplorationResult, error) {
	records, err := s.cache.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached results: %w", err)
	}
	var results []models.ExplorationResult
	for _, rec := range records {
		if rec.Workload == s.plan.Workload.Label {
			results = append(results, rec.ExplorationResult())
		}
	}
	return results, nil
}

func (s *session) close() {
	if cfg.MetricsFile != "" {
		if err := s.metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			s.logger.Warn("failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}
	if err := s.cache.Close(); err != nil {
		s.logger.Warn("failed to close result cache", zap.Error(err))
	}
	_ = s.logger.Sync()
}
