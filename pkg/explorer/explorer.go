// Package explorer drives an exploration: it asks guidance for candidates, runs
// their repeats, aggregates, caches and reports results back until guidance is done.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opscart/hardware-explorer/pkg/guidance"
	"github.com/opscart/hardware-explorer/pkg/metrics"
	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/stats"
	"github.com/opscart/hardware-explorer/pkg/storage"
	"github.com/opscart/hardware-explorer/pkg/tolerance"
	"github.com/opscart/hardware-explorer/pkg/trial"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// ErrGuidanceStalled is returned when guidance offers a candidate it was already given
var ErrGuidanceStalled = errors.New("guidance repeated a candidate")

// SkippedBudget marks candidates left unexplored once the trial budget ran out
const SkippedBudget = "trial budget exhausted"

// AbortError stops an exploration at the candidate that caused it
type AbortError struct {
	Hardware models.Hardware
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("exploration aborted at %s: %v", e.Hardware, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// Runtime holds every collaborator an exploration needs. It is built once by the
// caller and passed explicitly; nothing in this package reaches for globals.
type Runtime struct {
	Runner    trial.Runner
	Cache     storage.ResultCache
	Tolerance tolerance.FailureTolerance
	Task      workspace.Task
	Logger    *zap.Logger
	Metrics   *metrics.Recorder

	// Concurrency bounds parallel repeats of one candidate, 0 runs all at once
	Concurrency int
	// RetryFailed reruns candidates whose cached repeats all failed
	RetryFailed bool
	// Budget caps trials per exploration, 0 is unlimited
	Budget int
}

// Explorer runs guidance-driven explorations over one Runtime
type Explorer struct {
	rt     Runtime
	logger *zap.Logger
}

// New checks that rt carries every required collaborator
func New(rt Runtime) (*Explorer, error) {
	if rt.Runner == nil {
		return nil, fmt.Errorf("runtime has no trial runner")
	}
	if rt.Cache == nil {
		return nil, fmt.Errorf("runtime has no result cache")
	}
	if rt.Tolerance == nil {
		return nil, fmt.Errorf("runtime has no failure tolerance")
	}
	if rt.Task.Dir == "" {
		return nil, fmt.Errorf("runtime has no task workspace")
	}
	if rt.Logger == nil {
		rt.Logger = zap.NewNop()
	}
	return &Explorer{rt: rt, logger: rt.Logger.Named("explorer")}, nil
}

// Explore runs until guidance has no candidates left. On abort it returns the
// results collected so far along with an *AbortError naming the candidate.
func (e *Explorer) Explore(ctx context.Context, scale models.WorkloadScale, g guidance.Guidance, repeats int) ([]models.ExplorationResult, error) {
	if repeats < 1 {
		return nil, fmt.Errorf("repeats must be at least 1, got %d", repeats)
	}

	log := e.logger.With(zap.String("workload", scale.Label))
	log.Info("Starting exploration", zap.Int("repeats", repeats), zap.Int("resumed_from", len(g.History())))

	var (
		results []models.ExplorationResult
		seen    = make(map[models.Hardware]bool)
		budget  = e.rt.Budget
	)
	for g.HasNext() {
		hw, ok := g.Next()
		if !ok {
			break
		}
		if seen[hw] {
			return results, &AbortError{Hardware: hw, Err: ErrGuidanceStalled}
		}
		seen[hw] = true

		result, err := e.exploreCandidate(ctx, scale, hw, repeats, &budget)
		if err != nil {
			log.Error("Exploration aborted",
				zap.Stringer("hardware", hw),
				zap.Int("results", len(results)),
				zap.Error(err))
			return results, &AbortError{Hardware: hw, Err: err}
		}

		g.Observe(result)
		results = append(results, result)
	}

	log.Info("Exploration finished", zap.Int("results", len(results)))
	return results, nil
}

func (e *Explorer) exploreCandidate(ctx context.Context, scale models.WorkloadScale, hw models.Hardware, repeats int, budget *int) (models.ExplorationResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ExplorationResult{}, err
	}

	key := storage.Key(scale, hw)
	log := e.logger.With(zap.Stringer("hardware", hw), zap.String("key", key))

	if cached, ok := e.lookup(ctx, key, log); ok {
		return cached, nil
	}

	if e.rt.Budget > 0 {
		if *budget < repeats {
			log.Warn("Skipping candidate", zap.String("reason", SkippedBudget))
			return models.ExplorationResult{Hardware: hw, Skipped: SkippedBudget}, nil
		}
		*budget -= repeats
	}

	measurements, err := e.runRepeats(ctx, scale, hw, repeats)
	if err != nil {
		return models.ExplorationResult{}, err
	}
	// an interrupted candidate must not be cached as failed
	if err := ctx.Err(); err != nil {
		return models.ExplorationResult{}, err
	}

	result := models.ExplorationResult{
		Hardware: hw,
		Result:   stats.Aggregate(hw, measurements),
		Attempts: repeats,
		Failures: repeats - len(measurements),
	}
	e.rt.Metrics.Candidate(result.Succeeded())

	if err := e.rt.Cache.Put(ctx, storage.NewRecord(scale, result)); err != nil {
		log.Error("Failed to cache result", zap.Error(err))
	}

	if result.Succeeded() {
		log.Info("Candidate explored",
			zap.Float64("apdex", result.Result.Apdex.Mean),
			zap.Float64("apdex_spread", result.Result.Apdex.Spread),
			zap.Float64("error_rate", result.Result.ErrorRate.Mean),
			zap.Int("failures", result.Failures))
	} else {
		log.Warn("Every repeat failed", zap.Int("attempts", result.Attempts))
	}
	return result, nil
}

// lookup reports a usable cached result. Cache errors count as misses.
func (e *Explorer) lookup(ctx context.Context, key string, log *zap.Logger) (models.ExplorationResult, bool) {
	rec, err := e.rt.Cache.Get(ctx, key)
	switch {
	case err != nil:
		e.rt.Metrics.CacheLookup(metrics.CacheError)
		log.Warn("Cache lookup failed, running trials", zap.Error(err))
		return models.ExplorationResult{}, false
	case rec == nil:
		e.rt.Metrics.CacheLookup(metrics.CacheMiss)
		return models.ExplorationResult{}, false
	case rec.Result == nil && e.rt.RetryFailed:
		e.rt.Metrics.CacheLookup(metrics.CacheMiss)
		log.Info("Retrying candidate whose cached repeats all failed")
		return models.ExplorationResult{}, false
	}

	e.rt.Metrics.CacheLookup(metrics.CacheHit)
	log.Info("Reusing cached result", zap.Time("cached_at", rec.UpdatedAt))
	return rec.ExplorationResult(), true
}

// runRepeats runs every repeat and waits for all of them. A fatal tolerance
// decision cancels the siblings still running and is returned.
func (e *Explorer) runRepeats(ctx context.Context, scale models.WorkloadScale, hw models.Hardware, repeats int) ([]models.Measurement, error) {
	group, gctx := errgroup.WithContext(ctx)
	limit := e.rt.Concurrency
	if limit < 1 || limit > repeats {
		limit = repeats
	}
	group.SetLimit(limit)

	outcomes := make([]*models.Measurement, repeats)
	for i := range repeats {
		group.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			m, err := e.runRepeat(gctx, scale, hw, i+1)
			outcomes[i] = m
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	measurements := make([]models.Measurement, 0, repeats)
	for _, m := range outcomes {
		if m != nil {
			measurements = append(measurements, *m)
		}
	}
	return measurements, nil
}

// runRepeat returns a measurement, or nil after a tolerated failure
func (e *Explorer) runRepeat(ctx context.Context, scale models.WorkloadScale, hw models.Hardware, repeat int) (*models.Measurement, error) {
	ws, err := e.rt.Task.Trial(hw, repeat)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	m, runErr := e.rt.Runner.Run(ctx, hw, scale, ws)
	if runErr == nil && m == nil {
		runErr = errors.New("runner returned no measurement")
	}
	took := time.Since(started)
	if runErr == nil {
		e.rt.Metrics.Trial(hw.InstanceType, metrics.OutcomeSuccess, took)
		return m, nil
	}

	// cleanup must finish even when a sibling's fatal failure cancelled ctx
	failure := trial.NewFailure(hw, repeat, runErr)
	if err := e.rt.Tolerance.Handle(context.WithoutCancel(ctx), failure, ws); err != nil {
		e.rt.Metrics.Trial(hw.InstanceType, metrics.OutcomeFatal, took)
		return nil, err
	}
	e.rt.Metrics.Trial(hw.InstanceType, metrics.OutcomeTolerated, took)
	return nil, nil
}
