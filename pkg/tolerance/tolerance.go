// Package tolerance decides what a failed trial means for the exploration.
//
// Handle returning nil records the repeat as failed and lets the exploration go
// on. Returning an error, always a *FatalError, aborts the whole exploration.
package tolerance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/cleaner"
	"github.com/opscart/hardware-explorer/pkg/trial"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// FailureTolerance is implemented only by the variants in this package
type FailureTolerance interface {
	Handle(ctx context.Context, failure error, ws workspace.Trial) error
	tolerance()
}

// FatalError aborts an exploration
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal trial failure (%s): %v", e.Reason, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err aborts the exploration
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// LoggingTolerance logs the failure and moves on
type LoggingTolerance struct {
	Logger *zap.Logger
}

func (t LoggingTolerance) Handle(_ context.Context, failure error, ws workspace.Trial) error {
	logger(t.Logger).Warn("Trial failed, counting the repeat as failed",
		zap.Stringer("hardware", ws.Hardware),
		zap.Int("repeat", ws.Repeat),
		zap.String("workspace", ws.Dir),
		zap.Error(failure))
	return nil
}

func (LoggingTolerance) tolerance() {}

// CleaningTolerance releases the trial's resources before moving on.
// A failed cleanup is logged, the exploration still continues.
type CleaningTolerance struct {
	Cleaner cleaner.Cleaner
	Logger  *zap.Logger
}

func (t CleaningTolerance) Handle(ctx context.Context, failure error, ws workspace.Trial) error {
	log := logger(t.Logger).With(
		zap.Stringer("hardware", ws.Hardware),
		zap.Int("repeat", ws.Repeat))

	log.Info("Cleaning up after failed trial", zap.Error(failure))
	if t.Cleaner == nil {
		return nil
	}
	if err := t.Cleaner.Clean(ctx, ws); err != nil {
		log.Error("Cleanup failed, resources may have leaked",
			zap.String("workspace", ws.Dir),
			zap.Error(err))
	}
	return nil
}

func (CleaningTolerance) tolerance() {}

// KnownIssue is a transient bug recognised by a fragment of its failure message
type KnownIssue struct {
	Key       string `yaml:"key" json:"key"`
	Signature string `yaml:"signature" json:"signature"`
	// Fatal issues abort instead of being cleaned up
	Fatal bool `yaml:"fatal" json:"fatal"`
}

// DefaultKnownIssues are the flaky failures observed on real trial infrastructure
var DefaultKnownIssues = []KnownIssue{
	{Key: "JPERF-387", Signature: "Failed to install"},
	{Key: "JPERF-382", Signature: "java.net.SocketTimeoutException: Read timed out"},
}

// BugAwareTolerance routes known issues to cleaning and the rest to logging.
// Invalid hardware is fatal: every other repeat would fail the same way.
// Interrupted or timed out trials may have provisioned resources, so they are
// cleaned as well.
type BugAwareTolerance struct {
	Issues   []KnownIssue
	Cleaning CleaningTolerance
	Logging  LoggingTolerance
	Logger   *zap.Logger
}

// NewBugAwareTolerance builds the default tolerance from the issue registry
func NewBugAwareTolerance(issues []KnownIssue, c cleaner.Cleaner, log *zap.Logger) BugAwareTolerance {
	return BugAwareTolerance{
		Issues:   issues,
		Cleaning: CleaningTolerance{Cleaner: c, Logger: log},
		Logging:  LoggingTolerance{Logger: log},
		Logger:   log,
	}
}

func (t BugAwareTolerance) Handle(ctx context.Context, failure error, ws workspace.Trial) error {
	if errors.Is(failure, trial.ErrInvalidHardware) {
		return &FatalError{Reason: "invalid hardware " + ws.Hardware.String(), Err: failure}
	}

	if Interrupted(failure) {
		logger(t.Logger).Info("Trial interrupted, cleaning up",
			zap.Stringer("hardware", ws.Hardware),
			zap.Int("repeat", ws.Repeat),
			zap.Error(failure))
		return t.Cleaning.Handle(ctx, failure, ws)
	}

	issue, ok := t.Match(failure)
	if !ok {
		return t.Logging.Handle(ctx, failure, ws)
	}

	logger(t.Logger).Info("Recognised known issue",
		zap.String("issue", issue.Key),
		zap.Stringer("hardware", ws.Hardware),
		zap.Int("repeat", ws.Repeat))
	if err := t.Cleaning.Handle(ctx, failure, ws); err != nil {
		return err
	}
	if issue.Fatal {
		return &FatalError{Reason: issue.Key, Err: failure}
	}
	return nil
}

// Interrupted reports whether the trial stopped because its context ended
func Interrupted(failure error) bool {
	return errors.Is(failure, context.Canceled) || errors.Is(failure, context.DeadlineExceeded)
}

// Match finds the first known issue whose signature occurs in the failure chain
func (t BugAwareTolerance) Match(failure error) (KnownIssue, bool) {
	if failure == nil {
		return KnownIssue{}, false
	}
	message := failure.Error()
	for _, issue := range t.Issues {
		if issue.Signature != "" && strings.Contains(message, issue.Signature) {
			return issue, true
		}
	}
	return KnownIssue{}, false
}

func (BugAwareTolerance) tolerance() {}

func logger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
