package tolerance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/trial"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

type countingCleaner struct {
	calls int
	err   error
}

func (c *countingCleaner) Clean(context.Context, workspace.Trial) error {
	c.calls++
	return c.err
}

var ws = workspace.Trial{Hardware: models.Hardware{InstanceType: "c5.large", NodeCount: 2}, Repeat: 1, Dir: "/tmp/ws"}

func TestLoggingToleranceContinues(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	err := LoggingTolerance{Logger: zap.New(core)}.Handle(context.Background(), errors.New("boom"), ws)

	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "2 x c5.large", entry.ContextMap()["hardware"])
	assert.Equal(t, "boom", entry.ContextMap()["error"])
}

func TestCleaningToleranceSwallowsCleanupErrors(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	c := &countingCleaner{err: errors.New("namespace stuck")}

	err := CleaningTolerance{Cleaner: c, Logger: zap.New(core)}.Handle(context.Background(), errors.New("boom"), ws)
	require.NoError(t, err)
	assert.Equal(t, 1, c.calls)
	assert.Equal(t, 1, logs.FilterMessage("Cleanup failed, resources may have leaked").Len())
}

func TestBugAwareToleranceRoutesKnownIssues(t *testing.T) {
	cases := []struct {
		name      string
		failure   error
		cleaned   int
		wantFatal bool
	}{
		{
			name:    "known install failure is cleaned",
			failure: &trial.Failure{Hardware: ws.Hardware, Err: errors.New("Failed to install Jira Software 7.13.0")},
			cleaned: 1,
		},
		{
			name:    "known socket timeout is cleaned",
			failure: fmt.Errorf("virtual users: %w", errors.New("java.net.SocketTimeoutException: Read timed out")),
			cleaned: 1,
		},
		{
			name:    "unknown failure is only logged",
			failure: errors.New("disk full"),
		},
		{
			name:      "invalid hardware is fatal",
			failure:   trial.NewFailure(ws.Hardware, 1, fmt.Errorf("%w: no such type", trial.ErrInvalidHardware)),
			wantFatal: true,
		},
		{
			name:    "interrupted trial is cleaned",
			failure: trial.NewFailure(ws.Hardware, 2, fmt.Errorf("trial command interrupted: %w", context.Canceled)),
			cleaned: 1,
		},
		{
			name:    "timed out trial is cleaned",
			failure: trial.NewFailure(ws.Hardware, 1, fmt.Errorf("trial command interrupted: %w", context.DeadlineExceeded)),
			cleaned: 1,
		},
		{
			name:      "fatal known issue is cleaned then aborts",
			failure:   errors.New("quota exceeded for instance family"),
			cleaned:   1,
			wantFatal: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &countingCleaner{}
			issues := append(DefaultKnownIssues, KnownIssue{Key: "QUOTA", Signature: "quota exceeded", Fatal: true})
			tol := NewBugAwareTolerance(issues, c, zap.NewNop())

			err := tol.Handle(context.Background(), tc.failure, ws)
			assert.Equal(t, tc.cleaned, c.calls)
			if tc.wantFatal {
				require.Error(t, err)
				assert.True(t, IsFatal(err))
				assert.ErrorIs(t, err, tc.failure)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMatchPicksFirstSignature(t *testing.T) {
	tol := NewBugAwareTolerance(DefaultKnownIssues, nil, nil)

	issue, ok := tol.Match(errors.New("Failed to install Jira"))
	require.True(t, ok)
	assert.Equal(t, "JPERF-387", issue.Key)

	_, ok = tol.Match(nil)
	assert.False(t, ok)
}
