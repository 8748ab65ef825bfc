package trial

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// exit code a trial command uses to report a configuration it can never run
const exitInvalidHardware = 64

// CommandRunner delegates provisioning and load generation to an external command.
// The command receives the candidate through HWX_* environment variables and runs
// inside the trial workspace; the measurement is read back from Source afterwards.
type CommandRunner struct {
	Command []string
	Timeout time.Duration
	Source  MeasurementSource
	Logger  *zap.Logger
}

// NewCommandRunner splits a shell-like command line on whitespace
func NewCommandRunner(command string, timeout time.Duration, source MeasurementSource, logger *zap.Logger) (*CommandRunner, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("trial command is empty")
	}
	if source == nil {
		source = FileSource{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRunner{Command: args, Timeout: timeout, Source: source, Logger: logger}, nil
}

func (r *CommandRunner) Run(ctx context.Context, hw models.Hardware, scale models.WorkloadScale, ws workspace.Trial) (*models.Measurement, error) {
	if err := Validate(hw); err != nil {
		return nil, NewFailure(hw, ws.Repeat, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Dir = ws.Dir
	cmd.Env = append(os.Environ(), environment(hw, scale, ws)...)
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	started := time.Now()
	r.Logger.Info("Starting trial",
		zap.Stringer("hardware", hw),
		zap.Int("repeat", ws.Repeat),
		zap.String("workspace", ws.Dir))

	runErr := cmd.Run()
	window := Window{Start: started, End: time.Now()}

	if runErr != nil {
		return nil, NewFailure(hw, ws.Repeat, commandError(ctx, runErr, stderr.String()))
	}

	measurement, err := r.Source.Measure(ctx, hw, ws, window)
	if err != nil {
		return nil, NewFailure(hw, ws.Repeat, fmt.Errorf("collect measurement: %w", err))
	}

	r.Logger.Info("Trial finished",
		zap.Stringer("hardware", hw),
		zap.Int("repeat", ws.Repeat),
		zap.Duration("duration", window.End.Sub(window.Start)),
		zap.Float64("apdex", measurement.Apdex))
	return measurement, nil
}

func commandError(ctx context.Context, err error, output string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("trial command interrupted: %w", ctxErr)
	}
	output = lastLines(output, 20)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitInvalidHardware {
		return fmt.Errorf("%w: %s", ErrInvalidHardware, output)
	}
	if output == "" {
		return fmt.Errorf("trial command: %w", err)
	}
	return fmt.Errorf("trial command: %w: %s", err, output)
}

func environment(hw models.Hardware, scale models.WorkloadScale, ws workspace.Trial) []string {
	return []string{
		"HWX_INSTANCE_TYPE=" + hw.InstanceType,
		"HWX_NODE_COUNT=" + strconv.Itoa(hw.NodeCount),
		"HWX_DATABASE_INSTANCE_TYPE=" + hw.DatabaseInstanceType,
		"HWX_WORKLOAD=" + scale.Label,
		"HWX_DATASET=" + scale.Dataset,
		"HWX_VIRTUAL_USERS=" + strconv.Itoa(scale.Load.VirtualUsers),
		"HWX_RAMP=" + scale.Load.Ramp.String(),
		"HWX_FLAT=" + scale.Load.Flat.String(),
		"HWX_MAX_OVERALL_LOAD=" + strconv.FormatFloat(scale.Load.MaxOverallLoad, 'f', -1, 64),
		"HWX_VU_NODES=" + strconv.Itoa(scale.VUNodes),
		"HWX_REPEAT=" + strconv.Itoa(ws.Repeat),
		"HWX_TRIAL_DIR=" + ws.Dir,
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
