// Package trial defines the boundary to whatever provisions hardware and drives load.
//
// The core only asks for one measurement per call. Everything else, from
// provisioning through teardown, happens behind a Runner.
package trial

import (
	"context"
	"errors"
	"fmt"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// ErrInvalidHardware marks a candidate that will deterministically fail every repeat
var ErrInvalidHardware = errors.New("invalid hardware configuration")

// Runner executes one performance trial
type Runner interface {
	Run(ctx context.Context, hw models.Hardware, scale models.WorkloadScale, ws workspace.Trial) (*models.Measurement, error)
}

// RunnerFunc adapts a plain function to Runner
type RunnerFunc func(ctx context.Context, hw models.Hardware, scale models.WorkloadScale, ws workspace.Trial) (*models.Measurement, error)

func (f RunnerFunc) Run(ctx context.Context, hw models.Hardware, scale models.WorkloadScale, ws workspace.Trial) (*models.Measurement, error) {
	return f(ctx, hw, scale, ws)
}

// Failure is the typed error every failed trial surfaces as
type Failure struct {
	Hardware models.Hardware
	Repeat   int
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("trial %s repeat %d failed: %v", f.Hardware, f.Repeat, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure wraps err unless it already is a Failure
func NewFailure(hw models.Hardware, repeat int, err error) *Failure {
	var existing *Failure
	if errors.As(err, &existing) {
		return existing
	}
	return &Failure{Hardware: hw, Repeat: repeat, Err: err}
}

// Validate rejects candidates no runner could ever provision
func Validate(hw models.Hardware) error {
	if hw.InstanceType == "" {
		return fmt.Errorf("%w: missing instance type", ErrInvalidHardware)
	}
	if hw.NodeCount < 1 {
		return fmt.Errorf("%w: node count %d", ErrInvalidHardware, hw.NodeCount)
	}
	return nil
}
