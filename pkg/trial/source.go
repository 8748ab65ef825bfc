package trial

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/opscart/hardware-explorer/pkg/models"
	"github.com/opscart/hardware-explorer/pkg/workspace"
)

// MeasurementFile is written by trial commands into the trial workspace
const MeasurementFile = "measurement.json"

// Window is the wall-clock span a trial's load ran in
type Window struct {
	Start time.Time
	End   time.Time
}

// MeasurementSource turns a finished trial into a measurement
type MeasurementSource interface {
	Measure(ctx context.Context, hw models.Hardware, ws workspace.Trial, window Window) (*models.Measurement, error)
	Name() string
}

// FileSource reads the measurement the trial command left in its workspace
type FileSource struct{}

func (FileSource) Measure(_ context.Context, _ models.Hardware, ws workspace.Trial, _ Window) (*models.Measurement, error) {
	data, err := os.ReadFile(ws.Path(MeasurementFile))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", MeasurementFile, err)
	}

	var m models.Measurement
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MeasurementFile, err)
	}
	if err := check(m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (FileSource) Name() string {
	return "File"
}

func check(m models.Measurement) error {
	if m.Apdex < 0 || m.Apdex > 1 {
		return fmt.Errorf("apdex %v out of range [0, 1]", m.Apdex)
	}
	if m.ErrorRate < 0 || m.ErrorRate > 1 {
		return fmt.Errorf("error rate %v out of range [0, 1]", m.ErrorRate)
	}
	if m.Throughput < 0 {
		return fmt.Errorf("negative throughput %v", m.Throughput)
	}
	return nil
}
