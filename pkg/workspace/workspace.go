// Package workspace lays out the directories trials write into.
//
// A Root holds one Task per exploration run; a Task holds one Trial directory per
// candidate repeat. Trials record the resources they provisioned so failure
// handling can release them after a crash halfway through provisioning.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opscart/hardware-explorer/pkg/models"
)

const resourcesFile = "resources.json"

// Root is the top-level workspace directory
type Root struct {
	Dir string
}

// NewRoot creates the root directory if needed
func NewRoot(dir string) (*Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", abs, err)
	}
	return &Root{Dir: abs}, nil
}

// Task isolates one named exploration inside the root
func (r *Root) Task(name string) (Task, error) {
	dir := filepath.Join(r.Dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Task{}, fmt.Errorf("create task workspace %s: %w", dir, err)
	}
	return Task{Dir: dir}, nil
}

// Task is the workspace of one exploration
type Task struct {
	Dir string
}

// Trial returns the directory for a single repeat of a candidate, creating it
func (t Task) Trial(hw models.Hardware, repeat int) (Trial, error) {
	parts := []string{t.Dir, hw.InstanceType, "nodes", strconv.Itoa(hw.NodeCount)}
	if hw.HasDatabase() {
		parts = append(parts, "dbs", hw.DatabaseInstanceType)
	}
	parts = append(parts, "repeat-"+strconv.Itoa(repeat))

	dir := filepath.Join(parts...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Trial{}, fmt.Errorf("create trial workspace %s: %w", dir, err)
	}
	return Trial{Dir: dir, Hardware: hw, Repeat: repeat}, nil
}

// Trial is the directory one repeat of a candidate runs in
type Trial struct {
	Dir      string
	Hardware models.Hardware
	Repeat   int
}

func (t Trial) String() string {
	return fmt.Sprintf("%s repeat %d (%s)", t.Hardware, t.Repeat, t.Dir)
}

// Path resolves a file name inside the trial directory
func (t Trial) Path(name string) string {
	return filepath.Join(t.Dir, name)
}

// Resources lists what a trial provisioned and must release on failure
type Resources struct {
	Namespaces []string `json:"namespaces,omitempty"`
	Stacks     []string `json:"stacks,omitempty"`
}

// Empty reports whether there is nothing to release
func (r Resources) Empty() bool {
	return len(r.Namespaces) == 0 && len(r.Stacks) == 0
}

// RecordResources overwrites the trial's resource ledger
func (t Trial) RecordResources(resources Resources) error {
	data, err := json.MarshalIndent(resources, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(t.Path(resourcesFile), data)
}

// ReadResources returns the ledger, empty when the trial never provisioned anything
func (t Trial) ReadResources() (Resources, error) {
	var resources Resources

	data, err := os.ReadFile(t.Path(resourcesFile))
	if errors.Is(err, os.ErrNotExist) {
		return resources, nil
	}
	if err != nil {
		return resources, fmt.Errorf("read resources of %s: %w", t.Dir, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return resources, nil
	}
	if err := json.Unmarshal(data, &resources); err != nil {
		return resources, fmt.Errorf("parse resources of %s: %w", t.Dir, err)
	}
	return resources, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
