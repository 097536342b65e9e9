// Package checkpoint persists render progress so an interrupted run resumes
// from the last completed unit. Units already marked done are skipped without
// re-validating their output.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

// Steps the pipeline records besides per-month renders.
const (
	StepScan       = "media_scan"
	StepAssignment = "media_assignment"
)

type Checkpoint struct {
	filePath string

	LastUpdate      *time.Time      `json:"last_update"`
	Steps           map[string]bool `json:"steps_completed"`
	MonthsProcessed []int           `json:"months_processed"`
	Completed       bool            `json:"completed"`
}

func New(filePath string) *Checkpoint {
	return &Checkpoint{
		filePath: filePath,
		Steps:    map[string]bool{},
	}
}

// Load reads the checkpoint from disk. Missing file means a fresh start; a
// malformed file also means a fresh start, with a StateCorruptionError
// returned so the caller can warn.
func Load(filePath string) (*Checkpoint, error) {
	c := New(filePath)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return c, &types.StateCorruptionError{Path: filePath, Err: err}
	}

	if err := json.Unmarshal(data, c); err != nil {
		return New(filePath), &types.StateCorruptionError{Path: filePath, Err: err}
	}
	if c.Steps == nil {
		c.Steps = map[string]bool{}
	}

	return c, nil
}

// Save writes the checkpoint immediately. Called after every completed unit
// so a crash loses at most the unit in progress.
func (c *Checkpoint) Save() error {
	now := time.Now()
	c.LastUpdate = &now

	if err := os.MkdirAll(filepath.Dir(c.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	tmp := c.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, c.filePath)
}

func (c *Checkpoint) MarkStepDone(step string) error {
	c.Steps[step] = true
	return c.Save()
}

func (c *Checkpoint) IsStepDone(step string) bool {
	return c.Steps[step]
}

func (c *Checkpoint) MarkMonthDone(month int) error {
	if c.IsMonthDone(month) {
		return nil
	}
	c.MonthsProcessed = append(c.MonthsProcessed, month)
	sort.Ints(c.MonthsProcessed)
	return c.Save()
}

func (c *Checkpoint) IsMonthDone(month int) bool {
	for _, m := range c.MonthsProcessed {
		if m == month {
			return true
		}
	}
	return false
}

// InvalidateMonths removes months from the completed set so the next render
// pass regenerates them.
func (c *Checkpoint) InvalidateMonths(months []int) error {
	drop := make(map[int]bool, len(months))
	for _, m := range months {
		drop[m] = true
	}

	kept := c.MonthsProcessed[:0]
	for _, m := range c.MonthsProcessed {
		if !drop[m] {
			kept = append(kept, m)
		}
	}
	c.MonthsProcessed = kept
	return c.Save()
}

func (c *Checkpoint) MarkAllDone() error {
	c.Completed = true
	return c.Save()
}

// Clear resets the checkpoint and removes its file.
func (c *Checkpoint) Clear() error {
	c.Steps = map[string]bool{}
	c.MonthsProcessed = nil
	c.Completed = false
	c.LastUpdate = nil

	if err := os.Remove(c.filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HasProgress reports whether there is anything to resume.
func (c *Checkpoint) HasProgress() bool {
	return c.Steps[StepScan] || c.Steps[StepAssignment] || len(c.MonthsProcessed) > 0
}

// ProgressSummary returns a one-line description of how far the run got.
func (c *Checkpoint) ProgressSummary() string {
	if c.Completed {
		return "process completed"
	}
	if !c.HasProgress() {
		return "not started"
	}

	var parts []string
	if c.Steps[StepScan] {
		parts = append(parts, "scan done")
	}
	if c.Steps[StepAssignment] {
		parts = append(parts, "assignment done")
	}
	if len(c.MonthsProcessed) > 0 {
		parts = append(parts, fmt.Sprintf("months %d/12", len(c.MonthsProcessed)))
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += " | " + p
	}
	return out
}
