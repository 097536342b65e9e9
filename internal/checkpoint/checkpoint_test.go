package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/On-Jun9/YearReel/pkg/types"
)

func TestCheckpoint_FreshStart(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "checkpoint.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.HasProgress() {
		t.Error("fresh checkpoint must report no progress")
	}
	if c.ProgressSummary() != "not started" {
		t.Errorf("unexpected summary %q", c.ProgressSummary())
	}
}

func TestCheckpoint_StepsSurviveReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.MarkStepDone(StepScan); err != nil {
		t.Fatalf("MarkStepDone failed: %v", err)
	}
	if err := c.MarkStepDone(StepAssignment); err != nil {
		t.Fatalf("MarkStepDone failed: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if !reloaded.IsStepDone(StepScan) || !reloaded.IsStepDone(StepAssignment) {
		t.Error("expected both steps done after reload")
	}
	if !reloaded.HasProgress() {
		t.Error("expected progress after reload")
	}
}

func TestCheckpoint_MonthsSortedAndIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	c, _ := Load(path)

	for _, m := range []int{5, 2, 5, 11, 2} {
		if err := c.MarkMonthDone(m); err != nil {
			t.Fatalf("MarkMonthDone(%d) failed: %v", m, err)
		}
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 5, 11}
	if len(reloaded.MonthsProcessed) != len(want) {
		t.Fatalf("expected %v, got %v", want, reloaded.MonthsProcessed)
	}
	for i, m := range want {
		if reloaded.MonthsProcessed[i] != m {
			t.Fatalf("expected %v, got %v", want, reloaded.MonthsProcessed)
		}
	}
	if !reloaded.IsMonthDone(5) || reloaded.IsMonthDone(3) {
		t.Error("IsMonthDone disagrees with MonthsProcessed")
	}
}

func TestCheckpoint_InvalidateMonths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	c, _ := Load(path)
	for m := 1; m <= 4; m++ {
		if err := c.MarkMonthDone(m); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.InvalidateMonths([]int{2, 4}); err != nil {
		t.Fatalf("InvalidateMonths failed: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.IsMonthDone(2) || reloaded.IsMonthDone(4) {
		t.Error("invalidated months still marked done")
	}
	if !reloaded.IsMonthDone(1) || !reloaded.IsMonthDone(3) {
		t.Error("untouched months lost")
	}
}

func TestCheckpoint_CorruptFileIsFreshStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	var corrupt *types.StateCorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected StateCorruptionError, got %v", err)
	}
	if c == nil || c.HasProgress() {
		t.Error("expected usable fresh checkpoint alongside the error")
	}
}

func TestCheckpoint_ClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	c, _ := Load(path)
	if err := c.MarkMonthDone(1); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if c.HasProgress() {
		t.Error("cleared checkpoint still has progress")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("checkpoint file should be gone")
	}
}

func TestCheckpoint_ProgressSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	c, _ := Load(path)
	_ = c.MarkStepDone(StepScan)
	_ = c.MarkMonthDone(1)
	_ = c.MarkMonthDone(2)

	got := c.ProgressSummary()
	if got != "scan done | months 2/12" {
		t.Errorf("unexpected summary %q", got)
	}

	if err := c.MarkAllDone(); err != nil {
		t.Fatal(err)
	}
	if c.ProgressSummary() != "process completed" {
		t.Errorf("unexpected completed summary %q", c.ProgressSummary())
	}
}
