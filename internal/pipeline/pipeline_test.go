package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/On-Jun9/YearReel/internal/checkpoint"
	"github.com/On-Jun9/YearReel/internal/config"
)

func testPipeline(t *testing.T, sourceFiles map[string]string) (*Pipeline, *config.Config) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Source = t.TempDir()
	cfg.ProjectDir = t.TempDir()
	cfg.TargetYear = 2025
	cfg.LogFile = filepath.Join(cfg.ProjectDir, "test.log")

	for name, content := range sourceFiles {
		path := filepath.Join(cfg.Source, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, cfg
}

func TestAssignOnly_BuildsArtifactsFromFilenames(t *testing.T) {
	p, cfg := testPipeline(t, map[string]string{
		"20250102_161334.jpg":     "jan 2 afternoon",
		"20250102_093000.jpg":     "jan 2 morning",
		"VID_20250323_181709.mp4": "march video",
	})

	summary, err := p.AssignOnly()
	if err != nil {
		t.Fatalf("AssignOnly failed: %v", err)
	}

	if summary.ScannedFiles != 3 {
		t.Errorf("expected 3 scanned files, got %d", summary.ScannedFiles)
	}
	if summary.Assigned != 3 {
		t.Errorf("expected 3 assigned files, got %d", summary.Assigned)
	}

	// All artifacts on disk.
	for _, path := range []string{
		cfg.AssignmentFile(), cfg.ScanStateFile(),
		cfg.VisualReportFile(), cfg.CSVReportFile(),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}

	if !p.Checkpoint().IsStepDone(checkpoint.StepScan) ||
		!p.Checkpoint().IsStepDone(checkpoint.StepAssignment) {
		t.Error("expected scan and assignment steps checkpointed")
	}

	jan2 := p.assignment["2025-01-02"]
	if len(jan2) != 2 {
		t.Fatalf("expected 2 files on 2025-01-02, got %d", len(jan2))
	}
	if jan2[0].Filename != "20250102_093000.jpg" {
		t.Errorf("expected chronological order within the day, got %s first", jan2[0].Filename)
	}
}

func TestAssignOnly_SkipsWrongYearByModTime(t *testing.T) {
	// A file with no filename date and no metadata falls back to mtime,
	// which is the current year, not the 2025 target.
	p, _ := testPipeline(t, map[string]string{
		"20250601_120000.jpg": "in year",
		"plain.jpg":           "no date anywhere",
	})

	summary, err := p.AssignOnly()
	if err != nil {
		t.Fatalf("AssignOnly failed: %v", err)
	}

	if summary.Assigned != 1 {
		t.Errorf("expected 1 assigned, got %d", summary.Assigned)
	}
	if summary.SkippedWrongYear != 1 {
		t.Errorf("expected 1 wrong-year skip, got %d", summary.SkippedWrongYear)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("expected skip recorded in errors, got %d", len(summary.Errors))
	}
}

func TestAssignOnly_UnchangedRescanReusesArtifact(t *testing.T) {
	p, cfg := testPipeline(t, map[string]string{
		"20250102_161334.jpg": "photo",
	})

	if _, err := p.AssignOnly(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	firstStat, err := os.Stat(cfg.AssignmentFile())
	if err != nil {
		t.Fatal(err)
	}

	// New pipeline over the same state sees an empty delta and reuses the
	// artifact instead of rewriting it.
	p2, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()

	summary, err := p2.AssignOnly()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if summary.Assigned != 1 {
		t.Errorf("expected assignment carried over, got %d", summary.Assigned)
	}

	secondStat, err := os.Stat(cfg.AssignmentFile())
	if err != nil {
		t.Fatal(err)
	}
	if !firstStat.ModTime().Equal(secondStat.ModTime()) {
		t.Error("artifact was rewritten on an unchanged rescan")
	}
}

func TestAssignOnly_MissingSourceFails(t *testing.T) {
	p, cfg := testPipeline(t, nil)
	cfg.Source = filepath.Join(cfg.Source, "gone")

	if _, err := p.AssignOnly(); err == nil {
		t.Fatal("expected error for missing source directory")
	}
}

func TestRenderOnly_WithoutArtifactFails(t *testing.T) {
	// No assignment artifact exists; the render phase must refuse rather
	// than render nothing. Binaries may be missing on CI hosts, which also
	// fails the phase before any work happens.
	p, _ := testPipeline(t, nil)

	if _, err := p.RenderOnly(context.Background()); err == nil {
		t.Fatal("expected error without an assignment artifact")
	}
}
