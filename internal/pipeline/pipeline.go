// Package pipeline wires the two-phase workflow: incremental scan and day
// assignment first, then clip/month/year rendering. All persisted state is
// loaded once at construction and committed at defined points, never from
// scattered call sites.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/On-Jun9/YearReel/internal/assign"
	"github.com/On-Jun9/YearReel/internal/audio"
	"github.com/On-Jun9/YearReel/internal/checkpoint"
	"github.com/On-Jun9/YearReel/internal/clipcache"
	"github.com/On-Jun9/YearReel/internal/config"
	"github.com/On-Jun9/YearReel/internal/datex"
	"github.com/On-Jun9/YearReel/internal/encoder"
	"github.com/On-Jun9/YearReel/internal/logx"
	"github.com/On-Jun9/YearReel/internal/render"
	"github.com/On-Jun9/YearReel/internal/report"
	"github.com/On-Jun9/YearReel/internal/scanner"
	"github.com/On-Jun9/YearReel/internal/state"
	"github.com/On-Jun9/YearReel/pkg/types"
)

type Pipeline struct {
	cfg      *config.Config
	logger   *logx.Logger
	scanner  *scanner.Scanner
	assigner *assign.Assigner
	prober   *encoder.Prober
	ffmpeg   *encoder.FFmpeg
	scanSt   *state.ScanState
	ckpt     *checkpoint.Checkpoint
	cache    *clipcache.Cache

	progressCallback ProgressCallback

	// assignment and fingerprints are carried from phase 1 into phase 2
	// within one run; render-only runs reload them from the artifacts.
	assignment   types.Assignment
	fingerprints map[string]string
}

func New(cfg *config.Config) (*Pipeline, error) {
	logger, err := logx.New(cfg.LogFile, cfg.LogJSON, true)
	if err != nil {
		return nil, err
	}

	scanSt, err := state.Load(cfg.ScanStateFile())
	if err != nil {
		var corrupt *types.StateCorruptionError
		if !errors.As(err, &corrupt) {
			return nil, err
		}
		logger.Warnf("scan state unreadable, rescanning everything: %v", err)
	}

	ckpt, err := checkpoint.Load(cfg.CheckpointFile())
	if err != nil {
		var corrupt *types.StateCorruptionError
		if !errors.As(err, &corrupt) {
			return nil, err
		}
		logger.Warnf("checkpoint unreadable, starting fresh: %v", err)
	}

	cache, err := clipcache.Open(cfg.ProcessedDir())
	if err != nil {
		var corrupt *types.StateCorruptionError
		if !errors.As(err, &corrupt) {
			return nil, err
		}
		logger.Warnf("clip cache index unreadable, re-rendering clips: %v", err)
	}

	prober := encoder.NewProber(cfg.Binaries.FFprobe)
	detector := datex.New(nil, prober)

	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		scanner:  scanner.New(cfg.IncludeExtensions, cfg.HashFingerprint),
		assigner: assign.New(detector, cfg.TargetYear),
		prober:   prober,
		ffmpeg:   encoder.NewFFmpeg(cfg, prober),
		scanSt:   scanSt,
		ckpt:     ckpt,
		cache:    cache,
	}, nil
}

func (p *Pipeline) SetProgressCallback(cb ProgressCallback) {
	p.progressCallback = cb
}

func (p *Pipeline) Checkpoint() *checkpoint.Checkpoint {
	return p.ckpt
}

func (p *Pipeline) Close() error {
	return p.logger.Close()
}

func (p *Pipeline) notify(update ProgressUpdate) {
	if p.progressCallback != nil {
		p.progressCallback(update)
	}
}

// Run executes both phases and returns the run summary.
func (p *Pipeline) Run(ctx context.Context) (*types.RunSummary, error) {
	summary := newSummary()

	if p.ckpt.Completed {
		p.logger.Info("previous run completed; starting fresh")
		if err := p.ckpt.Clear(); err != nil {
			return nil, err
		}
	} else if p.ckpt.HasProgress() {
		p.logger.Info("resuming: " + p.ckpt.ProgressSummary())
	}

	if err := p.runAssign(summary); err != nil {
		return nil, err
	}
	if err := p.runRender(ctx, summary); err != nil {
		return nil, err
	}

	p.finish(summary)
	return summary, nil
}

// AssignOnly runs phase 1 by itself: scan, assignment, reports.
func (p *Pipeline) AssignOnly() (*types.RunSummary, error) {
	summary := newSummary()
	if err := p.runAssign(summary); err != nil {
		return nil, err
	}
	p.finish(summary)
	return summary, nil
}

// RenderOnly runs phase 2 against the persisted assignment artifact.
func (p *Pipeline) RenderOnly(ctx context.Context) (*types.RunSummary, error) {
	summary := newSummary()
	if err := p.runRender(ctx, summary); err != nil {
		return nil, err
	}
	p.finish(summary)
	return summary, nil
}

func newSummary() *types.RunSummary {
	return &types.RunSummary{
		StartTime:   time.Now(),
		DateSources: make(map[types.DateConfidence]int),
	}
}

func (p *Pipeline) finish(summary *types.RunSummary) {
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime)
	p.logger.Summary(*summary)
	p.notify(ProgressUpdate{Type: "complete", Summary: summary})
}

func (p *Pipeline) runAssign(summary *types.RunSummary) error {
	p.logger.Info("scanning " + p.cfg.Source)
	p.notify(ProgressUpdate{Type: "status", Message: "Scanning media files..."})

	res, err := p.scanner.Scan(p.cfg.Source, p.scanSt.Fingerprints)
	if err != nil {
		return fmt.Errorf("scan %s: %w", p.cfg.Source, err)
	}

	p.fingerprints = res.Fingerprints
	summary.ScannedFiles = len(res.Fingerprints)
	summary.ScanFailed = len(res.Delta.Failed)
	summary.Errors = append(summary.Errors, res.Delta.Failed...)
	for _, fe := range res.Delta.Failed {
		p.logger.Warnf("skipping unreadable file: %s", fe.Path)
	}

	p.logger.Infof("found %d media files (%d new, %d changed, %d removed)",
		len(res.Fingerprints), len(res.Delta.New), len(res.Delta.Changed), len(res.Delta.Removed))

	if err := p.ckpt.MarkStepDone(checkpoint.StepScan); err != nil {
		return err
	}

	if res.Delta.Empty() && p.assignmentArtifactExists() {
		p.logger.Info("no changes detected, reusing existing assignments")
		assignment, err := assign.Load(p.cfg.AssignmentFile())
		if err == nil {
			p.assignment = assignment
			summary.Assigned = countMedia(assignment)
			return p.ckpt.MarkStepDone(checkpoint.StepAssignment)
		}
		p.logger.Warnf("assignment artifact unreadable, rebuilding: %v", err)
	}

	p.notify(ProgressUpdate{Type: "status", Message: "Assigning media to days...", Total: summary.ScannedFiles})

	entries := make([]types.FileEntry, 0, len(res.Fingerprints))
	entries = append(entries, res.Delta.New...)
	entries = append(entries, res.Delta.Changed...)
	entries = append(entries, res.Delta.Unchanged...)

	outcome := p.assigner.Assign(entries)
	p.assignment = outcome.Assignment

	summary.Assigned = countMedia(outcome.Assignment)
	summary.SkippedWrongYear = len(outcome.SkippedWrongYear)
	summary.Unresolved = len(outcome.Unresolved)
	summary.Errors = append(summary.Errors, outcome.Unresolved...)
	summary.Errors = append(summary.Errors, outcome.SkippedWrongYear...)
	for source, count := range outcome.DateSources {
		summary.DateSources[source] += count
	}

	if err := assign.Save(outcome.Assignment, p.cfg.AssignmentFile()); err != nil {
		return fmt.Errorf("save assignment: %w", err)
	}
	if err := report.WriteCalendar(outcome.Assignment, p.cfg.TargetYear, p.cfg.VisualReportFile()); err != nil {
		p.logger.Error("write coverage calendar", err)
	}
	if err := report.WriteCSV(outcome.Assignment, p.cfg.TargetYear, p.cfg.CSVReportFile()); err != nil {
		p.logger.Error("write CSV report", err)
	}

	// Commit point: the fingerprint set only replaces the previous one once
	// the assignment artifact it describes is on disk.
	p.scanSt.Replace(res.Fingerprints)
	if err := p.scanSt.Save(); err != nil {
		return fmt.Errorf("save scan state: %w", err)
	}

	return p.ckpt.MarkStepDone(checkpoint.StepAssignment)
}

func (p *Pipeline) runRender(ctx context.Context, summary *types.RunSummary) error {
	if err := encoder.CheckBinaries(p.cfg.Binaries.FFmpeg, p.cfg.Binaries.FFprobe); err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.OutputDir(), 0755); err != nil {
		return fmt.Errorf("output directory unwritable: %w", err)
	}

	if p.assignment == nil {
		assignment, err := assign.Load(p.cfg.AssignmentFile())
		if err != nil {
			return fmt.Errorf("no assignment artifact; run the assign phase first: %w", err)
		}
		p.assignment = assignment
	}

	var muxer *audio.Muxer
	if p.cfg.Audio.Enabled {
		muxer = audio.NewMuxer(p.cfg.Binaries.FFmpeg, p.prober, p.cfg.Duration.Separator)
	}

	orch := render.NewOrchestrator(p.cfg, p.ffmpeg, p.cache, p.ckpt, p.logger, muxer,
		p.fingerprints, p.ffmpeg.ParamsSignature())
	orch.OnProgress = func(stage string, current, total int, name string) {
		p.logger.Progress(current, total, name)
		p.notify(ProgressUpdate{Type: stage, Current: current, Total: total, Filename: name})
	}

	stats, err := orch.RenderYear(ctx, p.assignment)
	summary.ClipsRendered = stats.ClipsRendered
	summary.ClipsCached = stats.ClipsCached
	summary.MonthsRendered = stats.MonthsRendered
	summary.MonthsSkipped = stats.MonthsSkipped
	summary.Errors = append(summary.Errors, stats.Errors...)
	if err != nil {
		return err
	}

	p.logger.Info("final video: " + stats.FinalVideo)
	return nil
}

func (p *Pipeline) assignmentArtifactExists() bool {
	_, err := os.Stat(p.cfg.AssignmentFile())
	return err == nil
}

func countMedia(assignment types.Assignment) int {
	n := 0
	for _, media := range assignment {
		n += len(media)
	}
	return n
}
