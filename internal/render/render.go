// Package render drives per-day clip rendering and per-month concatenation
// into the final year video, consulting the clip cache and the checkpoint to
// skip work that is already done.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/On-Jun9/YearReel/internal/assign"
	"github.com/On-Jun9/YearReel/internal/audio"
	"github.com/On-Jun9/YearReel/internal/checkpoint"
	"github.com/On-Jun9/YearReel/internal/clipcache"
	"github.com/On-Jun9/YearReel/internal/config"
	"github.com/On-Jun9/YearReel/internal/encoder"
	"github.com/On-Jun9/YearReel/internal/logx"
	"github.com/On-Jun9/YearReel/internal/scanner"
	"github.com/On-Jun9/YearReel/pkg/types"
)

// ProgressFunc receives coarse render progress for UIs.
type ProgressFunc func(stage string, current, total int, name string)

type Orchestrator struct {
	cfg      *config.Config
	renderer encoder.Renderer
	cache    *clipcache.Cache
	ckpt     *checkpoint.Checkpoint
	logger   *logx.Logger
	muxer    *audio.Muxer

	// fingerprints maps source paths to scan fingerprints for cache keys.
	// Paths missing from the map are fingerprinted on demand.
	fingerprints map[string]string

	paramsHash string
	OnProgress ProgressFunc
}

func NewOrchestrator(cfg *config.Config, renderer encoder.Renderer, cache *clipcache.Cache,
	ckpt *checkpoint.Checkpoint, logger *logx.Logger, muxer *audio.Muxer,
	fingerprints map[string]string, paramsSignature []string) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		renderer:     renderer,
		cache:        cache,
		ckpt:         ckpt,
		logger:       logger,
		muxer:        muxer,
		fingerprints: fingerprints,
		paramsHash:   clipcache.ParamsHash(paramsSignature...),
	}
}

// Stats summarizes one render pass.
type Stats struct {
	ClipsRendered  int
	ClipsCached    int
	MonthsRendered int
	MonthsSkipped  int
	Errors         []types.FileError
	FinalVideo     string
}

// RenderYear renders every month with media, then the final concatenation.
// A failed month is reported and left unchecked in the checkpoint so the next
// invocation retries it; remaining months still proceed. The final video is
// only produced when every month with media succeeded.
func (o *Orchestrator) RenderYear(ctx context.Context, assignment types.Assignment) (Stats, error) {
	stats := Stats{}

	for _, dir := range []string{o.cfg.ProcessedDir(), o.cfg.TempDir(), o.cfg.OutputDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return stats, err
		}
	}

	var monthVideos []string
	var monthNumbers []int
	failedMonths := 0

	for month := 1; month <= 12; month++ {
		days := assign.DaysOfMonth(assignment, o.cfg.TargetYear, month)
		if len(days) == 0 {
			continue
		}

		monthOut := o.monthVideoPath(month)
		monthVideos = append(monthVideos, monthOut)
		monthNumbers = append(monthNumbers, month)

		if o.ckpt.IsMonthDone(month) {
			// Trust-the-checkpoint: done units are skipped without
			// re-validating their output.
			o.logger.Infof("month %02d already rendered, skipping", month)
			stats.MonthsSkipped++
			continue
		}

		if err := o.renderMonth(ctx, month, days, assignment, monthOut, &stats); err != nil {
			o.logger.Error(fmt.Sprintf("month %02d failed", month), err)
			stats.Errors = append(stats.Errors, types.FileError{Path: monthOut, Err: err.Error()})
			failedMonths++
			// Drop the failed month's video from the final concat; the
			// checkpoint was never advanced, so the next run retries it.
			monthVideos = monthVideos[:len(monthVideos)-1]
			monthNumbers = monthNumbers[:len(monthNumbers)-1]
			continue
		}

		if err := o.ckpt.MarkMonthDone(month); err != nil {
			return stats, err
		}
		stats.MonthsRendered++
	}

	if len(monthVideos) == 0 {
		return stats, fmt.Errorf("no month videos to concatenate")
	}
	if failedMonths > 0 {
		return stats, fmt.Errorf("%d month(s) failed; final video deferred until they render", failedMonths)
	}

	final, err := o.renderFinal(ctx, monthVideos, monthNumbers)
	if err != nil {
		return stats, err
	}
	stats.FinalVideo = final

	if err := o.ckpt.MarkAllDone(); err != nil {
		return stats, err
	}

	// Temp files are per-run scratch; processed/ and output/ stay for reuse.
	os.RemoveAll(o.cfg.TempDir())

	return stats, nil
}

func (o *Orchestrator) monthVideoPath(month int) string {
	return filepath.Join(o.cfg.OutputDir(),
		fmt.Sprintf("month_%02d_%s.mp4", month, o.cfg.MonthNames[month-1]))
}

func (o *Orchestrator) renderMonth(ctx context.Context, month int, days []string,
	assignment types.Assignment, monthOut string, stats *Stats) error {

	o.logger.Infof("rendering %s (%d days with media)", o.cfg.MonthNames[month-1], len(days))

	separator := filepath.Join(o.cfg.ProcessedDir(), fmt.Sprintf("separator_%02d.mp4", month))
	if _, err := os.Stat(separator); err != nil {
		title := fmt.Sprintf("%s %d", o.cfg.MonthNames[month-1], o.cfg.TargetYear)
		if err := o.renderer.RenderSeparator(ctx, title, separator); err != nil {
			return err
		}
	}

	monthTemp := filepath.Join(o.cfg.TempDir(), fmt.Sprintf("month_%02d", month))
	if err := os.MkdirAll(monthTemp, 0755); err != nil {
		return err
	}

	total := 0
	for _, day := range days {
		total += len(assignment[day])
	}

	clips := []string{separator}
	seq := 0

	for _, day := range days {
		for _, media := range assignment[day] {
			seq++
			if o.OnProgress != nil {
				o.OnProgress("render", seq, total, media.Filename)
			}

			clipPath, cached, err := o.clipFor(ctx, media)
			if err != nil {
				return err
			}
			if cached {
				stats.ClipsCached++
			} else {
				stats.ClipsRendered++
			}
			o.logger.LogUnit("clip "+media.Filename, nil)

			// Captions are burned into a working copy so cached clips
			// stay pristine and date edits take effect on rerender.
			work := filepath.Join(monthTemp, fmt.Sprintf("%04d_%s", seq, filepath.Base(clipPath)))
			if err := copyClip(clipPath, work); err != nil {
				return err
			}
			if err := o.renderer.AddDateCaption(ctx, work, media.Date); err != nil {
				return err
			}
			clips = append(clips, work)
		}
	}

	return o.renderer.Concat(ctx, clips, monthOut)
}

// clipFor renders (or fetches from cache) the clip for one media file.
func (o *Orchestrator) clipFor(ctx context.Context, media types.AssignedMedia) (string, bool, error) {
	fp, ok := o.fingerprints[media.Filepath]
	if !ok {
		var err error
		fp, err = scanner.FingerprintFile(media.Filepath, o.cfg.HashFingerprint)
		if err != nil {
			return "", false, &types.IOAccessError{Path: media.Filepath, Err: err}
		}
	}

	key := clipcache.Key{Fingerprint: fp, ParamsHash: o.paramsHash}

	// The filename prefix is derived from the full key: same-named sources
	// from different folders must never share a clip file.
	id := clipcache.ParamsHash(key.Fingerprint, key.ParamsHash)
	base := strings.TrimSuffix(filepath.Base(media.Filepath), filepath.Ext(media.Filepath))
	dest := filepath.Join(o.cfg.ProcessedDir(), fmt.Sprintf("%s_%s.mp4", id, base))

	return o.cache.GetOrRender(key, func() (string, error) {
		var err error
		switch media.Type {
		case types.MediaGIF:
			err = o.renderer.RenderGIFClip(ctx, media.Filepath, dest, o.cfg.Duration.GIF)
		case types.MediaVideo:
			err = o.renderer.RenderVideoClip(ctx, media.Filepath, dest, o.cfg.Duration.Video)
		default:
			err = o.renderer.RenderImageClip(ctx, media.Filepath, dest, o.cfg.Duration.Photo, o.cfg.Ken.Enabled)
		}
		if err != nil {
			return "", err
		}
		return dest, nil
	})
}

func (o *Orchestrator) renderFinal(ctx context.Context, monthVideos []string, months []int) (string, error) {
	o.logger.Infof("concatenating %d month videos", len(monthVideos))

	final := filepath.Join(o.cfg.OutputDir(), fmt.Sprintf("%d_recap.mp4", o.cfg.TargetYear))

	if !o.cfg.Audio.Enabled || o.muxer == nil {
		return final, o.renderer.Concat(ctx, monthVideos, final)
	}

	silent := filepath.Join(o.cfg.TempDir(), "recap_silent.mp4")
	if err := o.renderer.Concat(ctx, monthVideos, silent); err != nil {
		return "", err
	}

	var segments []audio.MonthSegment
	for i, month := range months {
		segments = append(segments, audio.MonthSegment{
			Month:     month,
			VideoPath: monthVideos[i],
			TrackPath: audio.TrackForMonth(o.cfg.AudioDir(), month),
		})
	}

	if err := o.muxer.Mux(ctx, segments, silent, final, o.cfg.TempDir()); err != nil {
		return "", err
	}
	return final, nil
}

func copyClip(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
