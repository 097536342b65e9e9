package encoder

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/On-Jun9/YearReel/internal/config"
	"github.com/On-Jun9/YearReel/pkg/types"
)

// FFmpeg renders clips by invoking the ffmpeg binary. All clips come out
// pre-normalized (resolution, fps, pixel format) so the concat step never
// has to fix codec mismatches per input.
type FFmpeg struct {
	binary  string
	prober  *Prober
	video   config.VideoSettings
	ken     config.KenBurns
	caption config.DateCaption
	dur     config.ClipDurations

	// Randomness for excerpt offsets and zoom direction; injectable for
	// deterministic tests.
	rng *rand.Rand

	// ShowProgress draws a progress bar during long concat operations.
	ShowProgress bool
}

func NewFFmpeg(cfg *config.Config, prober *Prober) *FFmpeg {
	return &FFmpeg{
		binary:       cfg.Binaries.FFmpeg,
		prober:       prober,
		video:        cfg.Video,
		ken:          cfg.Ken,
		caption:      cfg.Caption,
		dur:          cfg.Duration,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		ShowProgress: true,
	}
}

// CheckBinaries verifies the external encoder tools are on PATH. A missing
// encoder is an orchestration-level failure: fatal, reported immediately.
func CheckBinaries(ffmpeg, ffprobe string) error {
	if _, err := exec.LookPath(ffmpeg); err != nil {
		return fmt.Errorf("encoder binary not found: %w", err)
	}
	if _, err := exec.LookPath(ffprobe); err != nil {
		return fmt.Errorf("prober binary not found: %w", err)
	}
	return nil
}

// ParamsSignature identifies every encoder setting that shapes clip output.
// It feeds the clip cache key: changing any of these must invalidate clips.
func (f *FFmpeg) ParamsSignature() []string {
	return []string{
		fmt.Sprintf("%dx%d", f.video.Width, f.video.Height),
		strconv.Itoa(f.video.FPS),
		f.video.Codec,
		strconv.Itoa(f.video.CRF),
		f.video.PixelFormat,
		fmt.Sprintf("ken=%v:%g-%g", f.ken.Enabled, f.ken.ZoomStart, f.ken.ZoomEnd),
		fmt.Sprintf("dur=%g/%g/%g", f.dur.Photo, f.dur.Video, f.dur.GIF),
	}
}

func (f *FFmpeg) letterbox() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		f.video.Width, f.video.Height, f.video.Width, f.video.Height)
}

func (f *FFmpeg) RenderImageClip(ctx context.Context, src, dest string, duration float64, kenBurns bool) error {
	vf := f.letterbox()

	if kenBurns && f.ken.Enabled {
		zoomStart, zoomEnd := f.ken.ZoomStart, f.ken.ZoomEnd
		if f.rng.Intn(2) == 0 {
			zoomStart, zoomEnd = zoomEnd, zoomStart
		}
		frames := int(duration * float64(f.video.FPS))
		// d=1: one output frame per zoompan iteration; the expression
		// interpolates zoom linearly over the clip's frame count.
		vf += fmt.Sprintf(",zoompan=z='if(lte(on,1),%g,%g+%g*(on-1)/%d)':d=1:x='(iw-iw/zoom)/2':y='(ih-ih/zoom)/2':s=%dx%d:fps=%d",
			zoomStart, zoomStart, zoomEnd-zoomStart, frames,
			f.video.Width, f.video.Height, f.video.FPS)
	} else {
		vf += fmt.Sprintf(",fps=%d", f.video.FPS)
	}

	args := []string{
		"-loop", "1",
		"-i", src,
		"-vf", vf,
		"-t", formatSeconds(duration),
		"-c:v", f.video.Codec,
		"-crf", strconv.Itoa(f.video.CRF),
		"-pix_fmt", f.video.PixelFormat,
		"-r", strconv.Itoa(f.video.FPS),
		"-y", dest,
	}
	return f.run(ctx, "image clip "+filepath.Base(src), args...)
}

func (f *FFmpeg) RenderVideoClip(ctx context.Context, src, dest string, maxDuration float64) error {
	info, err := f.prober.Probe(ctx, src)
	if err != nil {
		return &types.RenderError{Unit: "probe " + filepath.Base(src), Err: err}
	}

	start := 0.0
	clipDur := info.Duration
	if info.Duration > maxDuration {
		start = f.rng.Float64() * (info.Duration - maxDuration)
		clipDur = maxDuration
	}

	args := []string{
		"-ss", formatSeconds(start),
		"-t", formatSeconds(clipDur),
		"-i", src,
		"-vf", fmt.Sprintf("fps=%d,%s", f.video.FPS, f.letterbox()),
		"-c:v", f.video.Codec,
		"-crf", strconv.Itoa(f.video.CRF),
		"-preset", f.video.Preset,
		"-pix_fmt", f.video.PixelFormat,
		"-r", strconv.Itoa(f.video.FPS),
	}
	if info.HasAudio {
		args = append(args, "-c:a", "aac", "-b:a", "128k")
	} else {
		args = append(args, "-an")
	}
	args = append(args, "-y", dest)

	return f.run(ctx, "video clip "+filepath.Base(src), args...)
}

func (f *FFmpeg) RenderGIFClip(ctx context.Context, src, dest string, maxDuration float64) error {
	args := []string{
		"-i", src,
		"-t", formatSeconds(maxDuration),
		"-vf", fmt.Sprintf("%s,fps=%d", f.letterbox(), f.video.FPS),
		"-c:v", f.video.Codec,
		"-crf", strconv.Itoa(f.video.CRF),
		"-pix_fmt", f.video.PixelFormat,
		"-an",
		"-y", dest,
	}
	return f.run(ctx, "gif clip "+filepath.Base(src), args...)
}

func (f *FFmpeg) RenderSeparator(ctx context.Context, title, dest string) error {
	dur := f.dur.Separator
	fade := f.dur.Fade

	vf := fmt.Sprintf(
		"drawtext=text='%s':fontsize=80:fontcolor=white:x=(w-text_w)/2:y=(h-text_h)/2,fade=t=in:st=0:d=%s,fade=t=out:st=%s:d=%s",
		escapeDrawtext(title),
		formatSeconds(fade),
		formatSeconds(dur-fade),
		formatSeconds(fade),
	)

	args := []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s",
			f.video.Width, f.video.Height, f.video.FPS, formatSeconds(dur)),
		"-vf", vf,
		"-t", formatSeconds(dur),
		"-c:v", f.video.Codec,
		"-pix_fmt", f.video.PixelFormat,
		"-y", dest,
	}
	return f.run(ctx, "separator "+title, args...)
}

func (f *FFmpeg) AddDateCaption(ctx context.Context, clip string, day time.Time) error {
	if !f.caption.Enabled {
		return nil
	}

	text := day.Format("2 Jan 2006")
	margin := f.caption.Margin

	var x, y string
	switch f.caption.Position {
	case "top_left":
		x, y = strconv.Itoa(margin), strconv.Itoa(margin)
	case "top_right":
		x, y = fmt.Sprintf("w-text_w-%d", margin), strconv.Itoa(margin)
	case "bottom_left":
		x, y = strconv.Itoa(margin), fmt.Sprintf("h-text_h-%d", margin)
	default: // bottom_right
		x, y = fmt.Sprintf("w-text_w-%d", margin), fmt.Sprintf("h-text_h-%d", margin)
	}

	vf := fmt.Sprintf("drawtext=text='%s':fontsize=%d:fontcolor=%s:x=%s:y=%s:shadowcolor=black@0.8:shadowx=2:shadowy=2",
		escapeDrawtext(text), f.caption.FontSize, f.caption.Color, x, y)

	captioned := strings.TrimSuffix(clip, ".mp4") + "_caption.mp4"
	args := []string{
		"-i", clip,
		"-vf", vf,
		"-c:v", f.video.Codec,
		"-crf", strconv.Itoa(f.video.CRF),
		"-c:a", "copy",
		"-y", captioned,
	}
	if err := f.run(ctx, "caption "+filepath.Base(clip), args...); err != nil {
		return err
	}

	if err := os.Remove(clip); err != nil {
		return err
	}
	return os.Rename(captioned, clip)
}

// Concat joins clips via the concat demuxer, re-encoding the result so codec
// drift between cached clips never produces frozen frames.
func (f *FFmpeg) Concat(ctx context.Context, clips []string, dest string) error {
	listPath := dest + ".inputs.txt"
	if err := writeConcatList(clips, listPath); err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:v", f.video.Codec,
		"-crf", strconv.Itoa(f.video.CRF),
		"-preset", f.video.Preset,
		"-pix_fmt", f.video.PixelFormat,
		"-c:a", "aac",
		"-b:a", "128k",
		"-progress", "pipe:1",
		"-y", dest,
	}

	unit := "concat " + filepath.Base(dest)
	if !f.ShowProgress {
		return f.run(ctx, unit, args...)
	}
	return f.runWithProgress(ctx, unit, clips, args)
}

func (f *FFmpeg) run(ctx context.Context, unit string, args ...string) error {
	cmd := exec.CommandContext(ctx, f.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return &types.RenderError{Unit: unit, Err: err, Stderr: stderrTail(stderr.Bytes())}
	}
	return nil
}

// runWithProgress parses ffmpeg's -progress output and drives a progress bar
// scaled to the summed duration of the input clips.
func (f *FFmpeg) runWithProgress(ctx context.Context, unit string, clips []string, args []string) error {
	var totalUs int64
	for _, clip := range clips {
		if info, err := f.prober.Probe(ctx, clip); err == nil {
			totalUs += int64(info.Duration * 1e6)
		}
	}

	cmd := exec.CommandContext(ctx, f.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &types.RenderError{Unit: unit, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &types.RenderError{Unit: unit, Err: err}
	}

	bar := progressbar.NewOptions64(totalUs,
		progressbar.OptionSetDescription(unit),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)

	sc := bufio.NewScanner(stdout)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "out_time_ms=") {
			continue
		}
		value := strings.TrimPrefix(line, "out_time_ms=")
		// out_time_ms is microseconds despite the name; N/A appears for
		// some containers.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		if totalUs > 0 {
			bar.Set64(us)
		}
	}

	if err := cmd.Wait(); err != nil {
		return &types.RenderError{Unit: unit, Err: err, Stderr: stderrTail(stderr.Bytes())}
	}
	bar.Finish()
	return nil
}

// writeConcatList writes the concat demuxer input list, one absolute path
// per line with single quotes escaped.
func writeConcatList(clips []string, listPath string) error {
	out, err := os.Create(listPath)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			return err
		}
		escaped := strings.ReplaceAll(filepath.ToSlash(abs), "'", `'\''`)
		if _, err := fmt.Fprintf(out, "file '%s'\n", escaped); err != nil {
			return err
		}
	}
	return nil
}

func escapeDrawtext(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `:`, `\:`)
	return s
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func stderrTail(b []byte) string {
	const max = 800
	if len(b) > max {
		b = b[len(b)-max:]
	}
	return strings.TrimSpace(string(b))
}
