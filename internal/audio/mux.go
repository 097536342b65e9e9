package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/On-Jun9/YearReel/internal/encoder"
	"github.com/On-Jun9/YearReel/pkg/types"
)

// Muxer builds the year soundtrack from per-month tracks and lays it onto
// the final video. Month boundaries crossfade into each other for the same
// duration as the month separator cards.
type Muxer struct {
	binary    string
	prober    *encoder.Prober
	crossfade float64
	rng       *rand.Rand
}

func NewMuxer(binary string, prober *encoder.Prober, crossfade float64) *Muxer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Muxer{
		binary:    binary,
		prober:    prober,
		crossfade: crossfade,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// MonthSegment pairs a month video with the track to play under it.
type MonthSegment struct {
	Month     int
	VideoPath string
	TrackPath string
}

// Mux cuts a segment per month matching that month video's duration,
// crossfades the segments together and muxes the result onto videoPath,
// producing dest. Months without a track keep silence; when no month has a
// track the video is copied through untouched.
func (m *Muxer) Mux(ctx context.Context, segments []MonthSegment, videoPath, dest string, tempDir string) error {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}

	var cuts []string
	for _, seg := range segments {
		if seg.TrackPath == "" {
			continue
		}

		info, err := m.prober.Probe(ctx, seg.VideoPath)
		if err != nil {
			return &types.RenderError{Unit: fmt.Sprintf("probe month %02d video", seg.Month), Err: err}
		}

		cut := filepath.Join(tempDir, fmt.Sprintf("audio_%02d.m4a", seg.Month))
		// Extra length compensates what the crossfade overlaps away.
		if err := m.cutSegment(ctx, seg.TrackPath, cut, info.Duration+m.crossfade); err != nil {
			return err
		}
		cuts = append(cuts, cut)
	}

	if len(cuts) == 0 {
		return copyFile(videoPath, dest)
	}

	soundtrack := filepath.Join(tempDir, "soundtrack.m4a")
	if err := m.crossfadeJoin(ctx, cuts, soundtrack); err != nil {
		return err
	}

	args := []string{
		"-i", videoPath,
		"-i", soundtrack,
		"-map", "0:v",
		"-map", "1:a",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-y", dest,
	}
	return m.run(ctx, "mux soundtrack", args...)
}

// cutSegment extracts duration seconds from a random offset of the track.
func (m *Muxer) cutSegment(ctx context.Context, track, dest string, duration float64) error {
	info, err := m.prober.Probe(ctx, track)
	if err != nil {
		return &types.RenderError{Unit: "probe " + filepath.Base(track), Err: err}
	}

	start := 0.0
	if info.Duration > duration {
		start = m.rng.Float64() * (info.Duration - duration)
	}

	args := []string{
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		"-t", strconv.FormatFloat(duration, 'f', 3, 64),
		"-i", track,
		"-c:a", "aac",
		"-b:a", "192k",
		"-y", dest,
	}
	return m.run(ctx, "cut "+filepath.Base(track), args...)
}

// crossfadeJoin chains acrossfade filters pairwise over all segments.
func (m *Muxer) crossfadeJoin(ctx context.Context, segments []string, dest string) error {
	if len(segments) == 1 {
		return copyFile(segments[0], dest)
	}

	args := []string{}
	for _, seg := range segments {
		args = append(args, "-i", seg)
	}

	var filter strings.Builder
	prev := "[0:a]"
	for i := 1; i < len(segments); i++ {
		out := fmt.Sprintf("[x%d]", i)
		if i == len(segments)-1 {
			out = "[out]"
		}
		fmt.Fprintf(&filter, "%s[%d:a]acrossfade=d=%s%s;", prev, i, strconv.FormatFloat(m.crossfade, 'f', -1, 64), out)
		prev = out
	}

	args = append(args,
		"-filter_complex", strings.TrimSuffix(filter.String(), ";"),
		"-map", "[out]",
		"-c:a", "aac",
		"-b:a", "192k",
		"-y", dest,
	)
	return m.run(ctx, "crossfade soundtrack", args...)
}

func (m *Muxer) run(ctx context.Context, unit string, args ...string) error {
	cmd := exec.CommandContext(ctx, m.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		tail := stderr.String()
		if len(tail) > 800 {
			tail = tail[len(tail)-800:]
		}
		return &types.RenderError{Unit: unit, Err: err, Stderr: strings.TrimSpace(tail)}
	}
	return nil
}

func copyFile(src, dest string) error {
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
