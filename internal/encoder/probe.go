package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Prober wraps ffprobe for duration, stream and metadata queries.
type Prober struct {
	binary string
}

func NewProber(binary string) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Tags     struct {
			CreationTime string `json:"creation_time"`
		} `json:"tags"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Probe returns the duration and audio presence of a media file.
func (p *Prober) Probe(ctx context.Context, path string) (MediaInfo, error) {
	out, err := p.run(ctx, "-show_format", "-show_streams", path)
	if err != nil {
		return MediaInfo{}, err
	}

	info := MediaInfo{}
	if out.Format.Duration != "" {
		info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	}
	for _, s := range out.Streams {
		if s.CodecType == "audio" {
			info.HasAudio = true
		}
	}
	return info, nil
}

var errNoCreationTime = errors.New("no creation_time in container metadata")

// CreationTime reads the container-level creation timestamp of a video.
// Satisfies datex.VideoDater.
func (p *Prober) CreationTime(path string) (time.Time, error) {
	out, err := p.run(context.Background(), "-show_entries", "format_tags=creation_time", path)
	if err != nil {
		return time.Time{}, err
	}

	raw := out.Format.Tags.CreationTime
	if raw == "" {
		return time.Time{}, errNoCreationTime
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000000Z"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized creation_time %q", raw)
}

func (p *Prober) run(ctx context.Context, args ...string) (probeOutput, error) {
	full := append([]string{"-v", "quiet", "-print_format", "json"}, args...)
	cmd := exec.CommandContext(ctx, p.binary, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return probeOutput{}, fmt.Errorf("ffprobe: %w: %s", err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return probeOutput{}, fmt.Errorf("ffprobe output: %w", err)
	}
	return out, nil
}
