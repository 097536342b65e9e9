// Package encoder abstracts the external multimedia tool behind a narrow
// rendering interface so the orchestrator can be tested without spawning
// subprocesses.
package encoder

import (
	"context"
	"time"
)

// Renderer is the capability surface the orchestrator needs. The production
// implementation shells out to ffmpeg; tests use a fake.
type Renderer interface {
	// RenderImageClip turns a still photo into a short letterboxed clip,
	// optionally with a slow Ken Burns zoom.
	RenderImageClip(ctx context.Context, src, dest string, duration float64, kenBurns bool) error
	// RenderVideoClip cuts an excerpt of at most maxDuration seconds from a
	// source video, normalized to the project resolution and frame rate.
	RenderVideoClip(ctx context.Context, src, dest string, maxDuration float64) error
	// RenderGIFClip converts an animated GIF into a clip capped at
	// maxDuration seconds.
	RenderGIFClip(ctx context.Context, src, dest string, maxDuration float64) error
	// RenderSeparator produces the month title card with fade in/out.
	RenderSeparator(ctx context.Context, title, dest string) error
	// AddDateCaption burns the clip's calendar date into the video, in place.
	AddDateCaption(ctx context.Context, clip string, day time.Time) error
	// Concat joins clips in order into dest, re-encoding for uniformity.
	Concat(ctx context.Context, clips []string, dest string) error
}

// MediaInfo is what Probe reports about an existing media file.
type MediaInfo struct {
	Duration float64
	HasAudio bool
}
