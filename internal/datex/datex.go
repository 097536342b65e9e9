// Package datex detects the capture date of a media file, trying filename
// patterns, embedded metadata and file modification time in that order.
package datex

import (
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

// ImageDater extracts a capture time from an image file's metadata.
type ImageDater interface {
	CaptureTime(path string) (time.Time, error)
}

// VideoDater extracts a creation time from a video container's metadata.
// The real implementation shells out to ffprobe; tests supply a fake.
type VideoDater interface {
	CreationTime(path string) (time.Time, error)
}

type Detector struct {
	image ImageDater
	video VideoDater
}

func New(image ImageDater, video VideoDater) *Detector {
	if image == nil {
		image = NewEXIFDater()
	}
	return &Detector{image: image, video: video}
}

// Detect returns the best available date for the entry with a confidence
// label. Filename patterns are authoritative for camera exports and win even
// when embedded metadata disagrees. When neither a filename date nor metadata
// is available and the modification time is unreadable, Detect fails with
// UnresolvedDateError.
func (d *Detector) Detect(entry types.FileEntry) (time.Time, types.DateConfidence, error) {
	if t, ok := FromFilename(entry.Name); ok {
		return t, types.ConfidenceFilename, nil
	}

	if t, err := d.metadataTime(entry); err == nil {
		return t, types.ConfidenceMetadata, nil
	}

	if !entry.ModTime.IsZero() {
		return entry.ModTime, types.ConfidenceModTime, nil
	}

	return time.Time{}, "", &types.UnresolvedDateError{Path: entry.Path}
}

func (d *Detector) metadataTime(entry types.FileEntry) (time.Time, error) {
	if entry.Kind == types.MediaVideo {
		if d.video == nil {
			return time.Time{}, errNoEXIFDate
		}
		return d.video.CreationTime(entry.Path)
	}
	return d.image.CaptureTime(entry.Path)
}
