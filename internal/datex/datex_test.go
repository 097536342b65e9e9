package datex

import (
	"errors"
	"testing"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

type fakeImageDater struct {
	t   time.Time
	err error
}

func (f fakeImageDater) CaptureTime(path string) (time.Time, error) { return f.t, f.err }

type fakeVideoDater struct {
	t   time.Time
	err error
}

func (f fakeVideoDater) CreationTime(path string) (time.Time, error) { return f.t, f.err }

func TestDetector_FilenameWinsOverMetadata(t *testing.T) {
	// Embedded metadata points at a different day; the filename pattern is
	// authoritative.
	exifTime := time.Date(2024, 11, 30, 9, 0, 0, 0, time.Local)
	d := New(fakeImageDater{t: exifTime}, nil)

	entry := types.FileEntry{
		Path: "/media/20250102_161334.jpg",
		Name: "20250102_161334.jpg",
		Kind: types.MediaImage,
	}

	got, confidence, err := d.Detect(entry)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if confidence != types.ConfidenceFilename {
		t.Errorf("expected filename confidence, got %s", confidence)
	}
	if got.Format("2006-01-02") != "2025-01-02" {
		t.Errorf("expected 2025-01-02, got %s", got.Format("2006-01-02"))
	}
}

func TestDetector_MetadataForUndatedImageName(t *testing.T) {
	exifTime := time.Date(2025, 3, 15, 14, 30, 0, 0, time.Local)
	d := New(fakeImageDater{t: exifTime}, nil)

	entry := types.FileEntry{
		Path:    "/media/IMG_0001.heic",
		Name:    "IMG_0001.heic",
		Kind:    types.MediaImage,
		ModTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local),
	}

	got, confidence, err := d.Detect(entry)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if confidence != types.ConfidenceMetadata {
		t.Errorf("expected metadata confidence, got %s", confidence)
	}
	if !got.Equal(exifTime) {
		t.Errorf("expected %v, got %v", exifTime, got)
	}
}

func TestDetector_VideoUsesVideoDater(t *testing.T) {
	created := time.Date(2025, 8, 1, 19, 45, 0, 0, time.UTC)
	d := New(fakeImageDater{err: errors.New("not a video dater")}, fakeVideoDater{t: created})

	entry := types.FileEntry{
		Path: "/media/clip.mov",
		Name: "clip.mov",
		Kind: types.MediaVideo,
	}

	got, confidence, err := d.Detect(entry)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if confidence != types.ConfidenceMetadata {
		t.Errorf("expected metadata confidence, got %s", confidence)
	}
	if !got.Equal(created) {
		t.Errorf("expected %v, got %v", created, got)
	}
}

func TestDetector_FallsBackToModTime(t *testing.T) {
	modTime := time.Date(2025, 6, 10, 8, 0, 0, 0, time.Local)
	d := New(fakeImageDater{err: errors.New("no exif")}, nil)

	entry := types.FileEntry{
		Path:    "/media/holiday.png",
		Name:    "holiday.png",
		Kind:    types.MediaImage,
		ModTime: modTime,
	}

	got, confidence, err := d.Detect(entry)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if confidence != types.ConfidenceModTime {
		t.Errorf("expected mtime confidence, got %s", confidence)
	}
	if !got.Equal(modTime) {
		t.Errorf("expected %v, got %v", modTime, got)
	}
}

func TestDetector_UnresolvedWhenNothingAvailable(t *testing.T) {
	d := New(fakeImageDater{err: errors.New("no exif")}, nil)

	entry := types.FileEntry{
		Path: "/media/mystery.png",
		Name: "mystery.png",
		Kind: types.MediaImage,
	}

	_, _, err := d.Detect(entry)
	var unresolved *types.UnresolvedDateError
	if !errors.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedDateError, got %v", err)
	}
	if unresolved.Path != entry.Path {
		t.Errorf("expected path %s in error, got %s", entry.Path, unresolved.Path)
	}
}

func TestDetector_VideoWithoutDaterFallsBack(t *testing.T) {
	modTime := time.Date(2025, 2, 2, 2, 0, 0, 0, time.Local)
	d := New(fakeImageDater{err: errors.New("no exif")}, nil)

	entry := types.FileEntry{
		Path:    "/media/clip.mp4",
		Name:    "clip.mp4",
		Kind:    types.MediaVideo,
		ModTime: modTime,
	}

	got, confidence, err := d.Detect(entry)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if confidence != types.ConfidenceModTime {
		t.Errorf("expected mtime confidence, got %s", confidence)
	}
	if !got.Equal(modTime) {
		t.Errorf("expected %v, got %v", modTime, got)
	}
}
