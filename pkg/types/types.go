// Package types defines core data structures shared across YearReel modules.
package types

import (
	"time"
)

// FileEntry represents a scanned media file.
type FileEntry struct {
	// Path is the absolute path to the source file.
	Path string
	// Name is the base filename.
	Name string
	// Size is the file size in bytes.
	Size int64
	// ModTime is the file modification time.
	ModTime time.Time
	// Extension is the lowercase file extension without dot (e.g., "jpg", "mp4").
	Extension string
	// Kind classifies the file as image, gif or video.
	Kind MediaKind
}

// MediaKind classifies a media file for clip rendering.
type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaGIF     MediaKind = "gif"
	MediaVideo   MediaKind = "video"
	MediaUnknown MediaKind = "unknown"
)

// DateConfidence labels where a detected date came from. The tiers form a
// priority ladder: filename beats metadata beats mtime.
type DateConfidence string

const (
	ConfidenceFilename DateConfidence = "filename"
	ConfidenceMetadata DateConfidence = "metadata"
	ConfidenceModTime  DateConfidence = "mtime"
)

// MediaFile is a FileEntry with its fingerprint and detected date attached.
type MediaFile struct {
	Entry       FileEntry
	Fingerprint string
	// Taken is the best-guess capture time.
	Taken time.Time
	// Confidence records which extraction tier produced Taken.
	Confidence DateConfidence
}

// DayKey returns the assignment bucket key for the file, formatted YYYY-MM-DD.
func (m MediaFile) DayKey() string {
	return m.Taken.Format("2006-01-02")
}

// ScanDelta classifies the current directory listing against the previous
// scan state.
type ScanDelta struct {
	New       []FileEntry
	Changed   []FileEntry
	Unchanged []FileEntry
	// Removed holds paths that were present last run but are gone now.
	Removed []string
	// Failed holds per-file scan errors; the scan itself continues.
	Failed []FileError
}

// Empty reports whether nothing changed since the previous scan.
func (d ScanDelta) Empty() bool {
	return len(d.New) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// FileError pairs a file path with the error it produced, for reporting.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// AssignedMedia is one entry in the persisted day assignment artifact.
type AssignedMedia struct {
	Filepath string         `json:"filepath"`
	Filename string         `json:"filename"`
	Type     MediaKind      `json:"type"`
	Date     time.Time      `json:"date"`
	Source   DateConfidence `json:"source"`
}

// Assignment maps day keys (YYYY-MM-DD) to the ordered media for that day.
type Assignment map[string][]AssignedMedia

// RunSummary contains statistics for a completed run.
type RunSummary struct {
	ScannedFiles     int
	Assigned         int
	SkippedWrongYear int
	Unresolved       int
	ScanFailed       int
	ClipsRendered    int
	ClipsCached      int
	MonthsRendered   int
	MonthsSkipped    int
	DateSources      map[DateConfidence]int
	Errors           []FileError
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
