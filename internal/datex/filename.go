package datex

import (
	"regexp"
	"time"
)

// Recognized filename patterns, most precise first. Matches anywhere in the
// name, which covers camera exports like 20250102_161334.jpg as well as
// prefixed forms like IMG-20250105-WA0010.jpg or VID_20250323_181709.mp4.
var (
	reDateTime = regexp.MustCompile(`(\d{8})_(\d{6})`)
	reCompact  = regexp.MustCompile(`(\d{8})`)
	reDashed   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
)

// Dates outside this window are treated as coincidental digit runs, not dates.
const (
	minSaneYear = 2000
	maxSaneYear = 2030
)

// FromFilename extracts a capture date from the filename. The second return
// value is false when no recognized pattern yields a plausible date.
func FromFilename(name string) (time.Time, bool) {
	if m := reDateTime.FindStringSubmatch(name); m != nil {
		if t, err := time.ParseInLocation("20060102_150405", m[1]+"_"+m[2], time.Local); err == nil {
			if saneYear(t) {
				return t, true
			}
		}
	}

	if m := reCompact.FindStringSubmatch(name); m != nil {
		if t, err := time.ParseInLocation("20060102", m[1], time.Local); err == nil {
			if saneYear(t) {
				return t, true
			}
		}
	}

	if m := reDashed.FindStringSubmatch(name); m != nil {
		if t, err := time.ParseInLocation("2006-01-02", m[0], time.Local); err == nil {
			if saneYear(t) {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func saneYear(t time.Time) bool {
	return t.Year() >= minSaneYear && t.Year() <= maxSaneYear
}
