// Package assign maps scanned media files to day buckets of the target year
// and persists the canonical assignment artifact.
package assign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/On-Jun9/YearReel/internal/datex"
	"github.com/On-Jun9/YearReel/pkg/types"
)

type Assigner struct {
	detector   *datex.Detector
	targetYear int
}

func New(detector *datex.Detector, targetYear int) *Assigner {
	return &Assigner{detector: detector, targetYear: targetYear}
}

// Outcome is the result of one assignment pass. Files that could not be
// dated or that fall outside the target year are reported, never silently
// dropped.
type Outcome struct {
	Assignment       types.Assignment
	SkippedWrongYear []types.FileError
	Unresolved       []types.FileError
	DateSources      map[types.DateConfidence]int
}

// Assign buckets every entry by detected calendar day. Within a day, media is
// ordered by detected timestamp; equal timestamps fall back to ascending
// lexical filename order so reruns produce a stable sequence.
func (a *Assigner) Assign(entries []types.FileEntry) Outcome {
	out := Outcome{
		Assignment:  make(types.Assignment),
		DateSources: make(map[types.DateConfidence]int),
	}

	for _, entry := range entries {
		taken, confidence, err := a.detector.Detect(entry)
		if err != nil {
			out.Unresolved = append(out.Unresolved, types.FileError{Path: entry.Path, Err: err.Error()})
			continue
		}

		if taken.Year() != a.targetYear {
			out.SkippedWrongYear = append(out.SkippedWrongYear, types.FileError{
				Path: entry.Path,
				Err:  fmt.Sprintf("detected year %d, want %d", taken.Year(), a.targetYear),
			})
			continue
		}

		key := taken.Format("2006-01-02")
		out.Assignment[key] = append(out.Assignment[key], types.AssignedMedia{
			Filepath: entry.Path,
			Filename: entry.Name,
			Type:     entry.Kind,
			Date:     taken,
			Source:   confidence,
		})
		out.DateSources[confidence]++
	}

	for key := range out.Assignment {
		media := out.Assignment[key]
		sort.SliceStable(media, func(i, j int) bool {
			if !media[i].Date.Equal(media[j].Date) {
				return media[i].Date.Before(media[j].Date)
			}
			return media[i].Filename < media[j].Filename
		})
	}

	return out
}

// Save persists the assignment artifact as indented JSON, atomically.
func Save(assignment types.Assignment, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(assignment, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads a previously saved assignment artifact.
func Load(path string) (types.Assignment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var assignment types.Assignment
	if err := json.Unmarshal(data, &assignment); err != nil {
		return nil, &types.StateCorruptionError{Path: path, Err: err}
	}
	return assignment, nil
}

// SortedDays returns the assignment's day keys in chronological order.
func SortedDays(assignment types.Assignment) []string {
	days := make([]string, 0, len(assignment))
	for key := range assignment {
		days = append(days, key)
	}
	sort.Strings(days)
	return days
}

// DaysOfMonth filters SortedDays down to one month of the given year.
func DaysOfMonth(assignment types.Assignment, year, month int) []string {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	var days []string
	for _, key := range SortedDays(assignment) {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			days = append(days, key)
		}
	}
	return days
}
