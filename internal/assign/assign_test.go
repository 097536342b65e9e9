package assign

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/On-Jun9/YearReel/internal/datex"
	"github.com/On-Jun9/YearReel/pkg/types"
)

type noDater struct{}

func (noDater) CaptureTime(path string) (time.Time, error) {
	return time.Time{}, errors.New("no metadata")
}

func newTestAssigner(year int) *Assigner {
	return New(datex.New(noDater{}, nil), year)
}

func entry(name string, modTime time.Time) types.FileEntry {
	return types.FileEntry{
		Path:    "/media/" + name,
		Name:    name,
		Kind:    types.MediaImage,
		ModTime: modTime,
	}
}

func TestAssigner_BucketsByDay(t *testing.T) {
	a := newTestAssigner(2025)

	out := a.Assign([]types.FileEntry{
		entry("20250102_161334.jpg", time.Time{}),
		entry("20250102_093000.jpg", time.Time{}),
		entry("20250630_120000.jpg", time.Time{}),
	})

	if len(out.Assignment) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(out.Assignment))
	}

	jan2 := out.Assignment["2025-01-02"]
	if len(jan2) != 2 {
		t.Fatalf("expected 2 files on 2025-01-02, got %d", len(jan2))
	}
	// Earlier timestamp first.
	if jan2[0].Filename != "20250102_093000.jpg" {
		t.Errorf("expected morning shot first, got %s", jan2[0].Filename)
	}
	if out.DateSources[types.ConfidenceFilename] != 3 {
		t.Errorf("expected 3 filename-dated files, got %d", out.DateSources[types.ConfidenceFilename])
	}
}

func TestAssigner_EqualTimestampsOrderByFilename(t *testing.T) {
	a := newTestAssigner(2025)
	same := time.Date(2025, 4, 1, 10, 0, 0, 0, time.Local)

	out := a.Assign([]types.FileEntry{
		entry("b.jpg", same),
		entry("a.jpg", same),
	})

	day := out.Assignment["2025-04-01"]
	if len(day) != 2 {
		t.Fatalf("expected 2 files, got %d", len(day))
	}
	if day[0].Filename != "a.jpg" || day[1].Filename != "b.jpg" {
		t.Errorf("expected lexical order a.jpg, b.jpg; got %s, %s", day[0].Filename, day[1].Filename)
	}
}

func TestAssigner_SkipsWrongYear(t *testing.T) {
	a := newTestAssigner(2025)

	out := a.Assign([]types.FileEntry{
		entry("20241231_235959.jpg", time.Time{}),
		entry("20250101_000001.jpg", time.Time{}),
	})

	if len(out.SkippedWrongYear) != 1 {
		t.Fatalf("expected 1 wrong-year skip, got %d", len(out.SkippedWrongYear))
	}
	if len(out.Assignment["2025-01-01"]) != 1 {
		t.Errorf("expected the in-year file to be assigned")
	}
}

func TestAssigner_ReportsUnresolved(t *testing.T) {
	a := newTestAssigner(2025)

	out := a.Assign([]types.FileEntry{
		entry("mystery.jpg", time.Time{}),
	})

	if len(out.Unresolved) != 1 {
		t.Fatalf("expected 1 unresolved file, got %d", len(out.Unresolved))
	}
	if len(out.Assignment) != 0 {
		t.Errorf("unresolved files must not be assigned")
	}
}

func TestSaveAndLoad_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "media_assignment.json")

	assignment := types.Assignment{
		"2025-01-02": {
			{Filepath: "/media/a.jpg", Filename: "a.jpg", Type: types.MediaImage,
				Date: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC), Source: types.ConfidenceFilename},
		},
	}

	if err := Save(assignment, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded["2025-01-02"]) != 1 || loaded["2025-01-02"][0].Filename != "a.jpg" {
		t.Errorf("unexpected loaded assignment %+v", loaded)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "media_assignment.json")
	if err := os.WriteFile(path, []byte("]["), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	var corrupt *types.StateCorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("expected StateCorruptionError, got %v", err)
	}
}

func TestSortedDaysAndMonthFilter(t *testing.T) {
	assignment := types.Assignment{
		"2025-03-15": {},
		"2025-01-02": {},
		"2025-03-01": {},
		"2025-12-31": {},
	}

	days := SortedDays(assignment)
	want := []string{"2025-01-02", "2025-03-01", "2025-03-15", "2025-12-31"}
	for i, d := range want {
		if days[i] != d {
			t.Fatalf("expected %v, got %v", want, days)
		}
	}

	march := DaysOfMonth(assignment, 2025, 3)
	if len(march) != 2 || march[0] != "2025-03-01" || march[1] != "2025-03-15" {
		t.Errorf("unexpected march days %v", march)
	}
}
