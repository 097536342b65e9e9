package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

func sampleAssignment() types.Assignment {
	media := func(n int) []types.AssignedMedia {
		out := make([]types.AssignedMedia, n)
		for i := range out {
			out[i] = types.AssignedMedia{
				Filename: "photo.jpg",
				Type:     types.MediaImage,
				Date:     time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
				Source:   types.ConfidenceFilename,
			}
		}
		return out
	}

	return types.Assignment{
		"2025-01-02": media(3),
		"2025-01-03": media(12),
		"2025-06-15": media(1),
	}
}

func TestCalendar_Summary(t *testing.T) {
	out := Calendar(sampleAssignment(), 2025)

	if !strings.Contains(out, "YEAR 2025 MEDIA COVERAGE REPORT") {
		t.Error("missing report header")
	}
	if !strings.Contains(out, "Days with media: 3 / 365") {
		t.Errorf("missing day summary in:\n%s", out)
	}
	if !strings.Contains(out, "Total media files: 16") {
		t.Error("missing media total")
	}
	// Twelve month sections.
	for month := time.January; month <= time.December; month++ {
		if !strings.Contains(out, month.String()+" 2025") {
			t.Errorf("missing section for %s", month)
		}
	}
}

func TestCalendar_Cells(t *testing.T) {
	out := Calendar(sampleAssignment(), 2025)

	// 2025-01-03 has 12 files, shown capped.
	if !strings.Contains(out, "9+") {
		t.Error("expected 9+ cell for a day with more than nine files")
	}
	// 2025-01-01 is a Wednesday: the first January row starts with two blank
	// columns, then the empty 1st.
	if !strings.Contains(out, "    ") {
		t.Error("expected leading blank cells before the 1st")
	}
	if !strings.Contains(out, " .") {
		t.Error("expected empty-day dots")
	}
}

func TestCalendar_LeapYear(t *testing.T) {
	out := Calendar(types.Assignment{}, 2024)
	if !strings.Contains(out, "Days with media: 0 / 366") {
		t.Errorf("expected 366-day year in:\n%s", out)
	}
}

func TestWriteCSV_EveryDayGetsARow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_detailed.csv")
	if err := WriteCSV(sampleAssignment(), 2025, path); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse csv: %v", err)
	}

	// Header + 362 empty days + 16 media rows.
	if len(rows) != 1+362+16 {
		t.Errorf("expected 379 rows, got %d", len(rows))
	}

	header := strings.Join(rows[0], ",")
	if header != "Date,Day_of_Week,Media_Count,Filename,Type,Date_Source" {
		t.Errorf("unexpected header %q", header)
	}

	// First data row is January 1st with no media.
	if rows[1][0] != "2025-01-01" || rows[1][2] != "0" {
		t.Errorf("unexpected first row %v", rows[1])
	}
}

func TestWriteCalendar_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report_visual.txt")
	if err := WriteCalendar(sampleAssignment(), 2025, path); err != nil {
		t.Fatalf("WriteCalendar failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Legend") {
		t.Error("expected legend in written report")
	}
}
