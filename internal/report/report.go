// Package report renders the human-readable coverage calendar and the
// detailed CSV listing of day assignments. Both are outputs only; nothing in
// the pipeline reads them back.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

// Calendar renders an ASCII month-by-month calendar where each day shows its
// media count (".", a digit, or "9+").
func Calendar(assignment types.Assignment, year int) string {
	var b strings.Builder

	line := strings.Repeat("=", 60)
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "YEAR %d MEDIA COVERAGE REPORT\n", year)
	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b)

	filledDays := len(assignment)
	totalMedia := 0
	for _, media := range assignment {
		totalMedia += len(media)
	}
	daysInYear := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).YearDay()

	fmt.Fprintf(&b, "Days with media: %d / %d\n", filledDays, daysInYear)
	fmt.Fprintf(&b, "Total media files: %d\n", totalMedia)
	avg := 0.0
	if filledDays > 0 {
		avg = float64(totalMedia) / float64(filledDays)
	}
	fmt.Fprintf(&b, "Average media per day: %.1f\n", avg)

	for month := time.January; month <= time.December; month++ {
		fmt.Fprintf(&b, "\n%s %d\n", month.String(), year)
		fmt.Fprintln(&b, strings.Repeat("-", 30))
		fmt.Fprintln(&b, "Mo Tu We Th Fr Sa Su")

		writeMonthGrid(&b, assignment, year, month)

		monthDays, monthMedia := 0, 0
		prefix := fmt.Sprintf("%04d-%02d", year, int(month))
		for key, media := range assignment {
			if strings.HasPrefix(key, prefix) {
				monthDays++
				monthMedia += len(media)
			}
		}
		fmt.Fprintf(&b, "  %d days, %d media files\n", monthDays, monthMedia)
	}

	fmt.Fprintln(&b, "\n"+line)
	fmt.Fprintln(&b, "Legend: . = no media, number = count of media files")
	fmt.Fprintln(&b, line)

	return b.String()
}

func writeMonthGrid(b *strings.Builder, assignment types.Assignment, year int, month time.Month) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	// Monday-based column index of the 1st.
	col := (int(first.Weekday()) + 6) % 7

	cells := make([]string, 0, 42)
	for i := 0; i < col; i++ {
		cells = append(cells, "  ")
	}
	for day := 1; day <= daysInMonth; day++ {
		key := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
		if media, ok := assignment[key]; ok {
			if len(media) > 9 {
				cells = append(cells, "9+")
			} else {
				cells = append(cells, fmt.Sprintf("%2d", len(media)))
			}
		} else {
			cells = append(cells, " .")
		}
	}

	for i := 0; i < len(cells); i += 7 {
		end := i + 7
		if end > len(cells) {
			end = len(cells)
		}
		fmt.Fprintln(b, strings.Join(cells[i:end], " "))
	}
}

// WriteCalendar saves the coverage calendar to path.
func WriteCalendar(assignment types.Assignment, year int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Calendar(assignment, year)), 0644)
}

// WriteCSV saves the detailed per-day listing. Every day of the year gets at
// least one row, empty days included, so the spreadsheet shows gaps.
func WriteCSV(assignment types.Assignment, year int, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Date", "Day_of_Week", "Media_Count", "Filename", "Type", "Date_Source"}); err != nil {
		return err
	}

	day := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == year {
		key := day.Format("2006-01-02")
		weekday := day.Weekday().String()

		if media, ok := assignment[key]; ok {
			count := fmt.Sprintf("%d", len(media))
			for _, m := range media {
				if err := w.Write([]string{key, weekday, count, m.Filename, string(m.Type), string(m.Source)}); err != nil {
					return err
				}
			}
		} else {
			if err := w.Write([]string{key, weekday, "0", "", "", ""}); err != nil {
				return err
			}
		}

		day = day.AddDate(0, 0, 1)
	}

	w.Flush()
	return w.Error()
}
