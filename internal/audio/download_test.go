package audio

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrackForMonth(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"01.mp3", "03 - march song.mp3", "05.MP3", "readme.txt", "07.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		month int
		want  string
	}{
		{1, "01.mp3"},
		{3, "03 - march song.mp3"},
		{5, "05.MP3"},
		{7, ""}, // wav is not a downloaded track
		{2, ""},
	}
	for _, tt := range tests {
		got := TrackForMonth(dir, tt.month)
		if tt.want == "" {
			if got != "" {
				t.Errorf("month %d: expected no track, got %s", tt.month, got)
			}
			continue
		}
		if filepath.Base(got) != tt.want {
			t.Errorf("month %d: expected %s, got %s", tt.month, tt.want, got)
		}
	}
}

func TestTrackForMonth_MissingDir(t *testing.T) {
	if got := TrackForMonth(filepath.Join(t.TempDir(), "nope"), 1); got != "" {
		t.Errorf("expected empty path for missing dir, got %s", got)
	}
}

func TestDownloader_NamesMatchLineNumbers(t *testing.T) {
	// Blank lines and comments must not consume month slots; the download
	// itself is exercised against a missing binary so every URL fails fast.
	dir := t.TempDir()
	urlsFile := filepath.Join(dir, "urls.txt")
	content := "# soundtrack\nhttps://example.com/one\n\nhttps://example.com/two\n"
	if err := os.WriteFile(urlsFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	d := NewDownloader("yearreel-test-binary-that-does-not-exist", filepath.Join(dir, "audio"))
	failed, err := d.DownloadAll(urlsFile)
	if err != nil {
		t.Fatalf("DownloadAll failed: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed URLs, got %d", len(failed))
	}
	if failed[0].Path != "https://example.com/one" || failed[1].Path != "https://example.com/two" {
		t.Errorf("unexpected failure order %+v", failed)
	}
}

func TestDownloader_MissingURLsFile(t *testing.T) {
	d := NewDownloader("", t.TempDir())
	if _, err := d.DownloadAll(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing urls file")
	}
}
