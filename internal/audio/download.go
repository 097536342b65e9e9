// Package audio handles the optional soundtrack: downloading per-month
// tracks and muxing them onto the rendered videos. Both halves are thin
// wrappers around external tools.
package audio

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/On-Jun9/YearReel/pkg/types"
)

// Downloader fetches audio tracks with yt-dlp, one MP3 per URL, named by
// line number (01.mp3, 02.mp3, ...) so track N maps to month N.
type Downloader struct {
	binary string
	outDir string
}

func NewDownloader(binary, outDir string) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Downloader{binary: binary, outDir: outDir}
}

// Available reports whether the downloader binary is on PATH.
func (d *Downloader) Available() bool {
	_, err := exec.LookPath(d.binary)
	return err == nil
}

// DownloadAll reads one URL per line from urlsFile and downloads each as MP3.
// Failed URLs are reported but do not stop the remaining downloads.
func (d *Downloader) DownloadAll(urlsFile string) ([]types.FileError, error) {
	f, err := os.Open(urlsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := os.MkdirAll(d.outDir, 0755); err != nil {
		return nil, err
	}

	var failed []types.FileError
	index := 0

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		url := strings.TrimSpace(sc.Text())
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		index++

		if err := d.download(url, index); err != nil {
			failed = append(failed, types.FileError{Path: url, Err: err.Error()})
		}
	}
	if err := sc.Err(); err != nil {
		return failed, err
	}

	return failed, nil
}

func (d *Downloader) download(url string, index int) error {
	args := []string{
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"-o", filepath.Join(d.outDir, fmt.Sprintf("%02d.%%(ext)s", index)),
		"--no-playlist",
		url,
	}

	cmd := exec.Command(d.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// TrackForMonth locates the downloaded track for a month (1-12), matching by
// the NN filename prefix. Returns "" when no track exists.
func TrackForMonth(dir string, month int) string {
	prefix := fmt.Sprintf("%02d", month)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(strings.ToLower(name), ".mp3") {
			return filepath.Join(dir, name)
		}
	}
	return ""
}
