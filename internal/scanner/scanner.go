// Package scanner walks the source tree, fingerprints every media file and
// diffs the result against the previous run's fingerprint set.
package scanner

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/On-Jun9/YearReel/pkg/types"
)

var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "mkv": true,
	"m4v": true, "webm": true, "wmv": true,
}

type Scanner struct {
	includeExt map[string]bool
	hash       bool
}

// New builds a scanner limited to the given extensions. When hashFingerprint
// is set, fingerprints include a sha256 content hash on top of size+mtime.
func New(extensions []string, hashFingerprint bool) *Scanner {
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.ToLower(ext)] = true
	}
	return &Scanner{includeExt: extMap, hash: hashFingerprint}
}

// Result carries the classified delta plus the fingerprint set to persist
// for the next run.
type Result struct {
	Delta        types.ScanDelta
	Fingerprints map[string]string
}

// Scan walks root and classifies every media file against prev, the
// fingerprint set from the prior run. Unreadable files are recorded in
// Delta.Failed and do not abort the scan.
func (s *Scanner) Scan(root string, prev map[string]string) (Result, error) {
	res := Result{Fingerprints: make(map[string]string)}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			res.Delta.Failed = append(res.Delta.Failed, types.FileError{Path: path, Err: err.Error()})
			return nil
		}

		if d.IsDir() {
			return nil
		}

		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
		if !s.includeExt[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			accessErr := &types.IOAccessError{Path: path, Err: err}
			res.Delta.Failed = append(res.Delta.Failed, types.FileError{Path: path, Err: accessErr.Error()})
			return nil
		}

		fp := Fingerprint(info.Size(), info.ModTime().UnixNano())
		if s.hash {
			sum, err := hashFile(path)
			if err != nil {
				accessErr := &types.IOAccessError{Path: path, Err: err}
				res.Delta.Failed = append(res.Delta.Failed, types.FileError{Path: path, Err: accessErr.Error()})
				return nil
			}
			fp += "_" + sum
		}

		entry := types.FileEntry{
			Path:      path,
			Name:      d.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Extension: ext,
			Kind:      KindOf(ext),
		}

		res.Fingerprints[path] = fp

		switch prevFP, seen := prev[path]; {
		case !seen:
			res.Delta.New = append(res.Delta.New, entry)
		case prevFP != fp:
			res.Delta.Changed = append(res.Delta.Changed, entry)
		default:
			res.Delta.Unchanged = append(res.Delta.Unchanged, entry)
		}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	for path := range prev {
		if _, ok := res.Fingerprints[path]; !ok {
			res.Delta.Removed = append(res.Delta.Removed, path)
		}
	}

	return res, nil
}

// Fingerprint builds the cheap change-detection signature: mtime then size,
// same shape the scan cache stores.
func Fingerprint(size, mtimeNanos int64) string {
	return fmt.Sprintf("%d_%d", mtimeNanos, size)
}

// FingerprintFile computes the fingerprint for a single file exactly as Scan
// records it, including the content hash when withHash is set. Callers that
// fingerprint outside a scan must pass the same hash setting or their keys
// will never match the scan's.
func FingerprintFile(path string, withHash bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	fp := Fingerprint(info.Size(), info.ModTime().UnixNano())
	if withHash {
		sum, err := hashFile(path)
		if err != nil {
			return "", err
		}
		fp += "_" + sum
	}
	return fp, nil
}

// KindOf classifies a lowercase extension for clip rendering.
func KindOf(ext string) types.MediaKind {
	switch {
	case ext == "gif":
		return types.MediaGIF
	case videoExtensions[ext]:
		return types.MediaVideo
	case ext == "jpg" || ext == "jpeg" || ext == "png" || ext == "heic" || ext == "heif":
		return types.MediaImage
	default:
		return types.MediaUnknown
	}
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
