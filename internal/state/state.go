// Package state persists the scan fingerprint set between runs.
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/On-Jun9/YearReel/pkg/types"
)

// ScanState is the persisted fingerprint set from the previous scan.
type ScanState struct {
	filePath     string
	Fingerprints map[string]string `json:"fingerprints"`
	LastScan     time.Time         `json:"last_scan"`
}

func New(filePath string) *ScanState {
	return &ScanState{
		filePath:     filePath,
		Fingerprints: make(map[string]string),
	}
}

// Load reads the scan state from disk. A missing file yields an empty state.
// A malformed file also yields an empty state but additionally returns a
// StateCorruptionError so the caller can log a warning; losing the scan cache
// only costs a full rescan, never correctness.
func Load(filePath string) (*ScanState, error) {
	s := New(filePath)

	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, &types.StateCorruptionError{Path: filePath, Err: err}
	}

	if err := json.Unmarshal(data, s); err != nil {
		return New(filePath), &types.StateCorruptionError{Path: filePath, Err: err}
	}

	return s, nil
}

// Replace swaps in the fingerprint set from the scan that just completed.
func (s *ScanState) Replace(fingerprints map[string]string) {
	s.Fingerprints = fingerprints
	s.LastScan = time.Now()
}

// Save writes the state atomically: temp file in the same directory, then
// rename over the target.
func (s *ScanState) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}
