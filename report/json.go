package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaynamir/archbench/bench"
)

// WriteSummary writes the aggregated run summary as indented JSON. The file
// is written atomically via a temp file so a crash never leaves a truncated
// summary next to a good record log.
func WriteSummary(path string, sum bench.Summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// ReadSummary loads a previously written summary.
func ReadSummary(path string) (bench.Summary, error) {
	var sum bench.Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return sum, fmt.Errorf("read summary: %w", err)
	}
	if err := json.Unmarshal(data, &sum); err != nil {
		return sum, fmt.Errorf("parse summary %s: %w", path, err)
	}
	return sum, nil
}

// Paths returns the conventional report locations for a run inside dir.
func Paths(dir, runID string) (csvPath, summaryPath string) {
	return filepath.Join(dir, runID+".csv"), filepath.Join(dir, runID+".summary.json")
}
