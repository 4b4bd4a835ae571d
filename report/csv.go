// Package report renders a completed (or partial) run: a CSV of every unit
// record and a JSON summary document.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/shaynamir/archbench/bench"
)

var csvHeader = []string{
	"run_id", "command_id", "variant", "repeat",
	"status", "elapsed_s", "acts", "identified_entities", "final_text",
}

// CSVWriter streams unit records to a CSV file, flushing after every row so
// an interrupted process leaves usable output behind.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates the file, truncating any previous content, and writes
// the header.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv report: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}
	return &CSVWriter{file: f, writer: w}, nil
}

// Write appends one record. Safe for concurrent use.
func (w *CSVWriter) Write(rec bench.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := []string{
		rec.Key.RunID,
		rec.Key.CommandID,
		rec.Key.Variant,
		fmt.Sprintf("%d", rec.Key.Repeat),
		string(rec.Outcome.Status),
		fmt.Sprintf("%.3f", rec.Outcome.Elapsed.Seconds()),
		fmt.Sprintf("%d", rec.Outcome.Trace.Acts()),
		strings.Join(rec.Outcome.IdentifiedEntities, ";"),
		rec.Outcome.FinalText,
	}
	if err := w.writer.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the file.
func (w *CSVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// WriteRecordsCSV writes a full record set in one shot.
func WriteRecordsCSV(path string, records []bench.Record) error {
	w, err := NewCSVWriter(path)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
