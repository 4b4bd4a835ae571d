package bench

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrRunNotFound is returned when resuming a run id with no persisted spec.
var ErrRunNotFound = errors.New("run not found")

// OutcomeLog is the append-only, idempotent-by-key record stream backing
// resume. Append writes a record once; appending an existing key is a no-op,
// never a duplicate, so concurrent workers need no coordination beyond key
// uniqueness. Implementations must be safe for concurrent use.
type OutcomeLog interface {
	// Append persists one record unless its key is already present.
	Append(ctx context.Context, rec Record) error

	// List returns every record of a run, in append order.
	List(ctx context.Context, runID string) ([]Record, error)

	// SaveSpec persists the run specification for later Resume.
	SaveSpec(ctx context.Context, spec RunSpec) error

	// LoadSpec loads a persisted run specification; a missing run id
	// yields ErrRunNotFound.
	LoadSpec(ctx context.Context, runID string) (RunSpec, error)
}

// MemoryLog is the in-memory OutcomeLog.
//
// Good for:
//   - Testing
//   - One-shot runs where resume does not matter
type MemoryLog struct {
	mu      sync.RWMutex
	records map[string][]Record        // run_id -> records in append order
	seen    map[UnitKey]struct{}
	specs   map[string]RunSpec
}

// NewMemoryLog creates an empty in-memory outcome log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{
		records: make(map[string][]Record),
		seen:    make(map[UnitKey]struct{}),
		specs:   make(map[string]RunSpec),
	}
}

func (l *MemoryLog) Append(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.seen[rec.Key]; dup {
		return nil
	}
	l.seen[rec.Key] = struct{}{}
	l.records[rec.Key.RunID] = append(l.records[rec.Key.RunID], rec)
	return nil
}

func (l *MemoryLog) List(ctx context.Context, runID string) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records[runID]))
	copy(out, l.records[runID])
	return out, nil
}

func (l *MemoryLog) SaveSpec(ctx context.Context, spec RunSpec) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.specs[spec.RunID] = spec
	return nil
}

func (l *MemoryLog) LoadSpec(ctx context.Context, runID string) (RunSpec, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	spec, ok := l.specs[runID]
	if !ok {
		return RunSpec{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return spec, nil
}

// FileLog is the file-backed OutcomeLog: one append-only JSONL file per run
// plus a JSON spec file, both under a single directory. Crash-safe in the
// at-least-once sense: a torn trailing line is skipped on load and the unit
// simply re-executes on resume.
type FileLog struct {
	dir string

	mu     sync.Mutex
	seen   map[UnitKey]struct{}
	loaded map[string]bool // run ids whose on-disk records are absorbed into seen
}

// NewFileLog creates a file log rooted at dir, creating it if needed.
func NewFileLog(dir string) (*FileLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create outcome log dir: %w", err)
	}
	return &FileLog{
		dir:    dir,
		seen:   make(map[UnitKey]struct{}),
		loaded: make(map[string]bool),
	}, nil
}

func (l *FileLog) recordsPath(runID string) string {
	return filepath.Join(l.dir, runID+".jsonl")
}

func (l *FileLog) specPath(runID string) string {
	return filepath.Join(l.dir, runID+".spec.json")
}

func (l *FileLog) Append(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[rec.Key]; dup {
		return nil
	}
	// first touch of this run in this process: absorb what is on disk
	if !l.loaded[rec.Key.RunID] {
		if err := l.loadSeenLocked(rec.Key.RunID); err != nil {
			return err
		}
		l.loaded[rec.Key.RunID] = true
		if _, dup := l.seen[rec.Key]; dup {
			return nil
		}
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.Key, err)
	}
	f, err := os.OpenFile(l.recordsPath(rec.Key.RunID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open outcome log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append record %s: %w", rec.Key, err)
	}
	l.seen[rec.Key] = struct{}{}
	return nil
}

func (l *FileLog) loadSeenLocked(runID string) error {
	recs, err := l.readRecords(runID)
	if err != nil {
		return err
	}
	for _, r := range recs {
		l.seen[r.Key] = struct{}{}
	}
	return nil
}

func (l *FileLog) readRecords(runID string) ([]Record, error) {
	f, err := os.Open(l.recordsPath(runID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open outcome log: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<24) // traces can be large
	for sc.Scan() {
		var rec Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			// torn tail write from a crash; the unit will re-run
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read outcome log: %w", err)
	}
	return out, nil
}

func (l *FileLog) List(ctx context.Context, runID string) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readRecords(runID)
}

func (l *FileLog) SaveSpec(ctx context.Context, spec RunSpec) error {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run spec: %w", err)
	}
	if err := os.WriteFile(l.specPath(spec.RunID), data, 0o644); err != nil {
		return fmt.Errorf("write run spec: %w", err)
	}
	return nil
}

func (l *FileLog) LoadSpec(ctx context.Context, runID string) (RunSpec, error) {
	data, err := os.ReadFile(l.specPath(runID))
	if errors.Is(err, os.ErrNotExist) {
		return RunSpec{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return RunSpec{}, fmt.Errorf("read run spec: %w", err)
	}
	var spec RunSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return RunSpec{}, fmt.Errorf("decode run spec: %w", err)
	}
	return spec, nil
}
