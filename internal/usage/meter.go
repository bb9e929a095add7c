// Package usage tracks how often remote API calls are made, keyed by
// function and by the origin tag of the caller. Counts persist to a
// single JSON file with debounced writes.
package usage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSaveInterval = 5 * time.Minute

	// originUnknown attributes calls whose origin tag is empty.
	originUnknown = "unknown"
)

// functionRecord is the persisted count set for one metered function.
type functionRecord struct {
	TotalCalls int            `json:"total_calls"`
	ByModule   map[string]int `json:"by_module"` // keyed by origin tag
}

// Snapshot is an aggregated copy of the meter state.
type Snapshot struct {
	TotalCalls int
	Functions  map[string]FunctionUsage
	ByOrigin   map[string]int
}

// FunctionUsage holds the counts recorded for a single function.
type FunctionUsage struct {
	TotalCalls int
	ByOrigin   map[string]int
}

// Option configures a Meter.
type Option func(*Meter)

// WithSaveInterval sets the minimum delay between debounced writes.
func WithSaveInterval(d time.Duration) Option {
	return func(m *Meter) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Meter) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used for flush warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Meter) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Meter counts remote API calls and persists them to a JSON file.
// Increments are cheap; disk writes happen at most once per save
// interval, plus a forced write on Close.
type Meter struct {
	mu       sync.Mutex
	path     string
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	loaded   bool
	counts   map[string]*functionRecord
	dirty    bool
	lastSave time.Time
}

// NewMeter creates a meter backed by the file at path. State is loaded
// lazily on first use; a missing or unreadable file starts empty.
func NewMeter(path string, opts ...Option) *Meter {
	m := &Meter{
		path:     path,
		interval: defaultSaveInterval,
		now:      time.Now,
		logger:   zap.NewNop(),
		counts:   make(map[string]*functionRecord),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Record increments the counters for the given function and origin tag.
// An empty origin is attributed to "unknown". A debounced flush is
// attempted after the increment; flush failures are logged and the
// counts stay dirty for the next attempt.
func (m *Meter) Record(function, origin string) {
	if function == "" {
		function = originUnknown
	}
	if origin == "" {
		origin = originUnknown
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureLoadedLocked()

	rec := m.counts[function]
	if rec == nil {
		rec = &functionRecord{ByModule: make(map[string]int)}
		m.counts[function] = rec
	}
	rec.TotalCalls++
	rec.ByModule[origin]++
	m.dirty = true

	if err := m.flushLocked(false); err != nil {
		m.logger.Warn("usage flush failed", zap.Error(err))
	}
}

// Flush writes pending counts to disk. When force is false the write is
// skipped until the save interval has elapsed since the last one.
func (m *Meter) Flush(force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureLoadedLocked()
	return m.flushLocked(force)
}

// Snapshot returns an aggregated copy of the current counts.
func (m *Meter) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureLoadedLocked()

	snap := Snapshot{
		Functions: make(map[string]FunctionUsage, len(m.counts)),
		ByOrigin:  make(map[string]int),
	}
	for function, rec := range m.counts {
		usage := FunctionUsage{
			TotalCalls: rec.TotalCalls,
			ByOrigin:   make(map[string]int, len(rec.ByModule)),
		}
		for origin, n := range rec.ByModule {
			usage.ByOrigin[origin] = n
			snap.ByOrigin[origin] += n
		}
		snap.Functions[function] = usage
		snap.TotalCalls += rec.TotalCalls
	}
	return snap
}

// Close force-flushes pending counts. Callers defer this so normal
// termination never loses increments.
func (m *Meter) Close() error {
	return m.Flush(true)
}

// ensureLoadedLocked reads prior state from disk on first use. A
// missing or corrupt file starts the meter empty; metering must never
// take the pipeline down.
func (m *Meter) ensureLoadedLocked() {
	if m.loaded {
		return
	}
	m.loaded = true
	m.lastSave = m.now()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("usage state unreadable, starting empty", zap.Error(err))
		}
		return
	}

	var counts map[string]*functionRecord
	if err := json.Unmarshal(data, &counts); err != nil {
		m.logger.Warn("usage state corrupt, starting empty", zap.Error(err))
		return
	}

	for _, rec := range counts {
		if rec.ByModule == nil {
			rec.ByModule = make(map[string]int)
		}
	}
	m.counts = counts
}

// flushLocked writes the counts while the caller holds the mutex. It is
// the only write path, so the increment path never re-acquires the lock.
func (m *Meter) flushLocked(force bool) error {
	if !m.dirty {
		return nil
	}
	if !force && m.now().Sub(m.lastSave) < m.interval {
		return nil
	}

	data, err := json.MarshalIndent(m.counts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode usage state: %w", err)
	}

	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create usage directory: %w", err)
		}
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write usage state: %w", err)
	}

	m.dirty = false
	m.lastSave = m.now()
	return nil
}
