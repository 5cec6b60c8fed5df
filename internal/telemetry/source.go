package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FetchFunc produces the measured series for a reporting window.
type FetchFunc func(ctx context.Context, cfg SourceConfig, start, end time.Time) []MeasuredRecord

// SourceConfig describes one registered measured-series source plus the
// runtime settings it needs.
type SourceConfig struct {
	// Key is the unique identifier for this source (e.g., "files").
	Key string

	// Name is a human-readable description.
	Name string

	// Fetch produces the measured series for a window.
	Fetch FetchFunc

	// TelemetryDir is the directory holding channel exports (files source).
	TelemetryDir string

	// Policy resolves day tokens to absolute dates (files source).
	Policy DayPolicy

	// PeakPowerW scales the fabricated curve (synthetic source).
	PeakPowerW float64
}

var (
	sourcesMu sync.RWMutex
	sources   = make(map[string]SourceConfig)
)

// RegisterSource registers a measured-series source. Called from init()
// functions in each source file.
func RegisterSource(cfg SourceConfig) {
	if cfg.Key == "" {
		panic("telemetry: RegisterSource called with empty key")
	}
	if cfg.Fetch == nil {
		panic(fmt.Sprintf("telemetry: RegisterSource(%q) called with nil Fetch", cfg.Key))
	}

	sourcesMu.Lock()
	defer sourcesMu.Unlock()

	if _, exists := sources[cfg.Key]; exists {
		panic(fmt.Sprintf("telemetry: RegisterSource called twice for key %q", cfg.Key))
	}
	sources[cfg.Key] = cfg
}

// GetSource returns the registered source for a key.
func GetSource(key string) (SourceConfig, bool) {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()

	cfg, ok := sources[key]
	return cfg, ok
}

// ListSources returns all registered source keys.
func ListSources() []string {
	sourcesMu.RLock()
	defer sourcesMu.RUnlock()

	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	return keys
}

func init() {
	RegisterSource(SourceConfig{
		Key:  "files",
		Name: "Inverter portal CSV exports",
		Fetch: func(ctx context.Context, cfg SourceConfig, start, end time.Time) []MeasuredRecord {
			_ = ctx
			return Assemble(cfg.TelemetryDir, start, end, cfg.Policy)
		},
	})
}
