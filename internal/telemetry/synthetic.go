package telemetry

import (
	"context"
	"math"
	"time"
)

// Synthetic source: fabricates a plausible clear-day production curve for
// deployments without portal exports (demos, load tests). Daylight follows a
// half-sine between 6:00 and 18:00 local wall clock, scaled to PeakPowerW.
func init() {
	RegisterSource(SourceConfig{
		Key:   "synthetic",
		Name:  "Synthetic clear-day production curve",
		Fetch: fetchSynthetic,
	})
}

const (
	syntheticSunriseHour = 6.0
	syntheticSunsetHour  = 18.0
)

func fetchSynthetic(ctx context.Context, cfg SourceConfig, start, end time.Time) []MeasuredRecord {
	_ = ctx
	peak := cfg.PeakPowerW
	if peak <= 0 {
		peak = 4000
	}

	step := time.Duration(SampleIntervalHours * float64(time.Hour))
	var out []MeasuredRecord
	for ts := start; !ts.After(end); ts = ts.Add(step) {
		power := syntheticPowerW(ts, peak)
		out = append(out, MeasuredRecord{
			Timestamp: ts,
			PowerW:    power,
			VoltageV:  230,
			CurrentA:  power / 230.0,
			EnergyKWh: power * SampleIntervalHours / 1000.0,
		})
	}
	return out
}

func syntheticPowerW(ts time.Time, peak float64) float64 {
	h := float64(ts.Hour()) + float64(ts.Minute())/60.0
	if h < syntheticSunriseHour || h > syntheticSunsetHour {
		return 0
	}
	frac := (h - syntheticSunriseHour) / (syntheticSunsetHour - syntheticSunriseHour)
	return peak * math.Sin(frac*math.Pi)
}
