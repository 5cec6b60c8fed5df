package simulation

import (
	"time"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/irradiance"
	"github.com/mjaros/pvweekly/internal/solarpos"
	"github.com/mjaros/pvweekly/internal/timeseries"
)

// sampleSpanHours is the time span one irradiance sample covers. The
// provider delivers hourly values.
const sampleSpanHours = 1.0

// ModeledRecord is one sample of the physically modeled production curve.
type ModeledRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	POAIrradiance float64   `json:"poa_irradiance_w_m2"`
	EnergyKWh     float64   `json:"energy_kwh"`
}

// Simulate converts hourly irradiance samples into a modeled energy series
// for the configured array. Each sample is computed independently; empty
// input yields empty output. The configured derate is a fixed manual
// correction applied uniformly (see config.Config.SimulationDerate).
func Simulate(samples []irradiance.Sample, site config.Site, inst config.Installation, derate float64) []ModeledRecord {
	if len(samples) == 0 {
		return nil
	}

	out := make([]ModeledRecord, 0, len(samples))
	for _, s := range samples {
		pos := solarpos.At(s.Timestamp, site.Latitude, site.Longitude)
		poa := POAIrradiance(s.GHI, s.DHI, s.DNI,
			pos.ZenithDeg, pos.AzimuthDeg, inst.TiltDeg, inst.AzimuthDeg)

		energy := poa * inst.ModuleAreaM2 * inst.ModuleEfficiency * inst.PerformanceRatio /
			1000.0 * float64(inst.ModuleCount) * sampleSpanHours * derate

		out = append(out, ModeledRecord{
			Timestamp:     s.Timestamp,
			POAIrradiance: poa,
			EnergyKWh:     energy,
		})
	}
	return out
}

// SumByHour aggregates modeled energy into hour buckets.
func SumByHour(records []ModeledRecord) map[timeseries.HourKey]float64 {
	sums := make(map[timeseries.HourKey]float64)
	for _, r := range records {
		sums[timeseries.HourKeyOf(r.Timestamp)] += r.EnergyKWh
	}
	return sums
}

// SumByDay aggregates modeled energy into calendar days.
func SumByDay(records []ModeledRecord) map[string]float64 {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[timeseries.DayKeyOf(r.Timestamp)] += r.EnergyKWh
	}
	return sums
}
