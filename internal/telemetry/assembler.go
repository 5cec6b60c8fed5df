package telemetry

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/mjaros/pvweekly/internal/timeseries"
)

// SampleIntervalHours is the fixed sampling cadence of the inverter
// telemetry: 15-minute samples.
const SampleIntervalHours = 0.25

// Channel indices used in the export file naming convention.
const (
	channelPower   = 3
	channelVoltage = 4
	channelCurrent = 5
)

// MeasuredRecord is the inner join of the three channel series at one
// timestamp, restricted to the reporting window. EnergyKWh is derived from
// power and the fixed sample interval, never sourced.
type MeasuredRecord struct {
	Timestamp time.Time `json:"timestamp"`
	PowerW    float64   `json:"power_w"`
	VoltageV  float64   `json:"voltage_v"`
	CurrentA  float64   `json:"current_a"`
	EnergyKWh float64   `json:"energy_kwh"`
}

// ChannelPath resolves the export file for one channel of a window, following
// the `<dd.mm.yyyy>-<dd.mm.yyyy>_<channel>.csv` convention.
func ChannelPath(dir string, start, end time.Time, channel int) string {
	name := fmt.Sprintf("%s-%s_%d.csv",
		start.Format("02.01.2006"), end.Format("02.01.2006"), channel)
	return filepath.Join(dir, name)
}

// Assemble parses the three channel exports for the window and joins them
// into one measured series.
//
// Partial telemetry is not usable: if any channel parses to an empty series
// the result is empty. The join is on exact timestamp equality; a timestamp
// present in some but not all channels, or carrying an absent value in any
// channel, is dropped. The result is restricted to [start, end] inclusive and
// ordered by timestamp.
func Assemble(dir string, start, end time.Time, policy DayPolicy) []MeasuredRecord {
	power := ParseMeasurementFile(ChannelPath(dir, start, end, channelPower), start, policy)
	voltage := ParseMeasurementFile(ChannelPath(dir, start, end, channelVoltage), start, policy)
	current := ParseMeasurementFile(ChannelPath(dir, start, end, channelCurrent), start, policy)

	if len(power) == 0 || len(voltage) == 0 || len(current) == 0 {
		log.Printf("telemetry: incomplete channel set for %s..%s (power=%d voltage=%d current=%d)",
			start.Format("2006-01-02"), end.Format("2006-01-02"),
			len(power), len(voltage), len(current))
		return nil
	}

	voltageBy := voltage.ByTimestamp()
	currentBy := current.ByTimestamp()

	power.SortByTime()

	var out []MeasuredRecord
	for _, p := range power {
		if p.Timestamp.Before(start) || p.Timestamp.After(end) {
			continue
		}
		v, okV := voltageBy[p.Timestamp]
		c, okC := currentBy[p.Timestamp]
		if !okV || !okC || p.Value == nil || v == nil || c == nil {
			continue
		}
		out = append(out, MeasuredRecord{
			Timestamp: p.Timestamp,
			PowerW:    *p.Value,
			VoltageV:  *v,
			CurrentA:  *c,
			EnergyKWh: *p.Value * SampleIntervalHours / 1000.0,
		})
	}
	return out
}

// SumByHour aggregates measured energy into hour buckets.
func SumByHour(records []MeasuredRecord) map[timeseries.HourKey]float64 {
	sums := make(map[timeseries.HourKey]float64)
	for _, r := range records {
		sums[timeseries.HourKeyOf(r.Timestamp)] += r.EnergyKWh
	}
	return sums
}

// SumByDay aggregates measured energy into calendar days.
func SumByDay(records []MeasuredRecord) map[string]float64 {
	sums := make(map[string]float64)
	for _, r := range records {
		sums[timeseries.DayKeyOf(r.Timestamp)] += r.EnergyKWh
	}
	return sums
}
