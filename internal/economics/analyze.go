// Package economics derives the monetary aggregates of a reporting window
// from the measured production series. The measured series is the economic
// ground truth; calibrated model output never feeds these numbers.
package economics

import (
	"sort"
	"time"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/telemetry"
)

// Record carries the per-sample economics for one measured record.
//
// NetFeed equals FeedValue: the simple model credits exported energy without
// an offsetting rebuy cost.
type Record struct {
	Timestamp   time.Time `json:"timestamp"`
	EnergyKWh   float64   `json:"energy_kwh"`
	SavingsAuto float64   `json:"savings_auto"`
	CreditKWh   float64   `json:"credit_kwh"`
	FeedValue   float64   `json:"feed_value"`
	NetFeed     float64   `json:"net_feed"`
}

// DailyTotal is one calendar day's energy sum.
type DailyTotal struct {
	Date      string  `json:"date"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// HourAverage is the mean per-sample energy for one hour of day across the
// window.
type HourAverage struct {
	Hour      int     `json:"hour"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// Summary is the full economic report for one window.
type Summary struct {
	Records       []Record      `json:"records"`
	Daily         []DailyTotal  `json:"daily"`
	HourlyProfile []HourAverage `json:"hourly_profile"`

	TotalEnergyKWh   float64 `json:"total_energy_kwh"`
	TotalAutoSavings float64 `json:"total_auto_savings"`
	TotalFeedRevenue float64 `json:"total_feed_revenue"`
	PeakKWh          float64 `json:"peak_kwh"`
	OffPeakKWh       float64 `json:"off_peak_kwh"`

	// ObservedDays is the inclusive day span of the series. PartialWindow is
	// set when it falls short of a full week; annualized figures then
	// understate reality and must not be silently trusted.
	ObservedDays  int  `json:"observed_days"`
	PartialWindow bool `json:"partial_window"`

	// PaybackYears is nil when annualized savings are not positive: the
	// horizon is then undefined, never NaN.
	PaybackYears *float64 `json:"payback_years"`
}

// Analyze computes the economic summary of a measured series. An empty
// series yields a zero summary with no payback.
func Analyze(measured []telemetry.MeasuredRecord, pricing config.Pricing, installedKWp, costPerKWp float64) Summary {
	var s Summary
	if len(measured) == 0 {
		s.PartialWindow = true
		return s
	}

	var hourSums, hourCounts [24]float64
	first, last := measured[0].Timestamp, measured[0].Timestamp

	for _, m := range measured {
		rec := Record{
			Timestamp:   m.Timestamp,
			EnergyKWh:   m.EnergyKWh,
			SavingsAuto: m.EnergyKWh * pricing.SelfConsumptionPerKWh,
			CreditKWh:   m.EnergyKWh * pricing.NetMeteringRatio,
		}
		rec.FeedValue = rec.CreditKWh * pricing.GridPurchasePerKWh
		rec.NetFeed = rec.FeedValue
		s.Records = append(s.Records, rec)

		s.TotalEnergyKWh += m.EnergyKWh
		s.TotalAutoSavings += rec.SavingsAuto
		s.TotalFeedRevenue += rec.NetFeed

		h := m.Timestamp.Hour()
		if h >= pricing.PeakStartHour && h <= pricing.PeakEndHour {
			s.PeakKWh += m.EnergyKWh
		}
		hourSums[h] += m.EnergyKWh
		hourCounts[h]++

		if m.Timestamp.Before(first) {
			first = m.Timestamp
		}
		if m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}
	s.OffPeakKWh = s.TotalEnergyKWh - s.PeakKWh

	s.Daily = dailyTotals(measured)
	for h := 0; h < 24; h++ {
		avg := 0.0
		if hourCounts[h] > 0 {
			avg = hourSums[h] / hourCounts[h]
		}
		s.HourlyProfile = append(s.HourlyProfile, HourAverage{Hour: h, EnergyKWh: avg})
	}

	s.ObservedDays = int(last.Sub(first).Hours()/24) + 1
	s.PartialWindow = s.ObservedDays < 7

	annualized := s.TotalAutoSavings / float64(s.ObservedDays) * 365
	if annualized > 0 {
		payback := installedKWp * costPerKWp / annualized
		s.PaybackYears = &payback
	}

	return s
}

func dailyTotals(measured []telemetry.MeasuredRecord) []DailyTotal {
	sums := telemetry.SumByDay(measured)
	out := make([]DailyTotal, 0, len(sums))
	for date, sum := range sums {
		out = append(out, DailyTotal{Date: date, EnergyKWh: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// DailyFromSums converts a day-keyed sum map into an ordered slice; used for
// the modeled series, whose daily totals ride along in the report.
func DailyFromSums(sums map[string]float64) []DailyTotal {
	out := make([]DailyTotal, 0, len(sums))
	for date, sum := range sums {
		out = append(out, DailyTotal{Date: date, EnergyKWh: sum})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// ProfileFromRecords computes the mean per-sample energy by hour of day for
// an arbitrary timestamped energy series.
func ProfileFromRecords(timestamps []time.Time, energies []float64) []HourAverage {
	var sums, counts [24]float64
	for i, ts := range timestamps {
		h := ts.Hour()
		sums[h] += energies[i]
		counts[h]++
	}
	out := make([]HourAverage, 0, 24)
	for h := 0; h < 24; h++ {
		avg := 0.0
		if counts[h] > 0 {
			avg = sums[h] / counts[h]
		}
		out = append(out, HourAverage{Hour: h, EnergyKWh: avg})
	}
	return out
}
