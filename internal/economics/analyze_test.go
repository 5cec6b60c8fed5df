package economics

import (
	"math"
	"testing"
	"time"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/telemetry"
)

var pricing = config.Pricing{
	SelfConsumptionPerKWh: 0.70,
	GridPurchasePerKWh:    0.80,
	NetMeteringRatio:      0.70,
	PeakStartHour:         10,
	PeakEndHour:           14,
}

// weekOfConstantPower builds a full 7-day series at 1000 W / 15-minute
// cadence: 0.25 kWh per sample, 24 kWh per day.
func weekOfConstantPower(t *testing.T) []telemetry.MeasuredRecord {
	t.Helper()
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 12, 23, 45, 0, 0, time.UTC)
	var out []telemetry.MeasuredRecord
	for ts := start; !ts.After(end); ts = ts.Add(15 * time.Minute) {
		out = append(out, telemetry.MeasuredRecord{Timestamp: ts, PowerW: 1000, EnergyKWh: 0.25})
	}
	return out
}

func TestAnalyzeConstantWeek(t *testing.T) {
	s := Analyze(weekOfConstantPower(t), pricing, 5.13, 6000)

	if s.ObservedDays != 7 {
		t.Errorf("expected 7 observed days, got %d", s.ObservedDays)
	}
	if s.PartialWindow {
		t.Errorf("full week must not be flagged partial")
	}
	if len(s.Daily) != 7 {
		t.Fatalf("expected 7 daily totals, got %d", len(s.Daily))
	}
	for _, d := range s.Daily {
		if math.Abs(d.EnergyKWh-24.0) > 1e-9 {
			t.Errorf("day %s: expected 24 kWh, got %v", d.Date, d.EnergyKWh)
		}
	}

	total := 7 * 24.0
	if math.Abs(s.TotalEnergyKWh-total) > 1e-9 {
		t.Errorf("expected %v kWh total, got %v", total, s.TotalEnergyKWh)
	}
	if math.Abs(s.TotalAutoSavings-total*0.70) > 1e-9 {
		t.Errorf("unexpected auto savings: %v", s.TotalAutoSavings)
	}
	// credit = energy * 0.70, feed = credit * 0.80
	if math.Abs(s.TotalFeedRevenue-total*0.70*0.80) > 1e-9 {
		t.Errorf("unexpected feed revenue: %v", s.TotalFeedRevenue)
	}

	// Peak hours 10..14 inclusive: 5 of 24 hours.
	if math.Abs(s.PeakKWh-7*5.0) > 1e-9 {
		t.Errorf("unexpected peak energy: %v", s.PeakKWh)
	}
	if math.Abs(s.PeakKWh+s.OffPeakKWh-s.TotalEnergyKWh) > 1e-9 {
		t.Errorf("peak + off-peak must equal total")
	}

	if s.PaybackYears == nil {
		t.Fatalf("expected a payback horizon")
	}
	annualized := s.TotalAutoSavings / 7 * 365
	want := 5.13 * 6000 / annualized
	if math.Abs(*s.PaybackYears-want) > 1e-9 {
		t.Errorf("expected payback %v, got %v", want, *s.PaybackYears)
	}
}

func TestAnalyzePerRecordEconomics(t *testing.T) {
	ts := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	measured := []telemetry.MeasuredRecord{{Timestamp: ts, PowerW: 1000, EnergyKWh: 0.25}}

	s := Analyze(measured, pricing, 5.13, 6000)
	if len(s.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(s.Records))
	}
	r := s.Records[0]
	if math.Abs(r.SavingsAuto-0.25*0.70) > 1e-12 {
		t.Errorf("unexpected savings: %v", r.SavingsAuto)
	}
	if math.Abs(r.CreditKWh-0.25*0.70) > 1e-12 {
		t.Errorf("unexpected credit: %v", r.CreditKWh)
	}
	if math.Abs(r.FeedValue-r.CreditKWh*0.80) > 1e-12 {
		t.Errorf("unexpected feed value: %v", r.FeedValue)
	}
	if r.NetFeed != r.FeedValue {
		t.Errorf("simple model: net feed must equal feed value")
	}
}

func TestAnalyzePeakBoundaries(t *testing.T) {
	day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	mk := func(hour int) telemetry.MeasuredRecord {
		return telemetry.MeasuredRecord{Timestamp: day.Add(time.Duration(hour) * time.Hour), EnergyKWh: 1}
	}
	// Hours 9 and 15 are outside; 10 and 14 are inside (inclusive range).
	measured := []telemetry.MeasuredRecord{mk(9), mk(10), mk(14), mk(15)}

	s := Analyze(measured, pricing, 5.13, 6000)
	if s.PeakKWh != 2 {
		t.Errorf("expected 2 kWh peak (hours 10 and 14), got %v", s.PeakKWh)
	}
	if s.OffPeakKWh != 2 {
		t.Errorf("expected 2 kWh off-peak, got %v", s.OffPeakKWh)
	}
}

func TestAnalyzeZeroSavingsMeansNoPayback(t *testing.T) {
	ts := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	measured := []telemetry.MeasuredRecord{{Timestamp: ts, EnergyKWh: 0}}

	s := Analyze(measured, pricing, 5.13, 6000)
	if s.PaybackYears != nil {
		t.Errorf("zero annualized savings must leave payback undefined, got %v", *s.PaybackYears)
	}
}

func TestAnalyzePartialWindowFlagged(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	var measured []telemetry.MeasuredRecord
	for d := 0; d < 3; d++ {
		measured = append(measured, telemetry.MeasuredRecord{
			Timestamp: start.AddDate(0, 0, d).Add(12 * time.Hour),
			EnergyKWh: 1,
		})
	}

	s := Analyze(measured, pricing, 5.13, 6000)
	if s.ObservedDays != 3 {
		t.Errorf("expected 3 observed days, got %d", s.ObservedDays)
	}
	if !s.PartialWindow {
		t.Errorf("gapped series must be flagged partial")
	}
}

func TestAnalyzeEmptySeries(t *testing.T) {
	s := Analyze(nil, pricing, 5.13, 6000)
	if s.TotalEnergyKWh != 0 || s.PaybackYears != nil {
		t.Errorf("empty series must yield a zero summary without payback")
	}
	if !s.PartialWindow {
		t.Errorf("empty series must be flagged partial")
	}
}

func TestHourlyProfile(t *testing.T) {
	day1 := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	measured := []telemetry.MeasuredRecord{
		{Timestamp: day1, EnergyKWh: 2},
		{Timestamp: day2, EnergyKWh: 4},
	}

	s := Analyze(measured, pricing, 5.13, 6000)
	if len(s.HourlyProfile) != 24 {
		t.Fatalf("expected 24 profile entries, got %d", len(s.HourlyProfile))
	}
	if s.HourlyProfile[12].EnergyKWh != 3 {
		t.Errorf("expected mean 3 kWh at hour 12, got %v", s.HourlyProfile[12].EnergyKWh)
	}
	if s.HourlyProfile[0].EnergyKWh != 0 {
		t.Errorf("hours without samples must average 0")
	}
}
