// Package pipeline runs the weekly reconciliation: assemble the measured
// series, simulate expected production from the irradiance forecast,
// calibrate the model against the meter, and derive the economics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/economics"
	"github.com/mjaros/pvweekly/internal/irradiance"
	"github.com/mjaros/pvweekly/internal/metrics"
	"github.com/mjaros/pvweekly/internal/reconcile"
	"github.com/mjaros/pvweekly/internal/simulation"
	"github.com/mjaros/pvweekly/internal/telemetry"
)

// ErrInvalidWindow is returned when the requested window is not exactly
// seven calendar days. The check runs before any file or network I/O.
var ErrInvalidWindow = errors.New("reporting window must span exactly 7 calendar days")

// ErrUnknownSource is returned when the configured measured-series source is
// not registered.
var ErrUnknownSource = errors.New("unknown measured source")

// ScaleFactor is one hour bucket's calibration factor, flattened for
// serialization.
type ScaleFactor struct {
	Date  string  `json:"date"`
	Hour  int     `json:"hour"`
	Scale float64 `json:"scale"`
}

// Flags marks the ways a report can be degraded. A degraded report is still
// a report; the caller decides how much to trust it.
type Flags struct {
	MeasuredEmpty  bool `json:"measured_empty"`
	ForecastFailed bool `json:"forecast_failed"`
	PartialWindow  bool `json:"partial_window"`
}

// Report is the full output of one pipeline run.
type Report struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generated_at"`
	WindowStart string    `json:"window_start"`
	WindowEnd   string    `json:"window_end"`
	Source      string    `json:"source"`

	Measured   []telemetry.MeasuredRecord `json:"measured"`
	Modeled    []simulation.ModeledRecord `json:"modeled"`
	Calibrated []simulation.ModeledRecord `json:"calibrated"`

	ScaleFactors []ScaleFactor `json:"scale_factors"`

	MeasuredDaily   []economics.DailyTotal `json:"measured_daily"`
	ModeledDaily    []economics.DailyTotal `json:"modeled_daily"`
	CalibratedDaily []economics.DailyTotal `json:"calibrated_daily"`

	ModeledHourlyProfile []economics.HourAverage `json:"modeled_hourly_profile"`

	Economics economics.Summary `json:"economics"`
	Flags     Flags             `json:"flags"`
}

// Runner wires the pipeline stages together from the service configuration.
type Runner struct {
	cfg       config.Config
	forecasts *irradiance.Service
}

// NewRunner returns a Runner using the given forecast service.
func NewRunner(cfg config.Config, forecasts *irradiance.Service) *Runner {
	return &Runner{cfg: cfg, forecasts: forecasts}
}

// Run produces the reconciliation report for the window [start, end], both
// interpreted as UTC calendar dates. The window must span exactly seven
// days; anything else is rejected before any I/O happens.
//
// Degradations inside a valid window (no measured data, forecast fetch
// failure, gaps) do not fail the run; they are flagged on the report.
func (r *Runner) Run(ctx context.Context, start, end time.Time) (*Report, error) {
	startDay := dateOf(start)
	endDay := dateOf(end)
	if endDay.Sub(startDay) != 6*24*time.Hour {
		metrics.PipelineRunsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidWindow,
			startDay.Format("2006-01-02"), endDay.Format("2006-01-02"))
	}

	src, ok := telemetry.GetSource(r.cfg.MeasuredSource)
	if !ok {
		metrics.PipelineRunsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, r.cfg.MeasuredSource)
	}
	src.TelemetryDir = r.cfg.TelemetryDir
	src.Policy = telemetry.ParsePolicy(r.cfg.DayPolicy)
	src.PeakPowerW = r.cfg.SyntheticPeakW

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		WindowStart: startDay.Format("2006-01-02"),
		WindowEnd:   endDay.Format("2006-01-02"),
		Source:      src.Key,
	}

	// The measured series covers the last day up to its final sample slot.
	measuredEnd := endDay.AddDate(0, 0, 1).Add(-time.Second)
	report.Measured = src.Fetch(ctx, src, startDay, measuredEnd)
	if len(report.Measured) == 0 {
		report.Flags.MeasuredEmpty = true
	}

	samples, err := r.forecasts.Forecast(ctx, r.cfg.Site.Latitude, r.cfg.Site.Longitude, startDay, endDay)
	if err != nil {
		log.Printf("pipeline: forecast fetch failed for %s..%s: %v",
			report.WindowStart, report.WindowEnd, err)
		metrics.ForecastFetchFailuresTotal.Inc()
		report.Flags.ForecastFailed = true
	} else {
		report.Modeled = simulation.Simulate(samples, r.cfg.Site, r.cfg.Installation, r.cfg.SimulationDerate)
	}

	var factors reconcile.ScaleFactors
	report.Calibrated, factors = reconcile.Calibrate(report.Measured, report.Modeled, r.cfg.CalibrationDamping)
	report.ScaleFactors = flattenFactors(factors)

	report.Economics = economics.Analyze(report.Measured, r.cfg.Pricing,
		r.cfg.Installation.InstalledKWp(), r.cfg.Installation.CostPerKWp)
	report.Flags.PartialWindow = report.Economics.PartialWindow

	report.MeasuredDaily = report.Economics.Daily
	report.ModeledDaily = economics.DailyFromSums(simulation.SumByDay(report.Modeled))
	report.CalibratedDaily = economics.DailyFromSums(simulation.SumByDay(report.Calibrated))
	report.ModeledHourlyProfile = modeledProfile(report.Modeled)

	outcome := "ok"
	if report.Flags.MeasuredEmpty || report.Flags.ForecastFailed || report.Flags.PartialWindow {
		outcome = "degraded"
	}
	metrics.PipelineRunsTotal.WithLabelValues(outcome).Inc()

	return report, nil
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func flattenFactors(factors reconcile.ScaleFactors) []ScaleFactor {
	out := make([]ScaleFactor, 0, len(factors))
	for key, scale := range factors {
		out = append(out, ScaleFactor{Date: key.Date, Hour: key.Hour, Scale: scale})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

func modeledProfile(modeled []simulation.ModeledRecord) []economics.HourAverage {
	if len(modeled) == 0 {
		return nil
	}
	timestamps := make([]time.Time, len(modeled))
	energies := make([]float64, len(modeled))
	for i, m := range modeled {
		timestamps[i] = m.Timestamp
		energies[i] = m.EnergyKWh
	}
	return economics.ProfileFromRecords(timestamps, energies)
}
