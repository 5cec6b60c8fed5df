// Package reconcile calibrates the physically modeled production curve
// against metered truth with hour-bucketed scale factors. The calibrated
// series borrows measured hourly totals while keeping the model's intra-hour
// shape.
package reconcile

import (
	"github.com/mjaros/pvweekly/internal/simulation"
	"github.com/mjaros/pvweekly/internal/telemetry"
	"github.com/mjaros/pvweekly/internal/timeseries"
)

// ScaleFactors maps each hour bucket to measured_sum / modeled_sum.
type ScaleFactors map[timeseries.HourKey]float64

// Calibrate scales the modeled series so its hourly sums match the measured
// hourly sums.
//
// Scale factors are computed per (date, hour) bucket over the inner join of
// the two hourly aggregates; a bucket absent from the join, or with a zero
// modeled sum, has scale 0. The factor is applied uniformly to every
// sub-hour modeled sample in the bucket, and samples whose bucket carries no
// factor are zeroed: an uncalibrated sample is untrustworthy, not "as
// predicted". The damping constant is a fixed manual correction applied
// after scaling (see config.Config.CalibrationDamping).
//
// Empty measured or modeled input yields nil calibrated output.
func Calibrate(measured []telemetry.MeasuredRecord, modeled []simulation.ModeledRecord, damping float64) ([]simulation.ModeledRecord, ScaleFactors) {
	if len(measured) == 0 || len(modeled) == 0 {
		return nil, nil
	}

	measuredSums := telemetry.SumByHour(measured)
	modeledSums := simulation.SumByHour(modeled)

	scales := make(ScaleFactors)
	for key, modeledSum := range modeledSums {
		measuredSum, ok := measuredSums[key]
		if !ok || modeledSum == 0 {
			continue
		}
		scales[key] = measuredSum / modeledSum
	}

	out := make([]simulation.ModeledRecord, len(modeled))
	for i, r := range modeled {
		scale := scales[timeseries.HourKeyOf(r.Timestamp)] // absent bucket -> 0
		out[i] = simulation.ModeledRecord{
			Timestamp:     r.Timestamp,
			POAIrradiance: r.POAIrradiance,
			EnergyKWh:     r.EnergyKWh * scale * damping,
		}
	}
	return out, scales
}
