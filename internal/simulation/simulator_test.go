package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/irradiance"
)

var (
	site = config.Site{Latitude: 51.1087, Longitude: 17.0597}
	inst = config.Installation{
		ModuleCount:      27,
		ModulePowerW:     190,
		ModuleAreaM2:     1.6,
		ModuleEfficiency: 0.149,
		PerformanceRatio: 0.80,
		TiltDeg:          40,
		AzimuthDeg:       135,
	}
)

func TestPOAIrradianceComponents(t *testing.T) {
	// Sun straight overhead, flat panel: POA equals DNI plus full sky diffuse.
	poa := POAIrradiance(800, 100, 700, 0, 180, 0, 180)
	if math.Abs(poa-(700+100)) > 1e-9 {
		t.Errorf("flat panel under zenith sun: expected 800, got %v", poa)
	}

	// Sun below horizon: no beam, only diffuse and ground terms.
	poa = POAIrradiance(0, 50, 600, 95, 180, 40, 180)
	wantDiffuse := 50 * (1 + math.Cos(40*deg2rad)) / 2
	if math.Abs(poa-wantDiffuse) > 1e-9 {
		t.Errorf("below-horizon sun must contribute no beam: expected %v, got %v", wantDiffuse, poa)
	}

	// Sun behind the plane: cos(AOI) < 0 must not subtract energy.
	behind := POAIrradiance(0, 0, 1000, 70, 0, 40, 180)
	if behind != 0 {
		t.Errorf("sun behind plane must yield 0, got %v", behind)
	}
}

func TestPOAIrradianceNeverNegative(t *testing.T) {
	for _, zen := range []float64{0, 30, 60, 89, 90, 120} {
		for _, az := range []float64{0, 90, 180, 270} {
			if poa := POAIrradiance(500, 100, 800, zen, az, 40, 135); poa < 0 {
				t.Errorf("negative POA at zenith=%v azimuth=%v: %v", zen, az, poa)
			}
		}
	}
}

func TestSimulateEnergyConversion(t *testing.T) {
	// Summer noon at the site: the sun is up and roughly aligned with a
	// southeast-facing array, so POA and energy must both be positive.
	noon := time.Date(2025, 6, 21, 11, 0, 0, 0, time.UTC)
	samples := []irradiance.Sample{{Timestamp: noon, GHI: 800, DHI: 120, DNI: 700}}

	records := Simulate(samples, site, inst, 0.5)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.POAIrradiance <= 0 {
		t.Fatalf("expected positive POA at summer noon, got %v", r.POAIrradiance)
	}
	want := r.POAIrradiance * 1.6 * 0.149 * 0.80 / 1000.0 * 27 * 0.5
	if math.Abs(r.EnergyKWh-want) > 1e-12 {
		t.Errorf("expected %v kWh, got %v", want, r.EnergyKWh)
	}
}

func TestSimulateNightIsZeroish(t *testing.T) {
	midnight := time.Date(2025, 6, 21, 23, 30, 0, 0, time.UTC)
	samples := []irradiance.Sample{{Timestamp: midnight, GHI: 0, DHI: 0, DNI: 0}}

	records := Simulate(samples, site, inst, 0.5)
	if records[0].EnergyKWh != 0 {
		t.Errorf("expected zero energy at night, got %v", records[0].EnergyKWh)
	}
}

func TestSimulateEmptyInput(t *testing.T) {
	if got := Simulate(nil, site, inst, 0.5); got != nil {
		t.Errorf("empty input must yield empty output")
	}
}

func TestSimulateEnergyNeverNegative(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	var samples []irradiance.Sample
	for h := 0; h < 7*24; h++ {
		samples = append(samples, irradiance.Sample{
			Timestamp: start.Add(time.Duration(h) * time.Hour),
			GHI:       float64(h % 500),
			DHI:       float64(h % 200),
			DNI:       float64(h % 700),
		})
	}
	for _, r := range Simulate(samples, site, inst, 0.5) {
		if r.EnergyKWh < 0 {
			t.Fatalf("negative modeled energy at %v", r.Timestamp)
		}
	}
}
