package solarpos

import (
	"math"
	"testing"
	"time"
)

const (
	lat = 51.1087
	lon = 17.0597
)

// Solar noon at 17°E is roughly 10:52 UTC.
var solarNoon = time.Date(2025, 6, 21, 10, 52, 0, 0, time.UTC)

func TestNoonZenith(t *testing.T) {
	p := At(solarNoon, lat, lon)
	// At the June solstice the minimum zenith is latitude - declination,
	// about 27.7° at this site.
	if p.ZenithDeg < 25 || p.ZenithDeg > 31 {
		t.Errorf("unexpected noon zenith: %v", p.ZenithDeg)
	}
	if math.Abs(p.AzimuthDeg-180) > 3 {
		t.Errorf("expected azimuth near south at solar noon, got %v", p.AzimuthDeg)
	}
}

func TestNightSunBelowHorizon(t *testing.T) {
	p := At(time.Date(2025, 6, 21, 23, 0, 0, 0, time.UTC), lat, lon)
	if p.ZenithDeg <= 90 {
		t.Errorf("expected sun below horizon at night, zenith=%v", p.ZenithDeg)
	}
}

func TestAzimuthProgression(t *testing.T) {
	morning := At(solarNoon.Add(-4*time.Hour), lat, lon)
	afternoon := At(solarNoon.Add(4*time.Hour), lat, lon)
	if morning.AzimuthDeg >= 180 {
		t.Errorf("morning azimuth must be east of south, got %v", morning.AzimuthDeg)
	}
	if afternoon.AzimuthDeg <= 180 {
		t.Errorf("afternoon azimuth must be west of south, got %v", afternoon.AzimuthDeg)
	}
}

func TestWinterNoonLowerSun(t *testing.T) {
	summer := At(solarNoon, lat, lon)
	winter := At(time.Date(2025, 12, 21, 10, 52, 0, 0, time.UTC), lat, lon)
	if winter.ZenithDeg <= summer.ZenithDeg {
		t.Errorf("winter noon zenith (%v) must exceed summer noon zenith (%v)",
			winter.ZenithDeg, summer.ZenithDeg)
	}
	// lat + |decl| ≈ 74.5° at the December solstice.
	if winter.ZenithDeg < 71 || winter.ZenithDeg > 78 {
		t.Errorf("unexpected winter noon zenith: %v", winter.ZenithDeg)
	}
}

func TestEquatorEquinox(t *testing.T) {
	// Near the equinox the sun passes close to the equator's zenith.
	p := At(time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC), 0, 0)
	if p.ZenithDeg > 5 {
		t.Errorf("expected near-zenith sun at equator equinox noon, got %v", p.ZenithDeg)
	}
}
