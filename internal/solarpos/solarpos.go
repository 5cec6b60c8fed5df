// Package solarpos computes apparent solar position from UTC time and
// geographic coordinates, using the NOAA low-accuracy series for declination
// and the equation of time. Angles are in degrees; azimuth is measured
// clockwise from north.
package solarpos

import (
	"math"
	"time"
)

// Position is the sun's apparent position for one timestamp and location.
type Position struct {
	ZenithDeg  float64
	AzimuthDeg float64
}

const deg2rad = math.Pi / 180.0

// At returns the solar position at t for the given latitude and longitude
// (degrees, east positive). t is interpreted on the UTC timeline.
func At(t time.Time, latitude, longitude float64) Position {
	u := t.UTC()

	// Fractional year in radians.
	doy := float64(u.YearDay())
	hour := float64(u.Hour()) + float64(u.Minute())/60.0 + float64(u.Second())/3600.0
	gamma := 2 * math.Pi / 365.0 * (doy - 1 + (hour-12)/24.0)

	// Equation of time (minutes) and solar declination (radians), NOAA series.
	eqtime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))
	decl := 0.006918 -
		0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	// True solar time (minutes) for a UTC clock; hour angle in degrees.
	tst := hour*60.0 + eqtime + 4.0*longitude
	ha := tst/4.0 - 180.0
	for ha < -180 {
		ha += 360
	}
	for ha > 180 {
		ha -= 360
	}

	lat := latitude * deg2rad
	haRad := ha * deg2rad

	cosZen := math.Sin(lat)*math.Sin(decl) + math.Cos(lat)*math.Cos(decl)*math.Cos(haRad)
	cosZen = clamp(cosZen, -1, 1)
	zen := math.Acos(cosZen)

	// Azimuth clockwise from north. Degenerate at the zenith; report south.
	sinZen := math.Sin(zen)
	az := 180.0
	if sinZen > 1e-9 {
		cosAz := (math.Sin(decl)*math.Cos(lat) - math.Cos(decl)*math.Sin(lat)*math.Cos(haRad)) / sinZen
		cosAz = clamp(cosAz, -1, 1)
		az = math.Acos(cosAz) / deg2rad
		if ha > 0 {
			az = 360.0 - az
		}
	}

	return Position{ZenithDeg: zen / deg2rad, AzimuthDeg: az}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
