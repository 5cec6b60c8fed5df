package simulation

import "math"

// groundAlbedo is the fixed ground reflectance used by the isotropic
// transposition. 0.2 is the customary value for grass/soil surroundings.
const groundAlbedo = 0.2

const deg2rad = math.Pi / 180.0

// POAIrradiance transposes horizontal irradiance components onto the tilted
// array plane with the isotropic-sky model:
//
//	beam    = DNI * cos(AOI)          (zero when the sun is behind the plane
//	                                   or below the horizon)
//	diffuse = DHI * (1 + cos β) / 2
//	ground  = GHI * albedo * (1 - cos β) / 2
//
// ghi/dhi/dni in W/m²; all angles in degrees, azimuths clockwise from north.
func POAIrradiance(ghi, dhi, dni, zenithDeg, solarAzimuthDeg, tiltDeg, surfaceAzimuthDeg float64) float64 {
	zen := zenithDeg * deg2rad
	tilt := tiltDeg * deg2rad

	cosAOI := math.Cos(zen)*math.Cos(tilt) +
		math.Sin(zen)*math.Sin(tilt)*math.Cos((solarAzimuthDeg-surfaceAzimuthDeg)*deg2rad)

	var beam float64
	if zenithDeg < 90 && cosAOI > 0 {
		beam = dni * cosAOI
	}

	diffuse := dhi * (1 + math.Cos(tilt)) / 2
	ground := ghi * groundAlbedo * (1 - math.Cos(tilt)) / 2

	poa := beam + diffuse + ground
	if poa < 0 {
		return 0
	}
	return poa
}
