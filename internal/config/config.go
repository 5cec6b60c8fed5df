package config

import (
	"os"
	"strconv"
)

// Site is the installation's geographic location.
type Site struct {
	Latitude  float64
	Longitude float64
}

// Installation describes the fixed PV array.
type Installation struct {
	ModuleCount      int
	ModulePowerW     float64
	ModuleAreaM2     float64
	ModuleEfficiency float64
	PerformanceRatio float64
	TiltDeg          float64
	AzimuthDeg       float64 // 180 = due south
	CostPerKWp       float64
}

// InstalledKWp is the nameplate capacity of the array.
func (i Installation) InstalledKWp() float64 {
	return float64(i.ModuleCount) * i.ModulePowerW / 1000.0
}

// Pricing holds the economic constants, in the deployment's single fixed
// pricing unit per kWh.
type Pricing struct {
	SelfConsumptionPerKWh float64
	GridPurchasePerKWh    float64
	NetMeteringRatio      float64 // fraction of exported energy creditable, 0..1
	PeakStartHour         int     // inclusive
	PeakEndHour           int     // inclusive
}

// Config is the full service configuration, assembled once at startup.
type Config struct {
	Site         Site
	Installation Installation
	Pricing      Pricing

	// TelemetryDir is the directory holding the exported channel CSV files.
	TelemetryDir string
	// DayPolicy selects how bare day-of-month tokens resolve to absolute
	// dates: "rollover" or "offset". See telemetry.DayPolicy.
	DayPolicy string
	// MeasuredSource selects the registered measured-series source
	// ("files" or "synthetic").
	MeasuredSource string
	// SyntheticPeakW is the peak power of the fabricated curve when the
	// synthetic source is active.
	SyntheticPeakW float64

	// ForecastBaseURL is the irradiance provider endpoint.
	ForecastBaseURL string
	// ForecastCacheMaxAgeSeconds bounds how stale a cached irradiance
	// snapshot may be before it is refetched.
	ForecastCacheMaxAgeSeconds int

	// SimulationDerate is a fixed multiplicative correction applied to the
	// modeled energy before calibration. It has no derivation from data; it
	// compensates for losses the transposition model does not see (soiling,
	// wiring, inverter clipping).
	SimulationDerate float64
	// CalibrationDamping is a fixed multiplicative correction applied to
	// calibrated modeled samples after hourly scaling.
	CalibrationDamping float64

	// Storage backend for forecast snapshots and operational rows.
	DBDriver string
	DBDSN    string
}

// FromEnv builds a Config from environment variables, with defaults matching
// the reference installation (27 x 190 W modules near Wrocław, 2025 pricing).
func FromEnv() Config {
	return Config{
		Site: Site{
			Latitude:  envFloat("PVWEEKLY_LATITUDE", 51.1087),
			Longitude: envFloat("PVWEEKLY_LONGITUDE", 17.0597),
		},
		Installation: Installation{
			ModuleCount:      envInt("PVWEEKLY_MODULE_COUNT", 27),
			ModulePowerW:     envFloat("PVWEEKLY_MODULE_POWER_W", 190),
			ModuleAreaM2:     envFloat("PVWEEKLY_MODULE_AREA_M2", 1.6),
			ModuleEfficiency: envFloat("PVWEEKLY_MODULE_EFFICIENCY", 0.149),
			PerformanceRatio: envFloat("PVWEEKLY_PERFORMANCE_RATIO", 0.80),
			TiltDeg:          envFloat("PVWEEKLY_TILT_DEG", 40),
			AzimuthDeg:       envFloat("PVWEEKLY_AZIMUTH_DEG", 135),
			CostPerKWp:       envFloat("PVWEEKLY_COST_PER_KWP", 6000),
		},
		Pricing: Pricing{
			SelfConsumptionPerKWh: envFloat("PVWEEKLY_PRICE_SELF_CONSUMPTION", 0.70),
			GridPurchasePerKWh:    envFloat("PVWEEKLY_PRICE_GRID_PURCHASE", 0.80),
			NetMeteringRatio:      envFloat("PVWEEKLY_NET_METERING_RATIO", 0.70),
			PeakStartHour:         envInt("PVWEEKLY_PEAK_START_HOUR", 10),
			PeakEndHour:           envInt("PVWEEKLY_PEAK_END_HOUR", 14),
		},
		TelemetryDir:               envStr("PVWEEKLY_TELEMETRY_DIR", "data"),
		DayPolicy:                  envStr("PVWEEKLY_DAY_POLICY", "rollover"),
		MeasuredSource:             envStr("PVWEEKLY_MEASURED_SOURCE", "files"),
		SyntheticPeakW:             envFloat("PVWEEKLY_SYNTHETIC_PEAK_W", 4000),
		ForecastBaseURL:            envStr("PVWEEKLY_FORECAST_URL", "https://api.open-meteo.com/v1/forecast"),
		ForecastCacheMaxAgeSeconds: envInt("PVWEEKLY_FORECAST_CACHE_MAX_AGE", 3600),
		SimulationDerate:           envFloat("PVWEEKLY_SIMULATION_DERATE", 0.5),
		CalibrationDamping:         envFloat("PVWEEKLY_CALIBRATION_DAMPING", 0.3),
		DBDriver:                   envStr("PVWEEKLY_DB_DRIVER", "memory"),
		DBDSN:                      envStr("PVWEEKLY_DB_DSN", "pvweekly.db"),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return def
}

func envInt(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}
