package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Installation.ModuleCount != 27 {
		t.Errorf("unexpected module count: %d", cfg.Installation.ModuleCount)
	}
	if got := cfg.Installation.InstalledKWp(); got != 5.13 {
		t.Errorf("unexpected installed kWp: %v", got)
	}
	if cfg.DayPolicy != "rollover" {
		t.Errorf("unexpected default day policy: %q", cfg.DayPolicy)
	}
	if cfg.Pricing.PeakStartHour != 10 || cfg.Pricing.PeakEndHour != 14 {
		t.Errorf("unexpected peak window: %d-%d", cfg.Pricing.PeakStartHour, cfg.Pricing.PeakEndHour)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PVWEEKLY_MODULE_COUNT", "10")
	t.Setenv("PVWEEKLY_TILT_DEG", "35.5")
	t.Setenv("PVWEEKLY_DAY_POLICY", "offset")
	cfg := FromEnv()
	if cfg.Installation.ModuleCount != 10 {
		t.Errorf("override not applied: %d", cfg.Installation.ModuleCount)
	}
	if cfg.Installation.TiltDeg != 35.5 {
		t.Errorf("override not applied: %v", cfg.Installation.TiltDeg)
	}
	if cfg.DayPolicy != "offset" {
		t.Errorf("override not applied: %q", cfg.DayPolicy)
	}
}

func TestEnvBadValueFallsBack(t *testing.T) {
	t.Setenv("PVWEEKLY_MODULE_COUNT", "not-a-number")
	cfg := FromEnv()
	if cfg.Installation.ModuleCount != 27 {
		t.Errorf("expected default on unparseable value, got %d", cfg.Installation.ModuleCount)
	}
}
