package storage

import "context"

// Storage abstracts persistence for forecast snapshots and operational rows.
// Reconciled pipeline results are deliberately not persisted.
type Storage interface {
	// Forecast snapshots
	GetForecastSnapshot(ctx context.Context, key string) (*ForecastSnapshot, error)
	SaveForecastSnapshot(ctx context.Context, snap ForecastSnapshot) error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Email configuration for report notifications
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg EmailConfig) error

	// Worker coordination
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, job ScheduledJob) error

	// Health
	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
