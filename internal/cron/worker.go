// Package cron runs the forecast prefetch worker. Prefetching keeps the
// snapshot cache warm so report requests do not block on the irradiance
// provider.
package cron

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/irradiance"
	"github.com/mjaros/pvweekly/internal/metrics"
	"github.com/mjaros/pvweekly/internal/storage"
)

const (
	jobName = "prefetch_forecast"

	// Advisory lock key: only one replica prefetches at a time.
	lockKey int64 = 511087

	// DB setting that overrides the prefetch interval at runtime.
	intervalSettingKey = "prefetch_interval_seconds"
)

// Run starts the prefetch worker loop. The interval comes from
// PVWEEKLY_PREFETCH_INTERVAL_SECONDS (integer seconds or a cron expression)
// and can be overridden through the prefetch_interval_seconds setting row.
// Advisory locks keep a multi-replica deployment from fetching in parallel.
//
// Run blocks until the context is cancelled.
func Run(ctx context.Context, cfg config.Config, st storage.Storage, forecasts *irradiance.Service) error {
	intervalSetting := "3600"
	if raw := os.Getenv("PVWEEKLY_PREFETCH_INTERVAL_SECONDS"); raw != "" {
		intervalSetting = raw
	}
	if val, err := st.GetSetting(ctx, intervalSettingKey); err == nil && val != "" {
		intervalSetting = val
	}

	// Control loop ticker; the actual interval is computed below.
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	getNextRun := func(setting string, lastRun time.Time) time.Time {
		if v, err := strconv.Atoi(setting); err == nil && v > 0 {
			return lastRun.Add(time.Duration(v) * time.Second)
		}
		if sched, err := cron.ParseStandard(setting); err == nil {
			return sched.Next(lastRun)
		}
		return lastRun.Add(time.Hour)
	}

	// Run immediately on startup, then schedule.
	nextRun := time.Now()

	log.Printf("prefetch worker starting, interval setting=%q", intervalSetting)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if val, err := st.GetSetting(ctx, intervalSettingKey); err == nil && val != "" && val != intervalSetting {
				log.Printf("prefetch: interval updated from %q to %q", intervalSetting, val)
				intervalSetting = val
				nextRun = getNextRun(intervalSetting, time.Now())
			}

			if time.Now().Before(nextRun) {
				continue
			}
			started := time.Now()

			gotLock, err := st.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("prefetch: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}
			if !gotLock {
				log.Printf("prefetch: advisory lock held by another worker, skipping run")
				nextRun = getNextRun(intervalSetting, time.Now())
				continue
			}

			var runErr error
			func() {
				defer func() {
					if _, err := st.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("prefetch: release advisory lock failed: %v", err)
					}
				}()
				runErr = prefetch(ctx, cfg, forecasts)
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)
			recordJob(ctx, st, started, runErr)

			dur := time.Since(started)
			if runErr != nil {
				log.Printf("prefetch: job completed with error: %v (duration=%s)", runErr, dur)
			} else {
				log.Printf("prefetch: job completed successfully (duration=%s)", dur)
			}

			nextRun = getNextRun(intervalSetting, time.Now())
		}
	}
}

// prefetch warms the snapshot cache for the trailing seven-day window, the
// window a routine weekly report asks for.
func prefetch(ctx context.Context, cfg config.Config, forecasts *irradiance.Service) error {
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -6)

	samples, err := forecasts.Forecast(ctx, cfg.Site.Latitude, cfg.Site.Longitude, start, end)
	if err != nil {
		metrics.ForecastFetchFailuresTotal.Inc()
		return err
	}
	log.Printf("prefetch: cached %d irradiance samples for %s..%s",
		len(samples), start.Format("2006-01-02"), end.Format("2006-01-02"))
	return nil
}

func recordJob(ctx context.Context, st storage.Storage, started time.Time, runErr error) {
	job := storage.ScheduledJob{
		Name:           jobName,
		LastRunAt:      started,
		LastDurationMs: time.Since(started).Milliseconds(),
	}
	if runErr == nil {
		job.LastSuccess = 1
	} else {
		job.LastError = runErr.Error()
	}
	if err := st.UpdateScheduledJob(ctx, job); err != nil {
		log.Printf("prefetch: update scheduled job failed: %v", err)
	}
}
