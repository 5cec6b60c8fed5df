package irradiance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mjaros/pvweekly/internal/storage"
)

// Service coordinates fetching and caching of irradiance forecasts.
type Service struct {
	client *Client
	store  storage.Storage // may be nil for fetch-only mode
	maxAge time.Duration
}

// NewService returns a fetch-only service with no snapshot caching.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// NewServiceWithStorage returns a Service that caches fetched forecasts as
// storage snapshots. Snapshots older than maxAge are refetched.
func NewServiceWithStorage(client *Client, st storage.Storage, maxAge time.Duration) *Service {
	return &Service{client: client, store: st, maxAge: maxAge}
}

// SnapshotKey identifies a cached forecast by site and window.
func SnapshotKey(lat, lon float64, start, end time.Time) string {
	return fmt.Sprintf("%.4f,%.4f:%s:%s", lat, lon,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// Forecast returns the hourly irradiance samples for a window, consulting the
// snapshot cache first and writing back best-effort on a fresh fetch.
func (s *Service) Forecast(ctx context.Context, lat, lon float64, start, end time.Time) ([]Sample, error) {
	key := SnapshotKey(lat, lon, start, end)

	if s.store != nil {
		snap, err := s.store.GetForecastSnapshot(ctx, key)
		if err == nil && snap != nil && len(snap.Payload) > 0 && time.Since(snap.FetchedAt) <= s.maxAge {
			var samples []Sample
			if err := json.Unmarshal(snap.Payload, &samples); err == nil {
				return samples, nil
			}
			// Undecodable snapshot: fall through and refetch.
		}
	}

	samples, err := s.client.Fetch(ctx, lat, lon, start, end)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if payload, err := json.Marshal(samples); err == nil {
			_ = s.store.SaveForecastSnapshot(ctx, storage.ForecastSnapshot{
				Key:       key,
				Payload:   payload,
				FetchedAt: time.Now(),
			})
		}
	}

	return samples, nil
}
