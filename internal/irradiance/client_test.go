package irradiance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const hourlyFixture = `{
  "hourly": {
    "time": ["2025-01-06T00:00", "2025-01-06T01:00", "2025-01-06T02:00"],
    "shortwave_radiation": [0, 12.5, -3],
    "diffuse_radiation": [0, 8, 2],
    "direct_normal_irradiance": [0, 40, -1]
  }
}`

func TestFetchDecodesAndClamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("latitude") != "51.1087" || q.Get("timezone") != "UTC" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("start_date") != "2025-01-06" || q.Get("end_date") != "2025-01-12" {
			t.Errorf("unexpected window: %s", r.URL.RawQuery)
		}
		w.Write([]byte(hourlyFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)

	samples, err := c.Fetch(context.Background(), 51.1087, 17.0597, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if !samples[0].Timestamp.Equal(start) {
		t.Errorf("unexpected first timestamp: %v", samples[0].Timestamp)
	}
	if samples[1].GHI != 12.5 || samples[1].DHI != 8 || samples[1].DNI != 40 {
		t.Errorf("unexpected sample: %+v", samples[1])
	}
	// Negative provider values are clamped to zero on receipt.
	if samples[2].GHI != 0 || samples[2].DNI != 0 {
		t.Errorf("expected clamped values, got %+v", samples[2])
	}
}

func TestFetchNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Fetch(context.Background(), 0, 0,
		time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatalf("expected error on 400 response")
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		w.Write([]byte(hourlyFixture))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	samples, err := c.Fetch(context.Background(), 0, 0,
		time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if len(samples) != 3 {
		t.Errorf("expected 3 samples after retry, got %d", len(samples))
	}
}

func TestDecodeSkipsBadTimestamps(t *testing.T) {
	samples, err := decodeHourly([]byte(`{
	  "hourly": {
	    "time": ["garbage", "2025-01-06T05:00"],
	    "shortwave_radiation": [1, 2],
	    "diffuse_radiation": [1, 2],
	    "direct_normal_irradiance": [1, 2]
	  }
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].GHI != 2 {
		t.Errorf("values must stay index-aligned after skipping a row, got %+v", samples[0])
	}
}
