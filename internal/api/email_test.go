package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/irradiance"
	"github.com/mjaros/pvweekly/internal/pipeline"
	"github.com/mjaros/pvweekly/internal/storage"
)

func TestEmailConfigRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	// Fresh storage serves an empty config rather than an error.
	req := httptest.NewRequest(http.MethodGet, "/email/config", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	var got storage.EmailConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if got.ID != "" {
		t.Errorf("fresh config must be empty, got id %q", got.ID)
	}

	saved := storage.EmailConfig{
		Provider:    "smtp",
		Host:        "mail.example.com",
		Port:        587,
		FromAddress: "pv@example.com",
		ToAddress:   "ops@example.com",
		Enabled:     true,
	}
	body, _ := json.Marshal(saved)
	req = httptest.NewRequest(http.MethodPut, "/email/config", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/email/config", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode saved config: %v", err)
	}
	if got.ID == "" {
		t.Errorf("save must assign an id")
	}
	if got.Host != saved.Host || got.ToAddress != saved.ToAddress || !got.Enabled {
		t.Errorf("saved config did not round-trip: %+v", got)
	}
}

func TestEmailTestRequiresConfig(t *testing.T) {
	mux := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/email/test",
		strings.NewReader(`{"to":"ops@example.com"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a stored config, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not configured") {
		t.Errorf("unexpected error body %q", rec.Body.String())
	}
}

func TestEmailRoutesRejectBadRequests(t *testing.T) {
	mux := newTestMux(t)

	cases := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodPut, "/email/config", "{not json", http.StatusBadRequest},
		{http.MethodDelete, "/email/config", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/email/test", `{}`, http.StatusBadRequest},
		{http.MethodGet, "/email/test", "", http.StatusMethodNotAllowed},
	}
	for _, c := range cases {
		req := httptest.NewRequest(c.method, c.target, strings.NewReader(c.body))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Errorf("%s %s: expected %d, got %d", c.method, c.target, c.want, rec.Code)
		}
	}
}

// Without a storage backend there is nowhere to persist the config, so the
// routes are not mounted.
func TestEmailRoutesNeedStorage(t *testing.T) {
	cfg := config.FromEnv()
	runner := pipeline.NewRunner(cfg, irradiance.NewService(irradiance.NewClient("http://unused")))

	mux := NewMux(cfg, runner, nil)
	req := httptest.NewRequest(http.MethodGet, "/email/config", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without storage, got %d", rec.Code)
	}
}
