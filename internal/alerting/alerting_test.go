package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mjaros/pvweekly/internal/pipeline"
)

func degradedReport() *pipeline.Report {
	return &pipeline.Report{
		ID:          "abc-123",
		GeneratedAt: time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC),
		WindowStart: "2025-01-06",
		WindowEnd:   "2025-01-12",
		Source:      "files",
		Flags:       pipeline.Flags{MeasuredEmpty: true, PartialWindow: true},
	}
}

func TestAlertFromReport(t *testing.T) {
	alert, ok := AlertFromReport(degradedReport())
	if !ok {
		t.Fatalf("degraded report must produce an alert")
	}
	if len(alert.Reasons) != 2 {
		t.Errorf("expected 2 reasons, got %v", alert.Reasons)
	}
	if alert.ReportID != "abc-123" || alert.WindowStart != "2025-01-06" {
		t.Errorf("unexpected alert identity: %+v", alert)
	}

	clean := degradedReport()
	clean.Flags = pipeline.Flags{}
	if _, ok := AlertFromReport(clean); ok {
		t.Errorf("clean report must not alert")
	}
}

func TestSendReportAlertGeneric(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{WebhookURL: srv.URL, WebhookType: "generic", Enabled: true, Timeout: time.Second})
	alert, _ := AlertFromReport(degradedReport())
	if err := a.SendReportAlert(context.Background(), alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["alert_type"] != "degraded_report" || got["report_id"] != "abc-123" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestSendReportAlertDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("disabled alerter must not call the webhook")
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{WebhookURL: srv.URL, Enabled: false, Timeout: time.Second})
	alert, _ := AlertFromReport(degradedReport())
	if err := a.SendReportAlert(context.Background(), alert); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendReportAlertWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewAlerter(AlertConfig{WebhookURL: srv.URL, WebhookType: "slack", Enabled: true, Timeout: time.Second})
	alert, _ := AlertFromReport(degradedReport())
	if err := a.SendReportAlert(context.Background(), alert); err == nil {
		t.Fatalf("expected an error on a 403 webhook response")
	}
}

func TestDefaultAlertConfigTypeDetection(t *testing.T) {
	t.Setenv("PVWEEKLY_ALERT_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/x")
	t.Setenv("PVWEEKLY_ALERT_WEBHOOK_TYPE", "")

	cfg := DefaultAlertConfig()
	if !cfg.Enabled {
		t.Errorf("webhook URL must enable alerting")
	}
	if cfg.WebhookType != "slack" {
		t.Errorf("expected slack detection, got %q", cfg.WebhookType)
	}
}
