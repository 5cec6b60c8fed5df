// Package alerting sends webhook notifications when a pipeline run comes
// back degraded.
package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mjaros/pvweekly/internal/pipeline"
)

// AlertConfig holds alerting configuration.
type AlertConfig struct {
	// WebhookURL is a generic webhook endpoint (Slack, Discord, or custom)
	WebhookURL string
	// WebhookType determines the payload format: "slack", "discord", or "generic"
	WebhookType string
	// Enabled controls whether alerts are sent
	Enabled bool
	// Timeout for HTTP requests
	Timeout time.Duration
}

// DefaultAlertConfig returns config from environment variables.
func DefaultAlertConfig() AlertConfig {
	cfg := AlertConfig{
		WebhookURL:  os.Getenv("PVWEEKLY_ALERT_WEBHOOK_URL"),
		WebhookType: os.Getenv("PVWEEKLY_ALERT_WEBHOOK_TYPE"),
		Timeout:     10 * time.Second,
	}

	cfg.Enabled = cfg.WebhookURL != ""

	if cfg.WebhookType == "" {
		// Auto-detect from URL
		if strings.Contains(cfg.WebhookURL, "slack.com") {
			cfg.WebhookType = "slack"
		} else if strings.Contains(cfg.WebhookURL, "discord.com") {
			cfg.WebhookType = "discord"
		} else {
			cfg.WebhookType = "generic"
		}
	}

	return cfg
}

// Alerter sends alerts to configured webhooks.
type Alerter struct {
	cfg    AlertConfig
	client *http.Client
}

// NewAlerter creates a new alerter instance.
func NewAlerter(cfg AlertConfig) *Alerter {
	return &Alerter{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// ReportAlert describes a degraded pipeline run.
type ReportAlert struct {
	ReportID    string
	WindowStart string
	WindowEnd   string
	Source      string
	Reasons     []string
	Timestamp   time.Time
}

// AlertFromReport builds a ReportAlert when the report carries degradation
// flags; it returns false for a clean report.
func AlertFromReport(rep *pipeline.Report) (ReportAlert, bool) {
	var reasons []string
	if rep.Flags.MeasuredEmpty {
		reasons = append(reasons, "no measured telemetry in window")
	}
	if rep.Flags.ForecastFailed {
		reasons = append(reasons, "irradiance forecast fetch failed")
	}
	if rep.Flags.PartialWindow {
		reasons = append(reasons, "measured series covers only part of the window")
	}
	if len(reasons) == 0 {
		return ReportAlert{}, false
	}
	return ReportAlert{
		ReportID:    rep.ID,
		WindowStart: rep.WindowStart,
		WindowEnd:   rep.WindowEnd,
		Source:      rep.Source,
		Reasons:     reasons,
		Timestamp:   rep.GeneratedAt,
	}, true
}

// SendReportAlert sends an alert about a degraded report.
func (a *Alerter) SendReportAlert(ctx context.Context, alert ReportAlert) error {
	if !a.cfg.Enabled {
		log.Printf("alerting: alerts disabled, skipping")
		return nil
	}

	var payload []byte
	var err error

	switch a.cfg.WebhookType {
	case "slack":
		payload, err = a.buildSlackPayload(alert)
	case "discord":
		payload, err = a.buildDiscordPayload(alert)
	default:
		payload, err = a.buildGenericPayload(alert)
	}
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	log.Printf("alerting: sent alert for report %s (%d reasons)", alert.ReportID, len(alert.Reasons))
	return nil
}

func (a *Alerter) buildSlackPayload(alert ReportAlert) ([]byte, error) {
	var reasonList strings.Builder
	for _, r := range alert.Reasons {
		reasonList.WriteString(fmt.Sprintf("• %s\n", r))
	}

	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]string{
					"type": "plain_text",
					"text": ":warning: Degraded production report",
				},
			},
			{
				"type": "section",
				"fields": []map[string]string{
					{"type": "mrkdwn", "text": fmt.Sprintf("*Window:*\n%s to %s", alert.WindowStart, alert.WindowEnd)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Source:*\n%s", alert.Source)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Report:*\n%s", alert.ReportID)},
					{"type": "mrkdwn", "text": fmt.Sprintf("*Timestamp:*\n%s", alert.Timestamp.Format(time.RFC3339))},
				},
			},
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Reasons:*\n%s", reasonList.String()),
				},
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildDiscordPayload(alert ReportAlert) ([]byte, error) {
	var reasonList strings.Builder
	for _, r := range alert.Reasons {
		reasonList.WriteString(fmt.Sprintf("• %s\n", r))
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       "Degraded production report",
				"description": fmt.Sprintf("Window %s to %s", alert.WindowStart, alert.WindowEnd),
				"color":       16776960, // Yellow
				"fields": []map[string]interface{}{
					{"name": "Report", "value": alert.ReportID, "inline": true},
					{"name": "Source", "value": alert.Source, "inline": true},
					{"name": "Reasons", "value": reasonList.String(), "inline": false},
				},
				"timestamp": alert.Timestamp.Format(time.RFC3339),
			},
		},
	}

	return json.Marshal(payload)
}

func (a *Alerter) buildGenericPayload(alert ReportAlert) ([]byte, error) {
	payload := map[string]interface{}{
		"alert_type":   "degraded_report",
		"report_id":    alert.ReportID,
		"window_start": alert.WindowStart,
		"window_end":   alert.WindowEnd,
		"source":       alert.Source,
		"reasons":      alert.Reasons,
		"timestamp":    alert.Timestamp.Format(time.RFC3339),
	}

	return json.Marshal(payload)
}
