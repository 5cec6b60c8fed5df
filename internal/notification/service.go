// Package notification emails report summaries using the stored email
// configuration.
package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mjaros/pvweekly/internal/pipeline"
	"github.com/mjaros/pvweekly/internal/storage"
)

// ErrNotConfigured is returned when no enabled email configuration exists.
var ErrNotConfigured = errors.New("email not configured or disabled")

type Service struct {
	storage storage.Storage
}

func NewService(s storage.Storage) *Service {
	return &Service{storage: s}
}

func (s *Service) GetConfig(ctx context.Context) (*storage.EmailConfig, error) {
	return s.storage.GetEmailConfig(ctx)
}

func (s *Service) SaveConfig(ctx context.Context, cfg storage.EmailConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	return s.storage.SaveEmailConfig(ctx, cfg)
}

// SendReport emails a summary of a finished report to the configured
// recipient.
func (s *Service) SendReport(ctx context.Context, rep *pipeline.Report) error {
	cfg, err := s.storage.GetEmailConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return ErrNotConfigured
	}
	if cfg.ToAddress == "" {
		return errors.New("no recipient configured")
	}

	subject := fmt.Sprintf("Weekly production report %s to %s", rep.WindowStart, rep.WindowEnd)
	body := reportBody(rep)
	return s.send(cfg, cfg.ToAddress, subject, body)
}

// SendEmail sends an arbitrary message with the stored configuration. Backs
// the /email/test endpoint.
func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	cfg, err := s.storage.GetEmailConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return ErrNotConfigured
	}
	return s.send(cfg, to, subject, body)
}

func (s *Service) send(cfg *storage.EmailConfig, to, subject, body string) error {
	switch cfg.Provider {
	case "smtp":
		return sendSMTP(cfg, to, subject, body)
	case "sendgrid":
		return sendSendgrid(cfg, to, subject, body)
	default:
		return fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func reportBody(rep *pipeline.Report) string {
	eco := rep.Economics
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Weekly Production Report</h2>")
	fmt.Fprintf(&b, "<p>Window: %s to %s (source: %s)</p>", rep.WindowStart, rep.WindowEnd, rep.Source)
	fmt.Fprintf(&b, "<ul>")
	fmt.Fprintf(&b, "<li>Total energy: %.3f kWh</li>", eco.TotalEnergyKWh)
	fmt.Fprintf(&b, "<li>Self-consumption savings: %.2f</li>", eco.TotalAutoSavings)
	fmt.Fprintf(&b, "<li>Feed-in revenue: %.2f</li>", eco.TotalFeedRevenue)
	fmt.Fprintf(&b, "<li>Peak / off-peak: %.3f / %.3f kWh</li>", eco.PeakKWh, eco.OffPeakKWh)
	if eco.PaybackYears != nil {
		fmt.Fprintf(&b, "<li>Payback horizon: %.1f years</li>", *eco.PaybackYears)
	}
	fmt.Fprintf(&b, "</ul>")

	var degraded []string
	if rep.Flags.MeasuredEmpty {
		degraded = append(degraded, "no measured telemetry")
	}
	if rep.Flags.ForecastFailed {
		degraded = append(degraded, "irradiance forecast unavailable")
	}
	if rep.Flags.PartialWindow {
		degraded = append(degraded, "window only partially covered")
	}
	if len(degraded) > 0 {
		fmt.Fprintf(&b, "<p><b>Degradations:</b> %s</p>", strings.Join(degraded, "; "))
	}
	return b.String()
}

func sendSMTP(cfg *storage.EmailConfig, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	msg := []byte(fmt.Sprintf("To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"%s\r\n", to, subject, body))

	c, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Quit()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err = c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return err
		}
	}
	if cfg.Username != "" && cfg.Password != "" {
		auth := smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		if err = c.Auth(auth); err != nil {
			return err
		}
	}
	if err = c.Mail(cfg.FromAddress); err != nil {
		return err
	}
	if err = c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func sendSendgrid(cfg *storage.EmailConfig, to, subject, body string) error {
	from := mail.NewEmail(cfg.FromName, cfg.FromAddress)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, toEmail, body, body)
	client := sendgrid.NewSendClient(cfg.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
