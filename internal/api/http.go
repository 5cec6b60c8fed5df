// Package api exposes the reconciliation pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjaros/pvweekly/internal/alerting"
	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/metrics"
	"github.com/mjaros/pvweekly/internal/notification"
	"github.com/mjaros/pvweekly/internal/pipeline"
	"github.com/mjaros/pvweekly/internal/report"
	"github.com/mjaros/pvweekly/internal/storage"
	"github.com/mjaros/pvweekly/internal/telemetry"
	"github.com/mjaros/pvweekly/internal/ui"
)

// NewMux constructs the HTTP mux, wiring in the report endpoints, metrics,
// and health endpoints. The storage handle may be nil; readiness then only
// reflects process liveness.
func NewMux(cfg config.Config, runner *pipeline.Runner, st storage.Storage) *http.ServeMux {
	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("/metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if st != nil {
			if err := st.Ping(r.Context()); err != nil {
				log.Printf("readyz: db ping failed: %v", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Report API. Degraded runs fan out to the configured webhook.
	alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())
	mux.HandleFunc("/report", handleReport(runner, alerter, renderJSON))
	mux.HandleFunc("/report/xlsx", handleReport(runner, alerter, renderXLSX))
	mux.HandleFunc("/report/pdf", handleReport(runner, alerter, renderPDF))

	// Email configuration for report delivery; needs somewhere to persist.
	if st != nil {
		registerEmailRoutes(mux, notification.NewService(st))
	}

	// Registered measured-series sources, for operators wiring up a deployment.
	mux.HandleFunc("/sources", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"active":  cfg.MeasuredSource,
			"sources": telemetry.ListSources(),
		})
	})

	// Web UI
	mux.Handle("/ui/", http.StripPrefix("/ui/", ui.Handler()))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/ui/", http.StatusFound)
	})

	return mux
}

// renderFunc writes one representation of a finished report.
type renderFunc func(w http.ResponseWriter, rep *pipeline.Report) error

// handleReport runs the pipeline for the window given in the start/end query
// parameters and renders the result. Invalid windows are client errors;
// degraded reports are served with their flags set, and additionally raise a
// best-effort webhook alert.
func handleReport(runner *pipeline.Runner, alerter *alerting.Alerter, render renderFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		endpoint := r.URL.Path
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(endpoint).Observe(time.Since(began).Seconds())
		}()
		metrics.RequestsTotal.WithLabelValues(endpoint).Inc()

		start, end, err := parseWindow(r)
		if err != nil {
			metrics.RequestErrorsTotal.WithLabelValues(endpoint, "400").Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rep, err := runner.Run(r.Context(), start, end)
		if err != nil {
			if errors.Is(err, pipeline.ErrInvalidWindow) || errors.Is(err, pipeline.ErrUnknownSource) {
				metrics.RequestErrorsTotal.WithLabelValues(endpoint, "400").Inc()
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Printf("pipeline run for %s failed: %v", r.URL.RawQuery, err)
			metrics.RequestErrorsTotal.WithLabelValues(endpoint, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if alert, degraded := alerting.AlertFromReport(rep); degraded {
			if err := alerter.SendReportAlert(r.Context(), alert); err != nil {
				log.Printf("alert delivery for report %s failed: %v", rep.ID, err)
			}
		}

		if err := render(w, rep); err != nil {
			log.Printf("render report %s failed: %v", rep.ID, err)
			metrics.RequestErrorsTotal.WithLabelValues(endpoint, "500").Inc()
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	start, err := time.Parse("2006-01-02", q.Get("start"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q, want YYYY-MM-DD", q.Get("start"))
	}
	end, err := time.Parse("2006-01-02", q.Get("end"))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q, want YYYY-MM-DD", q.Get("end"))
	}
	return start, end, nil
}

func renderJSON(w http.ResponseWriter, rep *pipeline.Report) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rep)
}

func renderXLSX(w http.ResponseWriter, rep *pipeline.Report) error {
	data, err := report.BuildXLSX(rep)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=report_%s_%s.xlsx", rep.WindowStart, rep.WindowEnd))
	_, err = w.Write(data)
	return err
}

func renderPDF(w http.ResponseWriter, rep *pipeline.Report) error {
	data, err := report.BuildPDF(rep)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=report_%s_%s.pdf", rep.WindowStart, rep.WindowEnd))
	_, err = w.Write(data)
	return err
}
