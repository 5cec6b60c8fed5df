package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mjaros/pvweekly/internal/alerting"
	"github.com/mjaros/pvweekly/internal/api"
	"github.com/mjaros/pvweekly/internal/config"
	"github.com/mjaros/pvweekly/internal/cron"
	"github.com/mjaros/pvweekly/internal/irradiance"
	"github.com/mjaros/pvweekly/internal/migrate"
	"github.com/mjaros/pvweekly/internal/notification"
	"github.com/mjaros/pvweekly/internal/pipeline"
	"github.com/mjaros/pvweekly/internal/report"
	"github.com/mjaros/pvweekly/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:           "pvweekly",
		Short:         "Weekly PV production reconciliation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), reportCmd(), workerCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("pvweekly: %v", err)
	}
}

// openStorage opens the configured backend, running migrations first when
// PVWEEKLY_AUTO_MIGRATE is set. The gorm backends auto-migrate on open
// anyway; explicit migrations matter for the pgxpool driver.
func openStorage(ctx context.Context, cfg config.Config) (storage.Storage, error) {
	autoMig := strings.ToLower(os.Getenv("PVWEEKLY_AUTO_MIGRATE"))
	if autoMig == "1" || autoMig == "true" || autoMig == "yes" {
		if cfg.DBDriver != "memory" {
			if err := migrate.Up(ctx, cfg.DBDriver, cfg.DBDSN); err != nil {
				log.Printf("auto-migration failed: %v", err)
			}
		}
	}
	return storage.Open(ctx, storage.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
}

func buildRunner(cfg config.Config, st storage.Storage) *pipeline.Runner {
	client := irradiance.NewClient(cfg.ForecastBaseURL)
	var svc *irradiance.Service
	if st != nil {
		maxAge := time.Duration(cfg.ForecastCacheMaxAgeSeconds) * time.Second
		svc = irradiance.NewServiceWithStorage(client, st, maxAge)
	} else {
		svc = irradiance.NewService(client)
	}
	return pipeline.NewRunner(cfg, svc)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			ctx := cmd.Context()

			st, err := openStorage(ctx, cfg)
			if err != nil {
				log.Printf("storage open failed (driver=%s): %v; running without snapshot cache", cfg.DBDriver, err)
				st = nil
			} else {
				defer st.Close()
			}

			runner := buildRunner(cfg, st)
			mux := api.NewMux(cfg, runner, st)

			port := os.Getenv("PORT")
			if port == "" {
				port = "8000"
			}
			addr := ":" + port
			log.Printf("pvweekly listening on %s (source=%s driver=%s)", addr, cfg.MeasuredSource, cfg.DBDriver)
			return http.ListenAndServe(addr, mux)
		},
	}
}

func reportCmd() *cobra.Command {
	var (
		startFlag  string
		endFlag    string
		formatFlag string
		outFlag    string
		emailFlag  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the pipeline once for a window and print or export the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			ctx := cmd.Context()

			start, err := time.Parse("2006-01-02", startFlag)
			if err != nil {
				return fmt.Errorf("invalid --start %q, want YYYY-MM-DD", startFlag)
			}
			end, err := time.Parse("2006-01-02", endFlag)
			if err != nil {
				return fmt.Errorf("invalid --end %q, want YYYY-MM-DD", endFlag)
			}

			st, err := openStorage(ctx, cfg)
			if err != nil {
				log.Printf("storage open failed: %v; running without snapshot cache", err)
				st = nil
			} else {
				defer st.Close()
			}

			rep, err := buildRunner(cfg, st).Run(ctx, start, end)
			if err != nil {
				return err
			}

			// Degraded reports fan out to the configured webhook, best-effort.
			if alert, degraded := alerting.AlertFromReport(rep); degraded {
				alerter := alerting.NewAlerter(alerting.DefaultAlertConfig())
				if err := alerter.SendReportAlert(ctx, alert); err != nil {
					log.Printf("alert delivery failed: %v", err)
				}
			}

			if emailFlag && st != nil {
				if err := notification.NewService(st).SendReport(ctx, rep); err != nil {
					log.Printf("report email failed: %v", err)
				}
			}

			var data []byte
			switch formatFlag {
			case "json":
				data, err = json.MarshalIndent(rep, "", "  ")
			case "xlsx":
				data, err = report.BuildXLSX(rep)
			case "pdf":
				data, err = report.BuildPDF(rep)
			default:
				return fmt.Errorf("unknown --format %q, want json, xlsx, or pdf", formatFlag)
			}
			if err != nil {
				return err
			}

			if outFlag == "" || outFlag == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			return os.WriteFile(outFlag, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&startFlag, "start", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "window end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&formatFlag, "format", "json", "output format: json, xlsx, or pdf")
	cmd.Flags().StringVar(&outFlag, "out", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&emailFlag, "email", false, "email the report summary to the configured recipient")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the forecast prefetch worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			ctx := cmd.Context()

			st, err := openStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer st.Close()

			client := irradiance.NewClient(cfg.ForecastBaseURL)
			maxAge := time.Duration(cfg.ForecastCacheMaxAgeSeconds) * time.Second
			svc := irradiance.NewServiceWithStorage(client, st, maxAge)

			return cron.Run(ctx, cfg, st, svc)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	run := func(fn func(context.Context, string, string) error) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			return fn(c.Context(), cfg.DBDriver, cfg.DBDSN)
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply pending migrations", RunE: run(migrate.Up)},
		&cobra.Command{Use: "down", Short: "Roll back the last migration", RunE: run(migrate.Down)},
		&cobra.Command{Use: "status", Short: "Show migration status", RunE: run(migrate.Status)},
	)
	return cmd
}
