package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/configs"
	"github.com/Ne4nf/TimoBank/internal/dataquality"
	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/monitoring"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

// NewConnectivityStep probes the database before any real work runs
func NewConnectivityStep(db *repositories.Database) Step {
	return StepFunc{
		StepName: "check_database_connection",
		Fn: func(ctx context.Context) error {
			probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return db.HealthCheck(probeCtx)
		},
	}
}

// NewSummariesStep regenerates daily summaries for the given date
func NewSummariesStep(summaries *repositories.SummaryRepository, date time.Time) Step {
	return StepFunc{
		StepName: "generate_daily_summaries",
		Fn: func(ctx context.Context) error {
			rows, err := summaries.GenerateForDate(ctx, date)
			if err != nil {
				return fmt.Errorf("failed to generate summaries for %s: %w",
					date.Format("2006-01-02"), err)
			}
			log.Info().
				Str("date", date.Format("2006-01-02")).
				Int64("rows", rows).
				Msg("Daily summaries generated")
			return nil
		},
	}
}

// NewQualityStep runs the data quality catalog and writes the report
func NewQualityStep(checker *dataquality.Checker, reportsDir string) Step {
	return StepFunc{
		StepName: "run_data_quality_checks",
		Fn: func(ctx context.Context) error {
			results, err := checker.Run(ctx)
			if err != nil {
				return err
			}

			report := dataquality.BuildReport(results, time.Now())
			if _, err := report.WriteFile(reportsDir); err != nil {
				return err
			}
			report.Render(os.Stdout)

			if report.OverallStatus() == models.StatusFail {
				return fmt.Errorf("%d data quality checks failed", report.Summary.Failed)
			}
			return nil
		},
	}
}

// NewMonitoringStep runs the fraud monitoring cycle and audit trail,
// then writes the monitoring report.
func NewMonitoringStep(monitor *monitoring.Monitor, auditor *monitoring.Auditor, reportsDir string) Step {
	return StepFunc{
		StepName: "run_fraud_monitoring",
		Fn: func(ctx context.Context) error {
			alerts, err := monitor.Run(ctx)
			if err != nil {
				return err
			}

			entries, err := auditor.GenerateTrail(ctx, time.Time{}, time.Time{})
			if err != nil {
				return err
			}

			report := monitoring.BuildReport(alerts, entries, time.Now())
			_, err = report.WriteFile(reportsDir)
			return err
		},
	}
}

// NewCleanupStep applies the retention policy. Individual cleanup
// failures are logged and swallowed so retention never fails the job.
func NewCleanupStep(audit *repositories.AuditRepository, alerts *repositories.AlertRepository, reports configs.ReportsConfig, batch configs.BatchConfig) Step {
	return StepFunc{
		StepName: "cleanup_old_data",
		Fn: func(ctx context.Context) error {
			if removed, err := audit.DeleteAuthLogsBefore(ctx, time.Now().Add(-batch.AuthLogRetention)); err != nil {
				log.Warn().Err(err).Msg("Failed to clean up authentication logs")
			} else {
				log.Info().Int64("rows", removed).Msg("Old authentication logs removed")
			}

			if removed, err := alerts.DeleteResolvedBefore(ctx, time.Now().Add(-batch.ResolvedAlertRetention)); err != nil {
				log.Warn().Err(err).Msg("Failed to clean up resolved alerts")
			} else {
				log.Info().Int64("rows", removed).Msg("Old resolved alerts removed")
			}

			removed := dataquality.CleanupReports(reports.Dir, reports.Retention)
			log.Info().Int("files", removed).Msg("Old report files removed")

			return nil
		},
	}
}
