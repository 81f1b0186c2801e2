package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/configs"
	"github.com/Ne4nf/TimoBank/internal/batch"
	"github.com/Ne4nf/TimoBank/internal/dataquality"
	"github.com/Ne4nf/TimoBank/internal/monitoring"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

func main() {
	stepFlag := flag.String("step", "all", "pipeline step to run: all, summaries, quality, monitoring, cleanup")
	dateFlag := flag.String("date", "", "summary date in YYYY-MM-DD format, defaults to yesterday")
	outputFlag := flag.String("output", "", "report output directory, overrides REPORTS_DIR")
	flag.Parse()

	// Load .env file if exists
	_ = godotenv.Load()

	// Load configuration
	cfg := configs.Load()
	if *outputFlag != "" {
		cfg.Reports.Dir = *outputFlag
	}

	// Setup logging
	setupLogging(cfg.Server.Environment)

	summaryDate := time.Now().AddDate(0, 0, -1)
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.Fatal().Str("date", *dateFlag).Msg("Invalid -date, expected YYYY-MM-DD")
		}
		summaryDate = parsed
	}

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("step", *stepFlag).
		Str("summary_date", summaryDate.Format("2006-01-02")).
		Msg("Starting banking data quality batch run")

	// Initialize database
	db, err := repositories.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Initialize repositories
	alertRepo := repositories.NewAlertRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	summaryRepo := repositories.NewSummaryRepository(db)

	checker := dataquality.NewChecker(db)
	monitor := monitoring.NewMonitor(db, alertRepo)
	auditor := monitoring.NewAuditor(db, auditRepo)
	notifier := batch.NewAlertNotifier(alertRepo)

	steps, err := buildSteps(*stepFlag, stepDeps{
		db:      db,
		checker: checker,
		monitor: monitor,
		auditor: auditor,
		summary: summaryRepo,
		audit:   auditRepo,
		alerts:  alertRepo,
		cfg:     cfg,
		date:    summaryDate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -step")
	}

	pipeline := batch.NewPipeline(notifier, steps...)

	// Cancel the run on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	if err := pipeline.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Batch run failed")
		os.Exit(1)
	}

	log.Info().Msg("Batch run complete")
}

type stepDeps struct {
	db      *repositories.Database
	checker *dataquality.Checker
	monitor *monitoring.Monitor
	auditor *monitoring.Auditor
	summary *repositories.SummaryRepository
	audit   *repositories.AuditRepository
	alerts  *repositories.AlertRepository
	cfg     *configs.Config
	date    time.Time
}

func buildSteps(step string, deps stepDeps) ([]batch.Step, error) {
	connectivity := batch.NewConnectivityStep(deps.db)
	summaries := batch.NewSummariesStep(deps.summary, deps.date)
	quality := batch.NewQualityStep(deps.checker, deps.cfg.Reports.Dir)
	monitoring := batch.NewMonitoringStep(deps.monitor, deps.auditor, deps.cfg.Reports.Dir)
	cleanup := batch.NewCleanupStep(deps.audit, deps.alerts, deps.cfg.Reports, deps.cfg.Batch)

	switch step {
	case "all":
		return []batch.Step{connectivity, summaries, quality, monitoring, cleanup}, nil
	case "summaries":
		return []batch.Step{connectivity, summaries}, nil
	case "quality":
		return []batch.Step{connectivity, quality}, nil
	case "monitoring":
		return []batch.Step{connectivity, monitoring}, nil
	case "cleanup":
		return []batch.Step{connectivity, cleanup}, nil
	default:
		return nil, errUnknownStep(step)
	}
}

type errUnknownStep string

func (e errUnknownStep) Error() string {
	return "unknown step: " + string(e)
}

func setupLogging(env string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
