package monitoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/models"
)

// ReportSummary aggregates one monitoring cycle
type ReportSummary struct {
	Timestamp      string         `json:"timestamp"`
	TotalAlerts    int            `json:"total_alerts"`
	AlertBreakdown map[string]int `json:"alert_breakdown"`
	TotalAuditLogs int            `json:"total_audit_logs"`
}

// Report is the persisted output of a monitoring cycle
type Report struct {
	Summary   ReportSummary        `json:"monitoring_summary"`
	Alerts    []models.AlertEvent  `json:"alerts"`
	AuditLogs []*models.AuditEntry `json:"audit_logs"`
}

// BuildReport aggregates a monitoring cycle into a report. The alert
// breakdown counts events per severity.
func BuildReport(alerts []models.AlertEvent, auditLogs []*models.AuditEntry, at time.Time) *Report {
	breakdown := make(map[string]int)
	for _, a := range alerts {
		breakdown[a.Severity]++
	}

	return &Report{
		Summary: ReportSummary{
			Timestamp:      at.Format(time.RFC3339),
			TotalAlerts:    len(alerts),
			AlertBreakdown: breakdown,
			TotalAuditLogs: len(auditLogs),
		},
		Alerts:    alerts,
		AuditLogs: auditLogs,
	}
}

// WriteFile persists the report as timestamped JSON under dir
func (r *Report) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}

	name := fmt.Sprintf("monitoring_report_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Str("path", path).Msg("Monitoring report written")
	return path, nil
}
