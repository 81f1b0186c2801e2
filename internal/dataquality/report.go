package dataquality

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/models"
)

// Summary aggregates one check run
type Summary struct {
	TotalChecks int     `json:"total_checks"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Warnings    int     `json:"warnings"`
	SuccessRate float64 `json:"success_rate"`
	Timestamp   string  `json:"timestamp"`
}

// Report is the persisted output of a check run
type Report struct {
	Summary Summary              `json:"summary"`
	Results []models.CheckResult `json:"results"`
}

// BuildReport aggregates check results into a report. Success rate is
// the passed share in percent, rounded to two decimals, zero for an
// empty run.
func BuildReport(results []models.CheckResult, at time.Time) *Report {
	summary := Summary{
		TotalChecks: len(results),
		Timestamp:   at.Format(time.RFC3339),
	}

	for _, r := range results {
		switch r.Status {
		case models.StatusPass:
			summary.Passed++
		case models.StatusFail:
			summary.Failed++
		case models.StatusWarning:
			summary.Warnings++
		}
	}

	if summary.TotalChecks > 0 {
		rate := float64(summary.Passed) / float64(summary.TotalChecks) * 100
		summary.SuccessRate = math.Round(rate*100) / 100
	}

	return &Report{Summary: summary, Results: results}
}

// OverallStatus classifies the whole run by folding the per-check
// statuses under the FAIL > WARNING > PASS precedence. An empty run
// is a PASS.
func (r *Report) OverallStatus() string {
	overall := models.StatusPass
	for _, res := range r.Results {
		overall = models.WorseStatus(overall, res.Status)
	}
	return overall
}

// WriteFile persists the report as timestamped JSON under dir
func (r *Report) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports dir: %w", err)
	}

	name := fmt.Sprintf("dq_report_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	log.Info().Str("path", path).Msg("Data quality report written")
	return path, nil
}

// Render writes the human-readable run summary. Failed and warning
// sections are only printed when non-empty.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Data Quality Report (%s)\n", r.Summary.Timestamp)
	fmt.Fprintf(w, "Overall:      %s\n", r.OverallStatus())
	fmt.Fprintf(w, "Total checks: %d\n", r.Summary.TotalChecks)
	fmt.Fprintf(w, "Passed:       %d\n", r.Summary.Passed)
	fmt.Fprintf(w, "Failed:       %d\n", r.Summary.Failed)
	fmt.Fprintf(w, "Warnings:     %d\n", r.Summary.Warnings)
	fmt.Fprintf(w, "Success rate: %.2f%%\n", r.Summary.SuccessRate)

	var failed, warned []models.CheckResult
	for _, res := range r.Results {
		switch res.Status {
		case models.StatusFail:
			failed = append(failed, res)
		case models.StatusWarning:
			warned = append(warned, res)
		}
	}

	if len(failed) > 0 {
		fmt.Fprintln(w, "\nFAILED CHECKS:")
		for _, res := range failed {
			fmt.Fprintf(w, "  %s: %s\n", res.CheckName, res.Message)
		}
	}
	if len(warned) > 0 {
		fmt.Fprintln(w, "\nWARNINGS:")
		for _, res := range warned {
			fmt.Fprintf(w, "  %s: %s\n", res.CheckName, res.Message)
		}
	}
}

// CleanupReports removes report files older than the retention window.
// Failures are logged and swallowed.
func CleanupReports(dir string, retention time.Duration) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", dir).Msg("Failed to read reports dir")
		}
		return 0
	}

	cutoff := time.Now().Add(-retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove old report")
				continue
			}
			removed++
		}
	}

	return removed
}
