package dataquality

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ne4nf/TimoBank/internal/models"
)

func sampleResults() []models.CheckResult {
	return []models.CheckResult{
		{CheckName: "null_check_customers_email", Status: models.StatusPass, Message: "ok"},
		{CheckName: "uniqueness_customers_email", Status: models.StatusPass, Message: "ok"},
		{CheckName: "format_cccd_validation", Status: models.StatusFail, Message: "Found 2 customers with invalid CCCD format", AffectedCount: 2},
		{CheckName: "compliance_device_verification", Status: models.StatusWarning, Message: "Found 1 unverified devices used for recent transactions", AffectedCount: 1},
	}
}

func TestBuildReport(t *testing.T) {
	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	report := BuildReport(sampleResults(), at)

	assert.Equal(t, 4, report.Summary.TotalChecks)
	assert.Equal(t, 2, report.Summary.Passed)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Warnings)
	assert.Equal(t, 50.0, report.Summary.SuccessRate)
	assert.Equal(t, "2025-06-01T08:30:00Z", report.Summary.Timestamp)
}

func TestBuildReportRounding(t *testing.T) {
	results := []models.CheckResult{
		{Status: models.StatusPass},
		{Status: models.StatusPass},
		{Status: models.StatusFail},
	}
	report := BuildReport(results, time.Now())
	assert.Equal(t, 66.67, report.Summary.SuccessRate)
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil, time.Now())
	assert.Equal(t, 0, report.Summary.TotalChecks)
	assert.Equal(t, 0.0, report.Summary.SuccessRate)
	assert.Equal(t, models.StatusPass, report.OverallStatus())
}

func TestReportOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"all passing", []string{models.StatusPass, models.StatusPass}, models.StatusPass},
		{"any warning outranks pass", []string{models.StatusPass, models.StatusWarning}, models.StatusWarning},
		{"any failure outranks warning", []string{models.StatusWarning, models.StatusFail, models.StatusPass}, models.StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]models.CheckResult, len(tt.statuses))
			for i, s := range tt.statuses {
				results[i] = models.CheckResult{Status: s}
			}
			assert.Equal(t, tt.want, BuildReport(results, time.Now()).OverallStatus())
		})
	}
}

func TestReportResultKeys(t *testing.T) {
	result := countResult("format_cccd_validation", 1, models.StatusFail,
		"Found %d customers with invalid CCCD format", "ok")

	data, err := json.Marshal(BuildReport([]models.CheckResult{result}, time.Now()))
	require.NoError(t, err)

	var decoded struct {
		Results []map[string]interface{} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Results, 1)

	assert.Equal(t, 1.0, decoded.Results[0]["affected_records"])
	assert.NotEmpty(t, decoded.Results[0]["timestamp"])
	assert.NotContains(t, decoded.Results[0], "affected_count")
}

func TestReportWriteFile(t *testing.T) {
	dir := t.TempDir()
	report := BuildReport(sampleResults(), time.Now())

	path, err := report.WriteFile(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, report.Summary.TotalChecks, loaded.Summary.TotalChecks)
	assert.Len(t, loaded.Results, 4)
}

func TestReportRender(t *testing.T) {
	var buf bytes.Buffer
	BuildReport(sampleResults(), time.Now()).Render(&buf)

	out := buf.String()
	assert.Contains(t, out, "Overall:      FAIL")
	assert.Contains(t, out, "Total checks: 4")
	assert.Contains(t, out, "FAILED CHECKS:")
	assert.Contains(t, out, "format_cccd_validation")
	assert.Contains(t, out, "WARNINGS:")
	assert.Contains(t, out, "compliance_device_verification")
}

func TestReportRenderAllPassing(t *testing.T) {
	results := []models.CheckResult{
		{CheckName: "null_check_customers_email", Status: models.StatusPass},
	}

	var buf bytes.Buffer
	BuildReport(results, time.Now()).Render(&buf)

	out := buf.String()
	assert.NotContains(t, out, "FAILED CHECKS:")
	assert.NotContains(t, out, "WARNINGS:")
}

func TestCleanupReports(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "dq_report_old.json")
	require.NoError(t, os.WriteFile(oldFile, []byte("{}"), 0o644))
	oldTime := time.Now().Add(-10 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(dir, "dq_report_fresh.json")
	require.NoError(t, os.WriteFile(freshFile, []byte("{}"), 0o644))

	removed := CleanupReports(dir, 7*24*time.Hour)
	assert.Equal(t, 1, removed)

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}

func TestCleanupReportsMissingDir(t *testing.T) {
	removed := CleanupReports(filepath.Join(t.TempDir(), "absent"), time.Hour)
	assert.Equal(t, 0, removed)
}
