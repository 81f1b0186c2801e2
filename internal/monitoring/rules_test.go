package monitoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ne4nf/TimoBank/internal/models"
)

func TestTransactionRuleQueriesCountCompletedOnly(t *testing.T) {
	completed := fmt.Sprintf("t.status = '%s'", models.TransactionStatusCompleted)
	queries := map[string]string{
		"high_value_compliance":  highValueComplianceQuery,
		"suspicious_patterns":    suspiciousPatternsQuery,
		"device_risk":            deviceRiskQuery,
		"high_risk_transactions": highRiskTransactionsQuery,
	}

	for name, query := range queries {
		assert.Contains(t, query, completed, name)
	}
}

func TestAuthFailuresQueryFiltersFailedAttempts(t *testing.T) {
	assert.Contains(t, authFailuresQuery,
		fmt.Sprintf("auth_status = '%s'", models.AuthStatusFailed))
}

func TestLimitSeverity(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		limit float64
		want  string
	}{
		{"over the limit is critical", 21000000, 20000000, models.SeverityCritical},
		{"at the limit is critical", 20000000, 20000000, models.SeverityCritical},
		{"within warning band is high", 18500000, 20000000, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, limitSeverity(tt.total, tt.limit))
		})
	}
}

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, rate(5, 0), "empty total never divides")
	assert.Equal(t, 50.0, rate(1, 2))
	assert.Equal(t, 100.0, rate(3, 3))
}

func TestHealthFinding(t *testing.T) {
	t.Run("healthy system produces no finding", func(t *testing.T) {
		_, _, found := healthFinding(100, 5, 10)
		assert.False(t, found, "5% failures and 10% pending are both at threshold, not over")
	})

	t.Run("failure rate over threshold is high", func(t *testing.T) {
		severity, description, found := healthFinding(100, 6, 0)
		assert.True(t, found)
		assert.Equal(t, models.SeverityHigh, severity)
		assert.Contains(t, description, "failure rate")
	})

	t.Run("pending rate over threshold is medium", func(t *testing.T) {
		severity, description, found := healthFinding(100, 0, 11)
		assert.True(t, found)
		assert.Equal(t, models.SeverityMedium, severity)
		assert.Contains(t, description, "pending rate")
	})

	t.Run("failure rate outranks pending rate", func(t *testing.T) {
		severity, _, found := healthFinding(100, 50, 50)
		assert.True(t, found)
		assert.Equal(t, models.SeverityHigh, severity)
	})

	t.Run("no transactions is healthy", func(t *testing.T) {
		_, _, found := healthFinding(0, 0, 0)
		assert.False(t, found)
	})
}

func TestBuildReport(t *testing.T) {
	alerts := []models.AlertEvent{
		{AlertType: models.AlertAuthFailure, Severity: models.SeverityHigh},
		{AlertType: models.AlertLimitWarning, Severity: models.SeverityCritical},
		{AlertType: models.AlertDeviceRisk, Severity: models.SeverityMedium},
		{AlertType: models.AlertHighRiskTransaction, Severity: models.SeverityHigh},
	}
	auditLogs := []*models.AuditEntry{
		{EventType: models.AuditEventHighValueTransaction},
	}

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	report := BuildReport(alerts, auditLogs, at)

	assert.Equal(t, 4, report.Summary.TotalAlerts)
	assert.Equal(t, 1, report.Summary.TotalAuditLogs)
	assert.Equal(t, "2025-06-01T09:00:00Z", report.Summary.Timestamp)
	assert.Equal(t, map[string]int{
		models.SeverityHigh:     2,
		models.SeverityCritical: 1,
		models.SeverityMedium:   1,
	}, report.Summary.AlertBreakdown)
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil, nil, time.Now())
	assert.Equal(t, 0, report.Summary.TotalAlerts)
	assert.Empty(t, report.Summary.AlertBreakdown)
}
