package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ne4nf/TimoBank/internal/models"
)

func TestClassifyMetric(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		good    float64
		warning float64
		want    string
	}{
		{"above good threshold", 96, 95, 90, MetricGood},
		{"at good threshold", 95, 95, 90, MetricGood},
		{"between thresholds", 92, 95, 90, MetricWarning},
		{"at warning threshold", 90, 95, 90, MetricWarning},
		{"below warning threshold", 85, 95, 90, MetricCritical},
		{"device thresholds good", 81, 80, 60, MetricGood},
		{"device thresholds warning", 65, 80, 60, MetricWarning},
		{"device thresholds critical", 59, 80, 60, MetricCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyMetric(tt.value, tt.good, tt.warning))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 100.0, percentage(0, 0), "no population counts as fully compliant")
	assert.Equal(t, 50.0, percentage(1, 2))
	assert.Equal(t, 0.0, percentage(0, 5))
}

func TestNewComplianceMetric(t *testing.T) {
	metric := newComplianceMetric("kyc_completion_rate", "KYC completion", 92, 95, 90)
	assert.Equal(t, "kyc_completion_rate", metric.Name)
	assert.Equal(t, 92.0, metric.Value)
	assert.Equal(t, MetricWarning, metric.Status)
}

func TestDefaultDataQualitySummary(t *testing.T) {
	summary := defaultDataQualitySummary()

	assert.Equal(t, 1, summary.TotalChecks)
	assert.Equal(t, 1, summary.Warnings)
	assert.Zero(t, summary.Passed)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.SuccessRate)
	assert.NotEmpty(t, summary.Error)
	assert.Len(t, summary.Checks, 1)
	assert.Equal(t, models.StatusWarning, summary.Checks[0].Status)
}
