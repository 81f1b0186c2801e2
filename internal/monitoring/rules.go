package monitoring

import (
	"fmt"

	"github.com/Ne4nf/TimoBank/internal/models"
)

// Monetary thresholds from the monitoring rulebook, in VND.
const (
	HighValueThreshold   = 10000000.0
	SuspiciousThreshold  = 5000000.0
	DeviceRiskThreshold  = 1000000.0
	LimitWarningFraction = 0.9
)

// Rate thresholds for the system health rule, in percent.
const (
	FailureRateThreshold = 5.0
	PendingRateThreshold = 10.0
)

// AuthFailureMinimum is the failed-attempt count that triggers an
// AUTH_FAILURE alert for a customer within the lookback window.
const AuthFailureMinimum = 5

// HighRiskScoreThreshold is the transaction risk score above which a
// HIGH_RISK_TRANSACTION alert fires.
const HighRiskScoreThreshold = 80.0

// limitSeverity grades a daily-limit finding: reaching the limit
// itself is CRITICAL, crossing the warning fraction is HIGH.
func limitSeverity(totalAmount, dailyLimit float64) string {
	if totalAmount >= dailyLimit {
		return models.SeverityCritical
	}
	return models.SeverityHigh
}

// rate returns part over total in percent, zero for an empty total
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// healthFinding evaluates last-hour transaction counts. Failure rate
// outranks pending rate; a healthy system produces no finding.
func healthFinding(total, failed, pending int) (severity, description string, ok bool) {
	failureRate := rate(failed, total)
	if failureRate > FailureRateThreshold {
		return models.SeverityHigh,
			fmt.Sprintf("Transaction failure rate at %.1f%% over the last hour (%d of %d)", failureRate, failed, total),
			true
	}

	pendingRate := rate(pending, total)
	if pendingRate > PendingRateThreshold {
		return models.SeverityMedium,
			fmt.Sprintf("Transaction pending rate at %.1f%% over the last hour (%d of %d)", pendingRate, pending, total),
			true
	}

	return "", "", false
}
