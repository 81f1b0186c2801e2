package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

// Monitor runs the fraud monitoring rulebook and persists findings as
// fraud alerts.
type Monitor struct {
	db     *repositories.Database
	alerts *repositories.AlertRepository
}

// Rule queries. Enum filters are built from the model constants;
// thresholds stay bind parameters. Every transaction-scanning rule
// counts completed transactions only.
var (
	highValueComplianceQuery = fmt.Sprintf(`
		SELECT t.transaction_id::text, ba.customer_id::text, t.amount, COALESCE(t.auth_method, 'NONE')
		FROM transactions t
		JOIN bank_accounts ba ON ba.account_id = t.from_account_id
		WHERE t.amount > $1
		  AND t.status = '%s'
		  AND t.created_at >= NOW() - INTERVAL '1 hour'
		  AND (t.auth_method IS NULL OR t.auth_method NOT IN ('%s', '%s', '%s'))
	`, models.TransactionStatusCompleted,
		models.AuthMethodBiometric, models.AuthMethodOTPSMS, models.AuthMethodOTPEmail)

	suspiciousPatternsQuery = fmt.Sprintf(`
		SELECT ba.customer_id::text, COUNT(*), SUM(t.amount)
		FROM transactions t
		JOIN bank_accounts ba ON ba.account_id = t.from_account_id
		WHERE t.amount > $1
		  AND t.status = '%s'
		  AND t.created_at >= NOW() - INTERVAL '2 hours'
		GROUP BY ba.customer_id
		HAVING COUNT(*) >= 5
		   AND MAX(t.created_at) - MIN(t.created_at) <= INTERVAL '1 hour'
	`, models.TransactionStatusCompleted)

	deviceRiskQuery = fmt.Sprintf(`
		SELECT t.transaction_id::text, ba.customer_id::text, d.device_id::text, t.amount
		FROM transactions t
		JOIN bank_accounts ba ON ba.account_id = t.from_account_id
		JOIN devices d ON d.device_id = t.device_id
		WHERE d.verification_status = '%s'
		  AND t.amount > $1
		  AND t.status = '%s'
		  AND t.created_at >= NOW() - INTERVAL '1 hour'
	`, models.DeviceUnverified, models.TransactionStatusCompleted)

	authFailuresQuery = fmt.Sprintf(`
		SELECT customer_id::text, COUNT(*)
		FROM authentication_logs
		WHERE auth_status = '%s'
		  AND created_at >= NOW() - INTERVAL '1 hour'
		GROUP BY customer_id
		HAVING COUNT(*) >= $1
	`, models.AuthStatusFailed)

	highRiskTransactionsQuery = fmt.Sprintf(`
		SELECT t.transaction_id::text, ba.customer_id::text, t.amount, t.risk_score
		FROM transactions t
		JOIN bank_accounts ba ON ba.account_id = t.from_account_id
		WHERE t.risk_score > $1
		  AND t.status = '%s'
		  AND t.created_at >= NOW() - INTERVAL '1 hour'
	`, models.TransactionStatusCompleted)

	systemHealthQuery = fmt.Sprintf(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = '%s' THEN 1 END),
		       COUNT(CASE WHEN status = '%s' THEN 1 END)
		FROM transactions
		WHERE created_at >= NOW() - INTERVAL '1 hour'
	`, models.TransactionStatusFailed, models.TransactionStatusPending)
)

// NewMonitor creates a new fraud monitor
func NewMonitor(db *repositories.Database, alerts *repositories.AlertRepository) *Monitor {
	return &Monitor{db: db, alerts: alerts}
}

// Run executes every monitoring rule and persists the resulting alert
// events. A failing rule query is logged and skipped; the cycle
// continues with the remaining rules.
func (m *Monitor) Run(ctx context.Context) ([]models.AlertEvent, error) {
	if err := m.db.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("database unavailable for monitoring cycle: %w", err)
	}

	log.Info().Msg("Starting fraud monitoring cycle")

	rules := []struct {
		name string
		fn   func(context.Context) ([]models.AlertEvent, error)
	}{
		{"high_value_compliance", m.checkHighValueCompliance},
		{"suspicious_patterns", m.checkSuspiciousPatterns},
		{"device_risk", m.checkDeviceRisk},
		{"auth_failures", m.checkAuthFailures},
		{"daily_limits", m.checkDailyLimits},
		{"high_risk_transactions", m.checkHighRiskTransactions},
		{"system_health", m.checkSystemHealth},
	}

	var events []models.AlertEvent
	for _, rule := range rules {
		found, err := rule.fn(ctx)
		if err != nil {
			log.Warn().Err(err).Str("rule", rule.name).Msg("Monitoring rule failed")
			continue
		}
		events = append(events, found...)
	}

	for i := range events {
		if _, err := m.alerts.CreateFromEvent(ctx, &events[i]); err != nil {
			log.Error().Err(err).Str("alert_type", events[i].AlertType).Msg("Failed to persist alert")
		}
	}

	log.Info().Int("alerts", len(events)).Msg("Fraud monitoring cycle complete")

	return events, nil
}

// checkHighValueCompliance flags completed high-value transactions in
// the last hour that skipped strong authentication.
func (m *Monitor) checkHighValueCompliance(ctx context.Context) ([]models.AlertEvent, error) {
	rows, err := m.db.Pool.Query(ctx, highValueComplianceQuery, HighValueThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var txID, customerID, authMethod string
		var amount float64
		if err := rows.Scan(&txID, &customerID, &amount, &authMethod); err != nil {
			return nil, err
		}

		events = append(events, models.AlertEvent{
			AlertType:        models.AlertComplianceViolation,
			Severity:         models.SeverityHigh,
			Title:            "High-value transaction without strong authentication",
			Description:      fmt.Sprintf("Transaction of %.0f VND completed with auth method %s", amount, authMethod),
			AffectedEntities: []string{txID},
			Metadata: models.JSONB{
				"transaction_id": txID,
				"customer_id":    customerID,
				"amount":         amount,
				"auth_method":    authMethod,
			},
			CreatedAt: time.Now(),
		})
	}

	return events, rows.Err()
}

// checkSuspiciousPatterns flags customers making five or more large
// transactions within a one hour span, looking back two hours.
func (m *Monitor) checkSuspiciousPatterns(ctx context.Context) ([]models.AlertEvent, error) {
	rows, err := m.db.Pool.Query(ctx, suspiciousPatternsQuery, SuspiciousThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var customerID string
		var txCount int
		var totalAmount float64
		if err := rows.Scan(&customerID, &txCount, &totalAmount); err != nil {
			return nil, err
		}

		events = append(events, models.AlertEvent{
			AlertType:        models.AlertSuspiciousPattern,
			Severity:         models.SeverityHigh,
			Title:            "Rapid large-transaction burst",
			Description:      fmt.Sprintf("%d large transactions totalling %.0f VND within one hour", txCount, totalAmount),
			AffectedEntities: []string{customerID},
			Metadata: models.JSONB{
				"customer_id":       customerID,
				"transaction_count": txCount,
				"total_amount":      totalAmount,
			},
			CreatedAt: time.Now(),
		})
	}

	return events, rows.Err()
}

// checkDeviceRisk flags sizeable completed transactions made from
// unverified devices in the last hour.
func (m *Monitor) checkDeviceRisk(ctx context.Context) ([]models.AlertEvent, error) {
	rows, err := m.db.Pool.Query(ctx, deviceRiskQuery, DeviceRiskThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var txID, customerID, deviceID string
		var amount float64
		if err := rows.Scan(&txID, &customerID, &deviceID, &amount); err != nil {
			return nil, err
		}

		events = append(events, models.AlertEvent{
			AlertType:        models.AlertDeviceRisk,
			Severity:         models.SeverityMedium,
			Title:            "Transaction from unverified device",
			Description:      fmt.Sprintf("Transaction of %.0f VND from unverified device %s", amount, deviceID),
			AffectedEntities: []string{txID, deviceID},
			Metadata: models.JSONB{
				"transaction_id": txID,
				"customer_id":    customerID,
				"device_id":      deviceID,
				"amount":         amount,
			},
			CreatedAt: time.Now(),
		})
	}

	return events, rows.Err()
}

// checkAuthFailures flags customers with repeated failed
// authentication attempts in the last hour.
func (m *Monitor) checkAuthFailures(ctx context.Context) ([]models.AlertEvent, error) {
	rows, err := m.db.Pool.Query(ctx, authFailuresQuery, AuthFailureMinimum)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var customerID string
		var failures int
		if err := rows.Scan(&customerID, &failures); err != nil {
			return nil, err
		}

		events = append(events, models.AlertEvent{
			AlertType:        models.AlertAuthFailure,
			Severity:         models.SeverityHigh,
			Title:            "Repeated authentication failures",
			Description:      fmt.Sprintf("%d failed authentication attempts in the last hour", failures),
			AffectedEntities: []string{customerID},
			Metadata: models.JSONB{
				"customer_id":   customerID,
				"failure_count": failures,
			},
			CreatedAt: time.Now(),
		})
	}

	return events, rows.Err()
}

// checkDailyLimits flags customers whose spending today is close to or
// over their account daily limit.
func (m *Monitor) checkDailyLimits(ctx context.Context) ([]models.AlertEvent, error) {
	query := `
		SELECT ds.customer_id::text, ds.total_amount, MAX(ba.daily_limit)
		FROM daily_summaries ds
		JOIN bank_accounts ba ON ba.customer_id = ds.customer_id
		WHERE ds.summary_date = CURRENT_DATE
		GROUP BY ds.customer_id, ds.total_amount
		HAVING ds.total_amount > MAX(ba.daily_limit) * $1
	`

	rows, err := m.db.Pool.Query(ctx, query, LimitWarningFraction)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var customerID string
		var totalAmount, dailyLimit float64
		if err := rows.Scan(&customerID, &totalAmount, &dailyLimit); err != nil {
			return nil, err
		}

		events = append(events, models.AlertEvent{
			AlertType:        models.AlertLimitWarning,
			Severity:         limitSeverity(totalAmount, dailyLimit),
			Title:            "Daily spending limit approached",
			Description:      fmt.Sprintf("Spent %.0f VND of %.0f VND daily limit today", totalAmount, dailyLimit),
			AffectedEntities: []string{customerID},
			Metadata: models.JSONB{
				"customer_id":  customerID,
				"total_amount": totalAmount,
				"daily_limit":  dailyLimit,
			},
			CreatedAt: time.Now(),
		})
	}

	return events, rows.Err()
}

// checkHighRiskTransactions flags completed transactions in the last
// hour scored above the risk threshold.
func (m *Monitor) checkHighRiskTransactions(ctx context.Context) ([]models.AlertEvent, error) {
	rows, err := m.db.Pool.Query(ctx, highRiskTransactionsQuery, HighRiskScoreThreshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.AlertEvent
	for rows.Next() {
		var txID, customerID string
		var amount, riskScore float64
		if err := rows.Scan(&txID, &customerID, &amount, &riskScore); err != nil {
			return nil, err
		}

		events = append(events, models.AlertEvent{
			AlertType:        models.AlertHighRiskTransaction,
			Severity:         models.SeverityHigh,
			Title:            "High risk score transaction completed",
			Description:      fmt.Sprintf("Transaction of %.0f VND completed with risk score %.0f", amount, riskScore),
			AffectedEntities: []string{txID},
			Metadata: models.JSONB{
				"transaction_id": txID,
				"customer_id":    customerID,
				"amount":         amount,
				"risk_score":     riskScore,
			},
			CreatedAt: time.Now(),
		})
	}

	return events, rows.Err()
}

// checkSystemHealth inspects last-hour transaction outcome rates
func (m *Monitor) checkSystemHealth(ctx context.Context) ([]models.AlertEvent, error) {
	var total, failed, pending int
	if err := m.db.Pool.QueryRow(ctx, systemHealthQuery).Scan(&total, &failed, &pending); err != nil {
		return nil, err
	}

	severity, description, found := healthFinding(total, failed, pending)
	if !found {
		return nil, nil
	}

	return []models.AlertEvent{{
		AlertType:   models.AlertSystemHealth,
		Severity:    severity,
		Title:       "Transaction processing degradation",
		Description: description,
		Metadata: models.JSONB{
			"total_transactions":   total,
			"failed_transactions":  failed,
			"pending_transactions": pending,
		},
		CreatedAt: time.Now(),
	}}, nil
}
