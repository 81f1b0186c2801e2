package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/cache"
	"github.com/Ne4nf/TimoBank/internal/dataquality"
	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

// Cache TTLs. Current-day aggregates refresh quickly, historical
// aggregates are stable and can live longer.
const (
	freshCacheTTL      = 5 * time.Minute
	historicalCacheTTL = 1 * time.Hour
)

// Compliance metric grades
const (
	MetricGood     = "GOOD"
	MetricWarning  = "WARNING"
	MetricCritical = "CRITICAL"
)

// Service provides the dashboard read model
type Service struct {
	db      *repositories.Database
	checker *dataquality.Checker
	alerts  *repositories.AlertRepository
	cache   *cache.Client
}

// NewService creates a new analytics service
func NewService(db *repositories.Database, alerts *repositories.AlertRepository, cacheClient *cache.Client) *Service {
	return &Service{
		db:      db,
		checker: dataquality.NewChecker(db),
		alerts:  alerts,
		cache:   cacheClient,
	}
}

// DataQualitySummary runs the check catalog and aggregates the
// results. Any failure degrades to the default payload with an error
// note instead of surfacing an error to the caller.
func (s *Service) DataQualitySummary(ctx context.Context) *DataQualitySummaryResponse {
	cacheKey := "dq_summary"
	var cached DataQualitySummaryResponse
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached
	}

	results, err := s.checker.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Data quality summary unavailable")
		return defaultDataQualitySummary()
	}

	report := dataquality.BuildReport(results, time.Now())
	response := &DataQualitySummaryResponse{
		TotalChecks: report.Summary.TotalChecks,
		Passed:      report.Summary.Passed,
		Failed:      report.Summary.Failed,
		Warnings:    report.Summary.Warnings,
		SuccessRate: report.Summary.SuccessRate,
		LastUpdated: report.Summary.Timestamp,
		Checks:      report.Results,
	}

	if err := s.cache.Set(ctx, cacheKey, response, freshCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache data quality summary")
	}

	return response
}

func defaultDataQualitySummary() *DataQualitySummaryResponse {
	return &DataQualitySummaryResponse{
		TotalChecks: 1,
		Warnings:    1,
		LastUpdated: time.Now().Format(time.RFC3339),
		Checks: []models.CheckResult{{
			CheckName: "system_status",
			Status:    models.StatusWarning,
			Message:   "Data quality checks temporarily unavailable",
			Timestamp: time.Now().Format(time.RFC3339),
		}},
		Error: "Unable to fetch real-time data quality information",
	}
}

// TransactionSummary returns per-day completed transaction aggregates
// for the last N days.
func (s *Service) TransactionSummary(ctx context.Context, days int) ([]TransactionDaySummary, error) {
	if days <= 0 {
		days = 30
	}

	cacheKey := "tx_summary:" + time.Now().Format("2006-01-02")
	ttl := freshCacheTTL
	if days > 30 {
		ttl = historicalCacheTTL
	}
	if days == 30 {
		var cached []TransactionDaySummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	query := `
		SELECT DATE(created_at) AS day,
		       COUNT(*),
		       COALESCE(SUM(amount), 0),
		       COUNT(CASE WHEN amount > 10000000 THEN 1 END),
		       COUNT(CASE WHEN is_high_risk THEN 1 END),
		       COALESCE(AVG(risk_score), 0)
		FROM transactions
		WHERE status = 'COMPLETED'
		  AND created_at >= CURRENT_DATE - ($1::text || ' days')::interval
		GROUP BY DATE(created_at)
		ORDER BY day DESC
	`

	rows, err := s.db.Pool.Query(ctx, query, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []TransactionDaySummary
	for rows.Next() {
		var day time.Time
		var summary TransactionDaySummary
		if err := rows.Scan(
			&day,
			&summary.TransactionCount,
			&summary.TotalVolume,
			&summary.HighValueCount,
			&summary.HighRiskCount,
			&summary.AvgRiskScore,
		); err != nil {
			return nil, err
		}
		summary.Date = day.Format("2006-01-02")
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if days == 30 {
		if err := s.cache.Set(ctx, cacheKey, summaries, ttl); err != nil {
			log.Warn().Err(err).Msg("Failed to cache transaction summary")
		}
	}

	return summaries, nil
}

// ComplianceMetrics computes the three compliance health metrics
func (s *Service) ComplianceMetrics(ctx context.Context) ([]ComplianceMetric, error) {
	cacheKey := "compliance_metrics"
	var cached []ComplianceMetric
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	metrics := make([]ComplianceMetric, 0, 3)

	var strongAuth, highValue int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(CASE WHEN auth_method IN ('BIOMETRIC', 'OTP_SMS', 'OTP_EMAIL') THEN 1 END),
		       COUNT(*)
		FROM transactions
		WHERE amount > 10000000
		  AND status = 'COMPLETED'
		  AND created_at >= NOW() - INTERVAL '30 days'
	`).Scan(&strongAuth, &highValue)
	if err != nil {
		return nil, err
	}
	metrics = append(metrics, newComplianceMetric(
		"high_value_auth_rate",
		"Strong authentication rate on high-value transactions",
		percentage(strongAuth, highValue), 95, 90,
	))

	var verified, used int
	err = s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT CASE WHEN d.verification_status = 'VERIFIED' THEN d.device_id END),
		       COUNT(DISTINCT d.device_id)
		FROM devices d
		JOIN transactions t ON t.device_id = d.device_id
		WHERE t.created_at >= NOW() - INTERVAL '30 days'
	`).Scan(&verified, &used)
	if err != nil {
		return nil, err
	}
	metrics = append(metrics, newComplianceMetric(
		"device_verification_rate",
		"Verification rate over recently used devices",
		percentage(verified, used), 80, 60,
	))

	var kycVerified, active int
	err = s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(CASE WHEN c.kyc_status = 'VERIFIED' THEN 1 END),
		       COUNT(*)
		FROM customers c
		WHERE EXISTS (
			SELECT 1 FROM bank_accounts ba
			WHERE ba.customer_id = c.customer_id AND ba.status = 'ACTIVE'
		)
	`).Scan(&kycVerified, &active)
	if err != nil {
		return nil, err
	}
	metrics = append(metrics, newComplianceMetric(
		"kyc_completion_rate",
		"KYC completion rate over active customers",
		percentage(kycVerified, active), 95, 90,
	))

	if err := s.cache.Set(ctx, cacheKey, metrics, freshCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache compliance metrics")
	}

	return metrics, nil
}

// CustomerRiskProfiles returns the customers with the most risk
// signal over the last 30 days.
func (s *Service) CustomerRiskProfiles(ctx context.Context, limit int) ([]CustomerRiskProfile, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT c.customer_id::text,
		       c.full_name,
		       c.risk_rating,
		       COALESCE(SUM(ds.total_transactions), 0),
		       COALESCE(SUM(ds.total_amount), 0),
		       COALESCE(AVG(NULLIF(ds.risk_score_avg, 0)), 0),
		       (SELECT COUNT(*) FROM devices d WHERE d.customer_id = c.customer_id) AS device_count,
		       (SELECT COUNT(*) FROM devices d WHERE d.customer_id = c.customer_id AND d.verification_status = 'UNVERIFIED') AS unverified_devices,
		       (SELECT COUNT(*) FROM fraud_alerts fa WHERE fa.customer_id = c.customer_id AND fa.created_at >= NOW() - INTERVAL '30 days') AS recent_alerts
		FROM customers c
		LEFT JOIN daily_summaries ds
		  ON ds.customer_id = c.customer_id
		 AND ds.summary_date >= CURRENT_DATE - INTERVAL '30 days'
		GROUP BY c.customer_id, c.full_name, c.risk_rating
		ORDER BY recent_alerts DESC, COALESCE(AVG(NULLIF(ds.risk_score_avg, 0)), 0) DESC
		LIMIT $1
	`

	rows, err := s.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []CustomerRiskProfile
	for rows.Next() {
		var p CustomerRiskProfile
		if err := rows.Scan(
			&p.CustomerID,
			&p.FullName,
			&p.RiskRating,
			&p.TransactionCount30d,
			&p.TotalAmount30d,
			&p.AvgRiskScore,
			&p.DeviceCount,
			&p.UnverifiedDevices,
			&p.RecentAlerts,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// DashboardOverview builds the landing page snapshot. Each sub-query
// degrades independently: a failing aggregate contributes its zero
// value and the endpoint still answers.
func (s *Service) DashboardOverview(ctx context.Context) *DashboardOverview {
	cacheKey := "dashboard_overview"
	var cached DashboardOverview
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached
	}

	overview := &DashboardOverview{
		LastUpdated: time.Now().Format(time.RFC3339),
	}
	failures := 0
	queries := 0

	scanOne := func(name, query string, dest ...interface{}) {
		queries++
		if err := s.db.Pool.QueryRow(ctx, query).Scan(dest...); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("Overview metric unavailable")
			failures++
		}
	}

	scanOne("total_customers",
		`SELECT COUNT(*) FROM customers`,
		&overview.TotalCustomers)
	scanOne("today_transactions", `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'COMPLETED' THEN amount ELSE 0 END), 0)
		FROM transactions WHERE DATE(created_at) = CURRENT_DATE`,
		&overview.TodayTransactions, &overview.TodayVolume)
	scanOne("active_alerts",
		`SELECT COUNT(*) FROM fraud_alerts WHERE status IN ('OPEN', 'INVESTIGATING')`,
		&overview.ActiveAlerts)
	scanOne("high_risk_transactions", `
		SELECT COUNT(*) FROM transactions
		WHERE (is_high_risk OR risk_score > 70) AND created_at >= NOW() - INTERVAL '24 hours'`,
		&overview.HighRiskTransactions)

	var kycVerified, customers int
	scanOne("data_quality_score",
		`SELECT COUNT(CASE WHEN kyc_status = 'VERIFIED' THEN 1 END), COUNT(*) FROM customers`,
		&kycVerified, &customers)
	overview.DataQualityScore = percentage(kycVerified, customers)

	var strongAuth, highValue int
	scanOne("compliance_rate", `
		SELECT COUNT(CASE WHEN auth_method IN ('BIOMETRIC', 'OTP_SMS', 'OTP_EMAIL') THEN 1 END), COUNT(*)
		FROM transactions
		WHERE amount > 10000000 AND status = 'COMPLETED' AND created_at >= NOW() - INTERVAL '30 days'`,
		&strongAuth, &highValue)
	overview.ComplianceRate = percentage(strongAuth, highValue)

	if failures == queries {
		overview.Error = "Unable to fetch dashboard data"
		return overview
	}

	if err := s.cache.Set(ctx, cacheKey, overview, freshCacheTTL); err != nil {
		log.Warn().Err(err).Msg("Failed to cache dashboard overview")
	}

	return overview
}

// UnverifiedDevices lists customers with unverified devices
func (s *Service) UnverifiedDevices(ctx context.Context, limit int) ([]UnverifiedDeviceGroup, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT c.customer_id::text, c.full_name, COUNT(d.device_id)
		FROM customers c
		JOIN devices d ON d.customer_id = c.customer_id
		WHERE d.verification_status = 'UNVERIFIED'
		GROUP BY c.customer_id, c.full_name
		HAVING COUNT(d.device_id) > 0
		ORDER BY COUNT(d.device_id) DESC
		LIMIT $1
	`

	rows, err := s.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []UnverifiedDeviceGroup
	for rows.Next() {
		var g UnverifiedDeviceGroup
		if err := rows.Scan(&g.CustomerID, &g.FullName, &g.DeviceCount); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// FraudAlerts lists alerts with optional severity and status filters
func (s *Service) FraudAlerts(ctx context.Context, severity, status string, limit int) ([]*models.FraudAlert, error) {
	return s.alerts.List(ctx, severity, status, limit)
}

// percentage returns part over total in percent, 100 for an empty total
func percentage(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(part) / float64(total) * 100
}

// newComplianceMetric classifies a metric value against its thresholds
func newComplianceMetric(name, description string, value, good, warning float64) ComplianceMetric {
	return ComplianceMetric{
		Name:        name,
		Description: description,
		Value:       value,
		Status:      classifyMetric(value, good, warning),
	}
}

// classifyMetric grades a percentage against good/warning thresholds
func classifyMetric(value, good, warning float64) string {
	switch {
	case value >= good:
		return MetricGood
	case value >= warning:
		return MetricWarning
	default:
		return MetricCritical
	}
}

// DataQualitySummaryResponse is the data quality summary payload
type DataQualitySummaryResponse struct {
	TotalChecks int                  `json:"total_checks"`
	Passed      int                  `json:"passed"`
	Failed      int                  `json:"failed"`
	Warnings    int                  `json:"warnings"`
	SuccessRate float64              `json:"success_rate"`
	LastUpdated string               `json:"last_updated"`
	Checks      []models.CheckResult `json:"checks"`
	Error       string               `json:"error,omitempty"`
}

// TransactionDaySummary is one day of transaction aggregates
type TransactionDaySummary struct {
	Date             string  `json:"date"`
	TransactionCount int     `json:"transaction_count"`
	TotalVolume      float64 `json:"total_volume"`
	HighValueCount   int     `json:"high_value_count"`
	HighRiskCount    int     `json:"high_risk_count"`
	AvgRiskScore     float64 `json:"avg_risk_score"`
}

// ComplianceMetric is one graded compliance measurement
type ComplianceMetric struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Status      string  `json:"status"`
}

// CustomerRiskProfile is one customer's 30-day risk view
type CustomerRiskProfile struct {
	CustomerID          string  `json:"customer_id"`
	FullName            string  `json:"full_name"`
	RiskRating          string  `json:"risk_rating"`
	TransactionCount30d int     `json:"transaction_count_30d"`
	TotalAmount30d      float64 `json:"total_amount_30d"`
	AvgRiskScore        float64 `json:"avg_risk_score"`
	DeviceCount         int     `json:"device_count"`
	UnverifiedDevices   int     `json:"unverified_devices"`
	RecentAlerts        int     `json:"recent_alerts"`
}

// DashboardOverview is the landing page snapshot
type DashboardOverview struct {
	TotalCustomers       int     `json:"total_customers"`
	TodayTransactions    int     `json:"today_transactions"`
	TodayVolume          float64 `json:"today_volume"`
	ActiveAlerts         int     `json:"active_alerts"`
	HighRiskTransactions int     `json:"high_risk_transactions"`
	DataQualityScore     float64 `json:"data_quality_score"`
	ComplianceRate       float64 `json:"compliance_rate"`
	LastUpdated          string  `json:"last_updated"`
	Error                string  `json:"error,omitempty"`
}

// UnverifiedDeviceGroup is one customer's unverified device count
type UnverifiedDeviceGroup struct {
	CustomerID  string `json:"customer_id"`
	FullName    string `json:"full_name"`
	DeviceCount int    `json:"device_count"`
}
