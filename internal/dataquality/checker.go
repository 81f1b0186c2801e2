package dataquality

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

// Checker runs the data quality check catalog against the banking
// schema and returns one result per check. It holds no result state,
// so a single Checker can serve concurrent runs.
type Checker struct {
	db *repositories.Database
}

// NewChecker creates a new data quality checker
func NewChecker(db *repositories.Database) *Checker {
	return &Checker{db: db}
}

// nullCheckField describes one mandatory column
type nullCheckField struct {
	Table string
	Field string
}

var nullCheckFields = []nullCheckField{
	{"customers", "cccd_number"},
	{"customers", "full_name"},
	{"customers", "phone_number"},
	{"customers", "email"},
	{"bank_accounts", "account_number"},
	{"bank_accounts", "customer_id"},
	{"bank_accounts", "account_type"},
	{"transactions", "transaction_id"},
	{"transactions", "amount"},
	{"transactions", "transaction_type"},
	{"transactions", "reference_number"},
}

var uniquenessFields = []nullCheckField{
	{"customers", "cccd_number"},
	{"customers", "phone_number"},
	{"customers", "email"},
	{"bank_accounts", "account_number"},
	{"transactions", "reference_number"},
	{"devices", "device_fingerprint"},
}

// Run executes every check group in order. A connectivity failure
// before the first check aborts the run with a ConnectivityError;
// individual query failures only downgrade their check to WARNING.
func (c *Checker) Run(ctx context.Context) ([]models.CheckResult, error) {
	if err := c.db.HealthCheck(ctx); err != nil {
		return nil, &ConnectivityError{Err: err}
	}

	log.Info().Msg("Starting data quality check run")

	var results []models.CheckResult
	results = append(results, c.runNullChecks(ctx)...)
	results = append(results, c.runUniquenessChecks(ctx)...)
	results = append(results, c.runFormatChecks(ctx)...)
	results = append(results, c.runReferentialChecks(ctx)...)
	results = append(results, c.runBusinessRuleChecks(ctx)...)
	results = append(results, c.runComplianceChecks(ctx)...)
	results = append(results, c.runConsistencyChecks(ctx)...)

	log.Info().Int("checks", len(results)).Msg("Data quality check run complete")

	return results, nil
}

// countCheck executes a query that returns a single affected-row count
func (c *Checker) countCheck(ctx context.Context, name, query, severity, failMessage, passMessage string, args ...interface{}) models.CheckResult {
	var affected int
	if err := c.db.Pool.QueryRow(ctx, query, args...).Scan(&affected); err != nil {
		log.Warn().Err(err).Str("check", name).Msg("Check query failed")
		return queryFailureResult(name, &QueryError{Check: name, Err: err})
	}
	return countResult(name, affected, severity, failMessage, passMessage)
}

func (c *Checker) runNullChecks(ctx context.Context) []models.CheckResult {
	results := make([]models.CheckResult, 0, len(nullCheckFields))
	for _, f := range nullCheckFields {
		name := fmt.Sprintf("null_check_%s_%s", f.Table, f.Field)
		query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s IS NULL`, f.Table, f.Field)
		results = append(results, c.countCheck(ctx, name, query, models.StatusFail,
			fmt.Sprintf("Found %%d NULL values in %s.%s", f.Table, f.Field),
			fmt.Sprintf("No NULL values in %s.%s", f.Table, f.Field),
		))
	}
	return results
}

func (c *Checker) runUniquenessChecks(ctx context.Context) []models.CheckResult {
	results := make([]models.CheckResult, 0, len(uniquenessFields))
	for _, f := range uniquenessFields {
		name := fmt.Sprintf("uniqueness_%s_%s", f.Table, f.Field)
		query := fmt.Sprintf(`
			SELECT %[2]s::text, COUNT(*)
			FROM %[1]s
			WHERE %[2]s IS NOT NULL
			GROUP BY %[2]s
			HAVING COUNT(*) > 1
			ORDER BY COUNT(*) DESC
		`, f.Table, f.Field)

		rows, err := c.db.Pool.Query(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("check", name).Msg("Check query failed")
			results = append(results, queryFailureResult(name, &QueryError{Check: name, Err: err}))
			continue
		}

		var groups []dupGroup
		var scanErr error
		for rows.Next() {
			var g dupGroup
			if scanErr = rows.Scan(&g.Value, &g.Count); scanErr != nil {
				break
			}
			groups = append(groups, g)
		}
		rows.Close()
		if scanErr == nil {
			scanErr = rows.Err()
		}
		if scanErr != nil {
			log.Warn().Err(scanErr).Str("check", name).Msg("Check scan failed")
			results = append(results, queryFailureResult(name, &QueryError{Check: name, Err: scanErr}))
			continue
		}

		affected, duplicateValues := uniquenessTotals(groups)
		result := models.CheckResult{
			CheckName:     name,
			Status:        statusForAffected(affected, models.StatusFail),
			AffectedCount: affected,
			Timestamp:     checkedAt(),
		}
		if affected == 0 {
			result.Message = fmt.Sprintf("All values in %s.%s are unique", f.Table, f.Field)
		} else {
			result.Message = fmt.Sprintf("Found %d rows sharing %d duplicated values in %s.%s",
				affected, duplicateValues, f.Table, f.Field)
			for i, g := range groups {
				if i >= 10 {
					break
				}
				result.Details = append(result.Details, models.JSONB{
					"value": g.Value,
					"count": g.Count,
				})
			}
		}
		results = append(results, result)
	}
	return results
}

func (c *Checker) runFormatChecks(ctx context.Context) []models.CheckResult {
	return []models.CheckResult{
		c.countCheck(ctx, "format_cccd_validation",
			`SELECT COUNT(*) FROM customers WHERE cccd_number IS NOT NULL AND cccd_number !~ $1`,
			models.StatusFail,
			"Found %d customers with invalid CCCD format",
			"All CCCD numbers match the expected format",
			CCCDPattern,
		),
		c.countCheck(ctx, "format_phone_validation",
			`SELECT COUNT(*) FROM customers WHERE phone_number IS NOT NULL AND phone_number !~ $1`,
			models.StatusFail,
			"Found %d customers with invalid phone format",
			"All phone numbers match the expected format",
			PhonePattern,
		),
		c.countCheck(ctx, "format_email_validation",
			`SELECT COUNT(*) FROM customers WHERE email IS NOT NULL AND email !~ $1`,
			models.StatusFail,
			"Found %d customers with invalid email format",
			"All email addresses match the expected format",
			EmailPattern,
		),
	}
}

func (c *Checker) runReferentialChecks(ctx context.Context) []models.CheckResult {
	return []models.CheckResult{
		c.countCheck(ctx, "fk_integrity_accounts_customers", `
			SELECT COUNT(*)
			FROM bank_accounts ba
			LEFT JOIN customers c ON c.customer_id = ba.customer_id
			WHERE c.customer_id IS NULL
		`, models.StatusFail,
			"Found %d bank accounts referencing missing customers",
			"All bank accounts reference existing customers",
		),
		c.countCheck(ctx, "fk_integrity_transactions_accounts", `
			SELECT COUNT(*)
			FROM transactions t
			LEFT JOIN bank_accounts ba ON ba.account_id = t.from_account_id
			WHERE t.from_account_id IS NOT NULL AND ba.account_id IS NULL
		`, models.StatusFail,
			"Found %d transactions referencing missing accounts",
			"All transactions reference existing accounts",
		),
		c.countCheck(ctx, "fk_integrity_devices_customers", `
			SELECT COUNT(*)
			FROM devices d
			LEFT JOIN customers c ON c.customer_id = d.customer_id
			WHERE c.customer_id IS NULL
		`, models.StatusFail,
			"Found %d devices referencing missing customers",
			"All devices reference existing customers",
		),
	}
}

func (c *Checker) runBusinessRuleChecks(ctx context.Context) []models.CheckResult {
	return []models.CheckResult{
		c.countCheck(ctx, "business_rule_negative_balances", `
			SELECT COUNT(*)
			FROM bank_accounts
			WHERE balance < 0 AND account_type != $1
		`, models.StatusFail,
			"Found %d non-credit accounts with negative balance",
			"No non-credit accounts carry a negative balance",
			models.AccountTypeCredit,
		),
		c.countCheck(ctx, "business_rule_future_transactions", `
			SELECT COUNT(*)
			FROM transactions
			WHERE DATE(created_at) > CURRENT_DATE
		`, models.StatusFail,
			"Found %d transactions dated in the future",
			"No transactions are dated in the future",
		),
		c.countCheck(ctx, "business_rule_customer_age", `
			SELECT COUNT(*)
			FROM customers
			WHERE date_of_birth > CURRENT_DATE - INTERVAL '18 years'
			   OR date_of_birth < CURRENT_DATE - INTERVAL '120 years'
		`, models.StatusFail,
			"Found %d customers with implausible age",
			"All customer ages are within the allowed range",
		),
	}
}

func (c *Checker) runComplianceChecks(ctx context.Context) []models.CheckResult {
	results := []models.CheckResult{
		c.countCheck(ctx, "compliance_high_value_auth", `
			SELECT COUNT(*)
			FROM transactions
			WHERE amount > $1
			  AND status = $2
			  AND created_at >= NOW() - INTERVAL '30 days'
			  AND (auth_method IS NULL OR auth_method NOT IN ('BIOMETRIC', 'OTP_SMS', 'OTP_EMAIL'))
		`, models.StatusFail,
			"Found %d high-value transactions completed without strong authentication",
			"All recent high-value transactions used strong authentication",
			HighValueThreshold,
			models.TransactionStatusCompleted,
		),
		c.deviceVerificationCheck(ctx),
		c.dailyLimitAuthCheck(ctx),
	}
	return results
}

// deviceVerificationCheck flags unverified untrusted devices that were
// used for transactions in the last week. Affected counts devices, not
// transactions. No qualifying devices is a PASS.
func (c *Checker) deviceVerificationCheck(ctx context.Context) models.CheckResult {
	const name = "compliance_device_verification"
	query := `
		SELECT d.device_id::text, COUNT(t.transaction_id)
		FROM devices d
		JOIN transactions t ON t.device_id = d.device_id
		WHERE d.verification_status = $1
		  AND d.is_trusted = FALSE
		  AND t.created_at >= NOW() - INTERVAL '7 days'
		GROUP BY d.device_id
		ORDER BY COUNT(t.transaction_id) DESC
	`

	rows, err := c.db.Pool.Query(ctx, query, models.DeviceUnverified)
	if err != nil {
		log.Warn().Err(err).Str("check", name).Msg("Check query failed")
		return queryFailureResult(name, &QueryError{Check: name, Err: err})
	}
	defer rows.Close()

	var devices []models.JSONB
	for rows.Next() {
		var deviceID string
		var txCount int
		if err := rows.Scan(&deviceID, &txCount); err != nil {
			return queryFailureResult(name, &QueryError{Check: name, Err: err})
		}
		devices = append(devices, models.JSONB{
			"device_id":         deviceID,
			"transaction_count": txCount,
		})
	}
	if err := rows.Err(); err != nil {
		return queryFailureResult(name, &QueryError{Check: name, Err: err})
	}

	result := models.CheckResult{
		CheckName:     name,
		Status:        statusForAffected(len(devices), models.StatusWarning),
		AffectedCount: len(devices),
		Timestamp:     checkedAt(),
	}
	if len(devices) == 0 {
		result.Message = "No unverified devices used for recent transactions"
	} else {
		result.Message = fmt.Sprintf("Found %d unverified devices used for recent transactions", len(devices))
		if len(devices) > 10 {
			devices = devices[:10]
		}
		result.Details = devices
	}
	return result
}

// dailyLimitAuthCheck flags customers whose daily totals crossed the
// authentication threshold without a single strong-auth transaction.
func (c *Checker) dailyLimitAuthCheck(ctx context.Context) models.CheckResult {
	const name = "compliance_daily_limit_auth"
	query := `
		SELECT customer_id::text, summary_date, total_amount
		FROM daily_summaries
		WHERE summary_date >= CURRENT_DATE - INTERVAL '7 days'
		  AND total_amount > $1
		  AND strong_auth_transactions = 0
		ORDER BY total_amount DESC
	`

	rows, err := c.db.Pool.Query(ctx, query, DailyAuthThreshold)
	if err != nil {
		log.Warn().Err(err).Str("check", name).Msg("Check query failed")
		return queryFailureResult(name, &QueryError{Check: name, Err: err})
	}
	defer rows.Close()

	var violations []models.JSONB
	affected := 0
	for rows.Next() {
		var customerID string
		var summaryDate time.Time
		var totalAmount float64
		if err := rows.Scan(&customerID, &summaryDate, &totalAmount); err != nil {
			return queryFailureResult(name, &QueryError{Check: name, Err: err})
		}
		affected++
		if len(violations) < 5 {
			violations = append(violations, models.JSONB{
				"customer_id":  customerID,
				"summary_date": summaryDate.Format("2006-01-02"),
				"total_amount": totalAmount,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return queryFailureResult(name, &QueryError{Check: name, Err: err})
	}

	result := models.CheckResult{
		CheckName:     name,
		Status:        statusForAffected(affected, models.StatusFail),
		AffectedCount: affected,
		Timestamp:     checkedAt(),
		Details:       violations,
	}
	if affected == 0 {
		result.Message = "All high daily totals include strong authentication"
	} else {
		result.Message = fmt.Sprintf("Found %d customer-days over the auth threshold without strong authentication", affected)
	}
	return result
}

func (c *Checker) runConsistencyChecks(ctx context.Context) []models.CheckResult {
	const name = "consistency_daily_summaries"
	query := `
		SELECT ds.customer_id::text, ds.summary_date, ds.total_amount,
		       COALESCE(SUM(t.amount), 0) AS actual_amount
		FROM daily_summaries ds
		LEFT JOIN bank_accounts ba ON ba.customer_id = ds.customer_id
		LEFT JOIN transactions t
		  ON t.from_account_id = ba.account_id
		 AND DATE(t.created_at) = ds.summary_date
		 AND t.status = $2
		WHERE ds.summary_date >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY ds.customer_id, ds.summary_date, ds.total_amount
		HAVING ABS(ds.total_amount - COALESCE(SUM(t.amount), 0)) > $1
	`

	rows, err := c.db.Pool.Query(ctx, query, ConsistencyTolerance, models.TransactionStatusCompleted)
	if err != nil {
		log.Warn().Err(err).Str("check", name).Msg("Check query failed")
		return []models.CheckResult{queryFailureResult(name, &QueryError{Check: name, Err: err})}
	}
	defer rows.Close()

	var mismatches []models.JSONB
	affected := 0
	for rows.Next() {
		var customerID string
		var summaryDate time.Time
		var storedAmount, actualAmount float64
		if err := rows.Scan(&customerID, &summaryDate, &storedAmount, &actualAmount); err != nil {
			return []models.CheckResult{queryFailureResult(name, &QueryError{Check: name, Err: err})}
		}
		affected++
		if len(mismatches) < 5 {
			mismatches = append(mismatches, models.JSONB{
				"customer_id":   customerID,
				"summary_date":  summaryDate.Format("2006-01-02"),
				"stored_amount": storedAmount,
				"actual_amount": actualAmount,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return []models.CheckResult{queryFailureResult(name, &QueryError{Check: name, Err: err})}
	}

	result := models.CheckResult{
		CheckName:     name,
		Status:        statusForAffected(affected, models.StatusFail),
		AffectedCount: affected,
		Timestamp:     checkedAt(),
		Details:       mismatches,
	}
	if affected == 0 {
		result.Message = "Daily summaries match recomputed transaction totals"
	} else {
		result.Message = fmt.Sprintf("Found %d daily summaries outside the amount tolerance", affected)
	}
	return []models.CheckResult{result}
}
