package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Ne4nf/TimoBank/internal/models"
)

// SummaryRepository handles daily summary database operations
type SummaryRepository struct {
	db *Database
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *Database) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// GenerateForDate recomputes daily summaries for every customer with
// transactions on the given date. Existing rows for the date are
// replaced via upsert so the job can be re-run safely.
func (r *SummaryRepository) GenerateForDate(ctx context.Context, date time.Time) (int64, error) {
	query := `
		INSERT INTO daily_summaries (
			customer_id, summary_date, total_transactions, total_amount,
			high_value_transactions, strong_auth_transactions, failed_transactions, risk_score_avg
		)
		SELECT
			ba.customer_id,
			DATE(t.created_at),
			COUNT(t.transaction_id),
			COALESCE(SUM(CASE WHEN t.status = 'COMPLETED' THEN t.amount ELSE 0 END), 0),
			COUNT(CASE WHEN t.amount > 10000000 THEN 1 END),
			COUNT(CASE WHEN t.auth_method IN ('BIOMETRIC', 'OTP_SMS', 'OTP_EMAIL') THEN 1 END),
			COUNT(CASE WHEN t.status = 'FAILED' THEN 1 END),
			COALESCE(AVG(t.risk_score), 0)
		FROM bank_accounts ba
		JOIN transactions t ON t.from_account_id = ba.account_id
		WHERE DATE(t.created_at) = $1::date
		GROUP BY ba.customer_id, DATE(t.created_at)
		ON CONFLICT (customer_id, summary_date) DO UPDATE SET
			total_transactions       = EXCLUDED.total_transactions,
			total_amount             = EXCLUDED.total_amount,
			high_value_transactions  = EXCLUDED.high_value_transactions,
			strong_auth_transactions = EXCLUDED.strong_auth_transactions,
			failed_transactions      = EXCLUDED.failed_transactions,
			risk_score_avg           = EXCLUDED.risk_score_avg
	`

	result, err := r.db.Pool.Exec(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// GetByCustomer retrieves a customer's summaries for the last N days
func (r *SummaryRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID, days int) ([]*models.DailySummary, error) {
	query := `
		SELECT customer_id, summary_date, total_transactions, total_amount,
		       high_value_transactions, strong_auth_transactions, failed_transactions,
		       risk_score_avg, created_at
		FROM daily_summaries
		WHERE customer_id = $1
		  AND summary_date >= CURRENT_DATE - ($2::text || ' days')::interval
		ORDER BY summary_date DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, customerID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.DailySummary
	for rows.Next() {
		summary := &models.DailySummary{}
		if err := rows.Scan(
			&summary.CustomerID,
			&summary.SummaryDate,
			&summary.TotalTransactions,
			&summary.TotalAmount,
			&summary.HighValueTransactions,
			&summary.StrongAuthTransactions,
			&summary.FailedTransactions,
			&summary.RiskScoreAvg,
			&summary.CreatedAt,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}
