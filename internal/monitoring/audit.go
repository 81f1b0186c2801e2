package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

// Auditor builds the compliance audit trail from high-value
// transactions and risky authentication events.
type Auditor struct {
	db   *repositories.Database
	repo *repositories.AuditRepository
}

// NewAuditor creates a new auditor
func NewAuditor(db *repositories.Database, repo *repositories.AuditRepository) *Auditor {
	return &Auditor{db: db, repo: repo}
}

// GenerateTrail collects audit entries for the date range and persists
// them in one batch. Zero from/to default to yesterday and today.
func (a *Auditor) GenerateTrail(ctx context.Context, from, to time.Time) ([]*models.AuditEntry, error) {
	if from.IsZero() {
		from = time.Now().AddDate(0, 0, -1)
	}
	if to.IsZero() {
		to = time.Now()
	}

	entries, err := a.collectHighValueTransactions(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to audit high-value transactions: %w", err)
	}

	authEntries, err := a.collectAuthenticationEvents(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to audit authentication events: %w", err)
	}
	entries = append(entries, authEntries...)

	if err := a.repo.CreateBatch(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to persist audit trail: %w", err)
	}

	log.Info().Int("entries", len(entries)).Msg("Audit trail generated")

	return entries, nil
}

func (a *Auditor) collectHighValueTransactions(ctx context.Context, from, to time.Time) ([]*models.AuditEntry, error) {
	query := `
		SELECT t.transaction_id::text, t.amount, t.transaction_type, t.status,
		       ba.customer_id::text, c.full_name, t.created_at
		FROM transactions t
		JOIN bank_accounts ba ON ba.account_id = t.from_account_id
		JOIN customers c ON c.customer_id = ba.customer_id
		WHERE t.amount > $1
		  AND DATE(t.created_at) BETWEEN $2 AND $3
		ORDER BY t.created_at DESC
	`

	rows, err := a.db.Pool.Query(ctx, query, HighValueThreshold,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var txID, txType, status, customerID, customerName string
		var amount float64
		var createdAt time.Time
		if err := rows.Scan(&txID, &amount, &txType, &status, &customerID, &customerName, &createdAt); err != nil {
			return nil, err
		}

		entries = append(entries, &models.AuditEntry{
			EventType:  models.AuditEventHighValueTransaction,
			EntityType: "TRANSACTION",
			EntityID:   txID,
			Action:     fmt.Sprintf("%s - %s", txType, status),
			Detail: models.JSONB{
				"amount":        amount,
				"customer_id":   customerID,
				"customer_name": customerName,
			},
			CreatedAt: createdAt,
		})
	}

	return entries, rows.Err()
}

func (a *Auditor) collectAuthenticationEvents(ctx context.Context, from, to time.Time) ([]*models.AuditEntry, error) {
	query := `
		SELECT al.auth_id::text, al.customer_id::text, c.full_name,
		       al.auth_method, al.auth_status, COALESCE(al.risk_score, 0), al.created_at
		FROM authentication_logs al
		JOIN customers c ON c.customer_id = al.customer_id
		WHERE DATE(al.created_at) BETWEEN $1 AND $2
		  AND (al.auth_status = 'FAILED' OR al.risk_score > 70)
		ORDER BY al.created_at DESC
	`

	rows, err := a.db.Pool.Query(ctx, query,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var authID, customerID, customerName, authMethod, authStatus string
		var riskScore float64
		var createdAt time.Time
		if err := rows.Scan(&authID, &customerID, &customerName, &authMethod, &authStatus, &riskScore, &createdAt); err != nil {
			return nil, err
		}

		entries = append(entries, &models.AuditEntry{
			EventType:  models.AuditEventAuthentication,
			EntityType: "AUTHENTICATION",
			EntityID:   authID,
			Action:     fmt.Sprintf("%s - %s", authMethod, authStatus),
			Detail: models.JSONB{
				"customer_id":   customerID,
				"customer_name": customerName,
				"risk_score":    riskScore,
			},
			CreatedAt: createdAt,
		})
	}

	return entries, rows.Err()
}
