package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ne4nf/TimoBank/internal/models"
)

var (
	ErrAlertNotFound = errors.New("fraud alert not found")
)

// AlertRepository handles fraud alert database operations
type AlertRepository struct {
	db *Database
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *Database) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateFromEvent persists a monitoring finding as an OPEN fraud alert.
// Customer and transaction references are read from the event metadata
// when present.
func (r *AlertRepository) CreateFromEvent(ctx context.Context, event *models.AlertEvent) (uuid.UUID, error) {
	query := `
		INSERT INTO fraud_alerts (alert_id, transaction_id, customer_id, alert_type, severity, description, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING alert_id
	`

	alertID := uuid.New()
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	description := event.Title
	if event.Description != "" {
		description = fmt.Sprintf("%s: %s", event.Title, event.Description)
	}

	var id uuid.UUID
	err := r.db.Pool.QueryRow(ctx, query,
		alertID,
		uuidFromMetadata(event.Metadata, "transaction_id"),
		uuidFromMetadata(event.Metadata, "customer_id"),
		event.AlertType,
		event.Severity,
		description,
		models.AlertStatusOpen,
		createdAt,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert fraud alert: %w", err)
	}

	return id, nil
}

// List retrieves fraud alerts filtered by severity and status.
// Empty filter values match everything.
func (r *AlertRepository) List(ctx context.Context, severity, status string, limit int) ([]*models.FraudAlert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT alert_id, transaction_id, customer_id, alert_type, severity, description,
		       status, COALESCE(assigned_to, ''), resolved_at, COALESCE(resolution_notes, ''), created_at
		FROM fraud_alerts
		WHERE ($1 = '' OR severity = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, severity, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetByID retrieves a fraud alert by ID
func (r *AlertRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FraudAlert, error) {
	query := `
		SELECT alert_id, transaction_id, customer_id, alert_type, severity, description,
		       status, COALESCE(assigned_to, ''), resolved_at, COALESCE(resolution_notes, ''), created_at
		FROM fraud_alerts
		WHERE alert_id = $1
	`

	alert := &models.FraudAlert{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&alert.AlertID,
		&alert.TransactionID,
		&alert.CustomerID,
		&alert.AlertType,
		&alert.Severity,
		&alert.Description,
		&alert.Status,
		&alert.AssignedTo,
		&alert.ResolvedAt,
		&alert.ResolutionNotes,
		&alert.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}

	return alert, nil
}

// UpdateStatus transitions an alert to a new status. Resolved and
// false-positive transitions stamp resolved_at.
func (r *AlertRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status, assignedTo, notes string) error {
	query := `
		UPDATE fraud_alerts
		SET status = $2,
		    assigned_to = NULLIF($3, ''),
		    resolution_notes = NULLIF($4, ''),
		    resolved_at = CASE WHEN $2 IN ('RESOLVED', 'FALSE_POSITIVE') THEN NOW() ELSE resolved_at END
		WHERE alert_id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query, id, status, assignedTo, notes)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrAlertNotFound
	}

	return nil
}

// CountActive counts open and investigating alerts
func (r *AlertRepository) CountActive(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM fraud_alerts WHERE status IN ('OPEN', 'INVESTIGATING')`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// SeverityBreakdown counts alerts created since the given time, by severity
func (r *AlertRepository) SeverityBreakdown(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT severity, COUNT(*)
		FROM fraud_alerts
		WHERE created_at >= $1
		GROUP BY severity
	`

	rows, err := r.db.Pool.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, err
		}
		breakdown[severity] = count
	}

	return breakdown, rows.Err()
}

// DeleteResolvedBefore removes resolved alerts older than the cutoff
func (r *AlertRepository) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM fraud_alerts
		WHERE status = 'RESOLVED' AND resolved_at IS NOT NULL AND resolved_at < $1
	`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func scanAlerts(rows pgx.Rows) ([]*models.FraudAlert, error) {
	var alerts []*models.FraudAlert
	for rows.Next() {
		alert := &models.FraudAlert{}
		if err := rows.Scan(
			&alert.AlertID,
			&alert.TransactionID,
			&alert.CustomerID,
			&alert.AlertType,
			&alert.Severity,
			&alert.Description,
			&alert.Status,
			&alert.AssignedTo,
			&alert.ResolvedAt,
			&alert.ResolutionNotes,
			&alert.CreatedAt,
		); err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

func uuidFromMetadata(meta models.JSONB, key string) *uuid.UUID {
	if meta == nil {
		return nil
	}
	raw, ok := meta[key].(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
