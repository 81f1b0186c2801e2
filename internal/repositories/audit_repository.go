package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ne4nf/TimoBank/internal/models"
)

// AuditRepository handles compliance audit trail database operations
type AuditRepository struct {
	db *Database
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create creates a new audit trail entry
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO dq_audit_log (audit_id, event_type, entity_id, entity_type, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	entry.AuditID = uuid.New()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	detailBytes, err := entry.Detail.Value()
	if err != nil {
		return fmt.Errorf("failed to encode audit detail: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, query,
		entry.AuditID,
		entry.EventType,
		entry.EntityID,
		entry.EntityType,
		entry.Action,
		detailBytes,
		entry.CreatedAt,
	)

	return err
}

// CreateBatch creates multiple audit trail entries in a batch
func (r *AuditRepository) CreateBatch(ctx context.Context, entries []*models.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO dq_audit_log (audit_id, event_type, entity_id, entity_type, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, entry := range entries {
		entry.AuditID = uuid.New()
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now()
		}
		detailBytes, err := entry.Detail.Value()
		if err != nil {
			return fmt.Errorf("failed to encode audit detail: %w", err)
		}

		batch.Queue(query,
			entry.AuditID,
			entry.EventType,
			entry.EntityID,
			entry.EntityType,
			entry.Action,
			detailBytes,
			entry.CreatedAt,
		)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}

	return nil
}

// GetByEventType retrieves audit entries by event type, newest first
func (r *AuditRepository) GetByEventType(ctx context.Context, eventType string, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT audit_id, event_type, entity_id, entity_type, action, detail, created_at
		FROM dq_audit_log
		WHERE event_type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, eventType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// GetRecent retrieves recent audit entries
func (r *AuditRepository) GetRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT audit_id, event_type, entity_id, entity_type, action, detail, created_at
		FROM dq_audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// DeleteAuthLogsBefore removes authentication log rows older than the
// cutoff. Used by the retention cleanup step.
func (r *AuditRepository) DeleteAuthLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM authentication_logs WHERE created_at < $1`

	result, err := r.db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *AuditRepository) scanEntries(rows pgx.Rows) ([]*models.AuditEntry, error) {
	var entries []*models.AuditEntry
	for rows.Next() {
		entry := &models.AuditEntry{}
		var detailBytes []byte

		if err := rows.Scan(
			&entry.AuditID,
			&entry.EventType,
			&entry.EntityID,
			&entry.EntityType,
			&entry.Action,
			&detailBytes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		if err := entry.Detail.Scan(detailBytes); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
