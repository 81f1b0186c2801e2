package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ne4nf/TimoBank/internal/models"
	"github.com/Ne4nf/TimoBank/internal/repositories"
)

// AlertNotifier records pipeline failures as JOB_FAILURE fraud alerts
// so operators see them in the same queue as every other finding.
type AlertNotifier struct {
	alerts *repositories.AlertRepository
}

// NewAlertNotifier creates a new alert notifier
func NewAlertNotifier(alerts *repositories.AlertRepository) *AlertNotifier {
	return &AlertNotifier{alerts: alerts}
}

// NotifyFailure persists the failure. A persistence error is only
// logged; the pipeline error is already on its way to the caller.
func (n *AlertNotifier) NotifyFailure(ctx context.Context, step string, err error) {
	event := &models.AlertEvent{
		AlertType:   models.AlertJobFailure,
		Severity:    models.SeverityHigh,
		Title:       "Batch job step failed",
		Description: fmt.Sprintf("Step %s failed: %v", step, err),
		Metadata: models.JSONB{
			"step": step,
		},
		CreatedAt: time.Now(),
	}

	if _, saveErr := n.alerts.CreateFromEvent(ctx, event); saveErr != nil {
		log.Error().Err(saveErr).Str("step", step).Msg("Failed to record job failure alert")
	}
}
