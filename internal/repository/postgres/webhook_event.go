package postgres

import (
	"context"

	apperrors "hardhat-gateway/pkg/errors"
)

type WebhookEventRepository struct {
	db *DB
}

func NewWebhookEventRepository(db *DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record claims a provider event for processing. The unique index on
// (provider, event_id) makes this the replay gate: the first caller gets
// firstSeen=true, any replay gets false and must not mint another code.
func (r *WebhookEventRepository) Record(ctx context.Context, provider, eventID, eventType string) (firstSeen bool, err error) {
	query := `
		INSERT INTO webhook_events (provider, event_id, event_type)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.Pool.Exec(ctx, query, provider, eventID, eventType); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, apperrors.Storage("failed to record webhook event", err)
	}
	return true, nil
}

// MarkProcessed stores the processing outcome for later inspection. Failures
// here are logged by the caller, never surfaced to the provider.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, provider, eventID, processingError string) error {
	query := `
		UPDATE webhook_events
		SET processed_at = NOW(), processing_error = $3
		WHERE provider = $1 AND event_id = $2
	`

	if _, err := r.db.Pool.Exec(ctx, query, provider, eventID, processingError); err != nil {
		return apperrors.Storage("failed to mark webhook event processed", err)
	}
	return nil
}
