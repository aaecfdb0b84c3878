package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/omnirevenue/agent/core"
	"github.com/omnirevenue/agent/webhooks"
	"github.com/uptrace/bun"
)

type WebhookDeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookDeliveryRecord]
}

func NewWebhookDeliveryStore(db *bun.DB) (*WebhookDeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookDeliveryRecord](db, webhookDeliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook delivery repository wiring: %w", err)
		}
	}
	return &WebhookDeliveryStore{
		db:   db,
		repo: repo,
	}, nil
}

// Reserve claims a delivery id for processing. A pending or processed row is
// reported as a duplicate; a failed row is re-opened so gateway retries get
// another attempt.
func (s *WebhookDeliveryStore) Reserve(
	ctx context.Context,
	gateway core.Gateway,
	deliveryID string,
	payload []byte,
) (webhooks.DeliveryRecord, bool, error) {
	if s == nil || s.db == nil {
		return webhooks.DeliveryRecord{}, false, fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	deliveryID = strings.TrimSpace(deliveryID)
	if _, err := core.ParseGateway(string(gateway)); err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	if deliveryID == "" {
		return webhooks.DeliveryRecord{}, false, fmt.Errorf("sqlstore: delivery id is required")
	}
	now := time.Now().UTC()

	var out webhooks.DeliveryRecord
	var duplicate bool
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &webhookDeliveryRecord{}
		findErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.gateway = ?", string(gateway)).
			Where("?TableAlias.delivery_id = ?", deliveryID).
			Limit(1).
			Scan(ctx)
		if findErr != nil && findErr != sql.ErrNoRows {
			return findErr
		}
		if findErr == sql.ErrNoRows {
			record := &webhookDeliveryRecord{
				ID:         uuid.NewString(),
				Gateway:    string(gateway),
				DeliveryID: deliveryID,
				Status:     webhooks.DeliveryStatusPending,
				Attempts:   1,
				Payload:    append([]byte(nil), payload...),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, createErr := tx.NewInsert().Model(record).Exec(ctx); createErr != nil {
				return createErr
			}
			out = webhookDeliveryToDomain(record)
			duplicate = false
			return nil
		}

		if existing.Status != webhooks.DeliveryStatusFailed {
			out = webhookDeliveryToDomain(existing)
			duplicate = true
			return nil
		}

		existing.Status = webhooks.DeliveryStatusPending
		existing.Attempts++
		existing.LastError = ""
		existing.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().
			Model(existing).
			Where("id = ?", existing.ID).
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = webhookDeliveryToDomain(existing)
		duplicate = false
		return nil
	})
	if err != nil {
		return webhooks.DeliveryRecord{}, false, err
	}
	return out, duplicate, nil
}

func (s *WebhookDeliveryStore) MarkProcessed(ctx context.Context, gateway core.Gateway, deliveryID string) error {
	return s.markStatus(ctx, gateway, deliveryID, webhooks.DeliveryStatusProcessed, "")
}

func (s *WebhookDeliveryStore) MarkFailed(ctx context.Context, gateway core.Gateway, deliveryID string, cause error) error {
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	return s.markStatus(ctx, gateway, deliveryID, webhooks.DeliveryStatusFailed, message)
}

func (s *WebhookDeliveryStore) markStatus(
	ctx context.Context,
	gateway core.Gateway,
	deliveryID string,
	status string,
	lastError string,
) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: webhook delivery store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*webhookDeliveryRecord)(nil)).
		Set("status = ?", status).
		Set("last_error = ?", lastError).
		Set("updated_at = ?", time.Now().UTC()).
		Where("gateway = ?", string(gateway)).
		Where("delivery_id = ?", strings.TrimSpace(deliveryID)).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affErr := result.RowsAffected(); affErr == nil && affected == 0 {
		return fmt.Errorf(
			"sqlstore: webhook delivery not found for gateway %q delivery %q",
			gateway,
			deliveryID,
		)
	}
	return nil
}

func webhookDeliveryToDomain(record *webhookDeliveryRecord) webhooks.DeliveryRecord {
	if record == nil {
		return webhooks.DeliveryRecord{}
	}
	return webhooks.DeliveryRecord{
		ID:         record.ID,
		Gateway:    record.Gateway,
		DeliveryID: record.DeliveryID,
		Status:     record.Status,
		Attempts:   record.Attempts,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}
