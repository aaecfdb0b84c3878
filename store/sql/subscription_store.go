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
	"github.com/uptrace/bun"
)

type SubscriptionStore struct {
	db   *bun.DB
	repo repository.Repository[*subscriptionRecord]
}

func NewSubscriptionStore(db *bun.DB) (*SubscriptionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*subscriptionRecord](db, subscriptionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid subscription repository wiring: %w", err)
		}
	}
	return &SubscriptionStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *SubscriptionStore) Create(ctx context.Context, in core.CreateSubscriptionInput) (core.Subscription, error) {
	if s == nil || s.db == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	in.GatewaySubscriptionID = strings.TrimSpace(in.GatewaySubscriptionID)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.SKU = strings.TrimSpace(in.SKU)
	if _, err := core.ParseGateway(string(in.Gateway)); err != nil {
		return core.Subscription{}, err
	}
	if in.GatewaySubscriptionID == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: gateway subscription id is required")
	}
	if strings.TrimSpace(string(in.Status)) == "" {
		in.Status = core.SubscriptionStatusActive
	}
	now := time.Now().UTC()

	var out core.Subscription
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.findByGatewayIDTx(ctx, tx, in.Gateway, in.GatewaySubscriptionID)
		if err != nil {
			return err
		}
		if existing == nil {
			record := newSubscriptionRecord(in, now)
			record.ID = uuid.NewString()
			if _, createErr := tx.NewInsert().Model(record).Exec(ctx); createErr != nil {
				return createErr
			}
			out = record.toDomain()
			return nil
		}

		existing.CustomerEmail = in.CustomerEmail
		existing.SKU = in.SKU
		existing.Status = string(in.Status)
		existing.CurrentPeriodStart = cloneTimePointer(in.CurrentPeriodStart)
		existing.CurrentPeriodEnd = cloneTimePointer(in.CurrentPeriodEnd)
		existing.CancelAtPeriodEnd = in.CancelAtPeriodEnd
		existing.UpdatedAt = now

		if _, updateErr := tx.NewUpdate().
			Model(existing).
			Where("id = ?", existing.ID).
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = existing.toDomain()
		return nil
	})
	if err != nil {
		return core.Subscription{}, err
	}
	return out, nil
}

func (s *SubscriptionStore) FindByGatewayID(ctx context.Context, gateway core.Gateway, subscriptionID string) (core.Subscription, error) {
	if s == nil || s.repo == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("gateway", "=", string(gateway)),
		repository.SelectBy("gateway_subscription_id", "=", strings.TrimSpace(subscriptionID)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Subscription{}, err
	}
	if len(records) == 0 {
		return core.Subscription{}, fmt.Errorf(
			"%w: %s %s",
			core.ErrSubscriptionNotFound,
			gateway,
			subscriptionID,
		)
	}
	return records[0].toDomain(), nil
}

func (s *SubscriptionStore) Update(ctx context.Context, id string, in core.UpdateSubscriptionInput) (core.Subscription, error) {
	if s == nil || s.repo == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription id is required")
	}
	if strings.TrimSpace(string(in.Status)) == "" {
		return core.Subscription{}, core.ErrInvalidSubscriptionStatusInput
	}
	record, err := s.repo.GetByID(ctx, trimmedID)
	if err != nil {
		if isNotFound(err) {
			return core.Subscription{}, fmt.Errorf("%w: %s", core.ErrSubscriptionNotFound, trimmedID)
		}
		return core.Subscription{}, err
	}
	record.Status = string(in.Status)
	record.CurrentPeriodStart = cloneTimePointer(in.CurrentPeriodStart)
	record.CurrentPeriodEnd = cloneTimePointer(in.CurrentPeriodEnd)
	record.CancelAtPeriodEnd = in.CancelAtPeriodEnd
	record.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, record, repository.UpdateByID(trimmedID)); err != nil {
		return core.Subscription{}, err
	}
	return record.toDomain(), nil
}

func (s *SubscriptionStore) Cancel(ctx context.Context, id string, cancelledAt time.Time) (core.Subscription, error) {
	if s == nil || s.repo == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription id is required")
	}
	record, err := s.repo.GetByID(ctx, trimmedID)
	if err != nil {
		if isNotFound(err) {
			return core.Subscription{}, fmt.Errorf("%w: %s", core.ErrSubscriptionNotFound, trimmedID)
		}
		return core.Subscription{}, err
	}

	subscription := record.toDomain()
	subscription.Cancel(cancelledAt)

	record.Status = string(subscription.Status)
	record.CancelledAt = cloneTimePointer(subscription.CancelledAt)
	record.UpdatedAt = subscription.UpdatedAt.UTC()
	if _, err := s.repo.Update(ctx, record, repository.UpdateByID(trimmedID)); err != nil {
		return core.Subscription{}, err
	}
	return record.toDomain(), nil
}

func (s *SubscriptionStore) ListActive(ctx context.Context, sku string) ([]core.Subscription, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	criteria := []repository.SelectCriteria{
		repository.SelectBy("status", "=", string(core.SubscriptionStatusActive)),
		repository.OrderBy("created_at ASC"),
	}
	if trimmed := strings.TrimSpace(sku); trimmed != "" {
		criteria = append(criteria, repository.SelectBy("sku", "=", trimmed))
	}
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.Subscription, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *SubscriptionStore) findByGatewayIDTx(
	ctx context.Context,
	tx bun.Tx,
	gateway core.Gateway,
	subscriptionID string,
) (*subscriptionRecord, error) {
	record := &subscriptionRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.gateway = ?", string(gateway)).
		Where("?TableAlias.gateway_subscription_id = ?", subscriptionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
