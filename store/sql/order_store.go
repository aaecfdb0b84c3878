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

type OrderStore struct {
	db   *bun.DB
	repo repository.Repository[*orderRecord]
}

func NewOrderStore(db *bun.DB) (*OrderStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*orderRecord](db, orderHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid order repository wiring: %w", err)
		}
	}
	return &OrderStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *OrderStore) Create(ctx context.Context, in core.CreateOrderInput) (core.Order, error) {
	if s == nil || s.db == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	in.GatewayTransactionID = strings.TrimSpace(in.GatewayTransactionID)
	in.BuyerEmail = strings.TrimSpace(in.BuyerEmail)
	in.BuyerName = strings.TrimSpace(in.BuyerName)
	in.SKU = strings.TrimSpace(in.SKU)
	if _, err := core.ParseGateway(string(in.Gateway)); err != nil {
		return core.Order{}, err
	}
	if in.GatewayTransactionID == "" {
		return core.Order{}, fmt.Errorf("sqlstore: gateway transaction id is required")
	}
	if in.SKU == "" {
		return core.Order{}, fmt.Errorf("sqlstore: sku is required")
	}

	record := newOrderRecord(in, time.Now().UTC())
	record.ID = uuid.NewString()
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return core.Order{}, fmt.Errorf(
				"%w: %s %s",
				core.ErrDuplicateOrder,
				in.Gateway,
				in.GatewayTransactionID,
			)
		}
		return core.Order{}, err
	}
	return record.toDomain(), nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (core.Order, error) {
	if s == nil || s.repo == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if isNotFound(err) {
			return core.Order{}, fmt.Errorf("%w: %s", core.ErrOrderNotFound, id)
		}
		return core.Order{}, err
	}
	return record.toDomain(), nil
}

func (s *OrderStore) FindByTransaction(ctx context.Context, gateway core.Gateway, transactionID string) (core.Order, error) {
	if s == nil || s.repo == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("gateway", "=", string(gateway)),
		repository.SelectBy("gateway_transaction_id", "=", strings.TrimSpace(transactionID)),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Order{}, err
	}
	if len(records) == 0 {
		return core.Order{}, fmt.Errorf(
			"%w: %s %s",
			core.ErrOrderNotFound,
			gateway,
			transactionID,
		)
	}
	return records[0].toDomain(), nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status core.OrderStatus) (core.Order, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Order{}, fmt.Errorf("sqlstore: order id is required")
	}

	var out core.Order
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &orderRecord{}
		err := tx.NewSelect().
			Model(record).
			Where("?TableAlias.id = ?", trimmedID).
			Limit(1).
			Scan(ctx)
		if err != nil {
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: %s", core.ErrOrderNotFound, trimmedID)
			}
			return err
		}

		order := record.toDomain()
		now := time.Now().UTC()
		if transitionErr := order.TransitionTo(status, now); transitionErr != nil {
			return transitionErr
		}

		if _, updateErr := tx.NewUpdate().
			Model((*orderRecord)(nil)).
			Set("status = ?", string(order.Status)).
			Set("updated_at = ?", now).
			Where("id = ?", trimmedID).
			Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = order
		return nil
	})
	if err != nil {
		return core.Order{}, err
	}
	return out, nil
}

func (s *OrderStore) MarkFulfilled(ctx context.Context, id string, fulfilledAt time.Time) (core.Order, error) {
	if s == nil || s.db == nil || s.repo == nil {
		return core.Order{}, fmt.Errorf("sqlstore: order store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Order{}, fmt.Errorf("sqlstore: order id is required")
	}
	stamp := fulfilledAt.UTC()
	now := time.Now().UTC()
	result, err := s.db.NewUpdate().
		Model((*orderRecord)(nil)).
		Set("fulfilled = ?", true).
		Set("fulfilled_at = ?", stamp).
		Set("updated_at = ?", now).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return core.Order{}, err
	}
	if affected, affErr := result.RowsAffected(); affErr == nil && affected == 0 {
		return core.Order{}, fmt.Errorf("%w: %s", core.ErrOrderNotFound, trimmedID)
	}
	return s.Get(ctx, trimmedID)
}

func (s *OrderStore) ListSince(ctx context.Context, since time.Time) ([]core.Order, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: order store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.created_at >= ?", since.UTC())
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Order, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	if err == sql.ErrNoRows {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "no rows in result set") ||
		strings.Contains(message, "record not found")
}
