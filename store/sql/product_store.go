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

type ProductStore struct {
	db   *bun.DB
	repo repository.Repository[*productRecord]
}

func NewProductStore(db *bun.DB) (*ProductStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*productRecord](db, productHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid product repository wiring: %w", err)
		}
	}
	return &ProductStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *ProductStore) FindBySKU(ctx context.Context, sku string) (core.Product, error) {
	if s == nil || s.repo == nil {
		return core.Product{}, fmt.Errorf("sqlstore: product store is not configured")
	}
	trimmed := strings.TrimSpace(sku)
	if trimmed == "" {
		return core.Product{}, fmt.Errorf("sqlstore: sku is required")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("sku", "=", trimmed),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Product{}, err
	}
	if len(records) == 0 {
		return core.Product{}, fmt.Errorf("%w: %s", core.ErrProductNotFound, trimmed)
	}
	return records[0].toDomain(), nil
}

func (s *ProductStore) Upsert(ctx context.Context, product core.Product) (core.Product, error) {
	if s == nil || s.db == nil {
		return core.Product{}, fmt.Errorf("sqlstore: product store is not configured")
	}
	product.SKU = strings.TrimSpace(product.SKU)
	product.Name = strings.TrimSpace(product.Name)
	if product.SKU == "" {
		return core.Product{}, fmt.Errorf("sqlstore: sku is required")
	}
	kind, err := core.ParseFulfillmentKind(string(product.FulfillmentKind))
	if err != nil {
		return core.Product{}, err
	}
	product.FulfillmentKind = kind
	now := time.Now().UTC()

	var out core.Product
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &productRecord{}
		findErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.sku = ?", product.SKU).
			Limit(1).
			Scan(ctx)
		if findErr != nil && findErr != sql.ErrNoRows {
			return findErr
		}
		if findErr == sql.ErrNoRows {
			record := &productRecord{
				ID:              uuid.NewString(),
				SKU:             product.SKU,
				Name:            product.Name,
				Price:           product.Price,
				FulfillmentKind: string(product.FulfillmentKind),
				FulfillmentURL:  product.FulfillmentURL,
				Active:          product.Active,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			if _, createErr := tx.NewInsert().Model(record).Exec(ctx); createErr != nil {
				return createErr
			}
			out = record.toDomain()
			return nil
		}

		existing.Name = product.Name
		existing.Price = product.Price
		existing.FulfillmentKind = string(product.FulfillmentKind)
		existing.FulfillmentURL = product.FulfillmentURL
		existing.Active = product.Active
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
		return core.Product{}, err
	}
	return out, nil
}
