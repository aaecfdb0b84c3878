package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/omnirevenue/agent/core"
	"github.com/uptrace/bun"
)

type ContentAssetStore struct {
	db   *bun.DB
	repo repository.Repository[*contentAssetRecord]
}

func NewContentAssetStore(db *bun.DB) (*ContentAssetStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*contentAssetRecord](db, contentAssetHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid content asset repository wiring: %w", err)
		}
	}
	return &ContentAssetStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *ContentAssetStore) Save(ctx context.Context, asset core.ContentAsset) (core.ContentAsset, error) {
	if s == nil || s.db == nil {
		return core.ContentAsset{}, fmt.Errorf("sqlstore: content asset store is not configured")
	}
	asset.Headline = strings.TrimSpace(asset.Headline)
	if strings.TrimSpace(asset.Article) == "" {
		return core.ContentAsset{}, fmt.Errorf("sqlstore: content asset article is required")
	}
	if asset.BriefingFor.IsZero() {
		return core.ContentAsset{}, fmt.Errorf("sqlstore: content asset briefing date is required")
	}
	now := time.Now().UTC()
	record := &contentAssetRecord{
		ID:          uuid.NewString(),
		BriefingFor: asset.BriefingFor.UTC().Truncate(24 * time.Hour),
		Headline:    asset.Headline,
		Article:     asset.Article,
		SocialPosts: copyStringSlice(asset.SocialPosts),
		AudioURL:    asset.AudioURL,
		VideoURL:    asset.VideoURL,
		Published:   asset.Published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.ContentAsset{}, err
	}
	return record.toDomain(), nil
}

func (s *ContentAssetStore) MarkPublished(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: content asset store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: content asset id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*contentAssetRecord)(nil)).
		Set("published = ?", true).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affErr := result.RowsAffected(); affErr == nil && affected == 0 {
		return fmt.Errorf("sqlstore: content asset %q not found", trimmedID)
	}
	return nil
}
