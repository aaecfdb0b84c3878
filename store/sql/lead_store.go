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

type LeadStore struct {
	db   *bun.DB
	repo repository.Repository[*leadRecord]
}

func NewLeadStore(db *bun.DB) (*LeadStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*leadRecord](db, leadHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid lead repository wiring: %w", err)
		}
	}
	return &LeadStore{
		db:   db,
		repo: repo,
	}, nil
}

// Upsert merges repeat submissions: a known email keeps its first source and
// unions the incoming tags, while blank incoming fields never clear stored
// values.
func (s *LeadStore) Upsert(ctx context.Context, in core.UpsertLeadInput) (core.Lead, error) {
	if s == nil || s.db == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	in.Source = strings.TrimSpace(in.Source)
	if in.Email == "" {
		return core.Lead{}, fmt.Errorf("sqlstore: lead email is required")
	}
	if in.Source == "" {
		in.Source = "Manual"
	}
	now := time.Now().UTC()

	var out core.Lead
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &leadRecord{}
		findErr := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.email = ?", in.Email).
			Limit(1).
			Scan(ctx)
		if findErr != nil && findErr != sql.ErrNoRows {
			return findErr
		}
		if findErr == sql.ErrNoRows {
			record := newLeadRecord(in, now)
			record.ID = uuid.NewString()
			if _, createErr := tx.NewInsert().Model(record).Exec(ctx); createErr != nil {
				return createErr
			}
			out = record.toDomain()
			return nil
		}

		lead := existing.toDomain()
		lead.MergeTags(in.Tags)
		if in.Name != "" {
			existing.Name = in.Name
		}
		existing.Tags = copyStringSlice(lead.Tags)
		if in.UTMSource != "" {
			existing.UTMSource = in.UTMSource
		}
		if in.UTMCampaign != "" {
			existing.UTMCampaign = in.UTMCampaign
		}
		if in.UTMMedium != "" {
			existing.UTMMedium = in.UTMMedium
		}
		if in.UTMTerm != "" {
			existing.UTMTerm = in.UTMTerm
		}
		if in.UTMContent != "" {
			existing.UTMContent = in.UTMContent
		}
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
		return core.Lead{}, err
	}
	return out, nil
}

func (s *LeadStore) FindByEmail(ctx context.Context, email string) (core.Lead, error) {
	if s == nil || s.repo == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("email", "=", normalized),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return core.Lead{}, err
	}
	if len(records) == 0 {
		return core.Lead{}, fmt.Errorf("sqlstore: lead not found for email %q", normalized)
	}
	return records[0].toDomain(), nil
}

func (s *LeadStore) ApplyEnrichment(ctx context.Context, id string, enrichment core.LeadEnrichment) (core.Lead, error) {
	if s == nil || s.repo == nil {
		return core.Lead{}, fmt.Errorf("sqlstore: lead store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return core.Lead{}, fmt.Errorf("sqlstore: lead id is required")
	}
	record, err := s.repo.GetByID(ctx, trimmedID)
	if err != nil {
		return core.Lead{}, err
	}
	if company := strings.TrimSpace(enrichment.Company); company != "" {
		record.Company = company
	}
	if role := strings.TrimSpace(enrichment.Role); role != "" {
		record.Role = role
	}
	if linkedin := strings.TrimSpace(enrichment.LinkedIn); linkedin != "" {
		record.LinkedIn = linkedin
	}
	record.UpdatedAt = time.Now().UTC()
	if _, err := s.repo.Update(ctx, record, repository.UpdateByID(trimmedID)); err != nil {
		return core.Lead{}, err
	}
	return record.toDomain(), nil
}

func (s *LeadStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: lead store is not configured")
	}
	count, err := s.db.NewSelect().
		Model((*leadRecord)(nil)).
		Where("?TableAlias.created_at >= ?", since.UTC()).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	return count, nil
}
