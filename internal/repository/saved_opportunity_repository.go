package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/careerbird/grant-match-api/internal/models"
)

// SavedOpportunityRepository stores student bookmarks.
type SavedOpportunityRepository struct {
	db *sqlx.DB
}

// NewSavedOpportunityRepository constructs a SavedOpportunityRepository.
func NewSavedOpportunityRepository(db *sqlx.DB) *SavedOpportunityRepository {
	return &SavedOpportunityRepository{db: db}
}

// Save bookmarks a grant. Saving twice is a no-op.
func (r *SavedOpportunityRepository) Save(ctx context.Context, userID, opportunityID string) error {
	const query = `INSERT INTO saved_opportunities (user_id, opportunity_id, created_at) VALUES ($1, $2, $3)
        ON CONFLICT (user_id, opportunity_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, opportunityID, time.Now().UTC()); err != nil {
		return fmt.Errorf("save opportunity: %w", err)
	}
	return nil
}

// Delete removes a bookmark if present.
func (r *SavedOpportunityRepository) Delete(ctx context.Context, userID, opportunityID string) error {
	const query = `DELETE FROM saved_opportunities WHERE user_id = $1 AND opportunity_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, opportunityID); err != nil {
		return fmt.Errorf("delete saved opportunity: %w", err)
	}
	return nil
}

// ListByUser returns bookmarked grants, most recently saved first.
func (r *SavedOpportunityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.OpportunityDetail, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM saved_opportunities s JOIN opportunities o ON o.id = s.opportunity_id
        LEFT JOIN universities u ON u.id = o.university_id WHERE s.user_id = $1 ORDER BY s.created_at DESC LIMIT %d`, opportunityColumns, limit)
	var items []models.OpportunityDetail
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list saved opportunities: %w", err)
	}
	return items, nil
}

// SavedIDs returns which of the given grants the user bookmarked.
func (r *SavedOpportunityRepository) SavedIDs(ctx context.Context, userID string, opportunityIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(opportunityIDs))
	if len(opportunityIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT opportunity_id FROM saved_opportunities WHERE user_id = ? AND opportunity_id IN (?)`, userID, opportunityIDs)
	if err != nil {
		return nil, fmt.Errorf("build saved lookup: %w", err)
	}
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("lookup saved opportunities: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
