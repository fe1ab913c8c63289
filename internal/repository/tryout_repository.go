package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerbird/grant-match-api/internal/models"
)

// TryoutRepository manages deliverable bundles.
type TryoutRepository struct {
	db *sqlx.DB
}

// NewTryoutRepository constructs a TryoutRepository.
func NewTryoutRepository(db *sqlx.DB) *TryoutRepository {
	return &TryoutRepository{db: db}
}

// FindByApplicationID fetches the bundle of an application. sql.ErrNoRows passes through.
func (r *TryoutRepository) FindByApplicationID(ctx context.Context, applicationID string) (*models.TryoutSubmission, error) {
	const query = `SELECT id, application_id, proposal_ref, video_ref, portfolio_ref, current_step, status, submitted_at, due_at, created_at, updated_at
        FROM tryout_submissions WHERE application_id = $1`
	var sub models.TryoutSubmission
	if err := r.db.GetContext(ctx, &sub, query, applicationID); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Upsert writes the bundle keyed by application_id.
func (r *TryoutRepository) Upsert(ctx context.Context, sub *models.TryoutSubmission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = models.TryoutPending
	}
	const query = `INSERT INTO tryout_submissions (id, application_id, proposal_ref, video_ref, portfolio_ref, current_step, status, submitted_at, due_at, created_at, updated_at)
        VALUES (:id, :application_id, :proposal_ref, :video_ref, :portfolio_ref, :current_step, :status, :submitted_at, :due_at, :created_at, :updated_at)
        ON CONFLICT (application_id) DO UPDATE SET proposal_ref = EXCLUDED.proposal_ref, video_ref = EXCLUDED.video_ref,
        portfolio_ref = EXCLUDED.portfolio_ref, current_step = EXCLUDED.current_step, status = EXCLUDED.status,
        submitted_at = EXCLUDED.submitted_at, due_at = EXCLUDED.due_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert tryout submission: %w", err)
	}
	return nil
}
