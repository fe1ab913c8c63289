package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerbird/grant-match-api/internal/models"
)

// DocumentRepository persists supporting documents attached to profiles.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create records an uploaded document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.ProfileDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO profile_documents (id, user_id, kind, reference, filename, mime_type, size_bytes, page_count, uploaded_at)
        VALUES (:id, :user_id, :kind, :reference, :filename, :mime_type, :size_bytes, :page_count, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create profile document: %w", err)
	}
	return nil
}

// ListByUser returns the user's documents, newest first.
func (r *DocumentRepository) ListByUser(ctx context.Context, userID string) ([]models.ProfileDocument, error) {
	const query = `SELECT id, user_id, kind, reference, filename, mime_type, size_bytes, page_count, uploaded_at
        FROM profile_documents WHERE user_id = $1 ORDER BY uploaded_at DESC`
	var docs []models.ProfileDocument
	if err := r.db.SelectContext(ctx, &docs, query, userID); err != nil {
		return nil, fmt.Errorf("list profile documents: %w", err)
	}
	return docs, nil
}

// CountByUser counts the user's documents.
func (r *DocumentRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM profile_documents WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count profile documents: %w", err)
	}
	return total, nil
}
