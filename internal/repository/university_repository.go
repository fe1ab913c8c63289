package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/careerbird/grant-match-api/internal/models"
)

// UniversityRepository reads university reference data.
type UniversityRepository struct {
	db *sqlx.DB
}

// NewUniversityRepository constructs a UniversityRepository.
func NewUniversityRepository(db *sqlx.DB) *UniversityRepository {
	return &UniversityRepository{db: db}
}

// List returns universities whose name or country contains search, ordered by name.
func (r *UniversityRepository) List(ctx context.Context, search string) ([]models.University, error) {
	query := `SELECT id, name, country, city FROM universities`
	args := []interface{}{}
	if search = strings.TrimSpace(search); search != "" {
		query += ` WHERE LOWER(name) LIKE $1 OR LOWER(country) LIKE $1`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY name LIMIT 200`
	var items []models.University
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list universities: %w", err)
	}
	return items, nil
}

// Exists reports whether the university id is known.
func (r *UniversityRepository) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	if err := r.db.GetContext(ctx, &found, `SELECT EXISTS(SELECT 1 FROM universities WHERE id = $1)`, id); err != nil {
		return false, fmt.Errorf("check university: %w", err)
	}
	return found, nil
}
