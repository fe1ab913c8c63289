package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/careerbird/grant-match-api/internal/models"
)

const profileColumns = `id, user_id, full_name, first_name, last_name, email, phone, nationality, current_country, current_city,
        date_of_birth, bio, university_id, current_degree, field_of_study, gpa, gpa_scale, graduation_year,
        gre_verbal, gre_quant, gre_writing, toefl_score, research_interests, created_at, updated_at`

// ProfileRepository manages persistence for student profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs a ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUserID fetches the profile owned by the user. sql.ErrNoRows is returned unwrapped.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert inserts or updates the profile keyed by user_id. Replaying identical values only
// moves updated_at; id and created_at of an existing row are kept and copied back onto profile.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now
	if profile.GPAScale <= 0 {
		profile.GPAScale = models.DefaultGPAScale
	}

	const query = `INSERT INTO profiles (id, user_id, full_name, first_name, last_name, email, phone, nationality, current_country, current_city,
        date_of_birth, bio, university_id, current_degree, field_of_study, gpa, gpa_scale, graduation_year,
        gre_verbal, gre_quant, gre_writing, toefl_score, research_interests, created_at, updated_at)
        VALUES (:id, :user_id, :full_name, :first_name, :last_name, :email, :phone, :nationality, :current_country, :current_city,
        :date_of_birth, :bio, :university_id, :current_degree, :field_of_study, :gpa, :gpa_scale, :graduation_year,
        :gre_verbal, :gre_quant, :gre_writing, :toefl_score, :research_interests, :created_at, :updated_at)
        ON CONFLICT (user_id) DO UPDATE SET full_name = EXCLUDED.full_name, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
        email = EXCLUDED.email, phone = EXCLUDED.phone, nationality = EXCLUDED.nationality, current_country = EXCLUDED.current_country,
        current_city = EXCLUDED.current_city, date_of_birth = EXCLUDED.date_of_birth, bio = EXCLUDED.bio, university_id = EXCLUDED.university_id,
        current_degree = EXCLUDED.current_degree, field_of_study = EXCLUDED.field_of_study, gpa = EXCLUDED.gpa, gpa_scale = EXCLUDED.gpa_scale,
        graduation_year = EXCLUDED.graduation_year, gre_verbal = EXCLUDED.gre_verbal, gre_quant = EXCLUDED.gre_quant,
        gre_writing = EXCLUDED.gre_writing, toefl_score = EXCLUDED.toefl_score, research_interests = EXCLUDED.research_interests,
        updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	bound, args, err := r.db.BindNamed(query, profile)
	if err != nil {
		return fmt.Errorf("bind profile upsert: %w", err)
	}
	if err := r.db.QueryRowxContext(ctx, bound, args...).Scan(&profile.ID, &profile.CreatedAt); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Search finds profiles whose first name, last name or title contains q, with the
// university name joined. At most limit rows are returned.
func (r *ProfileRepository) Search(ctx context.Context, q string, limit int) ([]models.ProfileSearchResult, error) {
	const query = `SELECT p.id, p.user_id, p.first_name, p.last_name, p.title, p.department, p.university_id,
        COALESCE(u.name, '') AS university_name
        FROM profiles p LEFT JOIN universities u ON u.id = p.university_id
        WHERE p.first_name ILIKE $1 OR p.last_name ILIKE $1 OR p.title ILIKE $1
        ORDER BY p.last_name, p.first_name, p.id LIMIT $2`
	var items []models.ProfileSearchResult
	if err := r.db.SelectContext(ctx, &items, query, containsPattern(q), limit); err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return items, nil
}
