package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careerbird/grant-match-api/internal/models"
)

const opportunityColumns = `o.id, o.title, o.description, o.type, o.university_id, o.created_by, o.degree_levels, o.fields_of_study,
        o.eligible_countries, o.min_gpa, o.funding_amount, o.monthly_stipend, o.covers_tuition, o.covers_living, o.deadline,
        o.start_date, o.duration_months, o.language, o.application_url, o.featured, o.created_at, o.updated_at,
        u.name AS university_name, u.country AS university_country, u.city AS university_city`

const opportunityFrom = `FROM opportunities o LEFT JOIN universities u ON u.id = o.university_id`

// OpportunityRepository manages persistence for grants.
type OpportunityRepository struct {
	db *sqlx.DB
}

// NewOpportunityRepository constructs an OpportunityRepository.
func NewOpportunityRepository(db *sqlx.DB) *OpportunityRepository {
	return &OpportunityRepository{db: db}
}

// List returns grants matching the filter. Set filters match when any value overlaps; the
// country filter accepts either the university country or an eligible country.
func (r *OpportunityRepository) List(ctx context.Context, filter models.OpportunityFilter) ([]models.OpportunityDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.DegreeLevels) > 0 {
		conditions = append(conditions, "o.degree_levels && "+arg(pq.StringArray(filter.DegreeLevels)))
	}
	if len(filter.Countries) > 0 {
		p := arg(pq.StringArray(filter.Countries))
		conditions = append(conditions, fmt.Sprintf("(u.country = ANY(%s) OR o.eligible_countries && %s)", p, p))
	}
	if len(filter.Fields) > 0 {
		conditions = append(conditions, "o.fields_of_study && "+arg(pq.StringArray(filter.Fields)))
	}
	if filter.Type != "" {
		conditions = append(conditions, "o.type = "+arg(filter.Type))
	}
	if filter.Featured != nil {
		conditions = append(conditions, "o.featured = "+arg(*filter.Featured))
	}
	if filter.OpenOnly {
		conditions = append(conditions, "(o.deadline IS NULL OR o.deadline >= "+arg(time.Now().UTC().Truncate(24*time.Hour))+")")
	}
	if filter.Search != "" {
		p := arg("%" + strings.ToLower(filter.Search) + "%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(o.title) LIKE %s OR LOWER(o.description) LIKE %s OR LOWER(COALESCE(u.name, '')) LIKE %s OR LOWER(COALESCE(u.country, '')) LIKE %s)", p, p, p, p))
	}

	where := fmt.Sprintf("%s WHERE %s", opportunityFrom, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"deadline":   "o.deadline",
		"created_at": "o.created_at",
		"title":      "o.title",
		"featured":   "o.featured",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "o.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
		if column == "o.deadline" || column == "o.title" {
			order = "ASC"
		}
	}
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s NULLS LAST, o.id LIMIT %d OFFSET %d`, opportunityColumns, where, column, order, size, (page-1)*size)
	var items []models.OpportunityDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list opportunities: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count opportunities: %w", err)
	}
	return items, total, nil
}

// FindByID fetches one grant with its university.
func (r *OpportunityRepository) FindByID(ctx context.Context, id string) (*models.OpportunityDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE o.id = $1`, opportunityColumns, opportunityFrom)
	var detail models.OpportunityDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListOpen returns grants whose deadline has not passed, featured first.
func (r *OpportunityRepository) ListOpen(ctx context.Context, today time.Time, limit int) ([]models.OpportunityDetail, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s %s WHERE o.deadline IS NULL OR o.deadline >= $1
        ORDER BY o.featured DESC, o.deadline ASC NULLS LAST, o.id LIMIT %d`, opportunityColumns, opportunityFrom, limit)
	var items []models.OpportunityDetail
	if err := r.db.SelectContext(ctx, &items, query, today); err != nil {
		return nil, fmt.Errorf("list open opportunities: %w", err)
	}
	return items, nil
}

// Create inserts a new grant.
func (r *OpportunityRepository) Create(ctx context.Context, o *models.Opportunity) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	const query = `INSERT INTO opportunities (id, title, description, type, university_id, created_by, degree_levels, fields_of_study,
        eligible_countries, min_gpa, funding_amount, monthly_stipend, covers_tuition, covers_living, deadline, start_date,
        duration_months, language, application_url, featured, created_at, updated_at)
        VALUES (:id, :title, :description, :type, :university_id, :created_by, :degree_levels, :fields_of_study,
        :eligible_countries, :min_gpa, :funding_amount, :monthly_stipend, :covers_tuition, :covers_living, :deadline, :start_date,
        :duration_months, :language, :application_url, :featured, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

// Update modifies an existing grant. The creator never changes.
func (r *OpportunityRepository) Update(ctx context.Context, o *models.Opportunity) error {
	o.UpdatedAt = time.Now().UTC()
	const query = `UPDATE opportunities SET title = :title, description = :description, type = :type, university_id = :university_id,
        degree_levels = :degree_levels, fields_of_study = :fields_of_study, eligible_countries = :eligible_countries, min_gpa = :min_gpa,
        funding_amount = :funding_amount, monthly_stipend = :monthly_stipend, covers_tuition = :covers_tuition, covers_living = :covers_living,
        deadline = :deadline, start_date = :start_date, duration_months = :duration_months, language = :language,
        application_url = :application_url, featured = :featured, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
