package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/careerbird/grant-match-api/internal/models"
)

const applicationColumns = `a.id, a.student_id, a.opportunity_id, a.status, a.submitted_at, a.reviewed_at, a.decided_at, a.match_score,
        a.r_score, a.global_rank, a.reviewer_notes, a.created_at, a.updated_at`

const applicationDetailColumns = applicationColumns + `, o.title AS opportunity_title, o.deadline AS opportunity_deadline,
        o.created_by AS opportunity_created_by, COALESCE(p.full_name, '') AS student_name, COALESCE(p.email, '') AS student_email`

const applicationDetailFrom = `FROM applications a JOIN opportunities o ON o.id = a.opportunity_id
        LEFT JOIN profiles p ON p.user_id = a.student_id`

// ApplicationRepository manages persistence for applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs an ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// FindByID fetches an application with grant and applicant summaries.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE a.id = $1`, applicationDetailColumns, applicationDetailFrom)
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateDraft inserts a draft for (student, opportunity) unless one exists and returns the
// stored row either way.
func (r *ApplicationRepository) CreateDraft(ctx context.Context, studentID, opportunityID string) (*models.Application, bool, error) {
	now := time.Now().UTC()
	app := &models.Application{
		ID:            uuid.NewString(),
		StudentID:     studentID,
		OpportunityID: opportunityID,
		Status:        models.ApplicationDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	const insert = `INSERT INTO applications (id, student_id, opportunity_id, status, created_at, updated_at)
        VALUES (:id, :student_id, :opportunity_id, :status, :created_at, :updated_at)
        ON CONFLICT (student_id, opportunity_id) DO NOTHING`
	res, err := r.db.NamedExecContext(ctx, insert, app)
	if err != nil {
		return nil, false, fmt.Errorf("create application: %w", err)
	}
	created := false
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		created = true
	}

	query := fmt.Sprintf(`SELECT %s FROM applications a WHERE a.student_id = $1 AND a.opportunity_id = $2`, applicationColumns)
	var stored models.Application
	if err := r.db.GetContext(ctx, &stored, query, studentID, opportunityID); err != nil {
		return nil, false, fmt.Errorf("load application: %w", err)
	}
	return &stored, created, nil
}

// List returns applications matching the filter, newest first.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.OpportunityID != "" {
		args = append(args, filter.OpportunityID)
		conditions = append(conditions, fmt.Sprintf("a.opportunity_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.StringArray(statuses))
		conditions = append(conditions, fmt.Sprintf("a.status = ANY($%d)", len(args)))
	}
	where := fmt.Sprintf("%s WHERE %s", applicationDetailFrom, strings.Join(conditions, " AND "))
	page, size := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s %s ORDER BY a.created_at DESC, a.id LIMIT %d OFFSET %d`, applicationDetailColumns, where, size, (page-1)*size)
	var items []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return items, total, nil
}

// ListByOpportunity returns the non-draft applications of a grant for review: ranked
// first by global_rank, then unranked by submission time.
func (r *ApplicationRepository) ListByOpportunity(ctx context.Context, opportunityID string, filter models.ApplicantFilter) ([]models.ApplicationDetail, error) {
	args := []interface{}{opportunityID, models.ApplicationDraft}
	conditions := []string{"a.opportunity_id = $1", "a.status <> $2"}
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, containsPattern(q))
		p := fmt.Sprintf("$%d", len(args))
		conditions = append(conditions, fmt.Sprintf(`(COALESCE(p.full_name, '') ILIKE %[1]s OR a.id ILIKE %[1]s
        OR COALESCE(p.nationality, '') ILIKE %[1]s OR COALESCE(p.current_country, '') ILIKE %[1]s
        OR COALESCE(u.name, '') ILIKE %[1]s OR array_to_string(p.research_interests, ' ') ILIKE %[1]s OR a.status ILIKE %[1]s)`, p))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.StringArray(statuses))
		conditions = append(conditions, fmt.Sprintf("a.status = ANY($%d)", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s %s LEFT JOIN universities u ON u.id = p.university_id WHERE %s
        ORDER BY a.global_rank ASC NULLS LAST, a.submitted_at ASC NULLS LAST, a.id`,
		applicationDetailColumns, applicationDetailFrom, strings.Join(conditions, " AND "))
	var items []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list applicants: %w", err)
	}
	return items, nil
}

// CountByStatus aggregates the student's applications per status.
func (r *ApplicationRepository) CountByStatus(ctx context.Context, studentID string) ([]models.ApplicationStatusCount, error) {
	const query = `SELECT status, COUNT(*) AS total FROM applications WHERE student_id = $1 GROUP BY status`
	var rows []models.ApplicationStatusCount
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("count applications by status: %w", err)
	}
	return rows, nil
}

// MarkSubmitted moves a draft to submitted and records the match score.
func (r *ApplicationRepository) MarkSubmitted(ctx context.Context, id string, matchScore int, at time.Time) error {
	const query = `UPDATE applications SET status = $2, submitted_at = $3, match_score = $4, updated_at = $3
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, query, id, models.ApplicationSubmitted, at, matchScore, models.ApplicationDraft)
	if err != nil {
		return fmt.Errorf("submit application: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ApplyReview stores a review decision. reviewed_at is stamped on the first review and
// decided_at when the status becomes terminal. It returns sql.ErrNoRows when the row no longer
// holds review.From or already carries a terminal status.
func (r *ApplicationRepository) ApplyReview(ctx context.Context, id string, review models.ApplicationReview) error {
	var decidedAt *time.Time
	if review.Status.Terminal() {
		decidedAt = &review.At
	}
	const query = `UPDATE applications SET status = $2, r_score = COALESCE($3, r_score), reviewer_notes = COALESCE($4, reviewer_notes),
        reviewed_at = COALESCE(reviewed_at, $5), decided_at = COALESCE($6, decided_at), updated_at = $5
        WHERE id = $1 AND status = $7 AND status NOT IN ($8, $9)`
	res, err := r.db.ExecContext(ctx, query, id, review.Status, review.RScore, review.Notes, review.At, decidedAt,
		review.From, models.ApplicationAccepted, models.ApplicationRejected)
	if err != nil {
		return fmt.Errorf("review application: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListForRanking returns the applications of a grant that may take part in ranking.
func (r *ApplicationRepository) ListForRanking(ctx context.Context, opportunityID string) ([]models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications a WHERE a.opportunity_id = $1 AND a.status <> $2`, applicationColumns)
	var items []models.Application
	if err := r.db.SelectContext(ctx, &items, query, opportunityID, models.ApplicationDraft); err != nil {
		return nil, fmt.Errorf("list applications for ranking: %w", err)
	}
	return items, nil
}

// ReplaceRanks clears the grant's ranks and writes the new assignment in one transaction.
func (r *ApplicationRepository) ReplaceRanks(ctx context.Context, opportunityID string, ranks []models.RankAssignment) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rank tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE applications SET global_rank = NULL WHERE opportunity_id = $1`, opportunityID); err != nil {
		return fmt.Errorf("clear ranks: %w", err)
	}
	for _, rank := range ranks {
		if _, err = tx.ExecContext(ctx, `UPDATE applications SET global_rank = $2 WHERE id = $1`, rank.ApplicationID, rank.Rank); err != nil {
			return fmt.Errorf("assign rank: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ranks: %w", err)
	}
	return nil
}

// ListReminderCandidates returns open applications whose grant deadline falls in [from, to].
func (r *ApplicationRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	const query = `SELECT a.id AS application_id, a.student_id, COALESCE(p.email, '') AS student_email, o.id AS opportunity_id,
        o.title AS opportunity_title, a.status, o.deadline
        FROM applications a JOIN opportunities o ON o.id = a.opportunity_id LEFT JOIN profiles p ON p.user_id = a.student_id
        WHERE a.status IN ($1, $2) AND o.deadline IS NOT NULL AND o.deadline BETWEEN $3 AND $4
        ORDER BY o.deadline, a.id`
	var items []models.ReminderCandidate
	if err := r.db.SelectContext(ctx, &items, query, models.ApplicationDraft, models.ApplicationSubmitted, from, to); err != nil {
		return nil, fmt.Errorf("list reminder candidates: %w", err)
	}
	return items, nil
}
