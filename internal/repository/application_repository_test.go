package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/models"
)

func TestApplicationRepositoryCreateDraftIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO applications .* ON CONFLICT \(student_id, opportunity_id\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM applications a WHERE a\.student_id = \$1 AND a\.opportunity_id = \$2`).
		WithArgs("s1", "o1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "opportunity_id", "status", "created_at", "updated_at"}).
			AddRow("a-existing", "s1", "o1", "submitted", time.Now(), time.Now()))

	app, created, err := repo.CreateDraft(context.Background(), "s1", "o1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "a-existing", app.ID)
	assert.Equal(t, models.ApplicationSubmitted, app.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryMarkSubmittedRequiresDraft(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec(`UPDATE applications SET status = \$2, submitted_at = \$3, match_score = \$4`).
		WithArgs("a1", "submitted", sqlmock.AnyArg(), 86, "draft").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSubmitted(context.Background(), "a1", 86, time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryApplyReviewGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)UPDATE applications SET status = \$2, .* WHERE id = \$1 AND status = \$7 AND status NOT IN \(\$8, \$9\)`).
		WithArgs("a1", "accepted", nil, nil, at, sqlmock.AnyArg(), "interview", "accepted", "rejected").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyReview(context.Background(), "a1", models.ApplicationReview{
		From:   models.ApplicationInterview,
		Status: models.ApplicationAccepted,
		At:     at,
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryApplyReviewUpdatesRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE applications SET status = \$2`).
		WithArgs("a1", "shortlisted", sqlmock.AnyArg(), sqlmock.AnyArg(), at, nil, "submitted", "accepted", "rejected").
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := 81.5
	err := repo.ApplyReview(context.Background(), "a1", models.ApplicationReview{
		From:   models.ApplicationSubmitted,
		Status: models.ApplicationShortlisted,
		RScore: &score,
		At:     at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListByOpportunityFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(`(?s)LEFT JOIN universities u ON u\.id = p\.university_id WHERE a\.opportunity_id = \$1 AND a\.status <> \$2 AND \(COALESCE\(p\.full_name, ''\) ILIKE \$3 OR a\.id ILIKE \$3 .* array_to_string\(p\.research_interests, ' '\) ILIKE \$3 OR a\.status ILIKE \$3\) AND a\.status = ANY\(\$4\) ORDER BY a\.global_rank`).
		WithArgs("o1", "draft", "%Ocean%", pq.StringArray{"shortlisted", "interview"}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "opportunity_id", "status", "student_name"}).
			AddRow("a1", "o1", "shortlisted", "Ada Lovelace"))

	items, err := repo.ListByOpportunity(context.Background(), "o1", models.ApplicantFilter{
		Query:    "  Ocean ",
		Statuses: []models.ApplicationStatus{models.ApplicationShortlisted, models.ApplicationInterview},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ada Lovelace", items[0].StudentName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryListByOpportunityUnfiltered(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(`WHERE a\.opportunity_id = \$1 AND a\.status <> \$2 ORDER BY`).
		WithArgs("o1", "draft").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	items, err := repo.ListByOpportunity(context.Background(), "o1", models.ApplicantFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryReplaceRanks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE applications SET global_rank = NULL WHERE opportunity_id = \$1`).
		WithArgs("o1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE applications SET global_rank = \$2 WHERE id = \$1`).
		WithArgs("a2", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE applications SET global_rank = \$2 WHERE id = \$1`).
		WithArgs("a1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ReplaceRanks(context.Background(), "o1", []models.RankAssignment{
		{ApplicationID: "a2", Rank: 1},
		{ApplicationID: "a1", Rank: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryReplaceRanksRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SET global_rank = NULL`).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.ReplaceRanks(context.Background(), "o1", nil)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS total FROM applications WHERE student_id = \$1 GROUP BY status`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).AddRow("submitted", 2).AddRow("interview", 1))

	rows, err := repo.CountByStatus(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ApplicationInterview, rows[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryoutRepositoryUpsertDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTryoutRepository(db)

	mock.ExpectExec(`(?s)INSERT INTO tryout_submissions .* ON CONFLICT \(application_id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sub := &models.TryoutSubmission{ApplicationID: "a1", CurrentStep: "proposal-upload"}
	require.NoError(t, repo.Upsert(context.Background(), sub))
	assert.Equal(t, models.TryoutPending, sub.Status)
	assert.NotEmpty(t, sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
