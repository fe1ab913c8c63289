package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestProfileRepositoryFindByUserID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "first_name", "last_name", "current_degree", "gpa", "gpa_scale", "research_interests", "created_at", "updated_at"}).
		AddRow("p1", "u1", "Ada", "Lovelace", "masters", 3.8, 4.0, "{AI,Math}", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM profiles WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(rows)

	profile, err := repo.FindByUserID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.FirstName)
	assert.Equal(t, models.DegreeMasters, profile.DegreeLevel)
	assert.Equal(t, pq.StringArray{"AI", "Math"}, profile.ResearchInterests)
	require.NotNil(t, profile.GPA)
	assert.InDelta(t, 3.8, *profile.GPA, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryFindByUserIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery("FROM profiles").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUserID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestProfileRepositoryUpsertDefaultsScale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery("(?s)INSERT INTO profiles .* ON CONFLICT \\(user_id\\) DO UPDATE .* RETURNING id, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("fresh-id", time.Now()))

	profile := &models.Profile{UserID: "u1", FirstName: "Ada"}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.Equal(t, "fresh-id", profile.ID)
	assert.Equal(t, models.DefaultGPAScale, profile.GPAScale)
	assert.False(t, profile.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositoryUpsertKeepsStoredIdentity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)
	created := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery("(?s)INSERT INTO profiles .* RETURNING id, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-existing", created))

	profile := &models.Profile{ID: "generated", UserID: "u1", FirstName: "Ada"}
	require.NoError(t, repo.Upsert(context.Background(), profile))
	assert.Equal(t, "p-existing", profile.ID)
	assert.True(t, profile.CreatedAt.Equal(created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepositorySearchJoinsUniversity(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewProfileRepository(db)

	mock.ExpectQuery(`(?s)FROM profiles p LEFT JOIN universities u ON u\.id = p\.university_id\s+WHERE p\.first_name ILIKE \$1 OR p\.last_name ILIKE \$1 OR p\.title ILIKE \$1 .* LIMIT \$2`).
		WithArgs(`%50\%\_o\_k%`, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "first_name", "last_name", "title", "department", "university_id", "university_name"}).
			AddRow("p1", "u1", "Grace", "Hopper", "Professor of Computing", "Computer Science", "uni-1", "Yale University"))

	items, err := repo.Search(context.Background(), " 50%_o_k ", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Hopper", items[0].LastName)
	assert.Equal(t, "Yale University", items[0].University)
	require.NotNil(t, items[0].UniversityID)
	assert.Equal(t, "uni-1", *items[0].UniversityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
