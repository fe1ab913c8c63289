package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/internal/models"
)

func TestOpportunityRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOpportunityRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "type", "degree_levels", "created_at", "updated_at", "university_name"}).
		AddRow("o1", "AI Fellowship", "fellowship", "{masters,phd}", time.Now(), time.Now(), "ETH Zurich")
	mock.ExpectQuery(`FROM opportunities o LEFT JOIN universities u .* o\.degree_levels && \$1 AND \(u\.country = ANY\(\$2\) OR o\.eligible_countries && \$2\) .*LIKE \$3 .* ORDER BY o\.deadline ASC NULLS LAST, o\.id LIMIT 10 OFFSET 10`).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM opportunities o`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	items, total, err := repo.List(context.Background(), models.OpportunityFilter{
		DegreeLevels: []string{"masters"},
		Countries:    []string{"Switzerland"},
		Search:       "Zurich",
		SortBy:       "deadline",
		Page:         2,
		PageSize:     10,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 11, total)
	require.NotNil(t, items[0].UniversityName)
	assert.Equal(t, "ETH Zurich", *items[0].UniversityName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewOpportunityRepository(db)

	mock.ExpectExec("INSERT INTO opportunities").WillReturnResult(sqlmock.NewResult(1, 1))

	opp := &models.Opportunity{Title: "Travel grant", Type: models.OpportunityTravelGrant, CreatedBy: "prof-1"}
	require.NoError(t, repo.Create(context.Background(), opp))
	assert.NotEmpty(t, opp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSavedOpportunityRepositorySavedIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSavedOpportunityRepository(db)

	mock.ExpectQuery(`SELECT opportunity_id FROM saved_opportunities WHERE user_id = \? AND opportunity_id IN \(\?, \?\)`).
		WithArgs("u1", "o1", "o2").
		WillReturnRows(sqlmock.NewRows([]string{"opportunity_id"}).AddRow("o2"))

	saved, err := repo.SavedIDs(context.Background(), "u1", []string{"o1", "o2"})
	require.NoError(t, err)
	assert.False(t, saved["o1"])
	assert.True(t, saved["o2"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 500)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)
}
