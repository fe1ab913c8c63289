package scoring

import (
	"sort"
	"time"

	"github.com/careerbird/grant-match-api/internal/models"
)

// Rankable reports whether an application takes part in ranking: it has an r_score and has
// entered review.
func Rankable(a models.Application) bool {
	return a.RScore != nil && a.Status.Reviewed()
}

// RankApplications orders the rankable applications of one grant by r_score descending,
// earlier submission first on ties, then id for a total order. It returns copies with
// GlobalRank set to 1..N; unrankable applications are left out.
func RankApplications(apps []models.Application) []models.Application {
	ranked := make([]models.Application, 0, len(apps))
	for _, a := range apps {
		if Rankable(a) {
			ranked = append(ranked, a)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if *a.RScore != *b.RScore {
			return *a.RScore > *b.RScore
		}
		if ta, tb := submitted(a), submitted(b); !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return a.ID < b.ID
	})
	for i := range ranked {
		rank := i + 1
		ranked[i].GlobalRank = &rank
	}
	return ranked
}

// Assignments flattens ranked applications into persistable rank rows.
func Assignments(ranked []models.Application) []models.RankAssignment {
	out := make([]models.RankAssignment, 0, len(ranked))
	for _, a := range ranked {
		if a.GlobalRank != nil {
			out = append(out, models.RankAssignment{ApplicationID: a.ID, Rank: *a.GlobalRank})
		}
	}
	return out
}

// a missing submission time sorts after every real one
func submitted(a models.Application) time.Time {
	if a.SubmittedAt == nil {
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return *a.SubmittedAt
}
