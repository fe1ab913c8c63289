package dto

import (
	"time"

	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
)

// OpportunityView is a grant with read-time derived fields.
type OpportunityView struct {
	models.OpportunityDetail
	Urgency    *scoring.Urgency `json:"urgency,omitempty"`
	MatchScore *int             `json:"match_score,omitempty"`
	Saved      bool             `json:"saved"`
}

// OpportunityRequest is the payload for creating or updating a grant.
type OpportunityRequest struct {
	Title             string     `json:"title" validate:"required,max=300"`
	Description       string     `json:"description" validate:"max=10000"`
	Type              string     `json:"type" validate:"required,oneof=scholarship fellowship research_grant travel_grant"`
	UniversityID      *string    `json:"university_id" validate:"omitempty,uuid"`
	DegreeLevels      []string   `json:"degree_levels" validate:"dive,oneof=bachelors masters phd"`
	FieldsOfStudy     []string   `json:"fields_of_study"`
	EligibleCountries []string   `json:"eligible_countries"`
	MinGPA            *float64   `json:"min_gpa" validate:"omitempty,min=0,max=10"`
	FundingAmount     string     `json:"funding_amount" validate:"max=200"`
	MonthlyStipend    *string    `json:"monthly_stipend" validate:"omitempty,max=200"`
	CoversTuition     bool       `json:"covers_tuition"`
	CoversLiving      bool       `json:"covers_living"`
	Deadline          *time.Time `json:"deadline"`
	StartDate         *time.Time `json:"start_date"`
	DurationMonths    *int       `json:"duration_months" validate:"omitempty,min=1,max=120"`
	Language          string     `json:"language" validate:"max=100"`
	ApplicationURL    string     `json:"application_url" validate:"omitempty,url"`
	Featured          bool       `json:"featured"`
}

// Apply copies the request onto o. Ownership fields are left alone.
func (r OpportunityRequest) Apply(o *models.Opportunity) {
	o.Title = r.Title
	o.Description = r.Description
	o.Type = models.OpportunityType(r.Type)
	o.UniversityID = r.UniversityID
	o.DegreeLevels = r.DegreeLevels
	o.FieldsOfStudy = r.FieldsOfStudy
	o.EligibleCountries = r.EligibleCountries
	o.MinGPA = r.MinGPA
	o.FundingAmount = r.FundingAmount
	o.MonthlyStipend = r.MonthlyStipend
	o.CoversTuition = r.CoversTuition
	o.CoversLiving = r.CoversLiving
	o.Deadline = r.Deadline
	o.StartDate = r.StartDate
	o.DurationMonths = r.DurationMonths
	o.Language = r.Language
	o.ApplicationURL = r.ApplicationURL
	o.Featured = r.Featured
}
