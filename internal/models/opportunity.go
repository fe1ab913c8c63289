package models

import (
	"time"

	"github.com/lib/pq"
)

// OpportunityType enumerates the kinds of funded positions.
type OpportunityType string

const (
	OpportunityScholarship   OpportunityType = "scholarship"
	OpportunityFellowship    OpportunityType = "fellowship"
	OpportunityResearchGrant OpportunityType = "research_grant"
	OpportunityTravelGrant   OpportunityType = "travel_grant"
)

// University is reference data joined into grant listings.
type University struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Country string `db:"country" json:"country"`
	City    string `db:"city" json:"city"`
}

// Opportunity is a funded academic position students can apply to.
type Opportunity struct {
	ID                string          `db:"id" json:"id"`
	Title             string          `db:"title" json:"title"`
	Description       string          `db:"description" json:"description"`
	Type              OpportunityType `db:"type" json:"type"`
	UniversityID      *string         `db:"university_id" json:"university_id,omitempty"`
	CreatedBy         string          `db:"created_by" json:"created_by"`
	DegreeLevels      pq.StringArray  `db:"degree_levels" json:"degree_levels"`
	FieldsOfStudy     pq.StringArray  `db:"fields_of_study" json:"fields_of_study"`
	EligibleCountries pq.StringArray  `db:"eligible_countries" json:"eligible_countries"`
	MinGPA            *float64        `db:"min_gpa" json:"min_gpa,omitempty"`
	FundingAmount     string          `db:"funding_amount" json:"funding_amount"`
	MonthlyStipend    *string         `db:"monthly_stipend" json:"monthly_stipend,omitempty"`
	CoversTuition     bool            `db:"covers_tuition" json:"covers_tuition"`
	CoversLiving      bool            `db:"covers_living" json:"covers_living"`
	Deadline          *time.Time      `db:"deadline" json:"deadline,omitempty"`
	StartDate         *time.Time      `db:"start_date" json:"start_date,omitempty"`
	DurationMonths    *int            `db:"duration_months" json:"duration_months,omitempty"`
	Language          string          `db:"language" json:"language"`
	ApplicationURL    string          `db:"application_url" json:"application_url"`
	Featured          bool            `db:"featured" json:"featured"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// OpportunityDetail joins the owning university.
type OpportunityDetail struct {
	Opportunity
	UniversityName    *string `db:"university_name" json:"university_name,omitempty"`
	UniversityCountry *string `db:"university_country" json:"university_country,omitempty"`
	UniversityCity    *string `db:"university_city" json:"university_city,omitempty"`
}

// OpportunityFilter encapsulates the listing filters.
type OpportunityFilter struct {
	Search       string
	DegreeLevels []string
	Countries    []string
	Fields       []string
	Type         string
	Featured     *bool
	OpenOnly     bool
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// SavedOpportunity is a student's bookmark of a grant.
type SavedOpportunity struct {
	UserID        string    `db:"user_id" json:"user_id"`
	OpportunityID string    `db:"opportunity_id" json:"opportunity_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
