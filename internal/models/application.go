package models

import "time"

// ApplicationStatus is ordered by progress.
type ApplicationStatus string

const (
	ApplicationDraft       ApplicationStatus = "draft"
	ApplicationSubmitted   ApplicationStatus = "submitted"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationInterview   ApplicationStatus = "interview"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
)

var statusOrder = map[ApplicationStatus]int{
	ApplicationDraft:       0,
	ApplicationSubmitted:   1,
	ApplicationUnderReview: 2,
	ApplicationShortlisted: 3,
	ApplicationInterview:   4,
	ApplicationAccepted:    5,
	ApplicationRejected:    5,
}

// Valid reports whether the status is known.
func (s ApplicationStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Order returns the progress position; accepted and rejected share the last slot.
func (s ApplicationStatus) Order() int {
	if o, ok := statusOrder[s]; ok {
		return o
	}
	return -1
}

// Terminal reports whether no further transition is allowed.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationAccepted || s == ApplicationRejected
}

// Reviewed reports whether the application has entered review or later.
func (s ApplicationStatus) Reviewed() bool {
	return s.Order() >= statusOrder[ApplicationUnderReview]
}

// CanTransitionTo enforces forward-only movement out of non-terminal states.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	return next.Order() > s.Order()
}

// Application is one student's pursuit of one opportunity.
type Application struct {
	ID            string            `db:"id" json:"id"`
	StudentID     string            `db:"student_id" json:"student_id"`
	OpportunityID string            `db:"opportunity_id" json:"opportunity_id"`
	Status        ApplicationStatus `db:"status" json:"status"`
	SubmittedAt   *time.Time        `db:"submitted_at" json:"submitted_at,omitempty"`
	ReviewedAt    *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	DecidedAt     *time.Time        `db:"decided_at" json:"decided_at,omitempty"`
	MatchScore    *int              `db:"match_score" json:"match_score,omitempty"`
	RScore        *float64          `db:"r_score" json:"r_score,omitempty"`
	GlobalRank    *int              `db:"global_rank" json:"global_rank,omitempty"`
	ReviewerNotes *string           `db:"reviewer_notes" json:"reviewer_notes,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// ApplicationDetail joins the grant and applicant summaries.
type ApplicationDetail struct {
	Application
	OpportunityTitle     string     `db:"opportunity_title" json:"opportunity_title"`
	OpportunityDeadline  *time.Time `db:"opportunity_deadline" json:"opportunity_deadline,omitempty"`
	OpportunityCreatedBy string     `db:"opportunity_created_by" json:"-"`
	StudentName          string     `db:"student_name" json:"student_name"`
	StudentEmail         string     `db:"student_email" json:"student_email"`
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	StudentID     string
	OpportunityID string
	Statuses      []ApplicationStatus
	Page          int
	PageSize      int
}

// ApplicantFilter narrows a grant's applicant queue. Query matches the applicant's name,
// application id, nationality, country, university, research interests and status.
type ApplicantFilter struct {
	Query    string
	Statuses []ApplicationStatus
}

// ApplicationStatusCount is one row of a per-status aggregate.
type ApplicationStatusCount struct {
	Status ApplicationStatus `db:"status" json:"status"`
	Total  int               `db:"total" json:"total"`
}

// ApplicationReview is the professor's decision on an application. From is the status the
// decision was made against; the write only applies while the row still holds it.
type ApplicationReview struct {
	From   ApplicationStatus
	Status ApplicationStatus
	RScore *float64
	Notes  *string
	At     time.Time
}

// RankAssignment persists one computed global rank.
type RankAssignment struct {
	ApplicationID string
	Rank          int
}

// ReminderCandidate is an open application whose grant deadline is close.
type ReminderCandidate struct {
	ApplicationID    string            `db:"application_id"`
	StudentID        string            `db:"student_id"`
	StudentEmail     string            `db:"student_email"`
	OpportunityID    string            `db:"opportunity_id"`
	OpportunityTitle string            `db:"opportunity_title"`
	Status           ApplicationStatus `db:"status"`
	Deadline         time.Time         `db:"deadline"`
}
