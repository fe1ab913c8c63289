package dto

import "time"

// DashboardStats aggregates a student's applications.
type DashboardStats struct {
	ApplicationsSent  int `json:"applications_sent"`
	PendingReview     int `json:"pending_review"`
	Interviews        int `json:"interviews"`
	DeadlinesThisWeek int `json:"deadlines_this_week"`
}

// DeadlineItem is one upcoming grant deadline.
type DeadlineItem struct {
	ApplicationID    string    `json:"application_id,omitempty"`
	OpportunityID    string    `json:"opportunity_id"`
	OpportunityTitle string    `json:"opportunity_title"`
	Deadline         time.Time `json:"deadline"`
	DaysRemaining    int       `json:"days_remaining"`
	Label            string    `json:"label,omitempty"`
	Tier             string    `json:"tier"`
	Urgent           bool      `json:"urgent"`
}

// Recommendation is the grant highlighted on the dashboard.
type Recommendation struct {
	Opportunity OpportunityView `json:"opportunity"`
	MatchScore  int             `json:"match_score"`
}

// StudentDashboard is the student's landing payload.
type StudentDashboard struct {
	FirstName       string            `json:"first_name"`
	ProfileStrength int               `json:"profile_strength"`
	MissingFields   []string          `json:"missing_fields"`
	Stats           DashboardStats    `json:"stats"`
	ThisWeek        []DeadlineItem    `json:"this_week"`
	Recent          []ApplicationView `json:"recent_applications"`
	Saved           []OpportunityView `json:"saved"`
	Recommended     *Recommendation   `json:"recommended,omitempty"`
}

// JourneyStep is one stage of the pre-departure journey.
type JourneyStep struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// MobilityChecklist is the pre-departure overview for a student.
type MobilityChecklist struct {
	Destination     string         `json:"destination"`
	DestinationCity string         `json:"destination_city,omitempty"`
	Country         string         `json:"destination_country,omitempty"`
	DaysToDeparture int            `json:"days_to_departure"`
	Readiness       int            `json:"readiness"`
	Journey         []JourneyStep  `json:"journey"`
	Documents       []DocumentView `json:"documents"`
	Upcoming        []DeadlineItem `json:"upcoming"`
}
