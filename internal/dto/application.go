package dto

import (
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
)

// ApplicationView is an application with the urgency of its grant deadline.
type ApplicationView struct {
	models.ApplicationDetail
	Urgency *scoring.Urgency `json:"urgency,omitempty"`
}

// ReviewRequest carries a professor's decision.
type ReviewRequest struct {
	Status string   `json:"status" validate:"required,oneof=under_review shortlisted interview accepted rejected"`
	RScore *float64 `json:"r_score" validate:"omitempty,min=0,max=100"`
	Notes  *string  `json:"notes" validate:"omitempty,max=5000"`
}
