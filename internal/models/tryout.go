package models

import "time"

// TryoutStatus tracks the deliverables bundle of an application.
type TryoutStatus string

const (
	TryoutPending   TryoutStatus = "pending"
	TryoutSubmitted TryoutStatus = "submitted"
	TryoutReviewed  TryoutStatus = "reviewed"
)

// TryoutSubmission holds references to the deliverables uploaded for an application.
type TryoutSubmission struct {
	ID            string       `db:"id" json:"id"`
	ApplicationID string       `db:"application_id" json:"application_id"`
	ProposalRef   *string      `db:"proposal_ref" json:"proposal_ref,omitempty"`
	VideoRef      *string      `db:"video_ref" json:"video_ref,omitempty"`
	PortfolioRef  *string      `db:"portfolio_ref" json:"portfolio_ref,omitempty"`
	CurrentStep   string       `db:"current_step" json:"current_step"`
	Status        TryoutStatus `db:"status" json:"status"`
	SubmittedAt   *time.Time   `db:"submitted_at" json:"submitted_at,omitempty"`
	DueAt         *time.Time   `db:"due_at" json:"due_at,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// HasProposal reports whether a proposal reference is recorded.
func (t *TryoutSubmission) HasProposal() bool { return t != nil && present(t.ProposalRef) }

// HasVideo reports whether a video reference is recorded.
func (t *TryoutSubmission) HasVideo() bool { return t != nil && present(t.VideoRef) }

// HasPortfolio reports whether a portfolio reference is recorded.
func (t *TryoutSubmission) HasPortfolio() bool { return t != nil && present(t.PortfolioRef) }

func present(s *string) bool { return s != nil && *s != "" }
