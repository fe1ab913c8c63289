package wizard

import "github.com/careerbird/grant-match-api/internal/models"

// Tryout deliverable steps.
const (
	StepProposalUpload  Step = "proposal-upload"
	StepVideoUpload     Step = "video-upload"
	StepPortfolioUpload Step = "portfolio-upload"
	StepSubmitted       Step = "submitted"
)

// TryoutSteps is the fixed order of the deliverables wizard.
var TryoutSteps = []Step{StepProposalUpload, StepVideoUpload, StepPortfolioUpload, StepSubmitted}

// NewTryoutMachine builds the deliverables wizard. Leaving the portfolio step submits, so it
// requires both mandatory files; the portfolio itself never gates.
func NewTryoutMachine() *Machine[*models.TryoutSubmission] {
	return NewMachine(TryoutSteps, map[Step]Guard[*models.TryoutSubmission]{
		StepProposalUpload:  func(t *models.TryoutSubmission) []string { return need(t.HasProposal(), "proposal") },
		StepVideoUpload:     func(t *models.TryoutSubmission) []string { return need(t.HasVideo(), "video") },
		StepPortfolioUpload: SubmitBlockers,
	})
}

// SubmitBlockers lists the missing deliverables that keep submission disabled.
func SubmitBlockers(t *models.TryoutSubmission) []string {
	var missing []string
	if !t.HasProposal() {
		missing = append(missing, "proposal")
	}
	if !t.HasVideo() {
		missing = append(missing, "video")
	}
	return missing
}

// CanSubmit reports whether the submit control is enabled.
func CanSubmit(t *models.TryoutSubmission) bool {
	return len(SubmitBlockers(t)) == 0
}

func need(ok bool, field string) []string {
	if ok {
		return nil
	}
	return []string{field}
}
