package dto

import "github.com/careerbird/grant-match-api/internal/models"

// WizardStep is one entry of a wizard step list.
type WizardStep struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	Current  bool   `json:"current"`
	Complete bool   `json:"complete"`
}

// ProfileWizardState is returned by every profile wizard call.
type ProfileWizardState struct {
	CurrentStep string              `json:"current_step"`
	Steps       []WizardStep        `json:"steps"`
	Progress    int                 `json:"progress"`
	Completion  int                 `json:"completion"`
	Form        models.ProfileDraft `json:"form"`
	Completed   bool                `json:"completed"`
	Redirect    string              `json:"redirect,omitempty"`
}

// JumpRequest targets a step directly.
type JumpRequest struct {
	Step string `json:"step" validate:"required"`
}

// TryoutState is returned by every tryout wizard call.
type TryoutState struct {
	Submission  *models.TryoutSubmission `json:"submission"`
	CurrentStep string                   `json:"current_step"`
	Steps       []WizardStep             `json:"steps"`
	CanSubmit   bool                     `json:"can_submit"`
	Missing     []string                 `json:"missing,omitempty"`
	Completed   bool                     `json:"completed"`
	Upload      *UploadResult            `json:"upload,omitempty"`
}
