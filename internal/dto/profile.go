package dto

import "github.com/careerbird/grant-match-api/internal/models"

// Completion reports profile completeness in both scoring modes.
type Completion struct {
	Dashboard int      `json:"dashboard"`
	Wizard    int      `json:"wizard"`
	Missing   []string `json:"missing"`
}

// ProfileResponse is the stored profile plus computed completeness.
type ProfileResponse struct {
	Profile    *models.Profile `json:"profile"`
	Completion Completion      `json:"completion"`
}

// UploadResult describes a stored file.
type UploadResult struct {
	Reference string   `json:"reference"`
	URL       string   `json:"url,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	PageCount int      `json:"page_count,omitempty"`
}

// DocumentView is a profile document with a retrievable URL.
type DocumentView struct {
	models.ProfileDocument
	URL string `json:"url,omitempty"`
}
