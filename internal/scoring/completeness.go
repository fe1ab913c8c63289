// Package scoring holds the pure computations behind dashboards, listings and review
// queues: profile completeness, deadline urgency, match scores and applicant ranking.
package scoring

import (
	"math"
	"strings"

	"github.com/careerbird/grant-match-api/internal/models"
)

// CompletenessMode selects which field set a completeness score counts.
type CompletenessMode int

const (
	// ModeDashboard counts seven fields and accepts the full name for first or last name.
	ModeDashboard CompletenessMode = iota
	// ModeWizard counts six fields as entered through the profile wizard.
	ModeWizard
)

func (m CompletenessMode) String() string {
	if m == ModeWizard {
		return "wizard"
	}
	return "dashboard"
}

type fieldCheck struct {
	name    string
	present func(p *models.Profile) bool
}

var dashboardFields = []fieldCheck{
	{"first_name", func(p *models.Profile) bool { return filled(p.FirstName) || filled(p.FullName) }},
	{"last_name", func(p *models.Profile) bool { return filled(p.LastName) || filled(p.FullName) }},
	{"bio", func(p *models.Profile) bool { return filled(p.Bio) }},
	{"current_degree", func(p *models.Profile) bool { return filled(string(p.DegreeLevel)) }},
	{"field_of_study", func(p *models.Profile) bool { return filled(p.FieldOfStudy) }},
	{"gpa", hasGPA},
	{"research_interests", func(p *models.Profile) bool { return len(p.ResearchInterests) > 0 }},
}

var wizardFields = []fieldCheck{
	{"first_name", func(p *models.Profile) bool { return filled(p.FirstName) }},
	{"last_name", func(p *models.Profile) bool { return filled(p.LastName) }},
	{"current_degree", func(p *models.Profile) bool { return filled(string(p.DegreeLevel)) }},
	{"field_of_study", func(p *models.Profile) bool { return filled(p.FieldOfStudy) }},
	{"gpa", hasGPA},
	{"research_interests", func(p *models.Profile) bool { return filled(strings.Join(p.ResearchInterests, ", ")) }},
}

func fields(mode CompletenessMode) []fieldCheck {
	if mode == ModeWizard {
		return wizardFields
	}
	return dashboardFields
}

// Completeness returns round(present / counted * 100). A nil profile scores 0.
func Completeness(p *models.Profile, mode CompletenessMode) int {
	if p == nil {
		return 0
	}
	checks := fields(mode)
	present := 0
	for _, f := range checks {
		if f.present(p) {
			present++
		}
	}
	return int(math.Round(float64(present) / float64(len(checks)) * 100))
}

// MissingFields lists the counted fields that are absent, in display order.
func MissingFields(p *models.Profile, mode CompletenessMode) []string {
	checks := fields(mode)
	missing := make([]string, 0, len(checks))
	for _, f := range checks {
		if p == nil || !f.present(p) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func filled(s string) bool {
	return strings.TrimSpace(s) != ""
}

// hasGPA treats zero as absent, matching how the form leaves the field blank.
func hasGPA(p *models.Profile) bool {
	return p.GPA != nil && *p.GPA != 0
}
