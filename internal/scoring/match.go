package scoring

import (
	"math"
	"strings"

	"github.com/careerbird/grant-match-api/internal/models"
)

// Match modes.
const (
	MatchWeighted = "weighted"
	MatchLegacy   = "legacy"
)

// LegacyMatchScore is the fixed percentage shown for a recommended grant before real scoring.
const LegacyMatchScore = 98

const (
	weightField    = 30.0
	weightResearch = 25.0
	weightCountry  = 20.0
	weightGPA      = 15.0
	weightDegree   = 10.0
)

// Matcher computes student-facing compatibility between a profile and a grant.
type Matcher struct {
	mode   string
	legacy int
}

// NewMatcher returns a matcher in the given mode. Unknown modes fall back to weighted.
func NewMatcher(mode string, legacy int) *Matcher {
	if mode != MatchLegacy {
		mode = MatchWeighted
	}
	if legacy <= 0 || legacy > 100 {
		legacy = LegacyMatchScore
	}
	return &Matcher{mode: mode, legacy: legacy}
}

// Mode reports the active mode.
func (m *Matcher) Mode() string { return m.mode }

type component struct {
	weight float64
	value  float64
}

// Score returns a value in [0,100]. In weighted mode every criterion the grant (or the
// profile, for research interests) defines contributes; with no criterion at all the legacy
// constant is returned.
func (m *Matcher) Score(p *models.Profile, o *models.Opportunity) int {
	if m.mode == MatchLegacy {
		return m.legacy
	}
	if o == nil {
		return 0
	}
	if p == nil {
		p = &models.Profile{}
	}

	parts := make([]component, 0, 5)
	if len(o.FieldsOfStudy) > 0 {
		parts = append(parts, component{weightField, boolValue(fieldMatches(p.FieldOfStudy, o.FieldsOfStudy))})
	}
	if len(p.ResearchInterests) > 0 {
		parts = append(parts, component{weightResearch, researchOverlap(p.ResearchInterests, o)})
	}
	if len(o.EligibleCountries) > 0 {
		eligible := containsFold(o.EligibleCountries, p.Nationality) || containsFold(o.EligibleCountries, p.CurrentCountry)
		parts = append(parts, component{weightCountry, boolValue(eligible)})
	}
	if o.MinGPA != nil && *o.MinGPA > 0 {
		parts = append(parts, component{weightGPA, gpaValue(p, *o.MinGPA)})
	}
	if len(o.DegreeLevels) > 0 {
		parts = append(parts, component{weightDegree, boolValue(containsFold(o.DegreeLevels, string(p.DegreeLevel)))})
	}

	if len(parts) == 0 {
		return m.legacy
	}
	var total, weights float64
	for _, c := range parts {
		total += c.weight * c.value
		weights += c.weight
	}
	return clamp(int(math.Round(total * 100 / weights)))
}

func fieldMatches(field string, accepted []string) bool {
	field = strings.ToLower(strings.TrimSpace(field))
	if field == "" {
		return false
	}
	for _, a := range accepted {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if strings.Contains(field, a) || strings.Contains(a, field) {
			return true
		}
	}
	return false
}

// researchOverlap is the share of interests mentioned by the grant, saturating at three hits.
func researchOverlap(interests []string, o *models.Opportunity) float64 {
	corpus := strings.ToLower(o.Title + " " + o.Description + " " + strings.Join(o.FieldsOfStudy, " "))
	hits := 0
	for _, tag := range interests {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && strings.Contains(corpus, tag) {
			hits++
		}
	}
	need := len(interests)
	if need > 3 {
		need = 3
	}
	if hits >= need {
		return 1
	}
	return float64(hits) / float64(need)
}

// gpaValue normalises the student's GPA to a 4.0 scale and loses a full point of credit per
// grade point below the minimum.
func gpaValue(p *models.Profile, min float64) float64 {
	if p.GPA == nil || *p.GPA <= 0 {
		return 0
	}
	scale := p.GPAScale
	if scale <= 0 {
		scale = models.DefaultGPAScale
	}
	gpa := *p.GPA / scale * models.DefaultGPAScale
	if gpa >= min {
		return 1
	}
	return math.Max(0, 1-(min-gpa))
}

func containsFold(list []string, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), value) {
			return true
		}
	}
	return false
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
