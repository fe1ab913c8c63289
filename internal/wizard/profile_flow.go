package wizard

import (
	"strings"

	"github.com/careerbird/grant-match-api/internal/models"
)

// Profile wizard steps.
const (
	StepIntroduction Step = "introduction"
	StepPersonal     Step = "personal"
	StepAcademic     Step = "academic"
	StepResearch     Step = "research"
	StepDocuments    Step = "documents"
	StepReview       Step = "review"
)

// ProfileSteps is the fixed order of the profile wizard.
var ProfileSteps = []Step{StepIntroduction, StepPersonal, StepAcademic, StepResearch, StepDocuments, StepReview}

// NewProfileMachine builds the profile wizard.
func NewProfileMachine() *Machine[models.ProfileDraft] {
	return NewMachine(ProfileSteps, map[Step]Guard[models.ProfileDraft]{
		StepIntroduction: introductionGuard,
		StepAcademic:     academicGuard,
	})
}

func introductionGuard(d models.ProfileDraft) []string {
	return blank(map[string]string{
		"first_name": d.FirstName,
		"last_name":  d.LastName,
		"email":      d.Email,
	}, "first_name", "last_name", "email")
}

func academicGuard(d models.ProfileDraft) []string {
	missing := blank(map[string]string{
		"university_id":  d.UniversityID,
		"degree_level":   d.DegreeLevel,
		"field_of_study": d.FieldOfStudy,
	}, "university_id", "degree_level", "field_of_study")
	return append(missing, d.OutOfRange()...)
}

func blank(values map[string]string, order ...string) []string {
	var missing []string
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// MergeStep copies the fields owned by step from src into dst. Fields of other steps are
// left untouched so a step submission cannot clear earlier answers.
func MergeStep(step Step, dst *models.ProfileDraft, src models.ProfileDraft) {
	switch step {
	case StepIntroduction:
		dst.FirstName = src.FirstName
		dst.LastName = src.LastName
		dst.Email = src.Email
	case StepPersonal:
		dst.Phone = src.Phone
		dst.Nationality = src.Nationality
		dst.CurrentCountry = src.CurrentCountry
		dst.CurrentCity = src.CurrentCity
		dst.DateOfBirth = src.DateOfBirth
		dst.Bio = src.Bio
	case StepAcademic:
		dst.UniversityID = src.UniversityID
		dst.DegreeLevel = src.DegreeLevel
		dst.FieldOfStudy = src.FieldOfStudy
		dst.GPA = src.GPA
		dst.GPAScale = src.GPAScale
		dst.GraduationYear = src.GraduationYear
		dst.GREVerbal = src.GREVerbal
		dst.GREQuant = src.GREQuant
		dst.GREWriting = src.GREWriting
		dst.TOEFLScore = src.TOEFLScore
	case StepResearch:
		dst.ResearchInterests = src.ResearchInterests
	}
}
