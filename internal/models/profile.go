package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// DegreeLevel enumerates academic degrees.
type DegreeLevel string

const (
	DegreeBachelors DegreeLevel = "bachelors"
	DegreeMasters   DegreeLevel = "masters"
	DegreePhD       DegreeLevel = "phd"
)

// Valid reports whether the degree is one of the known levels.
func (d DegreeLevel) Valid() bool {
	switch d {
	case DegreeBachelors, DegreeMasters, DegreePhD:
		return true
	}
	return false
}

// DefaultGPAScale applies when a profile does not state its scale.
const DefaultGPAScale = 4.0

// Profile is one user's academic identity. Text columns are NOT NULL with empty defaults.
type Profile struct {
	ID                string         `db:"id" json:"id"`
	UserID            string         `db:"user_id" json:"user_id"`
	FullName          string         `db:"full_name" json:"full_name"`
	FirstName         string         `db:"first_name" json:"first_name"`
	LastName          string         `db:"last_name" json:"last_name"`
	Email             string         `db:"email" json:"email"`
	Phone             string         `db:"phone" json:"phone"`
	Nationality       string         `db:"nationality" json:"nationality"`
	CurrentCountry    string         `db:"current_country" json:"current_country"`
	CurrentCity       string         `db:"current_city" json:"current_city"`
	DateOfBirth       *time.Time     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Bio               string         `db:"bio" json:"bio"`
	UniversityID      *string        `db:"university_id" json:"university_id,omitempty"`
	DegreeLevel       DegreeLevel    `db:"current_degree" json:"current_degree"`
	FieldOfStudy      string         `db:"field_of_study" json:"field_of_study"`
	GPA               *float64       `db:"gpa" json:"gpa,omitempty"`
	GPAScale          float64        `db:"gpa_scale" json:"gpa_scale"`
	GraduationYear    *int           `db:"graduation_year" json:"graduation_year,omitempty"`
	GREVerbal         *int           `db:"gre_verbal" json:"gre_verbal,omitempty"`
	GREQuant          *int           `db:"gre_quant" json:"gre_quant,omitempty"`
	GREWriting        *float64       `db:"gre_writing" json:"gre_writing,omitempty"`
	TOEFLScore        *int           `db:"toefl_score" json:"toefl_score,omitempty"`
	ResearchInterests pq.StringArray `db:"research_interests" json:"research_interests"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// ProfileDraft is the form accumulated by the profile wizard. Research interests are
// entered as comma separated text and split on save.
type ProfileDraft struct {
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Email             string   `json:"email" validate:"omitempty,email"`
	Phone             string   `json:"phone"`
	Nationality       string   `json:"nationality"`
	CurrentCountry    string   `json:"current_country"`
	CurrentCity       string   `json:"current_city"`
	DateOfBirth       string   `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Bio               string   `json:"bio" validate:"max=2000"`
	UniversityID      string   `json:"university_id"`
	DegreeLevel       string   `json:"degree_level" validate:"omitempty,oneof=bachelors masters phd"`
	FieldOfStudy      string   `json:"field_of_study"`
	GPA               *float64 `json:"gpa,omitempty"`
	GPAScale          *float64 `json:"gpa_scale,omitempty" validate:"omitempty,gt=0"`
	GraduationYear    *int     `json:"graduation_year,omitempty"`
	GREVerbal         *int     `json:"gre_verbal,omitempty" validate:"omitempty,min=130,max=170"`
	GREQuant          *int     `json:"gre_quant,omitempty" validate:"omitempty,min=130,max=170"`
	GREWriting        *float64 `json:"gre_writing,omitempty" validate:"omitempty,min=0,max=6"`
	TOEFLScore        *int     `json:"toefl_score,omitempty" validate:"omitempty,min=0,max=120"`
	ResearchInterests string   `json:"research_interests"`
}

// SplitInterests turns comma separated text into trimmed, non-empty tags.
func SplitInterests(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// OutOfRange lists the numeric fields of the draft that fall outside their bounds: the GPA
// against the stated scale and the graduation year against 1900..2100.
func (d ProfileDraft) OutOfRange() []string {
	var fields []string
	scale := DefaultGPAScale
	if d.GPAScale != nil && *d.GPAScale > 0 {
		scale = *d.GPAScale
	}
	if d.GPA != nil && (*d.GPA < 0 || *d.GPA > scale) {
		fields = append(fields, "gpa")
	}
	if d.GraduationYear != nil && (*d.GraduationYear < 1900 || *d.GraduationYear > 2100) {
		fields = append(fields, "graduation_year")
	}
	return fields
}

// ToProfile maps the draft onto a profile owned by userID.
func (d ProfileDraft) ToProfile(userID string) *Profile {
	p := &Profile{
		UserID:            userID,
		FirstName:         strings.TrimSpace(d.FirstName),
		LastName:          strings.TrimSpace(d.LastName),
		Email:             strings.TrimSpace(d.Email),
		Phone:             strings.TrimSpace(d.Phone),
		Nationality:       strings.TrimSpace(d.Nationality),
		CurrentCountry:    strings.TrimSpace(d.CurrentCountry),
		CurrentCity:       strings.TrimSpace(d.CurrentCity),
		Bio:               strings.TrimSpace(d.Bio),
		DegreeLevel:       DegreeLevel(strings.TrimSpace(d.DegreeLevel)),
		FieldOfStudy:      strings.TrimSpace(d.FieldOfStudy),
		GPA:               d.GPA,
		GPAScale:          DefaultGPAScale,
		GraduationYear:    d.GraduationYear,
		GREVerbal:         d.GREVerbal,
		GREQuant:          d.GREQuant,
		GREWriting:        d.GREWriting,
		TOEFLScore:        d.TOEFLScore,
		ResearchInterests: pq.StringArray(SplitInterests(d.ResearchInterests)),
	}
	p.FullName = strings.TrimSpace(p.FirstName + " " + p.LastName)
	if d.GPAScale != nil && *d.GPAScale > 0 {
		p.GPAScale = *d.GPAScale
	}
	if id := strings.TrimSpace(d.UniversityID); id != "" {
		p.UniversityID = &id
	}
	if d.DateOfBirth != "" {
		if dob, err := time.Parse("2006-01-02", d.DateOfBirth); err == nil {
			p.DateOfBirth = &dob
		}
	}
	return p
}

// DraftFromProfile seeds a wizard form from a stored profile.
func DraftFromProfile(p *Profile) ProfileDraft {
	if p == nil {
		return ProfileDraft{}
	}
	d := ProfileDraft{
		FirstName:         p.FirstName,
		LastName:          p.LastName,
		Email:             p.Email,
		Phone:             p.Phone,
		Nationality:       p.Nationality,
		CurrentCountry:    p.CurrentCountry,
		CurrentCity:       p.CurrentCity,
		Bio:               p.Bio,
		DegreeLevel:       string(p.DegreeLevel),
		FieldOfStudy:      p.FieldOfStudy,
		GPA:               p.GPA,
		GraduationYear:    p.GraduationYear,
		GREVerbal:         p.GREVerbal,
		GREQuant:          p.GREQuant,
		GREWriting:        p.GREWriting,
		TOEFLScore:        p.TOEFLScore,
		ResearchInterests: strings.Join(p.ResearchInterests, ", "),
	}
	if p.GPAScale > 0 {
		scale := p.GPAScale
		d.GPAScale = &scale
	}
	if p.UniversityID != nil {
		d.UniversityID = *p.UniversityID
	}
	if p.DateOfBirth != nil {
		d.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
	}
	return d
}

// ProfileSearchResult is one directory entry returned by profile search.
type ProfileSearchResult struct {
	ID           string  `db:"id" json:"id"`
	UserID       string  `db:"user_id" json:"user_id"`
	FirstName    string  `db:"first_name" json:"-"`
	LastName     string  `db:"last_name" json:"-"`
	Name         string  `db:"-" json:"name"`
	Title        string  `db:"title" json:"title"`
	Department   string  `db:"department" json:"department"`
	UniversityID *string `db:"university_id" json:"university_id,omitempty"`
	University   string  `db:"university_name" json:"university"`
}

// ProfileDocumentKind classifies supporting documents.
type ProfileDocumentKind string

const (
	DocumentTranscript     ProfileDocumentKind = "transcript"
	DocumentCV             ProfileDocumentKind = "cv"
	DocumentRecommendation ProfileDocumentKind = "recommendation"
	DocumentOther          ProfileDocumentKind = "other"
)

// Valid reports whether the kind is known.
func (k ProfileDocumentKind) Valid() bool {
	switch k {
	case DocumentTranscript, DocumentCV, DocumentRecommendation, DocumentOther:
		return true
	}
	return false
}

// ProfileDocument is a file uploaded from the documents step of the wizard.
type ProfileDocument struct {
	ID         string              `db:"id" json:"id"`
	UserID     string              `db:"user_id" json:"user_id"`
	Kind       ProfileDocumentKind `db:"kind" json:"kind"`
	Reference  string              `db:"reference" json:"reference"`
	Filename   string              `db:"filename" json:"filename"`
	MimeType   string              `db:"mime_type" json:"mime_type"`
	SizeBytes  int64               `db:"size_bytes" json:"size_bytes"`
	PageCount  *int                `db:"page_count" json:"page_count,omitempty"`
	UploadedAt time.Time           `db:"uploaded_at" json:"uploaded_at"`
}

// WizardSession holds the profile wizard position and form between requests.
type WizardSession struct {
	UserID    string       `json:"user_id"`
	Step      string       `json:"step"`
	Form      ProfileDraft `json:"form"`
	UpdatedAt time.Time    `json:"updated_at"`
}
