package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/models"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/export"
)

type applicantLister interface {
	Applicants(ctx context.Context, actor models.Actor, opportunityID string, filter models.ApplicantFilter) ([]models.ApplicationDetail, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders ranked applicant shortlists.
type ExportService struct {
	applicants    applicantLister
	opportunities opportunityReader
	logger        *zap.Logger
	now           func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(applicants applicantLister, opportunities opportunityReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{applicants: applicants, opportunities: opportunities, logger: logger, now: time.Now}
}

var applicantHeaders = []string{"Rank", "Student", "Email", "Status", "R Score", "Match", "Submitted"}

// Applicants renders the applicant queue of a grant in the requested format.
func (s *ExportService) Applicants(ctx context.Context, actor models.Actor, opportunityID, format string) (*ExportFile, error) {
	exporter, err := export.ForFormat(strings.ToLower(format))
	if err != nil {
		return nil, appErrors.Validation("unsupported export format", "format")
	}
	items, err := s.applicants.Applicants(ctx, actor, opportunityID, models.ApplicantFilter{})
	if err != nil {
		return nil, err
	}
	opp, err := s.opportunities.FindByID(ctx, opportunityID)
	if err != nil {
		return nil, lookupError(err, "opportunity not found", "failed to load opportunity")
	}

	data := export.Dataset{Title: fmt.Sprintf("Applicants: %s", opp.Title), Headers: applicantHeaders}
	for _, a := range items {
		data.Rows = append(data.Rows, map[string]string{
			"Rank":      optionalInt(a.GlobalRank),
			"Student":   a.StudentName,
			"Email":     a.StudentEmail,
			"Status":    string(a.Status),
			"R Score":   optionalFloat(a.RScore),
			"Match":     optionalInt(a.MatchScore),
			"Submitted": optionalTime(a.SubmittedAt),
		})
	}
	payload, err := exporter.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	s.logger.Info("applicants exported", zap.String("opportunity_id", opportunityID), zap.String("format", exporter.Extension()), zap.Int("rows", len(items)))
	return &ExportFile{
		Filename:    fmt.Sprintf("applicants-%s-%s.%s", opportunityID, s.now().UTC().Format("20060102"), exporter.Extension()),
		ContentType: exporter.ContentType(),
		Data:        payload,
	}, nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optionalTime(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format("2006-01-02 15:04")
}
