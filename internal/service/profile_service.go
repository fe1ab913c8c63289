package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/upload"
)

type profileRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
}

type profileDirectory interface {
	profileRepository
	Search(ctx context.Context, q string, limit int) ([]models.ProfileSearchResult, error)
}

type universityChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type documentRepository interface {
	Create(ctx context.Context, doc *models.ProfileDocument) error
	ListByUser(ctx context.Context, userID string) ([]models.ProfileDocument, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}

// Profile search bounds.
const (
	profileSearchMinQuery = 2
	profileSearchLimit    = 10
)

// ProfileService manages student profiles and their supporting documents.
type ProfileService struct {
	repo         profileDirectory
	universities universityChecker
	documents    documentRepository
	files        *FileUploader
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileDirectory, universities universityChecker, documents documentRepository, files *FileUploader, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, universities: universities, documents: documents, files: files, validator: validate, logger: logger}
}

// Get returns the caller's profile with completeness in both modes. A user without a stored
// profile gets an empty one scoring 0.
func (s *ProfileService) Get(ctx context.Context, actor models.Actor) (*dto.ProfileResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	profile, err := s.repo.FindByUserID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, internalError(err, "failed to load profile")
		}
		profile = &models.Profile{UserID: actor.UserID, Email: actor.Email, GPAScale: models.DefaultGPAScale}
	}
	return profileResponse(profile), nil
}

// Update replaces the caller's profile with the submitted form.
func (s *ProfileService) Update(ctx context.Context, actor models.Actor, form models.ProfileDraft) (*dto.ProfileResponse, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(form); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	if fields := form.OutOfRange(); len(fields) > 0 {
		return nil, appErrors.Validation("values out of range", fields...)
	}
	if err := checkUniversity(ctx, s.universities, form.UniversityID); err != nil {
		return nil, err
	}

	profile := form.ToProfile(actor.UserID)
	if err := s.repo.Upsert(ctx, profile); err != nil {
		s.logger.Warn("profile upsert failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, appErrors.SaveFailed(err)
	}
	return profileResponse(profile), nil
}

// UploadDocument stores a supporting document for the caller.
func (s *ProfileService) UploadDocument(ctx context.Context, actor models.Actor, kind, filename string, f upload.File, size int64) (*dto.DocumentView, []string, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	docKind := models.ProfileDocumentKind(kind)
	if !docKind.Valid() {
		return nil, nil, appErrors.Validation("unknown document kind", "kind")
	}
	obj, report, err := s.files.put(ctx, kind, filename, f, size, "documents", actor.UserID, kind)
	if err != nil {
		return nil, nil, err
	}

	doc := &models.ProfileDocument{
		UserID:     actor.UserID,
		Kind:       docKind,
		Reference:  obj.Key,
		Filename:   report.Filename,
		MimeType:   report.ContentType,
		SizeBytes:  size,
		UploadedAt: time.Now().UTC(),
	}
	if report.PageCount > 0 {
		pages := report.PageCount
		doc.PageCount = &pages
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if derr := s.files.discard(ctx, obj.Key); derr != nil {
			s.logger.Warn("discard orphaned document", zap.String("key", obj.Key), zap.Error(derr))
		}
		return nil, nil, appErrors.SaveFailed(err)
	}
	return &dto.DocumentView{ProfileDocument: *doc, URL: s.files.url(ctx, doc.Reference)}, report.Warnings, nil
}

// ListDocuments returns the caller's documents with download URLs.
func (s *ProfileService) ListDocuments(ctx context.Context, actor models.Actor) ([]dto.DocumentView, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to list documents")
	}
	views := make([]dto.DocumentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, dto.DocumentView{ProfileDocument: d, URL: s.files.url(ctx, d.Reference)})
	}
	return views, nil
}

// Search looks up profiles by first name, last name or title. The query must hold at least
// two characters; at most ten entries are returned.
func (s *ProfileService) Search(ctx context.Context, actor models.Actor, q string) ([]models.ProfileSearchResult, error) {
	if err := requireRole(actor, models.RoleProfessor, models.RoleAdmin); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < profileSearchMinQuery {
		return nil, appErrors.Validation("query must be at least 2 characters", "q")
	}
	items, err := s.repo.Search(ctx, q, profileSearchLimit)
	if err != nil {
		return nil, internalError(err, "failed to search profiles")
	}
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].FirstName + " " + items[i].LastName)
		if items[i].Name == "" {
			items[i].Name = "Unknown"
		}
		if items[i].Title == "" {
			items[i].Title = "Professor"
		}
		if items[i].University == "" {
			items[i].University = "Unknown University"
		}
	}
	if items == nil {
		items = []models.ProfileSearchResult{}
	}
	return items, nil
}

func profileResponse(p *models.Profile) *dto.ProfileResponse {
	return &dto.ProfileResponse{
		Profile: p,
		Completion: dto.Completion{
			Dashboard: scoring.Completeness(p, scoring.ModeDashboard),
			Wizard:    scoring.Completeness(p, scoring.ModeWizard),
			Missing:   scoring.MissingFields(p, scoring.ModeDashboard),
		},
	}
}

// checkUniversity rejects a non-blank university id that does not exist.
func checkUniversity(ctx context.Context, universities universityChecker, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	ok, err := universities.Exists(ctx, id)
	if err != nil {
		return internalError(err, "failed to check university")
	}
	if !ok {
		return appErrors.Validation("unknown university", "university_id")
	}
	return nil
}
