package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/wizard"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
	"github.com/careerbird/grant-match-api/pkg/upload"
)

type tryoutRepository interface {
	FindByApplicationID(ctx context.Context, applicationID string) (*models.TryoutSubmission, error)
	Upsert(ctx context.Context, sub *models.TryoutSubmission) error
}

type applicationLoader interface {
	FindByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
}

type applicationSubmitter interface {
	Submit(ctx context.Context, actor models.Actor, id string) (*dto.ApplicationView, error)
}

// TryoutService drives the deliverables wizard of an application.
type TryoutService struct {
	repo         tryoutRepository
	applications applicationLoader
	submitter    applicationSubmitter
	files        *FileUploader
	machine      *wizard.Machine[*models.TryoutSubmission]
	metrics      *MetricsService
	logger       *zap.Logger
	now          func() time.Time
}

// NewTryoutService constructs a TryoutService.
func NewTryoutService(repo tryoutRepository, applications applicationLoader, submitter applicationSubmitter, files *FileUploader, metrics *MetricsService, logger *zap.Logger) *TryoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TryoutService{
		repo:         repo,
		applications: applications,
		submitter:    submitter,
		files:        files,
		machine:      wizard.NewTryoutMachine(),
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// State returns the deliverables of an application. The student, the grant creator and admins may read it.
func (s *TryoutService) State(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error) {
	if _, err := s.application(ctx, actor, applicationID, false); err != nil {
		return nil, err
	}
	sub, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return s.state(sub), nil
}

// Upload stores a deliverable and records its reference. A replaced file is removed from storage.
func (s *TryoutService) Upload(ctx context.Context, actor models.Actor, applicationID, kind, filename string, f upload.File, size int64) (*dto.TryoutState, error) {
	_, sub, err := s.editable(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	slot, err := refSlot(sub, kind)
	if err != nil {
		return nil, err
	}
	obj, report, err := s.files.put(ctx, kind, filename, f, size, "tryouts", applicationID, kind)
	if err != nil {
		return nil, err
	}

	previous := *slot
	key := obj.Key
	*slot = &key
	if err := s.repo.Upsert(ctx, sub); err != nil {
		*slot = previous
		if derr := s.files.discard(ctx, key); derr != nil {
			s.logger.Warn("discard orphaned deliverable", zap.String("key", key), zap.Error(derr))
		}
		return nil, appErrors.SaveFailed(err)
	}
	if previous != nil && *previous != "" && *previous != key {
		if err := s.files.discard(ctx, *previous); err != nil {
			s.logger.Warn("discard replaced deliverable", zap.String("key", *previous), zap.Error(err))
		}
	}

	state := s.state(sub)
	state.Upload = &dto.UploadResult{
		Reference: key,
		URL:       s.files.url(ctx, key),
		Warnings:  report.Warnings,
		PageCount: report.PageCount,
	}
	return state, nil
}

// Clear removes a deliverable while the bundle is still pending.
func (s *TryoutService) Clear(ctx context.Context, actor models.Actor, applicationID, kind string) (*dto.TryoutState, error) {
	_, sub, err := s.editable(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	slot, err := refSlot(sub, kind)
	if err != nil {
		return nil, err
	}
	previous := *slot
	if previous == nil {
		return s.state(sub), nil
	}
	*slot = nil
	if err := s.repo.Upsert(ctx, sub); err != nil {
		*slot = previous
		return nil, appErrors.SaveFailed(err)
	}
	if err := s.files.discard(ctx, *previous); err != nil {
		s.logger.Warn("discard cleared deliverable", zap.String("key", *previous), zap.Error(err))
	}
	return s.state(sub), nil
}

// Next validates the current step and advances. Leaving the portfolio step submits the bundle.
func (s *TryoutService) Next(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error) {
	_, sub, err := s.editable(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	transition, err := s.machine.Next(wizard.Step(sub.CurrentStep), sub)
	if err != nil {
		s.record(wizard.ActionNext, "invalid")
		return nil, wizardError(err)
	}
	if transition.To == wizard.StepSubmitted {
		return s.Submit(ctx, actor, applicationID)
	}
	return s.move(ctx, sub, transition, wizard.ActionNext)
}

// Back returns to the previous step while the bundle is pending.
func (s *TryoutService) Back(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error) {
	_, sub, err := s.editable(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	transition, err := s.machine.Back(wizard.Step(sub.CurrentStep))
	if err != nil {
		return nil, wizardError(err)
	}
	return s.move(ctx, sub, transition, wizard.ActionBack)
}

// Submit finalises the bundle. It requires a proposal and a video; the portfolio is optional.
// A draft application is submitted before the bundle leaves pending.
func (s *TryoutService) Submit(ctx context.Context, actor models.Actor, applicationID string) (*dto.TryoutState, error) {
	app, sub, err := s.editable(ctx, actor, applicationID)
	if err != nil {
		return nil, err
	}
	if missing := wizard.SubmitBlockers(sub); len(missing) > 0 {
		s.record("submit", "invalid")
		return nil, appErrors.Validation("proposal and video are required", missing...)
	}

	if app.Status == models.ApplicationDraft {
		if _, err := s.submitter.Submit(ctx, actor, applicationID); err != nil {
			s.record("submit", "save_failed")
			return nil, err
		}
	}

	now := s.now().UTC()
	submitted := *sub
	submitted.Status = models.TryoutSubmitted
	submitted.SubmittedAt = &now
	submitted.CurrentStep = string(wizard.StepSubmitted)
	if err := s.repo.Upsert(ctx, &submitted); err != nil {
		s.record("submit", "save_failed")
		return nil, appErrors.SaveFailed(err)
	}
	s.record("submit", "ok")
	state := s.state(&submitted)
	state.Completed = true
	return state, nil
}

func (s *TryoutService) move(ctx context.Context, sub *models.TryoutSubmission, transition wizard.Transition, action wizard.Action) (*dto.TryoutState, error) {
	next := *sub
	next.CurrentStep = string(transition.To)
	if err := s.repo.Upsert(ctx, &next); err != nil {
		s.record(action, "save_failed")
		return nil, appErrors.SaveFailed(err)
	}
	s.record(action, "ok")
	return s.state(&next), nil
}

// editable loads the caller's own bundle and rejects changes once it left pending.
func (s *TryoutService) editable(ctx context.Context, actor models.Actor, applicationID string) (*models.ApplicationDetail, *models.TryoutSubmission, error) {
	app, err := s.application(ctx, actor, applicationID, true)
	if err != nil {
		return nil, nil, err
	}
	if app.Status.Terminal() {
		return nil, nil, appErrors.Clone(appErrors.ErrFinalized, "application already decided")
	}
	sub, err := s.load(ctx, applicationID)
	if err != nil {
		return nil, nil, err
	}
	if sub.Status != models.TryoutPending {
		return nil, nil, appErrors.Clone(appErrors.ErrFinalized, "deliverables already submitted")
	}
	return app, sub, nil
}

func (s *TryoutService) application(ctx context.Context, actor models.Actor, applicationID string, ownerOnly bool) (*models.ApplicationDetail, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return nil, lookupError(err, "application not found", "failed to load application")
	}
	if app.StudentID == actor.UserID {
		return app, nil
	}
	if !ownerOnly && (actor.Role == models.RoleAdmin || (actor.Role == models.RoleProfessor && app.OpportunityCreatedBy == actor.UserID)) {
		return app, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
}

// load returns the stored bundle or a fresh pending one positioned on the first step.
func (s *TryoutService) load(ctx context.Context, applicationID string) (*models.TryoutSubmission, error) {
	sub, err := s.repo.FindByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.TryoutSubmission{
				ApplicationID: applicationID,
				Status:        models.TryoutPending,
				CurrentStep:   string(s.machine.First()),
			}, nil
		}
		return nil, internalError(err, "failed to load deliverables")
	}
	if !s.machine.Has(wizard.Step(sub.CurrentStep)) {
		sub.CurrentStep = string(s.machine.First())
	}
	return sub, nil
}

func (s *TryoutService) state(sub *models.TryoutSubmission) *dto.TryoutState {
	current := wizard.Step(sub.CurrentStep)
	pos := s.machine.Position(current)
	steps := make([]dto.WizardStep, 0, len(wizard.TryoutSteps))
	for i, step := range s.machine.Steps() {
		steps = append(steps, dto.WizardStep{
			Name:     string(step),
			Position: i + 1,
			Current:  step == current,
			Complete: i < pos,
		})
	}
	return &dto.TryoutState{
		Submission:  sub,
		CurrentStep: sub.CurrentStep,
		Steps:       steps,
		CanSubmit:   sub.Status == models.TryoutPending && wizard.CanSubmit(sub),
		Missing:     wizard.SubmitBlockers(sub),
		Completed:   sub.Status != models.TryoutPending,
	}
}

func (s *TryoutService) record(action wizard.Action, outcome string) {
	s.metrics.RecordWizardTransition("tryout", string(action), outcome)
}

// refSlot points at the reference field for a deliverable kind.
func refSlot(sub *models.TryoutSubmission, kind string) (**string, error) {
	switch kind {
	case upload.KindProposal:
		return &sub.ProposalRef, nil
	case upload.KindVideo:
		return &sub.VideoRef, nil
	case upload.KindPortfolio:
		return &sub.PortfolioRef, nil
	}
	return nil, appErrors.Validation("unknown deliverable kind", "kind")
}
