package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	"github.com/careerbird/grant-match-api/internal/wizard"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

// WizardCompletedRedirect is where clients go once the profile wizard finishes.
const WizardCompletedRedirect = "/dashboard"

type wizardSessionStore interface {
	Get(ctx context.Context, userID string) (*models.WizardSession, error)
	Save(ctx context.Context, session *models.WizardSession) error
	Delete(ctx context.Context, userID string) error
}

// WizardService drives the profile wizard: it validates the current step, upserts the
// accumulated form and only then moves the step pointer.
type WizardService struct {
	profiles     profileRepository
	universities universityChecker
	sessions     wizardSessionStore
	machine      *wizard.Machine[models.ProfileDraft]
	validator    *validator.Validate
	metrics      *MetricsService
	logger       *zap.Logger
	saveTimeout  time.Duration
}

// NewWizardService constructs a WizardService. A non-positive saveTimeout disables the
// per-save deadline.
func NewWizardService(profiles profileRepository, universities universityChecker, sessions wizardSessionStore, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger, saveTimeout time.Duration) *WizardService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		profiles:     profiles,
		universities: universities,
		sessions:     sessions,
		machine:      wizard.NewProfileMachine(),
		validator:    validate,
		metrics:      metrics,
		logger:       logger,
		saveTimeout:  saveTimeout,
	}
}

// State returns the caller's wizard position, starting a new session when none exists.
func (s *WizardService) State(ctx context.Context, actor models.Actor) (*dto.ProfileWizardState, error) {
	session, err := s.session(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.state(actor, session, false), nil
}

// Next validates the current step with form merged in, persists the profile and advances.
// From the review step it completes the wizard instead of advancing.
func (s *WizardService) Next(ctx context.Context, actor models.Actor, form models.ProfileDraft) (*dto.ProfileWizardState, error) {
	session, err := s.session(ctx, actor)
	if err != nil {
		return nil, err
	}
	step := wizard.Step(session.Step)
	draft := session.Form
	wizard.MergeStep(step, &draft, form)

	transition, err := s.machine.Next(step, draft)
	if err != nil {
		s.record(wizard.ActionNext, "invalid")
		return nil, wizardError(err)
	}
	if err := s.validator.Struct(draft); err != nil {
		s.record(wizard.ActionNext, "invalid")
		return nil, validationError(err, "invalid profile values")
	}
	if err := checkUniversity(ctx, s.universities, draft.UniversityID); err != nil {
		s.record(wizard.ActionNext, "invalid")
		return nil, err
	}

	if err := s.persist(ctx, actor.UserID, draft); err != nil {
		s.record(wizard.ActionNext, "save_failed")
		s.logger.Warn("wizard save failed", zap.String("user_id", actor.UserID), zap.String("step", session.Step), zap.Error(err))
		return nil, appErrors.SaveFailed(err)
	}

	if transition.Completed {
		if err := s.sessions.Delete(ctx, actor.UserID); err != nil {
			s.logger.Warn("drop wizard session", zap.String("user_id", actor.UserID), zap.Error(err))
		}
		s.record(wizard.ActionNext, "completed")
		session.Form = draft
		state := s.state(actor, session, true)
		state.Redirect = WizardCompletedRedirect
		return state, nil
	}

	next := *session
	next.Step = string(transition.To)
	next.Form = draft
	if err := s.sessions.Save(ctx, &next); err != nil {
		s.record(wizard.ActionNext, "save_failed")
		return nil, appErrors.SaveFailed(err)
	}
	s.record(wizard.ActionNext, "ok")
	return s.state(actor, &next, false), nil
}

// Back moves one step back without validating or saving the profile.
func (s *WizardService) Back(ctx context.Context, actor models.Actor) (*dto.ProfileWizardState, error) {
	session, err := s.session(ctx, actor)
	if err != nil {
		return nil, err
	}
	transition, err := s.machine.Back(wizard.Step(session.Step))
	if err != nil {
		return nil, wizardError(err)
	}
	return s.move(ctx, actor, session, transition, wizard.ActionBack)
}

// Jump moves to any step. Earlier steps need not be complete.
func (s *WizardService) Jump(ctx context.Context, actor models.Actor, target string) (*dto.ProfileWizardState, error) {
	session, err := s.session(ctx, actor)
	if err != nil {
		return nil, err
	}
	transition, err := s.machine.Jump(wizard.Step(session.Step), wizard.Step(target))
	if err != nil {
		return nil, wizardError(err)
	}
	return s.move(ctx, actor, session, transition, wizard.ActionJump)
}

func (s *WizardService) move(ctx context.Context, actor models.Actor, session *models.WizardSession, transition wizard.Transition, action wizard.Action) (*dto.ProfileWizardState, error) {
	next := *session
	next.Step = string(transition.To)
	if err := s.sessions.Save(ctx, &next); err != nil {
		s.record(action, "save_failed")
		return nil, appErrors.SaveFailed(err)
	}
	s.record(action, "ok")
	return s.state(actor, &next, false), nil
}

// persist upserts the profile. A save that does not confirm within saveTimeout counts as failed.
func (s *WizardService) persist(ctx context.Context, userID string, draft models.ProfileDraft) error {
	if s.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()
	}
	if err := s.profiles.Upsert(ctx, draft.ToProfile(userID)); err != nil {
		return err
	}
	return ctx.Err()
}

// session loads the caller's session or seeds a new one from the stored profile.
func (s *WizardService) session(ctx context.Context, actor models.Actor) (*models.WizardSession, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, actor.UserID)
	if err != nil {
		return nil, internalError(err, "failed to load wizard session")
	}
	if session != nil && s.machine.Has(wizard.Step(session.Step)) {
		return session, nil
	}

	profile, err := s.profiles.FindByUserID(ctx, actor.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load profile")
	}
	form := models.DraftFromProfile(profile)
	if form.Email == "" {
		form.Email = actor.Email
	}
	return &models.WizardSession{UserID: actor.UserID, Step: string(s.machine.First()), Form: form}, nil
}

func (s *WizardService) state(actor models.Actor, session *models.WizardSession, completed bool) *dto.ProfileWizardState {
	current := wizard.Step(session.Step)
	pos := s.machine.Position(current)
	steps := make([]dto.WizardStep, 0, len(s.machine.Steps()))
	for i, step := range s.machine.Steps() {
		steps = append(steps, dto.WizardStep{
			Name:     string(step),
			Position: i + 1,
			Current:  step == current,
			Complete: completed || (i < pos && len(s.machine.Validate(step, session.Form)) == 0),
		})
	}
	progress := s.machine.Progress(current)
	if completed {
		progress = 100
	}
	return &dto.ProfileWizardState{
		CurrentStep: session.Step,
		Steps:       steps,
		Progress:    progress,
		Completion:  scoring.Completeness(session.Form.ToProfile(actor.UserID), scoring.ModeWizard),
		Form:        session.Form,
		Completed:   completed,
	}
}

func (s *WizardService) record(action wizard.Action, outcome string) {
	s.metrics.RecordWizardTransition("profile", string(action), outcome)
}

// wizardError turns state machine errors into API errors.
func wizardError(err error) error {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		return appErrors.Validation(verr.Error(), verr.Fields...)
	}
	var uerr *wizard.UnknownStepError
	if errors.As(err, &uerr) {
		return appErrors.Validation(uerr.Error(), "step")
	}
	return internalError(err, "wizard transition failed")
}
