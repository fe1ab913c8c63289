package service

import (
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/careerbird/grant-match-api/internal/dto"
	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	appErrors "github.com/careerbird/grant-match-api/pkg/errors"
)

// requireActor rejects calls without an authenticated user before any write is attempted.
func requireActor(actor models.Actor) error {
	if !actor.Authenticated() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "sign in required")
	}
	return nil
}

func requireRole(actor models.Actor, roles ...models.UserRole) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "role not permitted")
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps sql.ErrNoRows to a not-found error and anything else to an internal one.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, failed)
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validationFields lists the offending fields of a validator error.
func validationFields(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}

func validationError(err error, message string) error {
	return appErrors.Validation(message, validationFields(err)...)
}

// viewBuilder derives the read-time fields of grants and applications.
type viewBuilder struct {
	classifier *scoring.DeadlineClassifier
	matcher    *scoring.Matcher
	now        func() time.Time
}

func newViewBuilder(classifier *scoring.DeadlineClassifier, matcher *scoring.Matcher, now func() time.Time) viewBuilder {
	if classifier == nil {
		classifier = scoring.NewDeadlineClassifier(time.UTC)
	}
	if matcher == nil {
		matcher = scoring.NewMatcher(scoring.MatchWeighted, scoring.LegacyMatchScore)
	}
	if now == nil {
		now = time.Now
	}
	return viewBuilder{classifier: classifier, matcher: matcher, now: now}
}

// opportunity decorates a grant. The match score is only filled in when a profile is given.
func (b viewBuilder) opportunity(o models.OpportunityDetail, profile *models.Profile, saved bool) dto.OpportunityView {
	view := dto.OpportunityView{
		OpportunityDetail: o,
		Urgency:           b.classifier.ClassifyOptional(o.Deadline, b.now()),
		Saved:             saved,
	}
	if profile != nil {
		score := b.matcher.Score(profile, &o.Opportunity)
		view.MatchScore = &score
	}
	return view
}

func (b viewBuilder) application(a models.ApplicationDetail) dto.ApplicationView {
	return dto.ApplicationView{
		ApplicationDetail: a,
		Urgency:           b.classifier.ClassifyOptional(a.OpportunityDeadline, b.now()),
	}
}

func (b viewBuilder) deadline(applicationID, opportunityID, title string, deadline time.Time) dto.DeadlineItem {
	now := b.now()
	u := b.classifier.Classify(deadline, now)
	return dto.DeadlineItem{
		ApplicationID:    applicationID,
		OpportunityID:    opportunityID,
		OpportunityTitle: title,
		Deadline:         deadline,
		DaysRemaining:    u.DaysRemaining,
		Label:            b.classifier.DayLabel(deadline, now),
		Tier:             string(u.Tier),
		Urgent:           u.Tier == scoring.TierUrgent,
	}
}
