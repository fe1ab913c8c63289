package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/internal/models"
	"github.com/careerbird/grant-match-api/internal/scoring"
	"github.com/careerbird/grant-match-api/pkg/events"
	"github.com/careerbird/grant-match-api/pkg/jobs"
)

// JobDeadlineReminder is the job and event type of a deadline reminder.
const JobDeadlineReminder = "deadline.reminder"

const reminderMarkerPrefix = "reminder:"

type reminderRepository interface {
	ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error)
}

// reminderMarker records that a reminder went out so overlapping sweeps do not repeat it.
type reminderMarker interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ReminderPayload is the body of a deadline reminder event.
type ReminderPayload struct {
	ApplicationID    string    `json:"application_id"`
	StudentID        string    `json:"student_id"`
	StudentEmail     string    `json:"student_email,omitempty"`
	OpportunityID    string    `json:"opportunity_id"`
	OpportunityTitle string    `json:"opportunity_title"`
	Status           string    `json:"status"`
	Deadline         time.Time `json:"deadline"`
	DaysRemaining    int       `json:"days_remaining"`
	Label            string    `json:"label"`
	Tier             string    `json:"tier"`
}

// ReminderServiceConfig tunes the sweep.
type ReminderServiceConfig struct {
	LookaheadDays int
	Classifier    *scoring.DeadlineClassifier
	Now           func() time.Time
}

// ReminderService finds applications whose grant closes this week and publishes reminders.
type ReminderService struct {
	repo      reminderRepository
	marker    reminderMarker
	queue     jobEnqueuer
	publisher events.Publisher
	metrics   *MetricsService
	logger    *zap.Logger
	views     viewBuilder
	lookahead int
}

// NewReminderService constructs a ReminderService.
func NewReminderService(repo reminderRepository, marker reminderMarker, queue jobEnqueuer, publisher events.Publisher, metrics *MetricsService, cfg ReminderServiceConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = events.NewLogPublisher(logger)
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 7
	}
	return &ReminderService{
		repo:      repo,
		marker:    marker,
		queue:     queue,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		views:     newViewBuilder(cfg.Classifier, nil, cfg.Now),
		lookahead: cfg.LookaheadDays,
	}
}

// Register binds the reminder handler to a job queue.
func (s *ReminderService) Register(queue interface {
	Handle(jobType string, handler jobs.Handler)
}) {
	queue.Handle(JobDeadlineReminder, s.HandleJob)
}

// Run is the scheduled entry point.
func (s *ReminderService) Run(ctx context.Context) error {
	_, err := s.Sweep(ctx)
	return err
}

// Sweep enqueues one reminder per open application whose deadline falls in the this-week
// bucket. It returns the number of reminders enqueued.
func (s *ReminderService) Sweep(ctx context.Context) (int, error) {
	now := s.views.now()
	from := now.Add(-24 * time.Hour)
	to := now.AddDate(0, 0, s.lookahead+1)
	candidates, err := s.repo.ListReminderCandidates(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list reminder candidates: %w", err)
	}

	enqueued := 0
	for _, c := range candidates {
		u := s.views.classifier.Classify(c.Deadline, now)
		if !u.InThisWeek() || u.DaysRemaining > s.lookahead {
			continue
		}
		if s.marker != nil {
			ttl := time.Duration(u.DaysRemaining+2) * 24 * time.Hour
			fresh, err := s.marker.MarkOnce(ctx, reminderKey(c), ttl)
			if err != nil {
				s.logger.Warn("reminder marker", zap.String("application_id", c.ApplicationID), zap.Error(err))
				s.metrics.RecordReminder("marker_failed")
				continue
			}
			if !fresh {
				s.metrics.RecordReminder("duplicate")
				continue
			}
		}

		payload := ReminderPayload{
			ApplicationID:    c.ApplicationID,
			StudentID:        c.StudentID,
			StudentEmail:     c.StudentEmail,
			OpportunityID:    c.OpportunityID,
			OpportunityTitle: c.OpportunityTitle,
			Status:           string(c.Status),
			Deadline:         c.Deadline,
			DaysRemaining:    u.DaysRemaining,
			Label:            s.views.classifier.DayLabel(c.Deadline, now),
			Tier:             string(u.Tier),
		}
		job := jobs.Job{ID: reminderKey(c), Type: JobDeadlineReminder, Payload: payload}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("enqueue reminder", zap.String("application_id", c.ApplicationID), zap.Error(err))
			s.metrics.RecordReminder("enqueue_failed")
			continue
		}
		enqueued++
	}

	s.logger.Info("deadline reminder sweep", zap.Int("candidates", len(candidates)), zap.Int("enqueued", enqueued))
	return enqueued, nil
}

// HandleJob publishes one reminder event. Errors are retried by the queue.
func (s *ReminderService) HandleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ReminderPayload)
	if !ok {
		s.metrics.RecordReminder("invalid")
		s.logger.Error("reminder job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	evt := events.Event{
		Type:       JobDeadlineReminder,
		Key:        payload.ApplicationID,
		OccurredAt: s.views.now().UTC(),
		Payload:    payload,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.metrics.RecordReminder("publish_failed")
		return err
	}
	s.metrics.RecordReminder("published")
	return nil
}

func reminderKey(c models.ReminderCandidate) string {
	return reminderMarkerPrefix + c.ApplicationID + ":" + c.Deadline.UTC().Format("2006-01-02")
}
