package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careerbird/grant-match-api/internal/models"
)

const wizardSessionPrefix = "wizard:profile:"

// WizardSessionRepository keeps in-progress profile wizard state in Redis.
type WizardSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWizardSessionRepository constructs a WizardSessionRepository. A zero ttl keeps sessions forever.
func NewWizardSessionRepository(client *redis.Client, ttl time.Duration) *WizardSessionRepository {
	return &WizardSessionRepository{client: client, ttl: ttl}
}

func wizardSessionKey(userID string) string {
	return wizardSessionPrefix + userID
}

// Get loads the session. A missing session returns (nil, nil).
func (r *WizardSessionRepository) Get(ctx context.Context, userID string) (*models.WizardSession, error) {
	if r.client == nil {
		return nil, nil
	}
	raw, err := r.client.Get(ctx, wizardSessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get wizard session: %w", err)
	}
	var session models.WizardSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal wizard session: %w", err)
	}
	return &session, nil
}

// Save stores the session and refreshes its TTL.
func (r *WizardSessionRepository) Save(ctx context.Context, session *models.WizardSession) error {
	if r.client == nil {
		return fmt.Errorf("wizard session store unavailable")
	}
	session.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal wizard session: %w", err)
	}
	if err := r.client.Set(ctx, wizardSessionKey(session.UserID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set wizard session: %w", err)
	}
	return nil
}

// Delete drops the session once the wizard completes.
func (r *WizardSessionRepository) Delete(ctx context.Context, userID string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, wizardSessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete wizard session: %w", err)
	}
	return nil
}
