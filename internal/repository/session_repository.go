package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nilesh-agrahari/SecureFileShare/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionRepository keeps bearer sessions in Redis. Records carry no TTL:
// a session lives until DeleteByID revokes it.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	key := sessionKeyPrefix + session.ID
	return r.client.HSet(ctx, key,
		"account_id", session.AccountID,
		"created_at", session.CreatedAt.UTC().Format(time.RFC3339),
	).Err()
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	key := sessionKeyPrefix + id
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return models.Session{}, err
	}
	if len(fields) == 0 {
		return models.Session{}, ErrSessionNotFound
	}

	session := models.Session{
		ID:        id,
		AccountID: fields["account_id"],
	}
	if raw, ok := fields["created_at"]; ok {
		if created, err := time.Parse(time.RFC3339, raw); err == nil {
			session.CreatedAt = created
		}
	}
	return session, nil
}

func (r *SessionRepository) DeleteByID(ctx context.Context, id string) error {
	removed, err := r.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}
