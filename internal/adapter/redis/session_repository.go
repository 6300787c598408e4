package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Jacob-Clark-809/todolist-webapp/internal/domain"
)

const sessionKeyPrefix = "todolist:session:"

var _ domain.SessionRepository = (*SessionRepo)(nil)

// SessionRepo stores each session as a JSON string that expires ttl after
// its last save.
type SessionRepo struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionRepo(rdb *goredis.Client, ttl time.Duration) *SessionRepo {
	return &SessionRepo{rdb: rdb, ttl: ttl}
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}

func (s *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSessionCorrupt, err)
	}
	return &session, nil
}

func (s *SessionRepo) Save(ctx context.Context, id uuid.UUID, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(id), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Ping backs the readiness check.
func (s *SessionRepo) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
