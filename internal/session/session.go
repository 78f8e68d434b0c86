// Package session implements the Redis-backed session gate. Handlers resolve
// a session cookie into a models.Actor and pass it explicitly into services;
// no identity is ever read from ambient state.
package session

import (
	"context"
	"time"

	"equipment-service/internal/models"
	"equipment-service/internal/redisclient"

	"github.com/google/uuid"
)

const CookieName = "lab_session"

// Session is the payload stored in Redis per logged-in user
type Session struct {
	UserID    int64  `json:"uid"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Actor converts the stored session into the request-scoped caller identity
func (s *Session) Actor() models.Actor {
	return models.Actor{UserID: s.UserID, Role: s.Role}
}

type Store struct {
	redis *redisclient.Client
	ttl   time.Duration
}

// NewStore creates a session store with the given TTL
func NewStore(redis *redisclient.Client, ttl time.Duration) *Store {
	return &Store{redis: redis, ttl: ttl}
}

// Create opens a new session for a user and returns its id
func (s *Store) Create(ctx context.Context, userID int64, role string) (string, error) {
	id := uuid.New().String()
	now := time.Now()
	sess := Session{
		UserID:    userID,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}
	if err := s.redis.SetSession(ctx, id, &sess, s.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// Get resolves a session id
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := s.redis.GetSession(ctx, id, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete closes a session
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.redis.DeleteSession(ctx, id)
}

// TTL returns the configured session lifetime
func (s *Store) TTL() time.Duration {
	return s.ttl
}
