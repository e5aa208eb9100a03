package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// Expiry bounds both the session record and the per-user session set.
	Expiry = 24 * time.Hour

	sessionKeyPrefix  = "session:"
	userSessionPrefix = "user_sessions:"
)

// ErrUnavailable is returned when a session cannot be issued because the
// session store is down or disabled. Resolution never returns it: an
// unreachable store resolves everyone as unauthenticated instead.
var ErrUnavailable = errors.New("session store unavailable")

// Identity is the session record stored in redis and handed to handlers
// after the cookie has been resolved.
type Identity struct {
	SessionID    string    `json:"-"`
	UserID       int       `json:"user_id"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Manager owns the session lifecycle on top of redis. A nil client is a
// valid degraded mode: nothing resolves, nothing can be created.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// Create issues a new opaque session id for the user and registers it in
// the user's active-session set. Both keys expire together.
func (m *Manager) Create(ctx context.Context, userID int, username string) (string, error) {
	if m.client == nil {
		return "", ErrUnavailable
	}

	sessionID := uuid.NewString()
	now := time.Now()
	identity := Identity{
		UserID:       userID,
		Username:     username,
		CreatedAt:    now,
		LastActivity: now,
	}

	data, err := json.Marshal(identity)
	if err != nil {
		return "", err
	}

	if err := m.client.Set(ctx, sessionKey(sessionID), data, Expiry).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	userKey := userSessionsKey(userID)
	if err := m.client.SAdd(ctx, userKey, sessionID).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to register session in user set")
	}
	if err := m.client.Expire(ctx, userKey, Expiry).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to refresh user session set expiry")
	}

	return sessionID, nil
}

// Resolve looks a session id up and slides its TTL forward. A miss, an
// expired session or an unreachable store all return (nil, nil): the
// caller treats the request as unauthenticated, never as a server error.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (*Identity, error) {
	if m.client == nil || sessionID == "" {
		return nil, nil
	}

	data, err := m.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logrus.WithError(err).Warn("Session lookup failed, treating as unauthenticated")
		return nil, nil
	}

	var identity Identity
	if err := json.Unmarshal([]byte(data), &identity); err != nil {
		logrus.WithError(err).Warn("Corrupt session record, treating as unauthenticated")
		return nil, nil
	}

	identity.SessionID = sessionID
	identity.LastActivity = time.Now()

	refreshed, err := json.Marshal(identity)
	if err == nil {
		if err := m.client.Set(ctx, sessionKey(sessionID), refreshed, Expiry).Err(); err != nil {
			logrus.WithError(err).Warn("Failed to refresh session TTL")
		}
	}

	return &identity, nil
}

// Destroy removes a session and de-registers it from the owner's set.
// Idempotent: destroying an unknown id is a no-op.
func (m *Manager) Destroy(ctx context.Context, sessionID string) error {
	if m.client == nil || sessionID == "" {
		return nil
	}

	data, err := m.client.Get(ctx, sessionKey(sessionID)).Result()
	if err == nil {
		var identity Identity
		if json.Unmarshal([]byte(data), &identity) == nil {
			if err := m.client.SRem(ctx, userSessionsKey(identity.UserID), sessionID).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to de-register session from user set")
			}
		}
	}

	return m.client.Del(ctx, sessionKey(sessionID)).Err()
}

// DestroyAll drops every active session of a user. Used for mass logout.
func (m *Manager) DestroyAll(ctx context.Context, userID int) error {
	if m.client == nil {
		return nil
	}

	userKey := userSessionsKey(userID)
	sessionIDs, err := m.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}

	for _, sessionID := range sessionIDs {
		if err := m.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("Failed to delete session")
		}
	}

	return m.client.Del(ctx, userKey).Err()
}

// ActiveSessions counts the user's live sessions for the profile view.
func (m *Manager) ActiveSessions(ctx context.Context, userID int) (int64, error) {
	if m.client == nil {
		return 0, nil
	}
	return m.client.SCard(ctx, userSessionsKey(userID)).Result()
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func userSessionsKey(userID int) string {
	return fmt.Sprintf("%s%d", userSessionPrefix, userID)
}
