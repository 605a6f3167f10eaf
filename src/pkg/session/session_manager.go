// Package session issues and tracks the bearer credentials that authenticate API calls.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"mindnoscape/web-app/src/pkg/event"
	"mindnoscape/web-app/src/pkg/log"
	"mindnoscape/web-app/src/pkg/model"
)

const (
	sessionIDLength        = 32
	defaultCleanupInterval = 5 * time.Minute
	defaultSessionTimeout  = 24 * time.Hour
)

// ErrSessionNotFound is returned for unknown or expired tokens.
var ErrSessionNotFound = errors.New("session not found")

// SessionManager manages multiple concurrent sessions
type SessionManager struct {
	sessions        map[string]*model.Session
	mu              sync.RWMutex
	timeout         time.Duration
	cleanupInterval time.Duration
	eventManager    *event.EventManager
	logger          *log.Logger
	now             func() time.Time
}

// NewSessionManager creates a SessionManager. Zero durations fall back to the defaults.
func NewSessionManager(timeout, cleanupInterval time.Duration, eventManager *event.EventManager, logger *log.Logger) *SessionManager {
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &SessionManager{
		sessions:        make(map[string]*model.Session),
		timeout:         timeout,
		cleanupInterval: cleanupInterval,
		eventManager:    eventManager,
		logger:          logger,
		now:             time.Now,
	}
}

// SessionAdd creates a new session for user and returns it. Its ID is the bearer token.
func (sm *SessionManager) SessionAdd(ctx context.Context, user *model.User) (*model.Session, error) {
	if user == nil {
		return nil, fmt.Errorf("user not initialized")
	}

	sessionID, err := generateSessionID()
	if err != nil {
		sm.logger.Error(ctx, "Failed to generate session ID", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := sm.now()
	s := &model.Session{
		ID:           sessionID,
		User:         user,
		Created:      now,
		LastActivity: now,
		Expires:      now.Add(sm.timeout),
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = s
	sm.mu.Unlock()

	sm.logger.Info(ctx, "New session added", log.Fields{"userID": user.ID})
	return s, nil
}

// SessionGet returns the live session for token and records activity on it.
func (sm *SessionManager) SessionGet(ctx context.Context, token string) (*model.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	now := sm.now()
	if now.After(s.Expires) {
		delete(sm.sessions, token)
		sm.logger.Info(ctx, "Session expired", log.Fields{"userID": s.User.ID})
		return nil, ErrSessionNotFound
	}
	s.LastActivity = now
	return s, nil
}

// SessionDelete ends the session for token. Unknown tokens are ignored.
func (sm *SessionManager) SessionDelete(ctx context.Context, token string) {
	sm.mu.Lock()
	s, ok := sm.sessions[token]
	delete(sm.sessions, token)
	sm.mu.Unlock()

	if !ok {
		sm.logger.Debug(ctx, "Attempted to delete non-existent session", nil)
		return
	}
	sm.logger.Info(ctx, "Session deleted", log.Fields{"userID": s.User.ID})
	sm.eventManager.Publish(event.Event{Type: event.SessionEnded, Data: s.User.ID})
}

// SessionCount reports the number of tracked sessions.
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Run removes expired sessions every cleanup interval until ctx is done.
func (sm *SessionManager) Run(ctx context.Context) error {
	sm.logger.Info(ctx, "Starting cleanup routine", log.Fields{"interval": sm.cleanupInterval.String()})

	ticker := time.NewTicker(sm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.cleanupExpired(ctx)
		case <-ctx.Done():
			sm.logger.Info(context.Background(), "Stopping cleanup routine", nil)
			return nil
		}
	}
}

// cleanupExpired removes sessions past their expiry
func (sm *SessionManager) cleanupExpired(ctx context.Context) int {
	now := sm.now()

	sm.mu.Lock()
	var removed []*model.Session
	for id, s := range sm.sessions {
		if now.After(s.Expires) {
			delete(sm.sessions, id)
			removed = append(removed, s)
		}
	}
	sm.mu.Unlock()

	for _, s := range removed {
		sm.eventManager.Publish(event.Event{Type: event.SessionEnded, Data: s.User.ID})
	}
	if len(removed) > 0 {
		sm.logger.Info(ctx, "Removed expired sessions", log.Fields{"count": len(removed)})
	}
	return len(removed)
}

// generateSessionID creates a cryptographically secure random session ID
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
