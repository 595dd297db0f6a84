// Package auth holds the bearer-token session and the /auth/* API client.
package auth

import (
	"context"

	"applicant-portal/internal/common/logger"
)

// Session is the explicit auth state handed to every API client. The
// onUnauthorized callback is wired once at the application root.
type Session struct {
	store          TokenStore
	onUnauthorized func()
	logger         logger.Logger
}

func NewSession(store TokenStore, onUnauthorized func(), log logger.Logger) *Session {
	return &Session{
		store:          store,
		onUnauthorized: onUnauthorized,
		logger:         logger.ForComponent(log, "auth-session"),
	}
}

// Token reads the stored token; it is re-read before every call since the
// server may revoke it at any time.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Load(ctx)
}

// Save stores a freshly issued token.
func (s *Session) Save(ctx context.Context, token string) error {
	return s.store.Save(ctx, token)
}

// Invalidate clears the stored token and signals the caller to re-authenticate.
// A failing clear is logged and otherwise ignored.
func (s *Session) Invalidate(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to clear stored token", nil)
	}
	if s.onUnauthorized != nil {
		s.onUnauthorized()
	}
}

// Logout clears the token without firing onUnauthorized.
func (s *Session) Logout(ctx context.Context) error {
	return s.store.Clear(ctx)
}
