package auth

import (
	"fmt"

	"github.com/pixelfolio/cli/pkg/api"
	"github.com/pixelfolio/cli/pkg/client"
	"github.com/pixelfolio/cli/pkg/credentials"
	clierrors "github.com/pixelfolio/cli/pkg/errors"
	"github.com/pixelfolio/cli/pkg/logger"
)

// SessionGuard drops a rejected session. A 401 on a request that carried
// a token means the token is no longer accepted, so the stored
// credentials are removed and the caller gets a session-expired error.
type SessionGuard struct {
	session credentials.Session
	forget  func() error
}

// NewSessionGuard watches the given session and deletes the credentials
// file when the backend rejects it
func NewSessionGuard(s credentials.Session) *SessionGuard {
	return &SessionGuard{
		session: s,
		forget: func() error {
			if err := credentials.Delete(); err != nil {
				return err
			}
			client.ClearSession()
			return nil
		},
	}
}

// IsSessionError checks if an error means the bearer token was rejected
func IsSessionError(err error) bool {
	return err != nil && api.IsUnauthorized(err)
}

// Check passes err through unless it is a rejection of an authenticated
// session, in which case the session is forgotten
func (g *SessionGuard) Check(err error) error {
	if !IsSessionError(err) {
		return err
	}
	if g.session == nil || !g.session.Authenticated() {
		return err
	}

	logger.Debug("Backend rejected session token, clearing credentials", "user_id", g.session.UserID())

	if ferr := g.forget(); ferr != nil {
		logger.Error("Failed to clear credentials", "error", ferr)
		return fmt.Errorf("session expired: %w", ferr)
	}

	expired := clierrors.SessionExpiredError()
	expired.Cause = err
	expired.StatusCode = 401
	return expired
}
