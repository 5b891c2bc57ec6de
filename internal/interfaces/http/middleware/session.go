package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/undercontrol/storefront/internal/config"
	"github.com/undercontrol/storefront/internal/domain/session"
	"github.com/undercontrol/storefront/internal/pkg/auth"
)

// Context keys set by Session
const (
	SessionIDKey = "session_id"
	sessionKey   = "session"
)

// Session resolves the caller's anonymous session from the session cookie
// or a bearer token. A missing or invalid token starts a new session and
// sets a fresh cookie.
func Session(cfg *config.Config, tokens *auth.SessionTokens, registry *session.Registry, logger logrus.FieldLogger) gin.HandlerFunc {
	cookieName := cfg.Session.CookieName

	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)
		if token == "" {
			token = auth.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		}

		sessionID := ""
		if token != "" {
			id, err := tokens.Validate(token)
			if err != nil {
				logger.WithField("error", err).Debug("Discarding invalid session token")
			} else {
				sessionID = id
			}
		}

		if sessionID == "" {
			id, fresh, err := tokens.Issue()
			if err != nil {
				logger.WithField("error", err).Error("Failed to issue session token")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Could not start a session",
				})
				return
			}
			sessionID = id
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, fresh, int(tokens.TTL().Seconds()), "/", "", cfg.Session.Secure, true)
		}

		c.Set(SessionIDKey, sessionID)
		c.Set(sessionKey, registry.Get(c.Request.Context(), sessionID))
		c.Next()
	}
}

// SessionFromContext returns the session resolved by Session
func SessionFromContext(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
