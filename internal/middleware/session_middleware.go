package middleware

import (
	"errors"
	"net/http"

	"acroyoga_club_backend/internal/session"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const sessionContextKey = "session"

// SessionOptions controls how the session cookie is written.
type SessionOptions struct {
	// Secure must be true behind HTTPS in production.
	Secure bool
	// MaxAge is the cookie lifetime in seconds.
	MaxAge int
}

// SessionMiddleware loads the caller's session from the cookie, creating
// an anonymous one when none exists, and bumps its visit counter. The
// session is stored in the request context for downstream handlers.
func SessionMiddleware(store *session.Store, opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session

		if id, err := c.Cookie(session.CookieName); err == nil && id != "" {
			sess, err = store.Get(c.Request.Context(), id)
			if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
				utils.LogError(err, "SessionMiddleware: failed to load session")
				utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeDependencyFailed, "Session store unavailable.", ""))
				c.Abort()
				return
			}
		}

		if sess == nil {
			var err error
			sess, err = store.New(c.Request.Context())
			if err != nil {
				utils.LogError(err, "SessionMiddleware: failed to create session")
				utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeDependencyFailed, "Session store unavailable.", ""))
				c.Abort()
				return
			}
		}

		sess.VisitCount++
		if err := store.Save(c.Request.Context(), sess); err != nil {
			utils.LogError(err, "SessionMiddleware: failed to persist session")
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(session.CookieName, sess.ID, opts.MaxAge, "/", "", opts.Secure, true)
		c.Set(sessionContextKey, sess)

		c.Next()

		// Login and logout handlers swap the session id; make sure the
		// cookie the browser keeps matches the record that survived.
		if final := SessionFromContext(c); final != nil && final.ID != sess.ID {
			c.SetCookie(session.CookieName, final.ID, opts.MaxAge, "/", "", opts.Secure, true)
		}
	}
}

// SessionFromContext returns the request's session, or nil when
// SessionMiddleware did not run.
func SessionFromContext(c *gin.Context) *session.Session {
	v, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	sess, ok := v.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// SetSession replaces the session stored on the request context. Called
// by handlers after regenerating the session id.
func SetSession(c *gin.Context, sess *session.Session) {
	c.Set(sessionContextKey, sess)
}

// RequireAuth rejects requests whose session is not authenticated.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFromContext(c)
		if sess == nil || !sess.Authenticated() {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects authenticated callers without the admin flag.
// Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFromContext(c)
		if sess == nil || !sess.Authenticated() {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
			c.Abort()
			return
		}
		if !sess.Profile.IsAdmin {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Administrator access required.", ""))
			c.Abort()
			return
		}
		c.Next()
	}
}
