package handlers

import (
	"errors"
	"net/http"

	"acroyoga_club_backend/internal/middleware"
	"acroyoga_club_backend/internal/services"
	"acroyoga_club_backend/internal/session"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the auth service and session store.
type AuthHandler struct {
	authService  services.AuthService
	sessions     *session.Store
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie must match the
// flag the session middleware sets cookies with, or browsers may refuse
// the clearing cookie on logout.
func NewAuthHandler(as services.AuthService, sessions *session.Store, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: as, sessions: sessions, secureCookie: secureCookie}
}

// Register handles new account creation. The caller is logged in
// immediately on success.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Register: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "Register: Error from authService.Register")
		if errors.Is(err, services.ErrEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "An account with this email already exists.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidProfileData) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to register.", "Internal error"))
		}
		return
	}

	if err := h.upgradeSession(c, user.ID, user.Email, user.FullName, user.IsMember, user.IsAdmin); err != nil {
		utils.LogError(err, "Register: failed to upgrade session")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeDependencyFailed, "Session store unavailable.", ""))
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login authenticates credentials and upgrades the caller's session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Login: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		utils.LogError(err, "Login: Error from authService.Login")
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrUserNotFound) {
			// Same answer for bad password and unknown email.
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", ""))
		} else if errors.Is(err, services.ErrAccountInactive) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "This account is inactive.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to log in.", "Internal error"))
		}
		return
	}

	if err := h.upgradeSession(c, user.ID, user.Email, user.FullName, user.IsMember, user.IsAdmin); err != nil {
		utils.LogError(err, "Login: failed to upgrade session")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeDependencyFailed, "Session store unavailable.", ""))
		return
	}
	c.JSON(http.StatusOK, user)
}

// upgradeSession authenticates the current session and rotates its id so
// the pre-login id cannot be replayed.
func (h *AuthHandler) upgradeSession(c *gin.Context, userID int64, email, fullName string, isMember, isAdmin bool) error {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		var err error
		sess, err = h.sessions.New(c.Request.Context())
		if err != nil {
			return err
		}
	}
	sess.Authenticate(session.Profile{
		ID:       userID,
		Email:    email,
		FullName: fullName,
		IsMember: isMember,
		IsAdmin:  isAdmin,
	})
	if err := h.sessions.Regenerate(c.Request.Context(), sess); err != nil {
		return err
	}
	middleware.SetSession(c, sess)
	return nil
}

// Logout destroys the session and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	if sess != nil {
		if err := h.sessions.Delete(c.Request.Context(), sess.ID); err != nil {
			utils.LogError(err, "Logout: failed to delete session")
		}
	}
	c.SetCookie(session.CookieName, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

// GetSession returns the caller's session state. Anonymous sessions get
// their visit count and no profile.
func (h *AuthHandler) GetSession(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	if sess == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Session not initialised.", ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"isAuthenticated": sess.Authenticated(),
		"user":            sess.Profile,
		"sessionId":       sess.ID,
		"visitCount":      sess.VisitCount,
	})
}
