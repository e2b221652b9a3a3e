package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"acroyoga_club_backend/internal/middleware"
	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/services"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler holds the user service.
type UserHandler struct {
	userService services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// GetMe returns the full profile of the logged-in user.
func (h *UserHandler) GetMe(c *gin.Context) {
	sess := middleware.SessionFromContext(c)
	user, err := h.userService.GetProfile(sess.Profile.ID)
	if err != nil {
		utils.LogError(err, "GetMe: Error from userService.GetProfile")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch profile.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe updates the logged-in user's own profile.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateMe: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(sess.Profile.ID, req)
	if err != nil {
		utils.LogError(err, "UpdateMe: Error from userService.UpdateProfile")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidProfileData) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update profile.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetUsers handles the admin user listing with pagination and filters.
func (h *UserHandler) GetUsers(c *gin.Context) {
	var filters models.UserFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameters: "+err.Error(), err.Error()))
		return
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}

	users, totalCount, err := h.userService.ListUsers(filters)
	if err != nil {
		utils.LogError(err, "GetUsers: Error from userService.ListUsers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch users.", "Internal error"))
		return
	}

	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      users,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserStatus lets an admin activate or deactivate an account.
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user ID format.", err.Error()))
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	if err := h.userService.SetUserStatus(userID, req.Status); err != nil {
		utils.LogError(err, "SetUserStatus: Error from userService.SetUserStatus")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidUserStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Unknown user status.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update user status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User status updated."})
}

type setMembershipRequest struct {
	IsMember *bool `json:"is_member" binding:"required"`
}

// SetMembership lets an admin grant or revoke membership.
func (h *UserHandler) SetMembership(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user ID format.", err.Error()))
		return
	}

	var req setMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	if err := h.userService.SetMembership(userID, *req.IsMember); err != nil {
		utils.LogError(err, "SetMembership: Error from userService.SetMembership")
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update membership.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Membership updated."})
}

// Unsubscribe disables mailing for the user identified by a signed
// token. Reached from email footers, so no session is required.
func (h *UserHandler) Unsubscribe(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Missing unsubscribe token.", ""))
		return
	}

	if err := h.userService.Unsubscribe(token); err != nil {
		utils.LogError(err, "Unsubscribe: Error from userService.Unsubscribe")
		if errors.Is(err, services.ErrInvalidUnsubscribeToken) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid or expired unsubscribe link.", ""))
		} else if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to unsubscribe.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have been unsubscribed from club emails."})
}
