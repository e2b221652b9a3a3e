package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"acroyoga_club_backend/internal/models"
	"acroyoga_club_backend/internal/services"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ActivityHandler holds the activity service.
type ActivityHandler struct {
	activityService services.ActivityService
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(as services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: as}
}

// CreateActivity handles admin creation of a new activity.
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	var req services.CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateActivity: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	activity, err := h.activityService.CreateActivity(req)
	if err != nil {
		utils.LogError(err, "CreateActivity: Error from activityService.CreateActivity")
		if errors.Is(err, services.ErrActivityValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create activity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// GetActivities lists activities, optionally filtered to one day via
// ?date=YYYY-MM-DD. Open to everyone, including anonymous visitors.
func (h *ActivityHandler) GetActivities(c *gin.Context) {
	activities, err := h.activityService.ListActivities(c.Query("date"))
	if err != nil {
		utils.LogError(err, "GetActivities: Error from activityService.ListActivities")
		if errors.Is(err, services.ErrInvalidDateFilter) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Date filter must be YYYY-MM-DD.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch activities.", "Internal error"))
		}
		return
	}

	if activities == nil {
		activities = []models.Activity{}
	}
	c.JSON(http.StatusOK, gin.H{"data": activities})
}

// GetActivityByID returns one activity. Admins can request the
// participant roster with ?with_participants=true.
func (h *ActivityHandler) GetActivityByID(c *gin.Context) {
	activityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid activity ID format.", err.Error()))
		return
	}
	withParticipants := c.Query("with_participants") == "true"

	activity, err := h.activityService.GetActivityByID(activityID, withParticipants)
	if err != nil {
		utils.LogError(err, "GetActivityByID: Error from activityService.GetActivityByID")
		if errors.Is(err, services.ErrActivityNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Activity not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch activity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, activity)
}

// UpdateActivity handles admin updates to an activity.
func (h *ActivityHandler) UpdateActivity(c *gin.Context) {
	activityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid activity ID format.", err.Error()))
		return
	}

	var req services.UpdateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateActivity: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	activity, err := h.activityService.UpdateActivity(activityID, req)
	if err != nil {
		utils.LogError(err, "UpdateActivity: Error from activityService.UpdateActivity")
		if errors.Is(err, services.ErrActivityNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Activity not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrActivityValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update activity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, activity)
}

// DeleteActivity handles admin deletion of an activity.
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	activityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid activity ID format.", err.Error()))
		return
	}

	if err := h.activityService.DeleteActivity(activityID); err != nil {
		utils.LogError(err, "DeleteActivity: Error from activityService.DeleteActivity")
		if errors.Is(err, services.ErrActivityNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Activity not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete activity.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Activity deleted."})
}
