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

// SignUpHandler holds the sign-up service.
type SignUpHandler struct {
	signUpService services.SignUpService
}

// NewSignUpHandler creates a new SignUpHandler.
func NewSignUpHandler(ss services.SignUpService) *SignUpHandler {
	return &SignUpHandler{signUpService: ss}
}

// CreateSignUp books the logged-in user onto an activity. Members are
// confirmed immediately; non-members get a pending payment transaction
// with a checkout link.
func (h *SignUpHandler) CreateSignUp(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	activityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid activity ID format.", err.Error()))
		return
	}

	result, err := h.signUpService.CreateSignUp(c.Request.Context(), sess.Profile.ID, activityID)
	if err != nil {
		utils.LogError(err, "CreateSignUp: Error from signUpService.CreateSignUp")
		if errors.Is(err, services.ErrActivityNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Activity not found.", err.Error()))
		} else if errors.Is(err, services.ErrActivityFull) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "This activity is full.", err.Error()))
		} else if errors.Is(err, services.ErrAlreadySignedUp) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "You are already signed up for this activity.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to sign up.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GetMySignUps lists the logged-in user's sign-ups with their
// activities.
func (h *SignUpHandler) GetMySignUps(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	signUps, err := h.signUpService.ListUserSignUps(sess.Profile.ID)
	if err != nil {
		utils.LogError(err, "GetMySignUps: Error from signUpService.ListUserSignUps")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch sign-ups.", "Internal error"))
		return
	}

	if signUps == nil {
		signUps = []models.SignUp{}
	}
	c.JSON(http.StatusOK, gin.H{"data": signUps})
}
