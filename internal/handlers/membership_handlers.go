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

// MembershipHandler holds the membership service. It covers trimesters
// and membership fees.
type MembershipHandler struct {
	membershipService services.MembershipService
}

// NewMembershipHandler creates a new MembershipHandler.
func NewMembershipHandler(ms services.MembershipService) *MembershipHandler {
	return &MembershipHandler{membershipService: ms}
}

// CreateTrimester handles admin creation of a trimester.
func (h *MembershipHandler) CreateTrimester(c *gin.Context) {
	var req services.CreateTrimesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateTrimester: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	trimester, err := h.membershipService.CreateTrimester(req)
	if err != nil {
		utils.LogError(err, "CreateTrimester: Error from membershipService.CreateTrimester")
		if errors.Is(err, services.ErrTrimesterValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create trimester.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, trimester)
}

// GetTrimesters lists all trimesters.
func (h *MembershipHandler) GetTrimesters(c *gin.Context) {
	trimesters, err := h.membershipService.ListTrimesters()
	if err != nil {
		utils.LogError(err, "GetTrimesters: Error from membershipService.ListTrimesters")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch trimesters.", "Internal error"))
		return
	}
	if trimesters == nil {
		trimesters = []models.Trimester{}
	}
	c.JSON(http.StatusOK, gin.H{"data": trimesters})
}

// GetTrimesterByID fetches a single trimester.
func (h *MembershipHandler) GetTrimesterByID(c *gin.Context) {
	trimesterID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid trimester ID format.", err.Error()))
		return
	}

	trimester, err := h.membershipService.GetTrimesterByID(trimesterID)
	if err != nil {
		utils.LogError(err, "GetTrimesterByID: Error from membershipService.GetTrimesterByID")
		if errors.Is(err, services.ErrTrimesterNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Trimester not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch trimester.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, trimester)
}

// UpdateTrimester handles admin updates to a trimester.
func (h *MembershipHandler) UpdateTrimester(c *gin.Context) {
	trimesterID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid trimester ID format.", err.Error()))
		return
	}

	var req services.UpdateTrimesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateTrimester: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	trimester, err := h.membershipService.UpdateTrimester(trimesterID, req)
	if err != nil {
		utils.LogError(err, "UpdateTrimester: Error from membershipService.UpdateTrimester")
		if errors.Is(err, services.ErrTrimesterNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Trimester not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrTrimesterValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update trimester.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, trimester)
}

// DeleteTrimester handles admin deletion of a trimester.
func (h *MembershipHandler) DeleteTrimester(c *gin.Context) {
	trimesterID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid trimester ID format.", err.Error()))
		return
	}

	if err := h.membershipService.DeleteTrimester(trimesterID); err != nil {
		utils.LogError(err, "DeleteTrimester: Error from membershipService.DeleteTrimester")
		if errors.Is(err, services.ErrTrimesterNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Trimester not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete trimester.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trimester deleted."})
}

// ComputeDueFees bills all current members for a trimester. Calling it
// twice creates nothing new, so the response lists only the fees this
// call created.
func (h *MembershipHandler) ComputeDueFees(c *gin.Context) {
	trimesterID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid trimester ID format.", err.Error()))
		return
	}

	fees, err := h.membershipService.ComputeDueFees(c.Request.Context(), trimesterID)
	if err != nil {
		utils.LogError(err, "ComputeDueFees: Error from membershipService.ComputeDueFees")
		if errors.Is(err, services.ErrTrimesterNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Trimester not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute due fees.", "Internal error"))
		}
		return
	}

	if fees == nil {
		fees = []models.MembershipFee{}
	}
	c.JSON(http.StatusOK, gin.H{"data": fees, "created": len(fees)})
}

// GetPendingFees lists all pending membership fees with user and
// trimester details for the admin dashboard.
func (h *MembershipHandler) GetPendingFees(c *gin.Context) {
	fees, err := h.membershipService.GetPendingMembershipFees()
	if err != nil {
		utils.LogError(err, "GetPendingFees: Error from membershipService.GetPendingMembershipFees")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch pending fees.", "Internal error"))
		return
	}
	if fees == nil {
		fees = []models.MembershipFee{}
	}
	c.JSON(http.StatusOK, gin.H{"data": fees})
}

// GetMyFees lists the logged-in user's membership fees.
func (h *MembershipHandler) GetMyFees(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	fees, err := h.membershipService.ListUserFees(sess.Profile.ID)
	if err != nil {
		utils.LogError(err, "GetMyFees: Error from membershipService.ListUserFees")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch membership fees.", "Internal error"))
		return
	}
	if fees == nil {
		fees = []models.MembershipFee{}
	}
	c.JSON(http.StatusOK, gin.H{"data": fees})
}

// PayFee opens a payment transaction for the logged-in user's own
// pending fee and returns the checkout link.
func (h *MembershipHandler) PayFee(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	feeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid fee ID format.", err.Error()))
		return
	}

	transaction, err := h.membershipService.PayFee(feeID, sess.Profile.ID)
	if err != nil {
		utils.LogError(err, "PayFee: Error from membershipService.PayFee")
		if errors.Is(err, services.ErrMembershipFeeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Membership fee not found.", err.Error()))
		} else if errors.Is(err, services.ErrFeeNotOwned) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "This fee belongs to another member.", err.Error()))
		} else if errors.Is(err, services.ErrFeeNotPayable) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "This fee is not pending payment.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to start fee payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, transaction)
}
