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

// EmailHandler holds the email campaign service.
type EmailHandler struct {
	emailService services.EmailService
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(es services.EmailService) *EmailHandler {
	return &EmailHandler{emailService: es}
}

// CreateEmail handles admin creation of a campaign draft.
func (h *EmailHandler) CreateEmail(c *gin.Context) {
	var req services.CreateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateEmail: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	email, err := h.emailService.CreateEmail(req)
	if err != nil {
		utils.LogError(err, "CreateEmail: Error from emailService.CreateEmail")
		if errors.Is(err, services.ErrEmailValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create email.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, email)
}

// GetEmails lists all campaigns, drafts and sent.
func (h *EmailHandler) GetEmails(c *gin.Context) {
	emails, err := h.emailService.ListEmails()
	if err != nil {
		utils.LogError(err, "GetEmails: Error from emailService.ListEmails")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch emails.", "Internal error"))
		return
	}
	if emails == nil {
		emails = []models.Email{}
	}
	c.JSON(http.StatusOK, gin.H{"data": emails})
}

// GetEmailByID fetches a single campaign.
func (h *EmailHandler) GetEmailByID(c *gin.Context) {
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid email ID format.", err.Error()))
		return
	}

	email, err := h.emailService.GetEmailByID(emailID)
	if err != nil {
		utils.LogError(err, "GetEmailByID: Error from emailService.GetEmailByID")
		if errors.Is(err, services.ErrEmailNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Email not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch email.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, email)
}

// PreviewAudience returns who the campaign would reach if sent now.
func (h *EmailHandler) PreviewAudience(c *gin.Context) {
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid email ID format.", err.Error()))
		return
	}

	email, err := h.emailService.GetEmailByID(emailID)
	if err != nil {
		if errors.Is(err, services.ErrEmailNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Email not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch email.", "Internal error"))
		}
		return
	}

	audience, err := h.emailService.ResolveAudience(email)
	if err != nil {
		utils.LogError(err, "PreviewAudience: Error from emailService.ResolveAudience")
		if errors.Is(err, services.ErrEmailValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve audience.", "Internal error"))
		}
		return
	}

	if audience == nil {
		audience = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"data": audience, "count": len(audience)})
}

// UpdateEmail edits a draft. Sent campaigns are immutable.
func (h *EmailHandler) UpdateEmail(c *gin.Context) {
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid email ID format.", err.Error()))
		return
	}

	var req services.UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateEmail: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	email, err := h.emailService.UpdateEmail(emailID, req)
	if err != nil {
		utils.LogError(err, "UpdateEmail: Error from emailService.UpdateEmail")
		if errors.Is(err, services.ErrEmailNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Email not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrEmailNotDraft) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Sent campaigns cannot be edited.", err.Error()))
		} else if errors.Is(err, services.ErrEmailValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update email.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, email)
}

// DeleteEmail removes a campaign.
func (h *EmailHandler) DeleteEmail(c *gin.Context) {
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid email ID format.", err.Error()))
		return
	}

	if err := h.emailService.DeleteEmail(emailID); err != nil {
		utils.LogError(err, "DeleteEmail: Error from emailService.DeleteEmail")
		if errors.Is(err, services.ErrEmailNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Email not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete email.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email deleted."})
}

// SendEmail dispatches a draft to its audience.
func (h *EmailHandler) SendEmail(c *gin.Context) {
	emailID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid email ID format.", err.Error()))
		return
	}

	email, err := h.emailService.SendCampaign(c.Request.Context(), emailID)
	if err != nil {
		utils.LogError(err, "SendEmail: Error from emailService.SendCampaign")
		if errors.Is(err, services.ErrEmailNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Email not found.", err.Error()))
		} else if errors.Is(err, services.ErrEmailNotDraft) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "This campaign was already sent.", err.Error()))
		} else if errors.Is(err, services.ErrEmptyAudience) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "The campaign resolves to no recipients.", err.Error()))
		} else if errors.Is(err, services.ErrEmailValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to send campaign.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, email)
}
