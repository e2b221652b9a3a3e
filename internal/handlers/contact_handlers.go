package handlers

import (
	"errors"
	"net/http"

	"acroyoga_club_backend/internal/services"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ContactHandler holds the contact service.
type ContactHandler struct {
	contactService services.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(cs services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: cs}
}

// SubmitContactForm relays a public contact-form message to the club
// inbox. Open to anonymous visitors, rate limited per client IP.
func (h *ContactHandler) SubmitContactForm(c *gin.Context) {
	var req services.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "SubmitContactForm: Failed to bind JSON")
		utils.RespondValidationFailed(c, err)
		return
	}

	if err := h.contactService.Submit(c.Request.Context(), req, c.ClientIP()); err != nil {
		utils.LogError(err, "SubmitContactForm: Error from contactService.Submit")
		if errors.Is(err, services.ErrRateLimited) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusTooManyRequests, utils.ErrCodeTooManyRequests, "Too many messages; please try again later.", ""))
		} else if errors.Is(err, services.ErrInvalidContact) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else if errors.Is(err, services.ErrMailProviderDown) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeDependencyFailed, "Failed to send email", ""))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to send message.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your message has been sent."})
}
