package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/middleware"
	"earnbot/internal/services"
)

// MeHandler serves the web app's view of the launching account.
type MeHandler struct {
	accountService services.AccountServicer
	earningService services.EarningServicer
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(accountService services.AccountServicer, earningService services.EarningServicer) *MeHandler {
	return &MeHandler{accountService: accountService, earningService: earningService}
}

// GetMe returns the account and earnings of the launch token's subject
// @Summary     Current account
// @Tags        me
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Account and earnings summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /me [get]
func (h *MeHandler) GetMe(c *gin.Context) {
	externalID, ok := middleware.ExternalIDFromContext(c)
	if !ok {
		respondWithError(c, apperrors.ErrUnauthorized)
		return
	}

	account, err := h.accountService.GetAccount(externalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.earningService.GetEarningsSummary(externalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account, "summary": summary})
}
