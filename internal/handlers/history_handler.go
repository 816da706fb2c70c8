package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/models"
	"earnbot/internal/pagination"
	"earnbot/internal/services"
)

// recentHistoryLimit caps GET /history.
const recentHistoryLimit = 100

// HistoryHandler handles ledger and earnings requests.
type HistoryHandler struct {
	ledgerService  services.LedgerServicer
	earningService services.EarningServicer
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(ledgerService services.LedgerServicer, earningService services.EarningServicer) *HistoryHandler {
	return &HistoryHandler{ledgerService: ledgerService, earningService: earningService}
}

// RecordAdViewRequest represents the request payload for recording an ad view
type RecordAdViewRequest struct {
	ExternalID     int64            `json:"externalId" binding:"required,gt=0"`
	Amount         *decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
	Symbol         string           `json:"symbol" binding:"required,asset_symbol"`
	IdempotencyKey string           `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// AccountEntriesQuery holds the paging and filter parameters for an account's history.
type AccountEntriesQuery struct {
	pagination.PageRequest
	Event   string `form:"event" binding:"omitempty,ledger_event"`
	Channel string `form:"channel" binding:"omitempty,payment_channel"`
}

// RecordAdView appends an ads ledger entry and credits the account
// @Summary     Record an ad view
// @Description Appends an ads entry and bumps the account's ad count and earnings in one transaction. Replaying an idempotency key returns the original entry with 200.
// @Tags        history
// @Accept      json
// @Produce     json
// @Param       request body RecordAdViewRequest true "Ad view"
// @Param       Idempotency-Key header string false "Idempotency key, used when the body has none"
// @Success     201 {object} map[string]interface{} "Entry created"
// @Success     200 {object} map[string]interface{} "Entry replayed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /history [post]
func (h *HistoryHandler) RecordAdView(c *gin.Context) {
	var req RecordAdViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	}

	entry, created, err := h.earningService.RecordAdView(req.ExternalID, *req.Amount, req.Symbol, key)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"entry": entry})
}

// ListRecent returns the most recent ledger entries across all accounts
// @Summary     Recent ledger entries
// @Tags        history
// @Produce     json
// @Success     200 {object} map[string]interface{} "Entries, newest first"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /history [get]
func (h *HistoryHandler) ListRecent(c *gin.Context) {
	entries, err := h.ledgerService.ListRecent(recentHistoryLimit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetEarningsSummary returns the account's daily ad earnings and payable total
// @Summary     Earnings summary
// @Tags        history
// @Produce     json
// @Param       externalId path int true "Telegram user id"
// @Success     200 {object} services.EarningsSummary "Daily earnings and payable total"
// @Failure     400 {object} ErrorResponse "Invalid externalId"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /history/{externalId} [get]
func (h *HistoryHandler) GetEarningsSummary(c *gin.Context) {
	externalID, err := parseExternalID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.earningService.GetEarningsSummary(externalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListAccountEntries returns a page of one account's ledger entries
// @Summary     Account ledger entries
// @Tags        history
// @Produce     json
// @Param       externalId path int true "Telegram user id"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size (max 100)"
// @Param       event query string false "Entry kind: deposit, ads, withdraw or referral_commission"
// @Param       channel query string false "Payment channel: in_app, ton_wallet, telegram_stars or crypto_bot"
// @Success     200 {object} map[string]interface{} "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /history/{externalId}/entries [get]
func (h *HistoryHandler) ListAccountEntries(c *gin.Context) {
	externalID, err := parseExternalID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query AccountEntriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.EntryFilter{
		Event:          models.LedgerEvent(query.Event),
		PaymentChannel: models.PaymentChannel(query.Channel),
	}
	result, err := h.earningService.GetAccountHistory(externalID, filter, query.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
