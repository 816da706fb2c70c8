package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/services"
)

// UserHandler handles account CRUD requests.
type UserHandler struct {
	accountService services.AccountServicer
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accountService services.AccountServicer) *UserHandler {
	return &UserHandler{accountService: accountService}
}

// CreateUserRequest represents the request payload for registering an account
type CreateUserRequest struct {
	ExternalID  int64  `json:"externalId" binding:"required,gt=0"`
	DisplayName string `json:"displayName" binding:"required,display_name"`
	FirstName   string `json:"firstName" binding:"max=100"`
	LastName    string `json:"lastName" binding:"max=100"`
	ReferrerID  *int64 `json:"referrerId" binding:"omitempty,gt=0"`
}

// UpdateUserRequest represents the request payload for a partial profile update.
type UpdateUserRequest struct {
	DisplayName *string `json:"displayName" binding:"omitempty,display_name"`
	FirstName   *string `json:"firstName" binding:"omitempty,max=100"`
	LastName    *string `json:"lastName" binding:"omitempty,max=100"`
}

// CreateUser registers a new account
// @Summary     Create an account
// @Description Register a new account keyed by its Telegram user id
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       request body CreateUserRequest true "Account details"
// @Success     201 {object} map[string]interface{} "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Account already exists"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.CreateAccount(req.ExternalID, req.DisplayName, req.FirstName, req.LastName, req.ReferrerID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// GetUser returns one account
// @Summary     Get an account
// @Tags        users
// @Produce     json
// @Param       externalId path int true "Telegram user id"
// @Success     200 {object} map[string]interface{} "Account"
// @Failure     400 {object} ErrorResponse "Invalid externalId"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /user/{externalId} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	externalID, err := parseExternalID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccount(externalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// ListUsers returns every account
// @Summary     List accounts
// @Tags        users
// @Produce     json
// @Success     200 {object} map[string]interface{} "Accounts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /user [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// UpdateUser applies a partial profile update
// @Summary     Update an account
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       externalId path int true "Telegram user id"
// @Param       request body UpdateUserRequest true "Fields to change"
// @Success     200 {object} map[string]interface{} "Updated account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Display name taken"
// @Router      /user/{externalId} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	externalID, err := parseExternalID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(externalID, services.AccountUpdateFields{
		DisplayName: req.DisplayName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteUser removes an account. Its ledger entries are kept.
// @Summary     Delete an account
// @Tags        users
// @Produce     json
// @Param       externalId path int true "Telegram user id"
// @Success     200 {object} map[string]interface{} "Deleted"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /user/{externalId} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	externalID, err := parseExternalID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(externalID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
