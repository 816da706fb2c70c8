package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/middleware"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// parseExternalID parses the :externalId path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
func parseExternalID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("externalId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid externalId")
	}
	return id, nil
}

// respondWithError writes a consistent JSON error response through the
// shared error renderer.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}
