package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"earnbot/internal/telegram"
)

// BotStatusReporter exposes the bot's current health.
type BotStatusReporter interface {
	Status() telegram.Status
	LastError() string
}

// DatabasePinger checks database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves liveness and bot status.
type SystemHandler struct {
	bot BotStatusReporter
	db  DatabasePinger
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(bot BotStatusReporter, db DatabasePinger) *SystemHandler {
	return &SystemHandler{bot: bot, db: db}
}

// Health reports that the server is up
// @Summary     Health check
// @Tags        system
// @Produce     json
// @Success     200 {object} map[string]interface{} "Server is up"
// @Router      /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		resp["database"] = "ok"
		if err := h.db.Ping(ctx); err != nil {
			resp["database"] = "unreachable"
		}
	}

	c.JSON(http.StatusOK, resp)
}

// BotStatus reports the Telegram bot's state
// @Summary     Bot status
// @Tags        system
// @Produce     json
// @Success     200 {object} map[string]interface{} "not initialized, running or error"
// @Router      /bot-status [get]
func (h *SystemHandler) BotStatus(c *gin.Context) {
	resp := gin.H{"status": h.bot.Status()}
	if msg := h.bot.LastError(); msg != "" {
		resp["error"] = msg
	}
	c.JSON(http.StatusOK, resp)
}
