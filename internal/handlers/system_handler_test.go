package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"earnbot/internal/middleware"
	"earnbot/internal/models"
	"earnbot/internal/telegram"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestSystemHandler_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", NewSystemHandler(telegram.NewStatusTracker(), fakePinger{}).Health)

		rec := doRequest(r, "GET", "/health", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["status"] != "ok" {
			t.Errorf("expected status ok, got %v", result["status"])
		}
		if _, err := time.Parse(time.RFC3339, result["time"].(string)); err != nil {
			t.Errorf("expected RFC3339 time, got %v", result["time"])
		}
	})

	t.Run("database_unreachable", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", NewSystemHandler(telegram.NewStatusTracker(), fakePinger{err: errors.New("down")}).Health)

		rec := doRequest(r, "GET", "/health", "")

		if parseJSON(t, rec)["database"] != "unreachable" {
			t.Error("expected database unreachable")
		}
	})
}

func TestSystemHandler_BotStatus(t *testing.T) {
	tracker := telegram.NewStatusTracker()
	r := gin.New()
	r.GET("/bot-status", NewSystemHandler(tracker, nil).BotStatus)

	rec := doRequest(r, "GET", "/bot-status", "")
	if parseJSON(t, rec)["status"] != "not initialized" {
		t.Errorf("expected not initialized, got %s", rec.Body.String())
	}

	tracker.Set(telegram.StatusRunning, nil)
	rec = doRequest(r, "GET", "/bot-status", "")
	if parseJSON(t, rec)["status"] != "running" {
		t.Errorf("expected running, got %s", rec.Body.String())
	}
}

func TestMeHandler_GetMe(t *testing.T) {
	tokens := middleware.NewLaunchTokens("secret", time.Hour)
	accounts := &mockAccountService{
		getAccountFn: func(externalID int64) (*models.Account, error) {
			return &models.Account{ExternalID: externalID, DisplayName: "alice"}, nil
		},
	}
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/me", middleware.LaunchAuthMiddleware(tokens), NewMeHandler(accounts, &mockEarningService{}).GetMe)

	t.Run("returns account for token subject", func(t *testing.T) {
		token, _ := tokens.Issue(42)
		rec := doRequestWithHeaders(r, "GET", "/me", "", map[string]string{"Authorization": "Bearer " + token})

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		account := parseJSON(t, rec)["account"].(map[string]interface{})
		if account["externalId"] != float64(42) {
			t.Errorf("expected externalId 42, got %v", account["externalId"])
		}
	})

	t.Run("returns 401 without token", func(t *testing.T) {
		rec := doRequest(r, "GET", "/me", "")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "UNAUTHORIZED")
	})
}
