package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "earnbot/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "test-launch-secret"

func setupLaunchRouter(tokens *LaunchTokens) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/me", LaunchAuthMiddleware(tokens), func(c *gin.Context) {
		id, _ := ExternalIDFromContext(c)
		c.JSON(http.StatusOK, gin.H{"externalId": id})
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrDuplicateAccount)
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
	})
	return r
}

func doRequest(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseBody(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestLaunchTokens(t *testing.T) {
	t.Run("round_trip", func(t *testing.T) {
		tokens := NewLaunchTokens(testSecret, time.Hour)
		token, err := tokens.Issue(42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if claims.ExternalID != 42 {
			t.Errorf("expected external id 42, got %d", claims.ExternalID)
		}
		if claims.Subject != "42" {
			t.Errorf("expected subject 42, got %s", claims.Subject)
		}
	})

	t.Run("wrong_secret", func(t *testing.T) {
		token, _ := NewLaunchTokens("other-secret", time.Hour).Issue(42)
		if _, err := NewLaunchTokens(testSecret, time.Hour).Validate(token); err == nil {
			t.Error("expected validation to fail")
		}
	})

	t.Run("expired", func(t *testing.T) {
		tokens := NewLaunchTokens(testSecret, time.Minute)
		tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _ := tokens.Issue(42)

		tokens.now = time.Now
		if _, err := tokens.Validate(token); err == nil {
			t.Error("expected expired token to fail")
		}
	})

	t.Run("wrong_token_type", func(t *testing.T) {
		claims := &LaunchClaims{
			ExternalID: 42,
			TokenType:  "access",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if _, err := NewLaunchTokens(testSecret, time.Hour).Validate(token); err == nil {
			t.Error("expected non-launch token to fail")
		}
	})
}

func TestLaunchAuthMiddleware(t *testing.T) {
	tokens := NewLaunchTokens(testSecret, time.Hour)
	valid, _ := tokens.Issue(42)
	r := setupLaunchRouter(tokens)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid_token", "Bearer " + valid, http.StatusOK},
		{"missing_header", "", http.StatusUnauthorized},
		{"bad_format", "Token " + valid, http.StatusUnauthorized},
		{"garbage_token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(r, "/me", tt.header)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus == http.StatusOK {
				body := parseBody(t, rec)
				if body["externalId"] != float64(42) {
					t.Errorf("expected externalId 42, got %v", body["externalId"])
				}
				return
			}
			if code := errorCode(t, rec); code != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED, got %s", code)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	r := setupLaunchRouter(NewLaunchTokens(testSecret, time.Hour))

	t.Run("app_error", func(t *testing.T) {
		rec := doRequest(r, "/fail", "")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "DUPLICATE_ACCOUNT" {
			t.Errorf("expected DUPLICATE_ACCOUNT, got %s", code)
		}
	})

	t.Run("unexpected_error_hidden", func(t *testing.T) {
		rec := doRequest(r, "/boom", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if code := errorCode(t, rec); code != "INTERNAL_ERROR" {
			t.Errorf("expected INTERNAL_ERROR, got %s", code)
		}
	})
	t.Run("auth_failure_rendered_after_abort", func(t *testing.T) {
		reached := false
		engine := gin.New()
		engine.Use(ErrorHandler())
		engine.GET("/me", LaunchAuthMiddleware(NewLaunchTokens(testSecret, time.Hour)), func(c *gin.Context) {
			reached = true
			c.Status(http.StatusOK)
		})

		rec := doRequest(engine, "/me", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if reached {
			t.Error("handler must not run after the middleware aborts")
		}
		body := parseBody(t, rec)
		errObj := body["error"].(map[string]interface{})
		if errObj["message"] != "Authorization header is required" {
			t.Errorf("unexpected message %v", errObj["message"])
		}
	})

	t.Run("written_response_left_alone", func(t *testing.T) {
		engine := gin.New()
		engine.Use(ErrorHandler())
		engine.GET("/partial", func(c *gin.Context) {
			c.JSON(http.StatusAccepted, gin.H{"ok": true})
			_ = c.Error(errors.New("late failure"))
		})

		rec := doRequest(engine, "/partial", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", rec.Code)
		}
		if _, ok := parseBody(t, rec)["error"]; ok {
			t.Error("expected no error body appended to a written response")
		}
	})
}

func TestWriteError(t *testing.T) {
	engine := gin.New()
	engine.GET("/dup", func(c *gin.Context) { WriteError(c, apperrors.ErrDuplicateAccount) })
	engine.GET("/raw", func(c *gin.Context) { WriteError(c, errors.New("password=hunter2")) })

	rec := doRequest(engine, "/dup", "")
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "DUPLICATE_ACCOUNT" {
		t.Errorf("expected 409 DUPLICATE_ACCOUNT, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(engine, "/raw", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Error("internal error details leaked to the client")
	}
}

func TestRequestLogging(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := doRequest(r, "/ping", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}
