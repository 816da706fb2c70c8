package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/models"
	"earnbot/internal/services"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	r := gin.New()
	r.POST("/user", handler.CreateUser)
	r.GET("/user", handler.ListUsers)
	r.GET("/user/:externalId", handler.GetUser)
	r.PUT("/user/:externalId", handler.UpdateUser)
	r.DELETE("/user/:externalId", handler.DeleteUser)
	return r
}

func TestUserHandler_CreateUser(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotReferrer *int64
		svc := &mockAccountService{
			createAccountFn: func(externalID int64, displayName, firstName, lastName string, referrerID *int64) (*models.Account, error) {
				gotReferrer = referrerID
				return &models.Account{ExternalID: externalID, DisplayName: displayName, FirstName: firstName}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "POST", "/user", `{"externalId":42,"displayName":"alice","firstName":"Alice","referrerId":7}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		account := parseJSON(t, rec)["account"].(map[string]interface{})
		if account["displayName"] != "alice" {
			t.Errorf("expected alice, got %v", account["displayName"])
		}
		if account["externalId"] != float64(42) {
			t.Errorf("expected externalId 42, got %v", account["externalId"])
		}
		if gotReferrer == nil || *gotReferrer != 7 {
			t.Errorf("expected referrer 7 to be passed through, got %v", gotReferrer)
		}
	})

	t.Run("returns 400 on missing display name", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockAccountService{}))

		rec := doRequest(r, "POST", "/user", `{"externalId":42}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing external id", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockAccountService{}))

		rec := doRequest(r, "POST", "/user", `{"displayName":"alice"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 on duplicate", func(t *testing.T) {
		svc := &mockAccountService{
			createAccountFn: func(int64, string, string, string, *int64) (*models.Account, error) {
				return nil, apperrors.ErrDuplicateAccount
			},
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "POST", "/user", `{"externalId":42,"displayName":"alice"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_ACCOUNT")
	})

	t.Run("returns 500 on storage failure", func(t *testing.T) {
		svc := &mockAccountService{
			createAccountFn: func(int64, string, string, string, *int64) (*models.Account, error) {
				return nil, apperrors.ErrInternalServer
			},
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "POST", "/user", `{"externalId":42,"displayName":"alice"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

func TestUserHandler_GetUser(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockAccountService{}))

		rec := doRequest(r, "GET", "/user/42", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when absent", func(t *testing.T) {
		svc := &mockAccountService{
			getAccountFn: func(int64) (*models.Account, error) { return nil, apperrors.ErrAccountNotFound },
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "GET", "/user/42", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})

	t.Run("returns 400 on bad id", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockAccountService{}))

		rec := doRequest(r, "GET", "/user/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUserHandler_ListUsers(t *testing.T) {
	svc := &mockAccountService{
		listAccountsFn: func() ([]models.Account, error) {
			return []models.Account{{ExternalID: 1}, {ExternalID: 2}}, nil
		},
	}
	r := setupUserRouter(NewUserHandler(svc))

	rec := doRequest(r, "GET", "/user", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	accounts := parseJSON(t, rec)["accounts"].([]interface{})
	if len(accounts) != 2 {
		t.Errorf("expected 2 accounts, got %d", len(accounts))
	}
}

func TestUserHandler_UpdateUser(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		var got services.AccountUpdateFields
		svc := &mockAccountService{
			updateAccountFn: func(externalID int64, fields services.AccountUpdateFields) (*models.Account, error) {
				got = fields
				return &models.Account{ExternalID: externalID}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "PUT", "/user/42", `{"lastName":"Smith"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.LastName == nil || *got.LastName != "Smith" {
			t.Errorf("expected last name Smith, got %v", got.LastName)
		}
		if got.DisplayName != nil || got.FirstName != nil {
			t.Error("expected omitted fields to stay nil")
		}
	})

	t.Run("returns 409 on name collision", func(t *testing.T) {
		svc := &mockAccountService{
			updateAccountFn: func(int64, services.AccountUpdateFields) (*models.Account, error) {
				return nil, apperrors.ErrDuplicateAccount
			},
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "PUT", "/user/42", `{"displayName":"bob"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})
}

func TestUserHandler_DeleteUser(t *testing.T) {
	t.Run("returns success", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockAccountService{}))

		rec := doRequest(r, "DELETE", "/user/42", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["success"] != true {
			t.Error("expected success true")
		}
	})

	t.Run("returns 404 when absent", func(t *testing.T) {
		svc := &mockAccountService{
			deleteAccountFn: func(int64) error { return apperrors.ErrAccountNotFound },
		}
		r := setupUserRouter(NewUserHandler(svc))

		rec := doRequest(r, "DELETE", "/user/42", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
