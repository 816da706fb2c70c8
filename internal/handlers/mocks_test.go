package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"earnbot/internal/models"
	"earnbot/internal/pagination"
	"earnbot/internal/services"
	"earnbot/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// --- mock account service ---

type mockAccountService struct {
	createAccountFn      func(externalID int64, displayName, firstName, lastName string, referrerID *int64) (*models.Account, error)
	getAccountFn         func(externalID int64) (*models.Account, error)
	listAccountsFn       func() ([]models.Account, error)
	updateAccountFn      func(externalID int64, fields services.AccountUpdateFields) (*models.Account, error)
	updateVerificationFn func(externalID int64, verified bool, channelJoinedAt *time.Time) (*models.Account, error)
	deleteAccountFn      func(externalID int64) error
}

func (m *mockAccountService) CreateAccount(externalID int64, displayName, firstName, lastName string, referrerID *int64) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(externalID, displayName, firstName, lastName, referrerID)
	}
	return &models.Account{ExternalID: externalID, DisplayName: displayName}, nil
}

func (m *mockAccountService) GetAccount(externalID int64) (*models.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(externalID)
	}
	return &models.Account{ExternalID: externalID}, nil
}

func (m *mockAccountService) ListAccounts() ([]models.Account, error) {
	if m.listAccountsFn != nil {
		return m.listAccountsFn()
	}
	return []models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(externalID int64, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(externalID, fields)
	}
	return &models.Account{ExternalID: externalID}, nil
}

func (m *mockAccountService) UpdateVerification(externalID int64, verified bool, channelJoinedAt *time.Time) (*models.Account, error) {
	if m.updateVerificationFn != nil {
		return m.updateVerificationFn(externalID, verified, channelJoinedAt)
	}
	return &models.Account{ExternalID: externalID, Verified: verified}, nil
}

func (m *mockAccountService) IncrementEarnings(tx *gorm.DB, externalID int64, adDelta int64, earnDelta decimal.Decimal) error {
	return nil
}

func (m *mockAccountService) RecordReferral(referrerID int64) error {
	return nil
}

func (m *mockAccountService) DeleteAccount(externalID int64) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(externalID)
	}
	return nil
}

// --- mock ledger service ---

type mockLedgerService struct {
	listRecentFn func(limit int) ([]models.LedgerEntry, error)
}

func (m *mockLedgerService) Append(tx *gorm.DB, params services.AppendParams) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{}, nil
}

func (m *mockLedgerService) FindByIdempotencyKey(tx *gorm.DB, key string) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{}, nil
}

func (m *mockLedgerService) ListRecent(limit int) ([]models.LedgerEntry, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(limit)
	}
	return []models.LedgerEntry{}, nil
}

func (m *mockLedgerService) ListByAccount(externalID int64, filter services.EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	resp := pagination.NewPageResponse([]models.LedgerEntry{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockLedgerService) AggregateDailyEarnings(externalID int64, event models.LedgerEvent) ([]services.DailyEarning, error) {
	return []services.DailyEarning{}, nil
}

func (m *mockLedgerService) AggregateTotal(externalID int64, event models.LedgerEvent) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

// --- mock earning service ---

type mockEarningService struct {
	recordAdViewFn       func(externalID int64, amount decimal.Decimal, symbol, idempotencyKey string) (*models.LedgerEntry, bool, error)
	getEarningsSummaryFn func(externalID int64) (*services.EarningsSummary, error)
	getAccountHistoryFn  func(externalID int64, filter services.EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error)
}

func (m *mockEarningService) RecordAdView(externalID int64, amount decimal.Decimal, symbol, idempotencyKey string) (*models.LedgerEntry, bool, error) {
	if m.recordAdViewFn != nil {
		return m.recordAdViewFn(externalID, amount, symbol, idempotencyKey)
	}
	return &models.LedgerEntry{ExternalID: externalID, Amount: amount, Symbol: symbol}, true, nil
}

func (m *mockEarningService) GetEarningsSummary(externalID int64) (*services.EarningsSummary, error) {
	if m.getEarningsSummaryFn != nil {
		return m.getEarningsSummaryFn(externalID)
	}
	return &services.EarningsSummary{DailyEarnings: []services.DailyEarning{}, Payable: decimal.Zero}, nil
}

func (m *mockEarningService) GetAccountHistory(externalID int64, filter services.EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	if m.getAccountHistoryFn != nil {
		return m.getAccountHistoryFn(externalID, filter, page)
	}
	resp := pagination.NewPageResponse([]models.LedgerEntry{}, 1, 20, 0)
	return &resp, nil
}

// verify interface compliance
var (
	_ services.AccountServicer = (*mockAccountService)(nil)
	_ services.LedgerServicer  = (*mockLedgerService)(nil)
	_ services.EarningServicer = (*mockEarningService)(nil)
)

// --- request helpers ---

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return doRequestWithHeaders(r, method, path, body, nil)
}

func doRequestWithHeaders(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
