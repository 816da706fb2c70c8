package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"earnbot/internal/models"
	"earnbot/internal/pagination"
)

// AccountUpdateFields holds the optional profile fields a caller may change.
type AccountUpdateFields struct {
	DisplayName *string
	FirstName   *string
	LastName    *string
}

// AccountServicer defines the contract for the account store.
type AccountServicer interface {
	CreateAccount(externalID int64, displayName, firstName, lastName string, referrerID *int64) (*models.Account, error)
	GetAccount(externalID int64) (*models.Account, error)
	ListAccounts() ([]models.Account, error)
	UpdateAccount(externalID int64, fields AccountUpdateFields) (*models.Account, error)
	UpdateVerification(externalID int64, verified bool, channelJoinedAt *time.Time) (*models.Account, error)
	IncrementEarnings(tx *gorm.DB, externalID int64, adDelta int64, earnDelta decimal.Decimal) error
	RecordReferral(referrerID int64) error
	DeleteAccount(externalID int64) error
}

// AppendParams describes a ledger entry to be written.
type AppendParams struct {
	ExternalID     int64
	Amount         decimal.Decimal
	Symbol         string
	Event          models.LedgerEvent
	PaymentChannel models.PaymentChannel
	IdempotencyKey string
}

// DailyEarning is the sum of one account's ledger amounts for a single UTC day.
type DailyEarning struct {
	Date  string          `json:"date"`
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Day   int             `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// EntryFilter narrows an account's ledger history. Zero fields match everything.
type EntryFilter struct {
	Event          models.LedgerEvent
	PaymentChannel models.PaymentChannel
}

// LedgerServicer defines the contract for the append-only earning ledger.
type LedgerServicer interface {
	Append(tx *gorm.DB, params AppendParams) (*models.LedgerEntry, error)
	FindByIdempotencyKey(tx *gorm.DB, key string) (*models.LedgerEntry, error)
	ListRecent(limit int) ([]models.LedgerEntry, error)
	ListByAccount(externalID int64, filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error)
	AggregateDailyEarnings(externalID int64, event models.LedgerEvent) ([]DailyEarning, error)
	AggregateTotal(externalID int64, event models.LedgerEvent) (decimal.Decimal, error)
}

// EarningsSummary is the per-day breakdown and lifetime total of ad earnings.
type EarningsSummary struct {
	DailyEarnings []DailyEarning  `json:"dailyEarnings"`
	Payable       decimal.Decimal `json:"payable"`
}

// EarningServicer defines the contract for recording and reporting earnings.
type EarningServicer interface {
	// RecordAdView returns the ledger entry and whether it was newly created.
	// A replayed idempotency key returns the original entry with created=false.
	RecordAdView(externalID int64, amount decimal.Decimal, symbol, idempotencyKey string) (*models.LedgerEntry, bool, error)
	GetEarningsSummary(externalID int64) (*EarningsSummary, error)
	GetAccountHistory(externalID int64, filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error)
}
