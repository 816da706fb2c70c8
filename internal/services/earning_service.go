package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/models"
	"earnbot/internal/pagination"
)

// AdViewReward is credited to an account's earned counter for every ad view,
// regardless of the amount recorded in the ledger.
var AdViewReward = decimal.New(1, -2)

// earningService records ad views and reports earnings.
type earningService struct {
	db             *gorm.DB
	accountService AccountServicer
	ledgerService  LedgerServicer
}

// NewEarningService creates a new EarningServicer.
func NewEarningService(db *gorm.DB, accountService AccountServicer, ledgerService LedgerServicer) EarningServicer {
	return &earningService{
		db:             db,
		accountService: accountService,
		ledgerService:  ledgerService,
	}
}

// RecordAdView appends an ads ledger entry and bumps the account counters in
// one database transaction.
func (s *earningService) RecordAdView(externalID int64, amount decimal.Decimal, symbol, idempotencyKey string) (*models.LedgerEntry, bool, error) {
	if externalID <= 0 {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "externalId is required")
	}

	if _, err := s.accountService.GetAccount(externalID); err != nil {
		return nil, false, err
	}

	var entry *models.LedgerEntry
	created := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if idempotencyKey != "" {
			existing, err := s.ledgerService.FindByIdempotencyKey(tx, idempotencyKey)
			if err == nil {
				entry = existing
				return nil
			}
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
		}

		appended, err := s.ledgerService.Append(tx, AppendParams{
			ExternalID:     externalID,
			Amount:         amount,
			Symbol:         symbol,
			Event:          models.LedgerEventAds,
			PaymentChannel: models.PaymentChannelInApp,
			IdempotencyKey: idempotencyKey,
		})
		if err != nil {
			return err
		}

		if err := s.accountService.IncrementEarnings(tx, externalID, 1, AdViewReward); err != nil {
			return err
		}

		entry = appended
		created = true
		return nil
	})
	if err != nil {
		// Two requests racing on one key: the loser sees the winner's row.
		if idempotencyKey != "" && errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := s.ledgerService.FindByIdempotencyKey(s.db, idempotencyKey)
			if findErr != nil {
				return nil, false, findErr
			}
			entry, created = existing, false
		} else {
			return nil, false, err
		}
	}

	if !created && entry.ExternalID != externalID {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "idempotency key was already used by another account")
	}

	return entry, created, nil
}

// GetEarningsSummary returns the daily breakdown and lifetime total of ad earnings.
func (s *earningService) GetEarningsSummary(externalID int64) (*EarningsSummary, error) {
	if _, err := s.accountService.GetAccount(externalID); err != nil {
		return nil, err
	}

	daily, err := s.ledgerService.AggregateDailyEarnings(externalID, models.LedgerEventAds)
	if err != nil {
		return nil, err
	}

	total, err := s.ledgerService.AggregateTotal(externalID, models.LedgerEventAds)
	if err != nil {
		return nil, err
	}

	return &EarningsSummary{DailyEarnings: daily, Payable: total}, nil
}

// GetAccountHistory returns a page of the account's ledger entries.
func (s *earningService) GetAccountHistory(externalID int64, filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	if _, err := s.accountService.GetAccount(externalID); err != nil {
		return nil, err
	}
	return s.ledgerService.ListByAccount(externalID, filter, page)
}
