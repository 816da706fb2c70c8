package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/models"
	"earnbot/internal/pagination"
	"earnbot/internal/uuid"
)

// ledgerService handles the append-only earning ledger.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// Append writes a new ledger entry using tx. The owning account is not checked.
func (s *ledgerService) Append(tx *gorm.DB, params AppendParams) (*models.LedgerEntry, error) {
	symbol := strings.ToUpper(strings.TrimSpace(params.Symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}
	if params.Event == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "event is required")
	}

	channel := params.PaymentChannel
	if channel == "" {
		channel = models.PaymentChannelInApp
	}

	entry := &models.LedgerEntry{
		TransactionID:  uuid.NewTransactionID(),
		ExternalID:     params.ExternalID,
		Amount:         params.Amount,
		Symbol:         symbol,
		Event:          params.Event,
		PaymentChannel: channel,
	}
	if params.IdempotencyKey != "" {
		key := params.IdempotencyKey
		entry.IdempotencyKey = &key
	}

	if err := tx.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entry, nil
}

// FindByIdempotencyKey looks up the entry previously written for key.
func (s *ledgerService) FindByIdempotencyKey(tx *gorm.DB, key string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := tx.Where("idempotency_key = ?", key).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// ListRecent returns up to limit entries, newest first. Entries sharing a
// timestamp are ordered by transaction id, which is time-ordered as well.
func (s *ledgerService) ListRecent(limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = pagination.MaxPageSize
	}

	var entries []models.LedgerEntry
	if err := s.db.Order("created_at DESC").
		Order("transaction_id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, nil
}

// ListByAccount retrieves a paginated list of one account's entries, newest first.
func (s *ledgerService) ListByAccount(externalID int64, filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.LedgerEntry], error) {
	page.Defaults()

	base := s.db.Model(&models.LedgerEntry{}).Where("external_id = ?", externalID)
	if filter.Event != "" {
		base = base.Where("event = ?", filter.Event)
	}
	if filter.PaymentChannel != "" {
		base = base.Where("payment_channel = ?", filter.PaymentChannel)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.LedgerEntry
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Order("transaction_id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// AggregateDailyEarnings sums the account's entries of the given kind per
// UTC calendar day, most recent day first.
func (s *ledgerService) AggregateDailyEarnings(externalID int64, event models.LedgerEvent) ([]DailyEarning, error) {
	entries, err := s.entriesFor(externalID, event)
	if err != nil {
		return nil, err
	}

	days := []DailyEarning{}
	for i := range entries {
		ts := entries[i].Timestamp().UTC()
		key := ts.Format(time.DateOnly)

		// entries are sorted newest first, so a day's entries are contiguous
		if n := len(days); n > 0 && days[n-1].Date == key {
			days[n-1].Total = days[n-1].Total.Add(entries[i].Amount)
			continue
		}
		days = append(days, DailyEarning{
			Date:  key,
			Year:  ts.Year(),
			Month: int(ts.Month()),
			Day:   ts.Day(),
			Total: entries[i].Amount,
		})
	}
	return days, nil
}

// AggregateTotal sums every entry of the given kind for the account.
func (s *ledgerService) AggregateTotal(externalID int64, event models.LedgerEvent) (decimal.Decimal, error) {
	entries, err := s.entriesFor(externalID, event)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range entries {
		total = total.Add(entries[i].Amount)
	}
	return total, nil
}

// entriesFor loads amounts and timestamps only; summing happens in Go so the
// result stays exact regardless of the database's numeric handling.
func (s *ledgerService) entriesFor(externalID int64, event models.LedgerEvent) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := s.db.Select("amount", "created_at").
		Where("external_id = ? AND event = ?", externalID, event).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return entries, nil
}
