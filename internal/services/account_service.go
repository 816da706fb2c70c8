package services

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "earnbot/internal/errors"
	"earnbot/internal/models"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount registers a new account with zeroed counters and no verification.
func (s *accountService) CreateAccount(externalID int64, displayName, firstName, lastName string, referrerID *int64) (*models.Account, error) {
	displayName = strings.TrimSpace(displayName)
	if externalID <= 0 || displayName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "externalId and displayName are required")
	}
	if referrerID != nil && *referrerID == externalID {
		referrerID = nil
	}

	var count int64
	if err := s.db.Model(&models.Account{}).
		Where("external_id = ? OR display_name = ?", externalID, displayName).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAccount
	}

	account := &models.Account{
		ExternalID:  externalID,
		DisplayName: displayName,
		FirstName:   firstName,
		LastName:    lastName,
		Earn:        decimal.Zero,
		ReferrerID:  referrerID,
		JoinedAt:    time.Now().UTC(),
	}

	if err := s.db.Create(account).Error; err != nil {
		// A concurrent registration can slip past the count check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateAccount, err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return account, nil
}

// GetAccount retrieves an account by its external (Telegram) id
func (s *accountService) GetAccount(externalID int64) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("external_id = ?", externalID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// ListAccounts returns every account, newest first.
func (s *accountService) ListAccounts() ([]models.Account, error) {
	var accounts []models.Account
	if err := s.db.Order("joined_at DESC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// UpdateAccount applies a partial profile update.
func (s *accountService) UpdateAccount(externalID int64, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccount(externalID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.DisplayName != nil {
		name := strings.TrimSpace(*fields.DisplayName)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "displayName cannot be empty")
		}
		if name != account.DisplayName {
			var count int64
			if err := s.db.Model(&models.Account{}).Where("display_name = ?", name).Count(&count).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.ErrDuplicateAccount
			}
			updates["display_name"] = name
		}
	}
	if fields.FirstName != nil {
		updates["first_name"] = *fields.FirstName
	}
	if fields.LastName != nil {
		updates["last_name"] = *fields.LastName
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, apperrors.Wrap(apperrors.ErrDuplicateAccount, err)
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		// Reload to get fresh data
		return s.GetAccount(externalID)
	}

	return account, nil
}

// UpdateVerification sets the verified flag. channelJoinedAt is only written
// when the account has none yet, so the first recorded join time wins.
func (s *accountService) UpdateVerification(externalID int64, verified bool, channelJoinedAt *time.Time) (*models.Account, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Account{}).
			Where("external_id = ?", externalID).
			Update("verified", verified)
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrAccountNotFound
		}

		if channelJoinedAt != nil {
			if err := tx.Model(&models.Account{}).
				Where("external_id = ? AND channel_joined_at IS NULL", externalID).
				Update("channel_joined_at", channelJoinedAt.UTC()).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetAccount(externalID)
}

// IncrementEarnings adds to the ad-view and earned counters in a single
// UPDATE so concurrent calls cannot lose increments.
func (s *accountService) IncrementEarnings(tx *gorm.DB, externalID int64, adDelta int64, earnDelta decimal.Decimal) error {
	result := tx.Model(&models.Account{}).
		Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"ad_count": gorm.Expr("ad_count + ?", adDelta),
			"earn":     gorm.Expr("earn + ?", earnDelta),
		})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// RecordReferral bumps the referrer's referral counter. Unknown referrers are
// ignored: referral ids are never validated.
func (s *accountService) RecordReferral(referrerID int64) error {
	result := s.db.Model(&models.Account{}).
		Where("external_id = ?", referrerID).
		Update("referral_count", gorm.Expr("referral_count + 1"))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return nil
}

// DeleteAccount removes the account row. Ledger entries are left in place.
func (s *accountService) DeleteAccount(externalID int64) error {
	result := s.db.Unscoped().Where("external_id = ?", externalID).Delete(&models.Account{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}

	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}

	return nil
}
