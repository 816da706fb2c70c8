package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"earnbot/internal/models"
	"earnbot/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1) + 1000
}

// CreateTestAccount creates an unverified account with a unique external id.
func CreateTestAccount(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()
	n := nextID()
	return CreateTestAccountWithID(t, db, n, fmt.Sprintf("user%d", n))
}

// CreateTestAccountWithID creates an account with the given external id and display name.
func CreateTestAccountWithID(t *testing.T, db *gorm.DB, externalID int64, displayName string) *models.Account {
	t.Helper()

	account := &models.Account{
		ExternalID:  externalID,
		DisplayName: displayName,
		FirstName:   "Test",
		Earn:        decimal.Zero,
		JoinedAt:    time.Now().UTC(),
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateVerifiedTestAccount creates an account that already joined the channel.
func CreateVerifiedTestAccount(t *testing.T, db *gorm.DB, joinedAt time.Time) *models.Account {
	t.Helper()

	account := CreateTestAccount(t, db)
	if err := db.Model(account).Updates(map[string]interface{}{
		"verified":          true,
		"channel_joined_at": joinedAt.UTC(),
	}).Error; err != nil {
		t.Fatalf("failed to verify test account: %v", err)
	}
	account.Verified = true
	account.ChannelJoinedAt = &joinedAt
	return account
}

// CreateTestLedgerEntry creates an entry of the given kind at the given time.
func CreateTestLedgerEntry(t *testing.T, db *gorm.DB, externalID int64, event models.LedgerEvent, amount string, at time.Time) *models.LedgerEntry {
	t.Helper()

	entry := &models.LedgerEntry{
		Base:           models.Base{CreatedAt: at.UTC()},
		TransactionID:  uuid.NewTransactionID(),
		ExternalID:     externalID,
		Amount:         decimal.RequireFromString(amount),
		Symbol:         "TON",
		Event:          event,
		PaymentChannel: models.PaymentChannelInApp,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test ledger entry: %v", err)
	}
	return entry
}
