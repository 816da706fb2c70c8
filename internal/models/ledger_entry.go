package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEvent is the kind of monetary event recorded in the ledger.
type LedgerEvent string

const (
	LedgerEventDeposit            LedgerEvent = "deposit"
	LedgerEventAds                LedgerEvent = "ads"
	LedgerEventWithdraw           LedgerEvent = "withdraw"
	LedgerEventReferralCommission LedgerEvent = "referral_commission"
)

// PaymentChannel is where the money moved through.
type PaymentChannel string

const (
	PaymentChannelInApp         PaymentChannel = "in_app"
	PaymentChannelTonWallet     PaymentChannel = "ton_wallet"
	PaymentChannelTelegramStars PaymentChannel = "telegram_stars"
	PaymentChannelCryptoBot     PaymentChannel = "crypto_bot"
)

// LedgerEntry is an immutable record of one monetary event. ExternalID is
// not a foreign key: entries outlive deleted accounts.
type LedgerEntry struct {
	Base
	TransactionID  string          `gorm:"uniqueIndex;not null" json:"transactionId"`
	ExternalID     int64           `gorm:"index;not null" json:"externalId"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,8);not null" json:"amount"`
	Symbol         string          `gorm:"size:10;not null" json:"symbol"`
	Event          LedgerEvent     `gorm:"size:32;not null;index" json:"event"`
	PaymentChannel PaymentChannel  `gorm:"size:32;not null;default:'in_app'" json:"paymentChannel"`
	IdempotencyKey *string         `gorm:"uniqueIndex" json:"idempotencyKey,omitempty"`
}

// Timestamp returns when the event was recorded.
func (e *LedgerEntry) Timestamp() time.Time {
	return e.CreatedAt
}
