package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is one end-user of the earning application, keyed by their
// Telegram user id.
type Account struct {
	Base
	ExternalID    int64           `gorm:"uniqueIndex;not null" json:"externalId"`
	DisplayName   string          `gorm:"uniqueIndex;not null" json:"displayName"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	AdCount       int64           `gorm:"not null;default:0" json:"adCount"`
	Earn          decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0" json:"earn"`
	ReferrerID    *int64          `json:"referrerId,omitempty"`
	ReferralCount int64           `gorm:"not null;default:0" json:"referralCount"`

	// Verification state. ChannelJoinedAt is written once and never cleared,
	// so verified=false with a join time means the membership lapsed.
	Verified        bool       `gorm:"not null;default:false" json:"verified"`
	ChannelJoinedAt *time.Time `json:"channelJoinedAt,omitempty"`
	JoinedAt        time.Time  `gorm:"not null" json:"joinedAt"`
}
