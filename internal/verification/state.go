// Package verification tracks whether an account is a member of the
// required Telegram channel.
package verification

import "earnbot/internal/models"

// State is the derived verification status of an account.
type State string

const (
	StateUnverified State = "UNVERIFIED"
	StateVerified   State = "VERIFIED"
	// StateLapsed is an account that was verified once and has since left.
	// It transitions exactly like StateUnverified.
	StateLapsed State = "LAPSED"
)

// StateOf derives the verification state from the stored account fields.
func StateOf(account *models.Account) State {
	switch {
	case account == nil:
		return StateUnverified
	case account.Verified:
		return StateVerified
	case account.ChannelJoinedAt != nil:
		return StateLapsed
	default:
		return StateUnverified
	}
}
