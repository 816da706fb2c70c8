// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"earnbot/internal/models"
)

var assetSymbolRegex = regexp.MustCompile(`^[A-Za-z0-9]{2,10}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterOn(v)
	}
}

// RegisterOn registers the custom rules on a standalone validator instance.
func RegisterOn(v *validator.Validate) {
	_ = v.RegisterValidation("asset_symbol", validateAssetSymbol)
	_ = v.RegisterValidation("ledger_event", validateLedgerEvent)
	_ = v.RegisterValidation("payment_channel", validatePaymentChannel)
	_ = v.RegisterValidation("display_name", validateDisplayName)
}

func validateAssetSymbol(fl validator.FieldLevel) bool {
	return assetSymbolRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

func validateLedgerEvent(fl validator.FieldLevel) bool {
	switch models.LedgerEvent(fl.Field().String()) {
	case models.LedgerEventDeposit, models.LedgerEventAds, models.LedgerEventWithdraw, models.LedgerEventReferralCommission:
		return true
	}
	return false
}

func validatePaymentChannel(fl validator.FieldLevel) bool {
	switch models.PaymentChannel(fl.Field().String()) {
	case models.PaymentChannelInApp, models.PaymentChannelTonWallet, models.PaymentChannelTelegramStars, models.PaymentChannelCryptoBot:
		return true
	}
	return false
}

// validateDisplayName accepts 1-64 printable characters without surrounding whitespace.
func validateDisplayName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if name == "" || name != strings.TrimSpace(name) {
		return false
	}
	if len([]rune(name)) > 64 {
		return false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
