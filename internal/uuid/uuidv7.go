package uuid

import (
	googleuuid "github.com/google/uuid"
)

// transactionPrefix marks ledger transaction ids so they are recognisable in logs.
const transactionPrefix = "tx_"

// New generates a new UUIDv7. UUIDv7 is time-ordered and suitable for use
// as database primary keys.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// Fallback to standard UUIDv4 if the random source fails
		return googleuuid.New().String()
	}
	return id.String()
}

// NewTransactionID returns a unique ledger transaction id.
func NewTransactionID() string {
	return transactionPrefix + New()
}
