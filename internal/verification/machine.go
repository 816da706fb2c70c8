package verification

import (
	"context"
	"time"

	"go.uber.org/zap"

	"earnbot/internal/logger"
	"earnbot/internal/models"
	"earnbot/internal/services"
)

// MembershipChecker is the fail-closed membership query used by Machine.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// Outcome is the result of one verification check.
type Outcome struct {
	Previous State
	Current  State
	Account  *models.Account
	Member   bool
	// CheckErr is set when the membership query failed and the account
	// was treated as not being a member.
	CheckErr error
}

// Machine applies membership checks to stored accounts. It has no terminal
// state and may be re-entered any number of times.
type Machine struct {
	accounts services.AccountServicer
	checker  MembershipChecker
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewMachine creates a Machine.
func NewMachine(accounts services.AccountServicer, checker MembershipChecker) *Machine {
	return &Machine{
		accounts: accounts,
		checker:  checker,
		now:      time.Now,
		log:      logger.Named("verification"),
	}
}

// Check queries membership for the account and records the transition.
// Members become VERIFIED; a VERIFIED non-member becomes LAPSED; any other
// non-member is left as it was.
func (m *Machine) Check(ctx context.Context, externalID int64) (*Outcome, error) {
	account, err := m.accounts.GetAccount(externalID)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Previous: StateOf(account), Account: account}

	member, checkErr := m.checker.IsMember(ctx, externalID)
	if checkErr != nil {
		m.log.Warnw("membership check failed, treating as non-member",
			"external_id", externalID, "error", checkErr)
	}
	out.Member = member
	out.CheckErr = checkErr

	switch {
	case member:
		joinedAt := m.now().UTC()
		account, err = m.accounts.UpdateVerification(externalID, true, &joinedAt)
	case out.Previous == StateVerified:
		account, err = m.accounts.UpdateVerification(externalID, false, nil)
	}
	if err != nil {
		return nil, err
	}

	out.Account = account
	out.Current = StateOf(account)
	if out.Current != out.Previous {
		m.log.Infow("verification state changed",
			"external_id", externalID, "from", out.Previous, "to", out.Current)
	}
	return out, nil
}
