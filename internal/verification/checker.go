package verification

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	apperrors "earnbot/internal/errors"
)

// MembershipSource reports a user's status in the required channel, using
// the chat platform's status strings.
type MembershipSource interface {
	MemberStatus(ctx context.Context, userID int64) (string, error)
}

// IsMemberStatus reports whether status counts as channel membership.
func IsMemberStatus(status string) bool {
	switch status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

const (
	defaultTimeout         = 10 * time.Second
	defaultAttempts        = 3
	defaultInitialInterval = 250 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

// Checker queries a MembershipSource with a per-attempt timeout and a
// bounded exponential retry. It fails closed.
type Checker struct {
	source          MembershipSource
	timeout         time.Duration
	attempts        int
	initialInterval time.Duration
}

// CheckerOption customizes a Checker.
type CheckerOption func(*Checker)

// WithInitialInterval sets the delay before the first retry.
func WithInitialInterval(d time.Duration) CheckerOption {
	return func(c *Checker) { c.initialInterval = d }
}

// NewChecker creates a Checker. Non-positive timeout or attempts use the defaults.
func NewChecker(source MembershipSource, timeout time.Duration, attempts int, opts ...CheckerOption) *Checker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	c := &Checker{
		source:          source,
		timeout:         timeout,
		attempts:        attempts,
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsMember reports whether userID is in the channel. When every attempt
// fails it returns false together with ErrMembershipCheckFailed.
func (c *Checker) IsMember(ctx context.Context, userID int64) (bool, error) {
	var status string

	op := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		s, err := c.source.MemberStatus(attemptCtx, userID)
		if err != nil {
			return err
		}
		status = s
		return nil
	}

	if err := backoff.Retry(op, c.policy(ctx)); err != nil {
		return false, apperrors.Wrap(apperrors.ErrMembershipCheckFailed, err)
	}
	return IsMemberStatus(status), nil
}

func (c *Checker) policy(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.initialInterval
	exp.MaxInterval = defaultMaxInterval
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.attempts-1)), ctx)
}
