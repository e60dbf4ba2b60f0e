package types

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
)

// UnauthorizedError is returned when a mutating operation is invoked by an
// identity other than the pool's configured controller or funder.
type UnauthorizedError struct {
	Op     string
	Caller string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: caller %q is not authorized", e.Op, e.Caller)
}

func IsUnauthorizedError(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

// InvalidAmountError is returned when an amount fails validation, e.g. a
// non-positive value where a positive one is required.
type InvalidAmountError struct {
	Op     string
	Amount math.Int
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("%s: invalid amount %s: %s", e.Op, intString(e.Amount), e.Reason)
}

// intString formats an Int that may be the uninitialized zero value, which
// math.Int refuses to stringify.
func intString(v math.Int) string {
	if v.IsNil() {
		return "<nil>"
	}
	return v.String()
}

func IsInvalidAmountError(err error) bool {
	var target *InvalidAmountError
	return errors.As(err, &target)
}

// InsufficientBalanceError is returned when a withdrawal or payout exceeds
// the recorded or unlocked amount.
type InsufficientBalanceError struct {
	Op        string
	Requested math.Int
	Available math.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: requested %s exceeds available %s", e.Op, e.Requested, e.Available)
}

func IsInsufficientBalanceError(err error) bool {
	var target *InsufficientBalanceError
	return errors.As(err, &target)
}

// OverFundedError is returned when a notified reward rate exceeds what the
// pool's funded reward balance can cover over the rewards duration.
type OverFundedError struct {
	Rate    math.Int
	MaxRate math.Int
}

func (e *OverFundedError) Error() string {
	return fmt.Sprintf("notified reward rate %s exceeds funded maximum %s", e.Rate, e.MaxRate)
}

func IsOverFundedError(err error) bool {
	var target *OverFundedError
	return errors.As(err, &target)
}

// NoRewardsYetError is returned when a vesting claim is attempted before the
// account's lock window has elapsed.
type NoRewardsYetError struct {
	Account   string
	UnlocksAt int64
}

func (e *NoRewardsYetError) Error() string {
	return fmt.Sprintf("no rewards unlocked for %s before %d", e.Account, e.UnlocksAt)
}

func IsNoRewardsYetError(err error) bool {
	var target *NoRewardsYetError
	return errors.As(err, &target)
}

// UnknownPoolError is returned by the coordinator when a compound adjustment
// references a pool id it does not manage.
type UnknownPoolError struct {
	Pool string
}

func (e *UnknownPoolError) Error() string {
	return fmt.Sprintf("unknown pool %q", e.Pool)
}

func IsUnknownPoolError(err error) bool {
	var target *UnknownPoolError
	return errors.As(err, &target)
}

// ReentrancyError is returned when an operation re-enters a pool or the
// coordinator before the in-flight invocation has completed.
type ReentrancyError struct {
	Op string
}

func (e *ReentrancyError) Error() string {
	return fmt.Sprintf("%s: reentrant call rejected", e.Op)
}

func IsReentrancyError(err error) bool {
	var target *ReentrancyError
	return errors.As(err, &target)
}
