package staking

import (
	"cosmossdk.io/math"

	"github.com/propsproject/props-protocol-sub001/internal/observability/metrics"
	"github.com/propsproject/props-protocol-sub001/internal/types"
)

// vestingPosition tracks an account's lock window. fullExitTime is set once,
// when the account's balance first returns to zero.
type vestingPosition struct {
	firstDepositTime int64
	fullExitTime     int64
	claimed          math.Int
}

// VestingPool wraps a Pool so accrued rewards unlock linearly after a
// maturity window. Accrual math is untouched; only payout timing changes.
// Pending rewards are never zeroed on claim, paid portions are tracked in
// the position instead.
type VestingPool struct {
	*Pool
	lockDuration  int64
	forbidReentry bool
	positions     map[string]*vestingPosition
}

// NewVestingPool wraps pool with a lock of lockDuration seconds. When
// forbidReentry is set, an account that fully exits can never deposit again
// under the same identity.
func NewVestingPool(pool *Pool, lockDuration int64, forbidReentry bool) (*VestingPool, error) {
	if lockDuration <= 0 {
		return nil, errParam("lock duration must be positive")
	}
	return &VestingPool{
		Pool:          pool,
		lockDuration:  lockDuration,
		forbidReentry: forbidReentry,
		positions:     make(map[string]*vestingPosition),
	}, nil
}

func (v *VestingPool) LockDuration() int64 {
	return v.lockDuration
}

// Deposit records the account's first deposit time before delegating to the
// underlying pool.
func (v *VestingPool) Deposit(caller, account string, amount math.Int) error {
	pos := v.positions[account]
	if pos != nil && pos.fullExitTime != 0 && v.forbidReentry {
		return &types.UnauthorizedError{Op: "deposit", Caller: account}
	}
	if err := v.Pool.Deposit(caller, account, amount); err != nil {
		return err
	}
	if pos == nil {
		pos = &vestingPosition{claimed: math.ZeroInt()}
		v.positions[account] = pos
	}
	if pos.firstDepositTime == 0 {
		pos.firstDepositTime = v.clk.Now()
	}
	return nil
}

// Withdraw delegates to the underlying pool and stamps the full-exit time
// when the balance reaches zero.
func (v *VestingPool) Withdraw(caller, account string, amount math.Int) error {
	if err := v.Pool.Withdraw(caller, account, amount); err != nil {
		return err
	}
	if pos := v.positions[account]; pos != nil && pos.fullExitTime == 0 && v.BalanceOf(account).IsZero() {
		pos.fullExitTime = v.clk.Now()
	}
	return nil
}

// Stage extends the pool snapshot with the vesting positions, so an aborted
// compound operation also rolls back first-deposit and full-exit stamps made
// while it ran.
func (v *VestingPool) Stage() (commit func(), abort func()) {
	commitPool, abortPool := v.Pool.Stage()
	saved := make(map[string]*vestingPosition, len(v.positions))
	for account, pos := range v.positions {
		copied := *pos
		saved[account] = &copied
	}
	abort = func() {
		abortPool()
		v.positions = saved
	}
	return commitPool, abort
}

// Claim pays the linearly unlocked portion of the account's accrued rewards.
// Before the lock window elapses the claim is refused; afterwards the
// unlocked fraction grows with time past the lock, measured against the
// account's stake window (its full stay if it exited, else up to now).
func (v *VestingPool) Claim(caller, account string) (math.Int, error) {
	release, err := v.enter("claim")
	if err != nil {
		return math.ZeroInt(), err
	}
	defer release()

	if err := v.requireCaller("claim", caller, v.params.Controller); err != nil {
		return math.ZeroInt(), err
	}

	now := v.clk.Now()
	pos := v.positions[account]
	if pos == nil || pos.firstDepositTime == 0 {
		return math.ZeroInt(), &types.NoRewardsYetError{Account: account}
	}
	unlockAt := pos.firstDepositTime + v.lockDuration
	if now-pos.firstDepositTime <= v.lockDuration {
		return math.ZeroInt(), &types.NoRewardsYetError{Account: account, UnlocksAt: unlockAt}
	}

	v.checkpoint(now, account)

	accrued := v.pending[account]
	if accrued.IsNil() || !accrued.IsPositive() {
		return math.ZeroInt(), nil
	}

	windowEnd := pos.fullExitTime
	if windowEnd == 0 {
		windowEnd = now
	}
	stakeDuration := windowEnd - pos.firstDepositTime
	if stakeDuration <= 0 {
		return math.ZeroInt(), nil
	}
	vested := now - unlockAt
	if vested > stakeDuration {
		vested = stakeDuration
	}
	unlocked := accrued.MulRaw(vested).QuoRaw(stakeDuration)
	available := unlocked.Sub(pos.claimed)
	if !available.IsPositive() {
		return math.ZeroInt(), nil
	}

	if err := v.rewards.Transfer(v.params.Account, account, available); err != nil {
		return math.ZeroInt(), err
	}
	pos.claimed = pos.claimed.Add(available)

	v.logger.Debug().
		Str("account", account).
		Str("amount", available.String()).
		Msg("vested reward paid")
	metrics.RecordRewardPaid(v.params.Name, available)
	v.emit(types.Event{
		Type:    types.EventRewardPaid,
		Pool:    v.params.Name,
		Account: account,
		Amount:  available,
		At:      now,
	})
	return available, nil
}
