package staking

import "cosmossdk.io/math"

// Scale is the fixed-point scale for accumulator arithmetic. Division always
// floors, so any rounding loss stays with the pool.
var Scale = math.NewIntWithDecimal(1, 18)

// lastTimeRewardApplicable caps now at the end of the emission period.
func (p *Pool) lastTimeRewardApplicable(now int64) int64 {
	if now < p.periodFinish {
		return now
	}
	return p.periodFinish
}

// rewardPerToken extends the stored accumulator by the emission that accrued
// since the last checkpoint, spread over the current total stake. With
// nothing staked the accumulator holds still.
func (p *Pool) rewardPerToken(now int64) math.Int {
	if p.totalStaked.IsZero() {
		return p.rewardPerTokenStored
	}
	elapsed := p.lastTimeRewardApplicable(now) - p.lastUpdateTime
	if elapsed <= 0 {
		return p.rewardPerTokenStored
	}
	accrued := p.rewardRate.MulRaw(elapsed).Mul(Scale).Quo(p.totalStaked)
	return p.rewardPerTokenStored.Add(accrued)
}

// earnedAt computes the account's pending reward as of now: the snapshot
// taken at its last checkpoint plus its balance-weighted share of the
// accumulator growth since.
func (p *Pool) earnedAt(now int64, account string) math.Int {
	perToken := p.rewardPerToken(now)
	paid, ok := p.paidPerToken[account]
	if !ok {
		paid = math.ZeroInt()
	}
	pending, ok := p.pending[account]
	if !ok {
		pending = math.ZeroInt()
	}
	delta := p.BalanceOf(account).Mul(perToken.Sub(paid)).Quo(Scale)
	return pending.Add(delta)
}

// checkpoint folds elapsed emission into the accumulator and, when an account
// is named, snapshots that account's earned reward. It runs before every
// balance- or rate-affecting operation, which is what keeps per-operation
// cost independent of the staker count.
func (p *Pool) checkpoint(now int64, account string) {
	p.rewardPerTokenStored = p.rewardPerToken(now)
	p.lastUpdateTime = p.lastTimeRewardApplicable(now)
	if account != "" {
		p.pending[account] = p.earnedAt(now, account)
		p.paidPerToken[account] = p.rewardPerTokenStored
	}
}
