package staking

import (
	"cosmossdk.io/math"

	"github.com/propsproject/props-protocol-sub001/internal/observability/metrics"
	"github.com/propsproject/props-protocol-sub001/internal/types"
)

// NotifyRewardAmount starts or extends an emission period with a freshly
// funded budget. Only the funder may call. If a period is still running, the
// unspent remainder rolls into the new rate. The rate is refused outright
// when the pool's reward balance cannot cover it for a full duration, which
// both bounds later multiplications and keeps every promised unit backed.
func (p *Pool) NotifyRewardAmount(caller string, amount math.Int) error {
	release, err := p.enter("notify")
	if err != nil {
		return err
	}
	defer release()

	if err := p.requireCaller("notify", caller, p.params.Funder); err != nil {
		return err
	}
	if err := requirePositive("notify", amount); err != nil {
		return err
	}

	now := p.clk.Now()
	p.checkpoint(now, "")

	budget := amount
	if now < p.periodFinish {
		leftover := p.rewardRate.MulRaw(p.periodFinish - now)
		budget = budget.Add(leftover)
	}
	rate := budget.QuoRaw(p.params.RewardsDuration)

	maxRate := p.rewards.BalanceOf(p.params.Account).QuoRaw(p.params.RewardsDuration)
	if rate.GT(maxRate) {
		return &types.OverFundedError{Rate: rate, MaxRate: maxRate}
	}

	p.rewardRate = rate
	p.periodFinish = now + p.params.RewardsDuration
	p.lastUpdateTime = now

	p.logger.Info().
		Str("amount", amount.String()).
		Str("rewardRate", p.rewardRate.String()).
		Int64("periodFinish", p.periodFinish).
		Msg("reward added")
	metrics.RecordRewardRate(p.params.Name, p.rewardRate)
	p.emit(types.Event{
		Type:   types.EventRewardAdded,
		Pool:   p.params.Name,
		Amount: amount,
		At:     now,
	})
	return nil
}

// adjustRateOnActivity implements the perpetual diminishing-return policy: on
// every deposit past the first, the unspent remainder of the running period
// is re-spread over a full duration starting now, lowering the rate. The
// throttle interval bounds how often this rewrites state no matter how
// frequent deposits are. The very first deposit only records a timestamp.
func (p *Pool) adjustRateOnActivity(now int64) {
	if p.lastRateAdjustment == 0 {
		p.lastRateAdjustment = now
		return
	}
	if now >= p.periodFinish {
		return
	}
	if now-p.lastRateAdjustment < p.params.ThrottleInterval {
		return
	}

	leftover := p.rewardRate.MulRaw(p.periodFinish - now)
	p.rewardRate = leftover.QuoRaw(p.params.RewardsDuration)
	p.periodFinish = now + p.params.RewardsDuration
	p.lastRateAdjustment = now

	p.logger.Debug().
		Str("rewardRate", p.rewardRate.String()).
		Int64("periodFinish", p.periodFinish).
		Msg("emission rate adjusted on activity")
}

// ReclaimExcess lets the funder pull back reward balance not committed to the
// running period. The committed horizon is the historical
// periodFinish - (now + one throttle interval); within one interval of the
// period end that expression would underflow, so the call fails closed there
// instead of wrapping around.
func (p *Pool) ReclaimExcess(caller string, amount math.Int) error {
	release, err := p.enter("reclaim")
	if err != nil {
		return err
	}
	defer release()

	if err := p.requireCaller("reclaim", caller, p.params.Funder); err != nil {
		return err
	}
	if err := requirePositive("reclaim", amount); err != nil {
		return err
	}

	now := p.clk.Now()
	horizon := now + p.params.ThrottleInterval
	if horizon > p.periodFinish {
		return &types.InvalidAmountError{
			Op:     "reclaim",
			Amount: amount,
			Reason: "period too close to finish to reclaim",
		}
	}

	p.checkpoint(now, "")

	committed := p.rewardRate.MulRaw(p.periodFinish - horizon)
	available := p.rewards.BalanceOf(p.params.Account).Sub(committed)
	if amount.GT(available) {
		return &types.InsufficientBalanceError{
			Op:        "reclaim",
			Requested: amount,
			Available: available,
		}
	}
	return p.rewards.Transfer(p.params.Account, p.params.Funder, amount)
}
