package staking

import (
	"errors"
	"maps"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/propsproject/props-protocol-sub001/internal/observability/metrics"
	"github.com/propsproject/props-protocol-sub001/internal/token"
	"github.com/propsproject/props-protocol-sub001/internal/types"
	"github.com/propsproject/props-protocol-sub001/internal/utils/clock"
)

// Params configures a single staking pool. Controller is the only identity
// allowed to mutate balances; Funder is the only identity allowed to notify
// reward budgets or reclaim excess. Account is the pool's own identity on the
// reward ledger.
type Params struct {
	Name             string
	Controller       string
	Funder           string
	Account          string
	RewardsDuration  int64 // seconds
	ThrottleInterval int64 // seconds, min spacing between activity rate adjustments
}

func (p Params) validate() error {
	switch {
	case p.Name == "":
		return errParam("name must not be empty")
	case p.Controller == "":
		return errParam("controller must not be empty")
	case p.Funder == "":
		return errParam("funder must not be empty")
	case p.Account == "":
		return errParam("account must not be empty")
	case p.RewardsDuration <= 0:
		return errParam("rewards duration must be positive")
	case p.ThrottleInterval <= 0:
		return errParam("throttle interval must be positive")
	}
	return nil
}

// Pool is one staking pool: a balance table, a total-staked counter and the
// reward accumulator. All mutations run under the reentrancy guard and the
// controller/funder gates; every error is detected before state changes.
type Pool struct {
	params   Params
	clk      clock.Clock
	logger   zerolog.Logger
	sink     types.EventSink
	strategy TransferStrategy
	rewards  token.Ledger

	totalStaked math.Int
	balances    map[string]math.Int

	rewardPerTokenStored math.Int
	paidPerToken         map[string]math.Int
	pending              map[string]math.Int

	rewardRate         math.Int
	periodFinish       int64
	lastUpdateTime     int64
	lastRateAdjustment int64

	entered bool
	staging bool
	staged  []types.Event
}

// NewPool builds a pool over the given reward ledger and stake transfer
// strategy.
func NewPool(
	params Params,
	rewards token.Ledger,
	strategy TransferStrategy,
	clk clock.Clock,
	sink types.EventSink,
	logger zerolog.Logger,
) (*Pool, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = types.NopSink{}
	}
	return &Pool{
		params:               params,
		clk:                  clk,
		logger:               logger.With().Str("pool", params.Name).Logger(),
		sink:                 sink,
		strategy:             strategy,
		rewards:              rewards,
		totalStaked:          math.ZeroInt(),
		balances:             make(map[string]math.Int),
		rewardPerTokenStored: math.ZeroInt(),
		paidPerToken:         make(map[string]math.Int),
		pending:              make(map[string]math.Int),
		rewardRate:           math.ZeroInt(),
	}, nil
}

func (p *Pool) Name() string {
	return p.params.Name
}

// Account returns the pool's identity on the reward ledger.
func (p *Pool) Account() string {
	return p.params.Account
}

func (p *Pool) TotalStaked() math.Int {
	return p.totalStaked
}

func (p *Pool) BalanceOf(account string) math.Int {
	if bal, ok := p.balances[account]; ok {
		return bal
	}
	return math.ZeroInt()
}

func (p *Pool) RewardRate() math.Int {
	return p.rewardRate
}

func (p *Pool) PeriodFinish() int64 {
	return p.periodFinish
}

func (p *Pool) RewardsDuration() int64 {
	return p.params.RewardsDuration
}

func (p *Pool) LastRateAdjustment() int64 {
	return p.lastRateAdjustment
}

// RewardPerToken returns the accumulator as of now without mutating state.
func (p *Pool) RewardPerToken() math.Int {
	return p.rewardPerToken(p.clk.Now())
}

// Earned returns the account's accrued, unclaimed reward as of now.
func (p *Pool) Earned(account string) math.Int {
	return p.earnedAt(p.clk.Now(), account)
}

// Deposit stakes amount for account. Only the controller may call. The
// transfer strategy pulls principal in before balances move, and every
// deposit retriggers the diminishing-emission adjustment.
func (p *Pool) Deposit(caller, account string, amount math.Int) error {
	release, err := p.enter("deposit")
	if err != nil {
		return err
	}
	defer release()

	if err := p.requireCaller("deposit", caller, p.params.Controller); err != nil {
		return err
	}
	if err := requirePositive("deposit", amount); err != nil {
		return err
	}

	now := p.clk.Now()
	p.checkpoint(now, account)

	if err := p.strategy.OnDeposit(account, amount); err != nil {
		return err
	}

	p.totalStaked = p.totalStaked.Add(amount)
	p.balances[account] = p.BalanceOf(account).Add(amount)
	p.adjustRateOnActivity(now)

	p.logger.Debug().
		Str("account", account).
		Str("amount", amount.String()).
		Msg("staked")
	metrics.RecordTotalStaked(p.params.Name, p.totalStaked)
	metrics.RecordRewardRate(p.params.Name, p.rewardRate)
	p.emit(types.Event{
		Type:    types.EventStaked,
		Pool:    p.params.Name,
		Account: account,
		Amount:  amount,
		At:      now,
	})
	return nil
}

// Withdraw unstakes amount for account. Only the controller may call.
// Withdrawals never adjust the emission rate.
func (p *Pool) Withdraw(caller, account string, amount math.Int) error {
	release, err := p.enter("withdraw")
	if err != nil {
		return err
	}
	defer release()

	if err := p.requireCaller("withdraw", caller, p.params.Controller); err != nil {
		return err
	}
	if err := requirePositive("withdraw", amount); err != nil {
		return err
	}
	balance := p.BalanceOf(account)
	if amount.GT(balance) {
		return &types.InsufficientBalanceError{
			Op:        "withdraw",
			Requested: amount,
			Available: balance,
		}
	}

	now := p.clk.Now()
	p.checkpoint(now, account)

	if err := p.strategy.OnWithdraw(account, amount); err != nil {
		return err
	}

	p.totalStaked = p.totalStaked.Sub(amount)
	remaining := balance.Sub(amount)
	if remaining.IsZero() {
		delete(p.balances, account)
	} else {
		p.balances[account] = remaining
	}

	p.logger.Debug().
		Str("account", account).
		Str("amount", amount.String()).
		Msg("withdrawn")
	metrics.RecordTotalStaked(p.params.Name, p.totalStaked)
	p.emit(types.Event{
		Type:    types.EventWithdrawn,
		Pool:    p.params.Name,
		Account: account,
		Amount:  amount,
		At:      now,
	})
	return nil
}

// Claim pays out the account's pending reward from the pool's reward account
// and returns the amount paid. A claim with nothing pending is a no-op paying
// zero.
func (p *Pool) Claim(caller, account string) (math.Int, error) {
	release, err := p.enter("claim")
	if err != nil {
		return math.ZeroInt(), err
	}
	defer release()

	if err := p.requireCaller("claim", caller, p.params.Controller); err != nil {
		return math.ZeroInt(), err
	}

	now := p.clk.Now()
	p.checkpoint(now, account)

	reward := p.pending[account]
	if reward.IsNil() || !reward.IsPositive() {
		return math.ZeroInt(), nil
	}
	p.pending[account] = math.ZeroInt()
	if err := p.rewards.Transfer(p.params.Account, account, reward); err != nil {
		// Undo the zeroing so the invocation has no effect.
		p.pending[account] = reward
		return math.ZeroInt(), err
	}

	p.logger.Debug().
		Str("account", account).
		Str("amount", reward.String()).
		Msg("reward paid")
	metrics.RecordRewardPaid(p.params.Name, reward)
	p.emit(types.Event{
		Type:    types.EventRewardPaid,
		Pool:    p.params.Name,
		Account: account,
		Amount:  reward,
		At:      now,
	})
	return reward, nil
}

// Stage snapshots the pool for one compound operation. Until commit or abort
// runs, emitted events are buffered: commit flushes them to the sink, abort
// drops them and reinstates the snapshot. Principal moved by the transfer
// strategy is outside the snapshot; an aborted compound operation reverts
// that leg by leg through RevertStake.
func (p *Pool) Stage() (commit func(), abort func()) {
	saved := *p
	saved.balances = maps.Clone(p.balances)
	saved.paidPerToken = maps.Clone(p.paidPerToken)
	saved.pending = maps.Clone(p.pending)
	p.staging = true
	commit = func() {
		p.staging = false
		for _, e := range p.staged {
			p.sink.Emit(e)
		}
		p.staged = nil
	}
	abort = func() {
		p.staging = false
		p.staged = nil
		p.totalStaked = saved.totalStaked
		p.balances = saved.balances
		p.rewardPerTokenStored = saved.rewardPerTokenStored
		p.paidPerToken = saved.paidPerToken
		p.pending = saved.pending
		p.rewardRate = saved.rewardRate
		p.periodFinish = saved.periodFinish
		p.lastUpdateTime = saved.lastUpdateTime
		p.lastRateAdjustment = saved.lastRateAdjustment
	}
	return commit, abort
}

// RevertStake undoes the principal movement of one applied leg of an aborted
// compound operation: a positive amount returns deposited principal to the
// account, a negative one pulls withdrawn principal back. Bookkeeping is
// reinstated separately by the staged abort, so no caller gate, checkpoint,
// rate adjustment or event applies here.
func (p *Pool) RevertStake(account string, amount math.Int) error {
	if amount.IsNegative() {
		return p.strategy.OnDeposit(account, amount.Neg())
	}
	return p.strategy.OnWithdraw(account, amount)
}

func (p *Pool) requireCaller(op, caller, expected string) error {
	if caller != expected {
		return &types.UnauthorizedError{Op: op, Caller: caller}
	}
	return nil
}

// emit delivers an event to the sink, or buffers it while a compound
// operation is staged.
func (p *Pool) emit(e types.Event) {
	if p.staging {
		p.staged = append(p.staged, e)
		return
	}
	p.sink.Emit(e)
}

// enter sets the reentrancy guard and returns its release. Any nested call
// observing the guard set is rejected before touching state.
func (p *Pool) enter(op string) (func(), error) {
	if p.entered {
		return nil, &types.ReentrancyError{Op: op}
	}
	p.entered = true
	return func() { p.entered = false }, nil
}

func requirePositive(op string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return &types.InvalidAmountError{
			Op:     op,
			Amount: amount,
			Reason: "must be positive",
		}
	}
	return nil
}

func errParam(msg string) error {
	return errors.New("pool params: " + msg)
}
