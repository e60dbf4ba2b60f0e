package coordinator

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/propsproject/props-protocol-sub001/internal/observability/metrics"
	"github.com/propsproject/props-protocol-sub001/internal/token"
	"github.com/propsproject/props-protocol-sub001/internal/types"
	"github.com/propsproject/props-protocol-sub001/internal/utils/clock"
)

// StakedPool is the pool surface the coordinator drives. Both plain and
// vesting pools satisfy it. Stage and RevertStake exist solely for the
// compound operation: Stage snapshots the pool and holds its events until
// commit or abort, RevertStake moves applied principal back without gates,
// events or rate adjustments.
type StakedPool interface {
	Name() string
	Deposit(caller, account string, amount math.Int) error
	Withdraw(caller, account string, amount math.Int) error
	Claim(caller, account string) (math.Int, error)
	Earned(account string) math.Int
	BalanceOf(account string) math.Int
	TotalStaked() math.Int
	Stage() (commit func(), abort func())
	RevertStake(account string, amount math.Int) error
}

// ShareLedger mints and burns governance shares and reports holdings.
type ShareLedger interface {
	token.Minter
	BalanceOf(holder string) math.Int
}

// StakeAdjustment is one leg of a compound rebalance: positive deposits,
// negative withdraws.
type StakeAdjustment struct {
	Pool   string
	Amount math.Int
}

// Coordinator orchestrates N staking pools and the governance-share ledger so
// every compound adjustment leaves shares mirroring deposits 1:1. It is the
// sole controller identity of its pools and the sole minter of shares.
type Coordinator struct {
	identity string
	pools    map[string]StakedPool
	shares   ShareLedger
	escrow   *token.RewardsEscrow
	clk      clock.Clock
	logger   zerolog.Logger
	entered  bool
}

func NewCoordinator(
	identity string,
	shares ShareLedger,
	escrow *token.RewardsEscrow,
	clk clock.Clock,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		identity: identity,
		pools:    make(map[string]StakedPool),
		shares:   shares,
		escrow:   escrow,
		clk:      clk,
		logger:   logger.With().Str("component", "coordinator").Logger(),
	}
}

// Identity returns the caller identity the coordinator presents to pools.
func (c *Coordinator) Identity() string {
	return c.identity
}

// RegisterPool adds a pool under its name. The pool must have been built with
// the coordinator's identity as controller.
func (c *Coordinator) RegisterPool(pool StakedPool) error {
	name := pool.Name()
	if _, exists := c.pools[name]; exists {
		return fmt.Errorf("pool %q already registered", name)
	}
	c.pools[name] = pool
	return nil
}

func (c *Coordinator) Pool(name string) (StakedPool, bool) {
	pool, ok := c.pools[name]
	return pool, ok
}

// AdjustStakes applies a compound rebalance for account: all withdrawals
// first, so freed principal covers the deposits that follow and only the net
// difference moves externally. Shares are minted or burned for the net signed
// sum. The whole operation is all-or-nothing: validation runs before any
// mutation, every touched pool is staged, and an unexpected mid-flight
// failure aborts the staging after returning applied principal, leaving no
// state change and no emitted event.
func (c *Coordinator) AdjustStakes(account string, adjustments []StakeAdjustment) error {
	release, err := c.enter("adjust-stakes")
	if err != nil {
		return err
	}
	defer release()

	if err := c.validate(account, adjustments); err != nil {
		metrics.RecordCompoundAdjustment(metrics.Error)
		return err
	}

	commits := make([]func(), 0, len(adjustments))
	aborts := make([]func(), 0, len(adjustments))
	staged := make(map[string]bool, len(adjustments))
	for _, adj := range adjustments {
		if !staged[adj.Pool] {
			staged[adj.Pool] = true
			commit, abort := c.pools[adj.Pool].Stage()
			commits = append(commits, commit)
			aborts = append(aborts, abort)
		}
	}

	journal := make([]StakeAdjustment, 0, len(adjustments))
	apply := func(adj StakeAdjustment) error {
		pool := c.pools[adj.Pool]
		if adj.Amount.IsNegative() {
			if err := pool.Withdraw(c.identity, account, adj.Amount.Neg()); err != nil {
				return err
			}
		} else {
			if err := pool.Deposit(c.identity, account, adj.Amount); err != nil {
				return err
			}
		}
		journal = append(journal, adj)
		return nil
	}

	net := math.ZeroInt()
	for _, adj := range adjustments {
		net = net.Add(adj.Amount)
		if adj.Amount.IsNegative() {
			if err := apply(adj); err != nil {
				return c.unwind(account, journal, aborts, err)
			}
		}
	}
	for _, adj := range adjustments {
		if adj.Amount.IsPositive() {
			if err := apply(adj); err != nil {
				return c.unwind(account, journal, aborts, err)
			}
		}
	}

	if err := c.settleShares(account, net); err != nil {
		return c.unwind(account, journal, aborts, err)
	}
	for _, commit := range commits {
		commit()
	}

	c.logger.Info().
		Str("account", account).
		Int("legs", len(adjustments)).
		Str("netShares", net.String()).
		Msg("compound stake adjustment applied")
	metrics.RecordCompoundAdjustment(metrics.Success)
	return nil
}

// ClaimRewards claims account's pending reward from the named pool and, when
// a rewards escrow is configured, settles the paid placeholder into the real
// reward token. The paid amount is returned.
func (c *Coordinator) ClaimRewards(account, pool string) (math.Int, error) {
	release, err := c.enter("claim-rewards")
	if err != nil {
		return math.ZeroInt(), err
	}
	defer release()

	p, ok := c.pools[pool]
	if !ok {
		return math.ZeroInt(), &types.UnknownPoolError{Pool: pool}
	}
	paid, err := p.Claim(c.identity, account)
	if err != nil {
		return math.ZeroInt(), err
	}
	if paid.IsPositive() && c.escrow != nil {
		if err := c.escrow.Settle(account, paid); err != nil {
			return math.ZeroInt(), err
		}
	}
	return paid, nil
}

// TotalStakeOf sums account's balances across every registered pool.
func (c *Coordinator) TotalStakeOf(account string) math.Int {
	total := math.ZeroInt()
	for _, pool := range c.pools {
		total = total.Add(pool.BalanceOf(account))
	}
	return total
}

// SharesConsistent reports whether account's governance-share balance mirrors
// its deposits across all pools 1:1.
func (c *Coordinator) SharesConsistent(account string) bool {
	return c.shares.BalanceOf(account).Equal(c.TotalStakeOf(account))
}

// validate rejects the whole compound operation before anything mutates:
// unknown pools, zero legs, and withdrawals exceeding the account's running
// per-pool balance.
func (c *Coordinator) validate(account string, adjustments []StakeAdjustment) error {
	balances := make(map[string]math.Int)
	for _, adj := range adjustments {
		pool, ok := c.pools[adj.Pool]
		if !ok {
			return &types.UnknownPoolError{Pool: adj.Pool}
		}
		if adj.Amount.IsNil() || adj.Amount.IsZero() {
			return &types.InvalidAmountError{
				Op:     "adjust-stakes",
				Amount: adj.Amount,
				Reason: "must be non-zero",
			}
		}
		if _, seen := balances[adj.Pool]; !seen {
			balances[adj.Pool] = pool.BalanceOf(account)
		}
		balances[adj.Pool] = balances[adj.Pool].Add(adj.Amount)
		if balances[adj.Pool].IsNegative() {
			return &types.InsufficientBalanceError{
				Op:        "adjust-stakes",
				Requested: adj.Amount.Neg(),
				Available: balances[adj.Pool].Sub(adj.Amount),
			}
		}
	}
	return nil
}

// settleShares mints or burns the net governance-share change.
func (c *Coordinator) settleShares(account string, net math.Int) error {
	switch {
	case net.IsPositive():
		return c.shares.Mint(account, net)
	case net.IsNegative():
		return c.shares.Burn(account, net.Neg())
	}
	return nil
}

// unwind aborts a compound operation with zero observable effect: applied
// principal moves back in reverse leg order, then every staged pool's abort
// reinstates its bookkeeping and drops the events the applied legs buffered.
// Both steps stay off the pools' public surface, so overlay policy, caller
// gates, event sinks and the rate scheduler never see the abort. Validation
// runs first, so this path is only reachable through a collaborator refusing
// a transfer; if the principal reversal itself fails the ledgers are
// inconsistent and the error says so loudly.
func (c *Coordinator) unwind(account string, journal []StakeAdjustment, aborts []func(), cause error) error {
	for i := len(journal) - 1; i >= 0; i-- {
		adj := journal[i]
		if err := c.pools[adj.Pool].RevertStake(account, adj.Amount); err != nil {
			c.logger.Error().
				Err(err).
				Str("account", account).
				Str("pool", adj.Pool).
				Msg("failed to unwind compound adjustment leg")
			metrics.RecordCompoundAdjustment(metrics.Error)
			return fmt.Errorf("unwind of pool %q failed: %w (original cause: %v)", adj.Pool, err, cause)
		}
	}
	for _, abort := range aborts {
		abort()
	}
	metrics.RecordCompoundAdjustment(metrics.Error)
	return cause
}

func (c *Coordinator) enter(op string) (func(), error) {
	if c.entered {
		return nil, &types.ReentrancyError{Op: op}
	}
	c.entered = true
	return func() { c.entered = false }, nil
}
