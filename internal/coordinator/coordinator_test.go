package coordinator_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propsproject/props-protocol-sub001/internal/coordinator"
	"github.com/propsproject/props-protocol-sub001/internal/staking"
	"github.com/propsproject/props-protocol-sub001/internal/token"
	"github.com/propsproject/props-protocol-sub001/internal/types"
	"github.com/propsproject/props-protocol-sub001/internal/utils/clock"
	"github.com/propsproject/props-protocol-sub001/testutil"
)

const (
	identity = "props-controller"
	funder   = "funder"
	duration = int64(1_000_000)
	day      = int64(24 * 60 * 60)
)

type coordFixture struct {
	t           *testing.T
	clk         *clock.Manual
	props       *token.MemLedger
	placeholder *token.MemLedger
	shares      *token.MemLedger
	escrow      *token.RewardsEscrow
	recorder    *types.Recorder
	coord       *coordinator.Coordinator
	pools       map[string]*staking.Pool
}

func tokens(n int64) math.Int {
	return staking.Scale.MulRaw(n)
}

func newCoordFixture(t *testing.T, poolNames ...string) *coordFixture {
	t.Helper()
	f := &coordFixture{
		t:           t,
		clk:         clock.NewManual(1_700_000_000),
		props:       token.NewMemLedger("props"),
		placeholder: token.NewMemLedger("rprops"),
		shares:      token.NewMemLedger("sprops"),
		recorder:    &types.Recorder{},
		pools:       make(map[string]*staking.Pool),
	}

	escrow, err := token.NewRewardsEscrow(f.placeholder, f.props, "escrow-reserve", tokens(1_000))
	require.NoError(t, err)
	f.escrow = escrow

	f.coord = coordinator.NewCoordinator(identity, f.shares, escrow, f.clk, zerolog.Nop())
	for _, name := range poolNames {
		pool := f.newPool(name)
		require.NoError(t, f.coord.RegisterPool(pool))
		f.pools[name] = pool
	}
	return f
}

func (f *coordFixture) newPool(name string) *staking.Pool {
	params := staking.Params{
		Name:             name,
		Controller:       identity,
		Funder:           funder,
		Account:          "pool:" + name,
		RewardsDuration:  duration,
		ThrottleInterval: day,
	}
	pool, err := staking.NewPool(
		params,
		f.placeholder,
		staking.NewLedgerTransfer(f.props, params.Account),
		f.clk,
		f.recorder,
		zerolog.Nop(),
	)
	require.NoError(f.t, err)
	return pool
}

func (f *coordFixture) registerVesting(name string, lock int64, forbidReentry bool) *staking.VestingPool {
	vesting, err := staking.NewVestingPool(f.newPool(name), lock, forbidReentry)
	require.NoError(f.t, err)
	require.NoError(f.t, f.coord.RegisterPool(vesting))
	return vesting
}

func (f *coordFixture) grant(account string, n int64) {
	require.NoError(f.t, f.props.Mint(account, tokens(n)))
}

func (f *coordFixture) adjust(account string, legs ...coordinator.StakeAdjustment) error {
	return f.coord.AdjustStakes(account, legs)
}

func TestDepositMintsShares(t *testing.T) {
	f := newCoordFixture(t, "a", "b")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 500)

	require.NoError(t, f.adjust(alice,
		coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)},
		coordinator.StakeAdjustment{Pool: "b", Amount: tokens(50)},
	))

	assert.Equal(t, tokens(150), f.shares.BalanceOf(alice))
	assert.Equal(t, tokens(100), f.pools["a"].BalanceOf(alice))
	assert.Equal(t, tokens(50), f.pools["b"].BalanceOf(alice))
	assert.Equal(t, tokens(350), f.props.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestWithdrawBurnsShares(t *testing.T) {
	f := newCoordFixture(t, "a")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 500)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)}))

	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-40)}))

	assert.Equal(t, tokens(60), f.shares.BalanceOf(alice))
	assert.Equal(t, tokens(440), f.props.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestRebalanceMovesStakeWithoutNetTransfer(t *testing.T) {
	f := newCoordFixture(t, "a", "b")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)}))

	sharesBefore := f.shares.BalanceOf(alice)
	propsBefore := f.props.BalanceOf(alice)
	require.True(t, propsBefore.IsZero())

	// Withdraw everything from a and restake it in b: the freed principal
	// covers the deposit, nothing moves externally and no shares change.
	require.NoError(t, f.adjust(alice,
		coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-100)},
		coordinator.StakeAdjustment{Pool: "b", Amount: tokens(100)},
	))

	assert.True(t, f.pools["a"].BalanceOf(alice).IsZero())
	assert.Equal(t, tokens(100), f.pools["b"].BalanceOf(alice))
	assert.Equal(t, sharesBefore, f.shares.BalanceOf(alice))
	assert.Equal(t, propsBefore, f.props.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestPartialRebalanceReturnsLeftover(t *testing.T) {
	f := newCoordFixture(t, "a", "b")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)}))

	// Free 100, restake only 30: the 70 leftover lands back with the
	// account and the net 70 of shares burns.
	require.NoError(t, f.adjust(alice,
		coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-100)},
		coordinator.StakeAdjustment{Pool: "b", Amount: tokens(30)},
	))

	assert.Equal(t, tokens(30), f.shares.BalanceOf(alice))
	assert.Equal(t, tokens(70), f.props.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestAdjustStakesValidation(t *testing.T) {
	f := newCoordFixture(t, "a")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(50)}))

	t.Run("unknown pool", func(t *testing.T) {
		err := f.adjust(alice, coordinator.StakeAdjustment{Pool: "nope", Amount: tokens(1)})
		require.True(t, types.IsUnknownPoolError(err))
	})

	t.Run("zero leg", func(t *testing.T) {
		err := f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: math.ZeroInt()})
		require.True(t, types.IsInvalidAmountError(err))
	})

	t.Run("withdrawal beyond balance", func(t *testing.T) {
		err := f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-60)})
		require.True(t, types.IsInsufficientBalanceError(err))
	})

	t.Run("rejected compound leaves no trace", func(t *testing.T) {
		err := f.adjust(alice,
			coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-50)},
			coordinator.StakeAdjustment{Pool: "nope", Amount: tokens(50)},
		)
		require.True(t, types.IsUnknownPoolError(err))
		assert.Equal(t, tokens(50), f.pools["a"].BalanceOf(alice))
		assert.Equal(t, tokens(50), f.shares.BalanceOf(alice))
	})
}

func TestMidFlightFailureUnwinds(t *testing.T) {
	f := newCoordFixture(t, "a", "b")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)}))
	require.True(t, f.props.BalanceOf(alice).IsZero())

	// Frees 50 but tries to restake 100: the deposit leg fails inside the
	// principal transfer, after the withdrawal already applied. The whole
	// compound operation must unwind.
	err := f.adjust(alice,
		coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-50)},
		coordinator.StakeAdjustment{Pool: "b", Amount: tokens(100)},
	)
	require.True(t, types.IsInsufficientBalanceError(err))

	assert.Equal(t, tokens(100), f.pools["a"].BalanceOf(alice))
	assert.True(t, f.pools["b"].BalanceOf(alice).IsZero())
	assert.True(t, f.props.BalanceOf(alice).IsZero())
	assert.Equal(t, tokens(100), f.shares.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestAbortedRebalanceOnVestingPoolUnwinds(t *testing.T) {
	f := newCoordFixture(t, "b")
	vest := f.registerVesting("v", int64(100_000), true)
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "v", Amount: tokens(100)}))
	require.True(t, f.props.BalanceOf(alice).IsZero())

	// The full exit from the vesting pool applies, then the oversized
	// deposit leg fails. The exit must roll back even though the pool
	// bars re-entry after a full exit.
	err := f.adjust(alice,
		coordinator.StakeAdjustment{Pool: "v", Amount: tokens(-100)},
		coordinator.StakeAdjustment{Pool: "b", Amount: tokens(200)},
	)
	require.True(t, types.IsInsufficientBalanceError(err))

	assert.Equal(t, tokens(100), vest.BalanceOf(alice))
	assert.True(t, f.pools["b"].BalanceOf(alice).IsZero())
	assert.True(t, f.props.BalanceOf(alice).IsZero())
	assert.Equal(t, tokens(100), f.shares.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))

	// The re-entry bar must not have latched during the abort: a partial
	// withdrawal followed by a fresh deposit still goes through.
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "v", Amount: tokens(-40)}))
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "v", Amount: tokens(40)}))
	assert.Equal(t, tokens(100), vest.BalanceOf(alice))
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestAbortedRebalanceLeavesNoTrace(t *testing.T) {
	f := newCoordFixture(t, "a", "b")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)
	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)}))
	require.NoError(t, f.escrow.Fund(funder, f.pools["a"], tokens(500)))

	// Move past the activity throttle so an applied deposit leg would
	// re-spread the emission rate.
	f.clk.Advance(2 * day)
	rate := f.pools["a"].RewardRate()
	finish := f.pools["a"].PeriodFinish()
	adjusted := f.pools["a"].LastRateAdjustment()
	earned := f.pools["a"].Earned(alice)
	events := len(f.recorder.Events)

	// The withdrawal and the first deposit apply (the deposit re-spreads
	// the rate), then the last leg fails on missing funds.
	err := f.adjust(alice,
		coordinator.StakeAdjustment{Pool: "a", Amount: tokens(-50)},
		coordinator.StakeAdjustment{Pool: "a", Amount: tokens(30)},
		coordinator.StakeAdjustment{Pool: "b", Amount: tokens(200)},
	)
	require.True(t, types.IsInsufficientBalanceError(err))

	assert.Equal(t, tokens(100), f.pools["a"].BalanceOf(alice))
	assert.True(t, f.props.BalanceOf(alice).IsZero())
	assert.Equal(t, rate, f.pools["a"].RewardRate())
	assert.Equal(t, finish, f.pools["a"].PeriodFinish())
	assert.Equal(t, adjusted, f.pools["a"].LastRateAdjustment())
	assert.Equal(t, earned, f.pools["a"].Earned(alice))
	assert.Len(t, f.recorder.Events, events, "aborted operation must emit no events")
	assert.True(t, f.coord.SharesConsistent(alice))
}

func TestClaimRewardsSettlesPlaceholder(t *testing.T) {
	f := newCoordFixture(t, "a")
	alice := testutil.RandomAccount(t)
	f.grant(alice, 100)

	require.NoError(t, f.adjust(alice, coordinator.StakeAdjustment{Pool: "a", Amount: tokens(100)}))
	require.NoError(t, f.escrow.Fund(funder, f.pools["a"], tokens(500)))

	f.clk.Advance(duration / 2)
	paid, err := f.coord.ClaimRewards(alice, "a")
	require.NoError(t, err)
	require.True(t, paid.IsPositive())

	// The placeholder was settled 1:1 into real tokens.
	assert.Equal(t, paid, f.props.BalanceOf(alice))

	t.Run("unknown pool", func(t *testing.T) {
		_, err := f.coord.ClaimRewards(alice, "nope")
		require.True(t, types.IsUnknownPoolError(err))
	})
}

func TestRegisterPoolRejectsDuplicates(t *testing.T) {
	f := newCoordFixture(t, "a")
	require.Error(t, f.coord.RegisterPool(f.pools["a"]))
}
