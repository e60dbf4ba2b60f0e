package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/propsproject/props-protocol-sub001/internal/config"
	"github.com/propsproject/props-protocol-sub001/internal/coordinator"
	"github.com/propsproject/props-protocol-sub001/internal/observability/metrics"
	"github.com/propsproject/props-protocol-sub001/internal/observability/tracing"
	"github.com/propsproject/props-protocol-sub001/internal/staking"
	"github.com/propsproject/props-protocol-sub001/internal/token"
	"github.com/propsproject/props-protocol-sub001/internal/types"
	"github.com/propsproject/props-protocol-sub001/internal/utils/clock"
)

var (
	simDays     int
	simAccounts int
	simSeed     int64
)

func SimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Runs a randomized staking protocol simulation against the configured pools",
		Args:  cobra.ExactArgs(0),
		RunE:  simulate,
	}
	cmd.Flags().IntVar(&simDays, "days", 90, "number of simulated days")
	cmd.Flags().IntVar(&simAccounts, "accounts", 10, "number of simulated accounts")
	cmd.Flags().Int64Var(&simSeed, "seed", time.Now().UnixNano(), "random seed")

	return cmd
}

func simulate(cmd *cobra.Command, _ []string) error {
	ctx := tracing.InjectRunID(cmd.Context(), log.Logger)
	logger := log.Ctx(ctx)

	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	metrics.Init(cfg.Metrics.Port)

	clk := clock.NewManual(time.Now().Unix())
	recorder := &types.Recorder{}

	props := token.NewMemLedger("props")
	placeholder := token.NewMemLedger("rprops")
	shares := token.NewMemLedger("sprops")

	supply, err := cfg.Protocol.SupplyInt()
	if err != nil {
		return err
	}
	escrow, err := token.NewRewardsEscrow(placeholder, props, cfg.Protocol.EscrowReserve, supply)
	if err != nil {
		return err
	}

	coord := coordinator.NewCoordinator(cfg.Protocol.Controller, shares, escrow, clk, *logger)
	pools := make([]coordinator.StakedPool, 0, len(cfg.Pools))
	budget := supply.QuoRaw(int64(len(cfg.Pools)))
	for i := range cfg.Pools {
		pc := &cfg.Pools[i]
		pool, base, err := buildPool(pc, cfg, props, placeholder, clk, recorder, *logger)
		if err != nil {
			return err
		}
		if err := coord.RegisterPool(pool); err != nil {
			return err
		}
		if err := escrow.Fund(cfg.Protocol.Funder, base, budget); err != nil {
			return err
		}
		logger.Info().Str("pool", pc.Name).Str("budget", budget.String()).Msg("pool funded")
		pools = append(pools, pool)
	}

	runRandomWalk(ctx, coord, pools, props, clk)

	for _, pool := range pools {
		logger.Info().
			Str("pool", pool.Name()).
			Str("totalStaked", pool.TotalStaked().String()).
			Msg("final pool state")
	}
	logger.Info().
		Int("events", len(recorder.Events)).
		Str("escrowRemaining", escrow.Remaining().String()).
		Msg("simulation finished")
	return nil
}

func buildPool(
	pc *config.PoolConfig,
	cfg *config.Config,
	props *token.MemLedger,
	placeholder *token.MemLedger,
	clk clock.Clock,
	sink types.EventSink,
	logger zerolog.Logger,
) (coordinator.StakedPool, *staking.Pool, error) {
	params := staking.Params{
		Name:             pc.Name,
		Controller:       cfg.Protocol.Controller,
		Funder:           cfg.Protocol.Funder,
		Account:          "pool:" + pc.Name,
		RewardsDuration:  int64(pc.RewardsDuration() / time.Second),
		ThrottleInterval: int64(pc.ThrottleInterval / time.Second),
	}
	var strategy staking.TransferStrategy = staking.NewLedgerTransfer(props, params.Account)
	if pc.ImplicitStake {
		strategy = staking.ImplicitTransfer{}
	}
	pool, err := staking.NewPool(params, placeholder, strategy, clk, sink, logger)
	if err != nil {
		return nil, nil, err
	}
	if pc.Vesting() {
		vesting, err := staking.NewVestingPool(pool, int64(pc.LockDuration/time.Second), pc.ForbidReentry)
		if err != nil {
			return nil, nil, err
		}
		return vesting, pool, nil
	}
	return pool, pool, nil
}

func runRandomWalk(
	ctx context.Context,
	coord *coordinator.Coordinator,
	pools []coordinator.StakedPool,
	props *token.MemLedger,
	clk *clock.Manual,
) {
	logger := log.Ctx(ctx)
	faker := gofakeit.New(uint64(simSeed))
	rng := rand.New(rand.NewSource(simSeed))

	accounts := make([]string, simAccounts)
	grant := staking.Scale.MulRaw(10_000)
	for i := range accounts {
		accounts[i] = faker.Username()
		if err := props.Mint(accounts[i], grant); err != nil {
			logger.Error().Err(err).Msg("failed to seed account")
		}
	}

	for day := 0; day < simDays; day++ {
		clk.Advance(24 * 60 * 60)
		for _, account := range accounts {
			pool := pools[rng.Intn(len(pools))]
			switch rng.Intn(3) {
			case 0:
				amount := staking.Scale.MulRaw(int64(1 + rng.Intn(100)))
				if amount.GT(props.BalanceOf(account)) {
					continue
				}
				err := coord.AdjustStakes(account, []coordinator.StakeAdjustment{
					{Pool: pool.Name(), Amount: amount},
				})
				logOutcome(ctx, "deposit", account, pool.Name(), err)
			case 1:
				staked := pool.BalanceOf(account)
				if !staked.IsPositive() {
					continue
				}
				err := coord.AdjustStakes(account, []coordinator.StakeAdjustment{
					{Pool: pool.Name(), Amount: staked.Neg()},
				})
				logOutcome(ctx, "withdraw", account, pool.Name(), err)
			case 2:
				paid, err := coord.ClaimRewards(account, pool.Name())
				if err == nil && paid.IsPositive() {
					logger.Debug().
						Str("account", account).
						Str("pool", pool.Name()).
						Str("paid", paid.String()).
						Msg("claimed")
				}
				if err != nil && !types.IsNoRewardsYetError(err) {
					logger.Warn().Err(err).Str("account", account).Msg("claim failed")
				}
			}
			if !coord.SharesConsistent(account) {
				logger.Error().Str("account", account).Msg("governance shares diverged from deposits")
			}
		}
	}
}

func logOutcome(ctx context.Context, op, account, pool string, err error) {
	logger := log.Ctx(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("op", op).Str("account", account).Str("pool", pool).Msg("operation rejected")
		return
	}
	logger.Debug().Str("op", op).Str("account", account).Str("pool", pool).Msg("operation applied")
}
