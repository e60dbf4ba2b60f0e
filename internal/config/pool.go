package config

import (
	"errors"
	"fmt"
	"time"
)

const basisPointsDenominator = 10000

// PoolConfig describes one staking pool. The emission period is not set
// directly: it derives from the configured daily emission so that paying the
// given percentage of the remaining budget per day exhausts the budget over
// exactly one period.
type PoolConfig struct {
	Name             string        `mapstructure:"name"`
	DailyEmissionBps uint64        `mapstructure:"daily-emission-bps"`
	ThrottleInterval time.Duration `mapstructure:"throttle-interval"`
	LockDuration     time.Duration `mapstructure:"lock-duration"`
	ForbidReentry    bool          `mapstructure:"forbid-reentry"`
	ImplicitStake    bool          `mapstructure:"implicit-stake"`
}

func (cfg *PoolConfig) Validate() error {
	if cfg.Name == "" {
		return errors.New("name must not be empty")
	}

	if cfg.DailyEmissionBps == 0 || cfg.DailyEmissionBps > basisPointsDenominator {
		return fmt.Errorf("daily-emission-bps must be in (0, %d]", basisPointsDenominator)
	}

	if cfg.ThrottleInterval <= 0 {
		return errors.New("throttle-interval must be positive")
	}

	if cfg.LockDuration < 0 {
		return errors.New("lock-duration must not be negative")
	}

	if cfg.ForbidReentry && cfg.LockDuration == 0 {
		return errors.New("forbid-reentry requires a lock-duration")
	}

	return nil
}

// Vesting reports whether the pool carries a vesting overlay.
func (cfg *PoolConfig) Vesting() bool {
	return cfg.LockDuration > 0
}

// RewardsDuration derives the emission period from the daily emission:
// (10000 / bps) days, floored.
func (cfg *PoolConfig) RewardsDuration() time.Duration {
	days := basisPointsDenominator / cfg.DailyEmissionBps
	return time.Duration(days) * 24 * time.Hour
}
