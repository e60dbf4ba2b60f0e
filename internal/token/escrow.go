package token

import (
	"fmt"

	"cosmossdk.io/math"

	"github.com/propsproject/props-protocol-sub001/internal/types"
)

// RewardsEscrow holds the bulk-minted future-rewards placeholder. The whole
// emission budget is minted up front to a reserve identity; pools are funded
// from the reserve in placeholder units, and on payout the placeholder is
// settled 1:1 into the real reward token.
type RewardsEscrow struct {
	placeholder *MemLedger
	reward      Minter
	reserve     string
}

// NewRewardsEscrow mints supply of the placeholder token to the reserve.
func NewRewardsEscrow(placeholder *MemLedger, reward Minter, reserve string, supply math.Int) (*RewardsEscrow, error) {
	if err := placeholder.Mint(reserve, supply); err != nil {
		return nil, err
	}
	return &RewardsEscrow{
		placeholder: placeholder,
		reward:      reward,
		reserve:     reserve,
	}, nil
}

// Reserve returns the identity holding the unallocated placeholder supply.
func (e *RewardsEscrow) Reserve() string {
	return e.reserve
}

// Remaining returns the placeholder supply not yet allocated to any pool.
func (e *RewardsEscrow) Remaining() math.Int {
	return e.placeholder.BalanceOf(e.reserve)
}

// fundable is the slice of the pool surface the escrow drives when allocating
// a reward budget.
type fundable interface {
	Account() string
	NotifyRewardAmount(caller string, amount math.Int) error
}

// Fund moves amount of placeholder from the reserve to the pool's reward
// account and notifies the pool so a new emission period starts. The caller
// identity is forwarded to the pool's funder gate.
func (e *RewardsEscrow) Fund(caller string, pool fundable, amount math.Int) error {
	if err := e.placeholder.Transfer(e.reserve, pool.Account(), amount); err != nil {
		return err
	}
	if err := pool.NotifyRewardAmount(caller, amount); err != nil {
		// Funding is refused before the pool mutates, so the transfer is the
		// only effect to unwind.
		if rbErr := e.placeholder.Transfer(pool.Account(), e.reserve, amount); rbErr != nil {
			return fmt.Errorf("fund rollback of pool %q failed: %w (original cause: %v)", pool.Account(), rbErr, err)
		}
		return err
	}
	return nil
}

// Settle swaps a paid-out placeholder balance into the real reward token,
// burning the placeholder and minting the reward 1:1.
func (e *RewardsEscrow) Settle(holder string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return &types.InvalidAmountError{
			Op:     "escrow: settle",
			Amount: amount,
			Reason: "must be positive",
		}
	}
	if err := e.placeholder.Burn(holder, amount); err != nil {
		return err
	}
	return e.reward.Mint(holder, amount)
}
