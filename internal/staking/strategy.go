package staking

import (
	"cosmossdk.io/math"

	"github.com/propsproject/props-protocol-sub001/internal/token"
)

// TransferStrategy is the per-pool policy for moving staked principal. Pool
// variants differ only here: some hold real token balances, others track
// stake as pure bookkeeping.
type TransferStrategy interface {
	OnDeposit(account string, amount math.Int) error
	OnWithdraw(account string, amount math.Int) error
}

// LedgerTransfer moves principal between the account and the pool's identity
// on a real token ledger.
type LedgerTransfer struct {
	ledger token.Ledger
	pool   string
}

func NewLedgerTransfer(ledger token.Ledger, poolAccount string) LedgerTransfer {
	return LedgerTransfer{ledger: ledger, pool: poolAccount}
}

func (l LedgerTransfer) OnDeposit(account string, amount math.Int) error {
	return l.ledger.Transfer(account, l.pool, amount)
}

func (l LedgerTransfer) OnWithdraw(account string, amount math.Int) error {
	return l.ledger.Transfer(l.pool, account, amount)
}

// ImplicitTransfer records stake as bookkeeping only; no principal moves.
type ImplicitTransfer struct{}

func (ImplicitTransfer) OnDeposit(string, math.Int) error {
	return nil
}

func (ImplicitTransfer) OnWithdraw(string, math.Int) error {
	return nil
}
