package token

import (
	"cosmossdk.io/math"

	"github.com/propsproject/props-protocol-sub001/internal/types"
)

// MemLedger is an in-memory fungible ledger implementing both Ledger and
// Minter. All errors are detected before any balance is touched.
type MemLedger struct {
	name        string
	balances    map[string]math.Int
	totalSupply math.Int
}

func NewMemLedger(name string) *MemLedger {
	return &MemLedger{
		name:        name,
		balances:    make(map[string]math.Int),
		totalSupply: math.ZeroInt(),
	}
}

func (l *MemLedger) Name() string {
	return l.name
}

func (l *MemLedger) BalanceOf(holder string) math.Int {
	if bal, ok := l.balances[holder]; ok {
		return bal
	}
	return math.ZeroInt()
}

func (l *MemLedger) TotalSupply() math.Int {
	return l.totalSupply
}

func (l *MemLedger) Transfer(from, to string, amount math.Int) error {
	if err := l.validateAmount("transfer", amount); err != nil {
		return err
	}
	available := l.BalanceOf(from)
	if amount.GT(available) {
		return &types.InsufficientBalanceError{
			Op:        l.name + ": transfer",
			Requested: amount,
			Available: available,
		}
	}
	l.balances[from] = available.Sub(amount)
	l.balances[to] = l.BalanceOf(to).Add(amount)
	return nil
}

func (l *MemLedger) Mint(to string, amount math.Int) error {
	if err := l.validateAmount("mint", amount); err != nil {
		return err
	}
	l.balances[to] = l.BalanceOf(to).Add(amount)
	l.totalSupply = l.totalSupply.Add(amount)
	return nil
}

func (l *MemLedger) Burn(from string, amount math.Int) error {
	if err := l.validateAmount("burn", amount); err != nil {
		return err
	}
	available := l.BalanceOf(from)
	if amount.GT(available) {
		return &types.InsufficientBalanceError{
			Op:        l.name + ": burn",
			Requested: amount,
			Available: available,
		}
	}
	l.balances[from] = available.Sub(amount)
	l.totalSupply = l.totalSupply.Sub(amount)
	return nil
}

func (l *MemLedger) validateAmount(op string, amount math.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return &types.InvalidAmountError{
			Op:     l.name + ": " + op,
			Amount: amount,
			Reason: "must be positive",
		}
	}
	return nil
}
