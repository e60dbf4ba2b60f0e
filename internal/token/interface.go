package token

import "cosmossdk.io/math"

// Ledger is a fungible-token balance table. Transfers move value between
// holder identities; there is no allowance layer, callers are trusted
// protocol components.
type Ledger interface {
	Transfer(from, to string, amount math.Int) error
	BalanceOf(holder string) math.Int
}

// Minter creates and destroys supply. The governance-share ledger and the
// future-rewards placeholder are the only minted tokens in the protocol.
type Minter interface {
	Mint(to string, amount math.Int) error
	Burn(from string, amount math.Int) error
}
