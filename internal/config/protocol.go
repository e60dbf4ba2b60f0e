package config

import (
	"errors"
	"fmt"

	"cosmossdk.io/math"
)

// ProtocolConfig holds the identities and the escrowed emission budget shared
// across pools. Amounts are decimal strings at 1e18 scale so config files
// survive values beyond uint64.
type ProtocolConfig struct {
	Controller    string `mapstructure:"controller"`
	Funder        string `mapstructure:"funder"`
	EscrowReserve string `mapstructure:"escrow-reserve"`
	RewardsSupply string `mapstructure:"rewards-supply"`
}

func (cfg *ProtocolConfig) Validate() error {
	if cfg.Controller == "" {
		return errors.New("controller must not be empty")
	}

	if cfg.Funder == "" {
		return errors.New("funder must not be empty")
	}

	if cfg.EscrowReserve == "" {
		return errors.New("escrow-reserve must not be empty")
	}

	if cfg.RewardsSupply == "" {
		return errors.New("rewards-supply must not be empty")
	}
	if _, err := cfg.SupplyInt(); err != nil {
		return err
	}

	return nil
}

// SupplyInt parses the configured rewards supply.
func (cfg *ProtocolConfig) SupplyInt() (math.Int, error) {
	supply, ok := math.NewIntFromString(cfg.RewardsSupply)
	if !ok || !supply.IsPositive() {
		return math.Int{}, fmt.Errorf("rewards-supply must be a positive integer, got %q", cfg.RewardsSupply)
	}
	return supply, nil
}
