package config

import (
	"errors"
	"fmt"
	"net"
)

// MetricsConfig defines the metrics server of the simulator.
type MetricsConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (cfg *MetricsConfig) Validate() error {
	if cfg.Host == "" {
		return errors.New("host must not be empty")
	}

	if net.ParseIP(cfg.Host) == nil {
		return fmt.Errorf("invalid host: %s", cfg.Host)
	}

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return errors.New("port must be in [1024, 65535]")
	}

	return nil
}
