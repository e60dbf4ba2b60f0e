package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Protocol ProtocolConfig `mapstructure:"protocol"`
	Pools    []PoolConfig   `mapstructure:"pools"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Protocol.Validate(); err != nil {
		return err
	}

	if len(cfg.Pools) == 0 {
		return fmt.Errorf("at least one pool must be configured")
	}
	seen := make(map[string]bool)
	for i := range cfg.Pools {
		pool := &cfg.Pools[i]
		if err := pool.Validate(); err != nil {
			return fmt.Errorf("pool %d: %w", i, err)
		}
		if seen[pool.Name] {
			return fmt.Errorf("pool %q configured twice", pool.Name)
		}
		seen[pool.Name] = true
	}

	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}

	return nil
}

// New returns a fully parsed config object from the given file path.
func New(cfgFile string) (*Config, error) {
	viper.SetConfigFile(cfgFile)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
