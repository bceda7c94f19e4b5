// Package config contains the netsim configuration definitions.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/spacemeshos/go-netstate/metrics"
	"github.com/spacemeshos/go-netstate/session"
)

const defaultConfigFileName = "./config.toml"

// Config defines the top level configuration of the netsim binary.
type Config struct {
	BaseConfig `mapstructure:"main"`
	Session    session.Config `mapstructure:"session"`
	Sim        SimConfig      `mapstructure:"sim"`
	LOGGING    LoggerConfig   `mapstructure:"logging"`
}

// BaseConfig defines process level options.
type BaseConfig struct {
	ConfigFile string `mapstructure:"config"`

	CollectMetrics bool               `mapstructure:"metrics"`
	MetricsPort    int                `mapstructure:"metrics-port"`
	MetricsPush    metrics.PushConfig `mapstructure:"metrics-push"`
}

// SimConfig describes the simulated network.
type SimConfig struct {
	Clients int `mapstructure:"clients"`
	Objects int `mapstructure:"objects"`
	// Ticks is the number of host ticks to run, 0 runs until interrupted.
	Ticks int `mapstructure:"ticks"`
	// Mutations is the number of field mutations per object per tick.
	Mutations  int     `mapstructure:"mutations"`
	Seed       uint64  `mapstructure:"seed"`
	Shuffle    bool    `mapstructure:"shuffle"`
	Duplicates float64 `mapstructure:"duplicates"`
	// SyncInterval limits how often the host sends changes of an object.
	// Objects rotate through the sync timings. 0 sends on every tick.
	SyncInterval time.Duration `mapstructure:"sync-interval"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfig: defaultBaseConfig(),
		Session:    session.DefaultConfig(),
		Sim:        defaultSimConfig(),
		LOGGING:    defaultLoggingConfig(),
	}
}

func defaultBaseConfig() BaseConfig {
	return BaseConfig{
		ConfigFile:  defaultConfigFileName,
		MetricsPort: 1010,
		MetricsPush: metrics.PushConfig{
			Period: 60 * time.Second,
		},
	}
}

func defaultSimConfig() SimConfig {
	return SimConfig{
		Clients:   2,
		Objects:   8,
		Ticks:     100,
		Mutations: 1,
		Seed:      1,

		SyncInterval: 150 * time.Millisecond,
	}
}

// Validate reports values the simulation cannot run with.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.Session.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("session.tick-interval must be positive, got %s", cfg.Session.TickInterval))
	}
	if cfg.Sim.Clients < 1 {
		errs = append(errs, fmt.Errorf("sim.clients must be at least 1, got %d", cfg.Sim.Clients))
	}
	if cfg.Sim.SyncInterval < 0 {
		errs = append(errs, fmt.Errorf("sim.sync-interval must not be negative, got %s", cfg.Sim.SyncInterval))
	}
	if cfg.Sim.Duplicates < 0 || cfg.Sim.Duplicates >= 1 {
		errs = append(errs, fmt.Errorf("sim.duplicates must be in [0, 1), got %v", cfg.Sim.Duplicates))
	}
	r := cfg.Session.Replica
	if r.MaxEntries < 1 || r.MaxDeltaSize < 1 || r.PendingLimit < 1 || r.PendingPerObject < 1 || r.TombstoneLimit < 1 {
		errs = append(errs, errors.New("session.replica limits must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads the config file into vip. If fileLocation cannot be read
// the default location is tried.
func LoadConfig(fileLocation string, vip *viper.Viper) error {
	if fileLocation == "" {
		fileLocation = defaultConfigFileName
	}
	vip.SetConfigFile(fileLocation)
	err := vip.ReadInConfig()
	if err != nil && fileLocation != defaultConfigFileName {
		vip.SetConfigFile(defaultConfigFileName)
		err = vip.ReadInConfig()
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %w", err)
	}
	return nil
}

// DecodeHook converts strings from config files and flags.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// Unmarshal decodes everything loaded into vip on top of base.
func Unmarshal(vip *viper.Viper, base Config) (*Config, error) {
	conf := base
	if err := vip.Unmarshal(&conf, viper.DecodeHook(DecodeHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &conf, nil
}
