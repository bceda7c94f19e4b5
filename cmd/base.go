// Package cmd is the base package for the netstate executables.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	cfg "github.com/spacemeshos/go-netstate/config"
	"github.com/spacemeshos/go-netstate/config/presets"
)

var (
	// Version is the app's semantic version. Designed to be overwritten by make.
	Version string

	// Branch is the git branch used to build the App. Designed to be overwritten by make.
	Branch string

	// Commit is the git commit used to build the app. Designed to be overwritten by make.
	Commit string
)

// LoadConfig builds the configuration from, in increasing priority, the
// defaults or the selected preset, the config file and the flags that were
// set explicitly.
func LoadConfig(cmd *cobra.Command) (*cfg.Config, error) {
	flags := cmd.Flags()
	vip := viper.New()
	if path, _ := flags.GetString("config"); path != "" {
		if err := cfg.LoadConfig(path, vip); err != nil {
			return nil, err
		}
	}

	conf := cfg.DefaultConfig()
	if name, _ := flags.GetString("preset"); len(name) > 0 {
		preset, err := presets.Get(name)
		if err != nil {
			return nil, err
		}
		conf = preset
	}

	flags.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			vip.Set(key, f.Value.String())
		}
	})
	parsed, err := cfg.Unmarshal(vip, conf)
	if err != nil {
		return nil, err
	}
	parsed.ConfigFile, _ = flags.GetString("config")
	if err := parsed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return parsed, nil
}
