// Package config loads host-level configuration: cache directory
// override, default memory ceiling, event-channel depth, unload grace
// period, and OCI registry credentials. This is distinct from a
// component's Policy Record — config governs the host process itself,
// policy governs one component.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// defaultEventChannelDepth matches spec.md §4.D's "bounded broadcast
// channel" without naming a number; this is the teacher's own
// observation-channel default carried over as a starting point.
const (
	defaultEventChannelDepth = 256
	defaultMemoryLimitMB     = 256
	defaultUnloadGrace       = 5 * time.Second
)

// OCIRegistryCredentials authenticates an oci:// origin pull.
type OCIRegistryCredentials struct {
	Registry string `mapstructure:"registry"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Config is the host's own configuration, loaded once at startup.
type Config struct {
	// CacheDir overrides the Loader's on-disk content-addressed cache
	// location. Empty means the Loader's own default under the user
	// cache directory.
	CacheDir string `mapstructure:"cache_dir"`

	// DefaultMemoryLimitMB is the memory ceiling a compiled Sandbox
	// Template uses when a policy document's resources.limits.memory
	// is unset.
	DefaultMemoryLimitMB int `mapstructure:"default_memory_limit_mb"`

	// EventChannelDepth sizes the Lifecycle Manager's drop-oldest
	// broadcast channel (spec.md §4.D "Event emission").
	EventChannelDepth int `mapstructure:"event_channel_depth"`

	// UnloadGrace bounds how long unload waits for in-flight calls to
	// drain before proceeding anyway (spec.md §4.D "unload waits for
	// outstanding calls to drain").
	UnloadGrace time.Duration `mapstructure:"unload_grace"`

	// OCIRegistries credentials the oci:// Loader resolver consults by
	// registry hostname.
	OCIRegistries []OCIRegistryCredentials `mapstructure:"oci_registries"`
}

// Default returns a Config with safe defaults for all fields, used when
// no config file exists — wassette must work out of the box.
func Default() *Config {
	return &Config{
		DefaultMemoryLimitMB: defaultMemoryLimitMB,
		EventChannelDepth:    defaultEventChannelDepth,
		UnloadGrace:          defaultUnloadGrace,
	}
}

// Load reads host configuration the way cmd/wassette's root command
// wires viper: an explicit path if non-empty, else a search path under
// the user's home directory for ".wassette.yaml", plus environment
// variable overrides via AutomaticEnv. A missing config file is not an
// error — Default() fills every field.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WASSETTE")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("default_memory_limit_mb", def.DefaultMemoryLimitMB)
	v.SetDefault("event_channel_depth", def.EventChannelDepth)
	v.SetDefault("unload_grace", def.UnloadGrace)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: find home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".wassette")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
