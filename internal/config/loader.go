package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "PROMPTDECK"

// Load reads configuration from the given file path (optional), overlays
// environment variables, applies defaults, and validates the result.
//
// When path is empty, Load searches for "config.yaml" in the working
// directory and /etc/promptdeck/; a missing file is not an error because a
// complete configuration can be supplied through the environment.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/promptdeck/")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing search-path config is tolerated; an explicit path is not.
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("config: failed to read config file: %w", err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads the configuration file whenever it changes on disk and
// invokes onChange with the freshly parsed configuration.  Parse or
// validation failures leave the previous configuration in effect and are
// reported through onError (which may be nil).
//
// Only safe-to-reload settings should be consumed from the callback; callers
// typically use it to adjust the log level at runtime.
func Watch(path string, onChange func(*AppConfig), onError func(error)) error {
	if path == "" {
		return fmt.Errorf("config: watch requires an explicit config file path")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file for watching: %w", err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg := &AppConfig{}
		if err := v.Unmarshal(cfg); err != nil {
			if onError != nil {
				onError(fmt.Errorf("config: reload failed to unmarshal: %w", err))
			}
			return
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
