package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ErrUnknownKey is returned for keys fixit does not recognise.
var ErrUnknownKey = errors.New("unknown config key")

var keyGetters = map[string]func(*Config) string{
	"contractor.user_id":         func(c *Config) string { return c.Contractor.UserID },
	"contractor.tier":            func(c *Config) string { return c.Contractor.Tier },
	"contractor.location":        func(c *Config) string { return c.Contractor.Location },
	"contractor.services":        func(c *Config) string { return strings.Join(c.Contractor.Services, ",") },
	"routing.high_confidence":    func(c *Config) string { return strconv.FormatFloat(c.Routing.HighConfidence, 'g', -1, 64) },
	"routing.intent_floor":       func(c *Config) string { return strconv.FormatFloat(c.Routing.IntentFloor, 'g', -1, 64) },
	"routing.keywords_file":      func(c *Config) string { return c.Routing.KeywordsFile },
	"execution.max_concurrent":   func(c *Config) string { return strconv.Itoa(c.Execution.MaxConcurrent) },
	"execution.timeout":          func(c *Config) string { return c.Execution.Timeout.String() },
	"execution.sweep_interval":   func(c *Config) string { return c.Execution.SweepInterval.String() },
	"execution.completion_grace": func(c *Config) string { return c.Execution.CompletionGrace.String() },
	"execution.default_estimate": func(c *Config) string { return c.Execution.DefaultEstimate.String() },
	"state.db_path":              func(c *Config) string { return c.State.DBPath },
	"tui.refresh_rate":           func(c *Config) string { return c.TUI.RefreshRate.String() },
}

// Keys returns every supported key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(keyGetters))
	for k := range keyGetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key formatted for display.
func Get(cfg *Config, key string) (string, error) {
	get, ok := keyGetters[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return get(cfg), nil
}

// SetInFile writes a single key to the config file at path, keeping the
// other keys in the file. The resulting configuration must validate.
func SetInFile(path, key, value string) error {
	if _, ok := keyGetters[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config from %s: %w", path, err)
		}
	}

	if key == "contractor.services" {
		var services []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				services = append(services, s)
			}
		}
		v.Set(key, services)
	} else {
		v.Set(key, value)
	}

	check := viper.New()
	setDefaults(check)
	if err := check.MergeConfigMap(v.AllSettings()); err != nil {
		return fmt.Errorf("merging config: %w", err)
	}
	cfg, err := unmarshal(check)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
