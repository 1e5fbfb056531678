// Package config handles configuration loading and management for fixit.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/state"
	"github.com/chiziuwaga/fixitforme-contractor-sub002/pkg/models"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for fixit.
type Config struct {
	Contractor ContractorConfig `mapstructure:"contractor"`
	Routing    RoutingConfig    `mapstructure:"routing"`
	Execution  ExecutionConfig  `mapstructure:"execution"`
	State      StateConfig      `mapstructure:"state"`
	TUI        TUIConfig        `mapstructure:"tui"`
}

// ContractorConfig describes the signed-in contractor.
type ContractorConfig struct {
	UserID   string   `mapstructure:"user_id"`
	Tier     string   `mapstructure:"tier"`
	Location string   `mapstructure:"location"`
	Services []string `mapstructure:"services"`
}

// RoutingConfig holds the orchestrator thresholds.
type RoutingConfig struct {
	// HighConfidence is the score an intent must exceed to override thread continuity.
	HighConfidence float64 `mapstructure:"high_confidence"`
	// IntentFloor is the score a category must exceed to become the primary intent.
	IntentFloor float64 `mapstructure:"intent_floor"`
	// KeywordsFile replaces the built-in keyword table when set.
	KeywordsFile string `mapstructure:"keywords_file"`
}

// ExecutionConfig holds admission-control limits.
type ExecutionConfig struct {
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	CompletionGrace time.Duration `mapstructure:"completion_grace"`
	DefaultEstimate time.Duration `mapstructure:"default_estimate"`
}

// StateConfig holds the session ledger location.
type StateConfig struct {
	// DBPath is the SQLite file. Empty means state.GlobalDBPath().
	DBPath string `mapstructure:"db_path"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (FIXIT_ROUTING_HIGH_CONFIDENCE, ...)
// 2. Project config (.fixit.yaml in current directory or parent)
// 3. User config (~/.config/fixit/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	bindEnv(v)

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	bindEnv(v)

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Routing.KeywordsFile = expandEnv(cfg.Routing.KeywordsFile)
	cfg.State.DBPath = expandEnv(cfg.State.DBPath)

	return cfg, nil
}

// bindEnv maps FIXIT_SECTION_KEY variables onto section.key.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("fixit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	return SaveToPath(cfg, GetUserConfigPath())
}

// SaveToPath writes the configuration to path, creating its directory.
func SaveToPath(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("contractor.user_id", cfg.Contractor.UserID)
	v.Set("contractor.tier", cfg.Contractor.Tier)
	v.Set("contractor.location", cfg.Contractor.Location)
	v.Set("contractor.services", cfg.Contractor.Services)
	v.Set("routing.high_confidence", cfg.Routing.HighConfidence)
	v.Set("routing.intent_floor", cfg.Routing.IntentFloor)
	v.Set("routing.keywords_file", cfg.Routing.KeywordsFile)
	v.Set("execution.max_concurrent", cfg.Execution.MaxConcurrent)
	v.Set("execution.timeout", cfg.Execution.Timeout.String())
	v.Set("execution.sweep_interval", cfg.Execution.SweepInterval.String())
	v.Set("execution.completion_grace", cfg.Execution.CompletionGrace.String())
	v.Set("execution.default_estimate", cfg.Execution.DefaultEstimate.String())
	v.Set("state.db_path", cfg.State.DBPath)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("writing config %s: %w", configPath, err)
	}
	return nil
}

// Validate checks that thresholds and limits are usable.
func (c *Config) Validate() error {
	var problems []string

	if c.Contractor.Tier != "" && !models.Tier(c.Contractor.Tier).Valid() {
		problems = append(problems, fmt.Sprintf("contractor.tier %q must be growth or scale", c.Contractor.Tier))
	}
	if c.Routing.HighConfidence <= 0 || c.Routing.HighConfidence > 1 {
		problems = append(problems, fmt.Sprintf("routing.high_confidence %v must be in (0,1]", c.Routing.HighConfidence))
	}
	if c.Routing.IntentFloor < 0 || c.Routing.IntentFloor >= c.Routing.HighConfidence {
		problems = append(problems, fmt.Sprintf("routing.intent_floor %v must be in [0, high_confidence)", c.Routing.IntentFloor))
	}
	if c.Execution.MaxConcurrent < 1 {
		problems = append(problems, "execution.max_concurrent must be at least 1")
	}
	for key, d := range map[string]time.Duration{
		"execution.timeout":          c.Execution.Timeout,
		"execution.sweep_interval":   c.Execution.SweepInterval,
		"execution.completion_grace": c.Execution.CompletionGrace,
		"execution.default_estimate": c.Execution.DefaultEstimate,
		"tui.refresh_rate":           c.TUI.RefreshRate,
	} {
		if d <= 0 {
			problems = append(problems, key+" must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ContractorTier returns the configured tier, defaulting to growth.
func (c *Config) ContractorTier() models.Tier {
	return models.Tier(c.Contractor.Tier).OrDefault()
}

// ResolveDBPath returns the ledger path, falling back to state.GlobalDBPath.
func (c *Config) ResolveDBPath() string {
	if c.State.DBPath != "" {
		return c.State.DBPath
	}
	return state.GlobalDBPath()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("contractor.user_id", "")
	v.SetDefault("contractor.tier", string(models.TierGrowth))
	v.SetDefault("contractor.location", "")
	v.SetDefault("contractor.services", []string{})

	v.SetDefault("routing.high_confidence", 0.6)
	v.SetDefault("routing.intent_floor", 0.3)
	v.SetDefault("routing.keywords_file", "")

	v.SetDefault("execution.max_concurrent", 2)
	v.SetDefault("execution.timeout", "10m")
	v.SetDefault("execution.sweep_interval", "30s")
	v.SetDefault("execution.completion_grace", "3s")
	v.SetDefault("execution.default_estimate", "5m")

	v.SetDefault("state.db_path", "")

	v.SetDefault("tui.refresh_rate", "250ms")
}

// getUserConfigDir returns the XDG config directory for fixit.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fixit")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "fixit")
	}
	return filepath.Join(home, ".config", "fixit")
}

// findProjectConfig searches for .fixit.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".fixit.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Contractor: ContractorConfig{
			Tier: string(models.TierGrowth),
		},
		Routing: RoutingConfig{
			HighConfidence: 0.6,
			IntentFloor:    0.3,
		},
		Execution: ExecutionConfig{
			MaxConcurrent:   2,
			Timeout:         10 * time.Minute,
			SweepInterval:   30 * time.Second,
			CompletionGrace: 3 * time.Second,
			DefaultEstimate: 5 * time.Minute,
		},
		TUI: TUIConfig{
			RefreshRate: 250 * time.Millisecond,
		},
	}
}
