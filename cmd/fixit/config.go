package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chiziuwaga/fixitforme-contractor-sub002/internal/config"
)

var (
	configProject bool
	configInit    bool
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify fixit configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.
With --init, writes a config file holding the defaults.

Configuration is stored at ~/.config/fixit/config.yaml
Project-specific overrides can be placed in .fixit.yaml (use --project).`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if configInit {
			return initConfigFile(cmd.OutOrStdout(), configTargetPath())
		}
		if len(args) == 2 {
			return setConfigKey(cmd.OutOrStdout(), args[0], args[1])
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			value, err := config.Get(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		}
		return displayAllConfig(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	configCmd.Flags().BoolVar(&configProject, "project", false, "Write to .fixit.yaml in the current directory")
	configCmd.Flags().BoolVar(&configInit, "init", false, "Write a config file with the default settings")
}

// displayAllConfig prints every known key with its value.
func displayAllConfig(w io.Writer, cfg *config.Config) error {
	for _, key := range config.Keys() {
		value, err := config.Get(cfg, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s\n", key, value)
	}
	return nil
}

// configTargetPath is the file config writes go to: --config, then
// .fixit.yaml with --project, then the user config file.
func configTargetPath() string {
	if configPath != "" {
		return configPath
	}
	if configProject {
		if path := config.GetProjectConfigPath(); path != "" {
			return path
		}
		return ".fixit.yaml"
	}
	return config.GetUserConfigPath()
}

// setConfigKey writes one key to the target config file.
func setConfigKey(w io.Writer, key, value string) error {
	path := configTargetPath()
	if err := config.SetInFile(path, key, value); err != nil {
		return err
	}
	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, path)
	return nil
}

// initConfigFile writes the default configuration to path. An existing file
// is left alone.
func initConfigFile(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "Config already exists at %s\n", path)
		return nil
	}

	var err error
	if path == config.GetUserConfigPath() {
		err = config.Save(config.Default())
	} else {
		err = config.SaveToPath(config.Default(), path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote default config to %s\n", path)
	return nil
}
