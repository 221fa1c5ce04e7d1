package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/supporttools/displaywatcher/pkg/logger"
	"github.com/supporttools/displaywatcher/pkg/types"
	"github.com/supporttools/displaywatcher/pkg/util"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "/etc/displaywatcher/config.yaml"

// options holds the persistent flags.
type options struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	dryRun     bool

	// configExplicit is set when --config was passed on the command line.
	configExplicit bool
}

func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "displaywatcher",
		Short: "Reboot to recover a broken display arrangement, a bounded number of times",
		Long: `displaywatcher runs the display positioner in probe mode. When the monitors
are not where they should be it records an attempt and reboots the machine,
giving up (and sending a notification) after the configured number of tries.

Run it from cron or a systemd timer; every invocation makes one decision.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.configExplicit = cmd.Flags().Changed("config")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", DefaultConfigPath, "Path to configuration file")
	flags.StringVar(&opts.envFile, "env-file", "", "Optional .env file loaded before the configuration is expanded")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Override log format (json, text)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Log the reboot command instead of running it")

	root.AddCommand(
		newRunCommand(opts),
		newStatusCommand(opts),
		newResetCommand(opts),
		newHistoryCommand(opts),
		newValidateCommand(opts),
		newVersionCommand(),
	)

	return root
}

// loadConfiguration loads and validates the configuration with proper precedence:
// 1. Load .env files so ${VAR} references resolve
// 2. Start with the file config, or defaults when the default path is absent
// 3. Apply CLI flag overrides
// 4. Re-validate the final configuration
func loadConfiguration(opts *options) (*types.WatcherConfig, error) {
	if err := util.LoadEnvFiles(opts.envFile); err != nil {
		return nil, err
	}

	var (
		config *types.WatcherConfig
		err    error
	)
	if opts.configExplicit {
		config, err = util.LoadConfig(opts.configPath)
	} else {
		config, err = util.LoadConfigOrDefault(opts.configPath)
	}
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(config, opts)

	if err := config.Validate(); err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "apply flag overrides",
			fmt.Errorf("configuration validation failed after applying overrides: %w", err))
	}

	return config, nil
}

// applyFlagOverrides applies command-line flag overrides to the configuration
func applyFlagOverrides(config *types.WatcherConfig, opts *options) {
	if opts.logLevel != "" {
		config.Settings.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		config.Settings.LogFormat = opts.logFormat
	}
	if opts.dryRun {
		config.Recovery.DryRun = true
	}
}

// setupLogging configures the global logger from the settings.
func setupLogging(settings types.GlobalSettings) error {
	if err := logger.Initialize(settings.LogLevel, settings.LogFormat, settings.LogOutput, settings.LogFile); err != nil {
		return types.NewError(types.ErrorKindConfig, "initialize logging", err)
	}
	return nil
}

// prepare loads the configuration and initializes logging. Any failure is a
// config error and maps to exit status 1.
func prepare(opts *options) (*types.WatcherConfig, error) {
	config, err := loadConfiguration(opts)
	if err != nil {
		return nil, &exitCodeError{code: 1, err: err}
	}
	if err := setupLogging(config.Settings); err != nil {
		return nil, &exitCodeError{code: 1, err: err}
	}
	logger.SetHost(config.Settings.Hostname)
	return config, nil
}
