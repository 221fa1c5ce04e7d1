package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/supporttools/displaywatcher/pkg/util"
)

func newValidateCommand(opts *options) *cobra.Command {
	var writeDefaults string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration, then print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if writeDefaults != "" {
				if err := writeDefaultConfig(writeDefaults); err != nil {
					return &exitCodeError{code: 1, err: err}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", writeDefaults)
				return nil
			}

			config, err := loadConfiguration(opts)
			if err != nil {
				return &exitCodeError{code: 1, err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Configuration OK (%s)\n", opts.configPath)
			fmt.Fprintf(out, "  Hostname:      %s\n", config.Settings.Hostname)
			fmt.Fprintf(out, "  Probe:         %s %s\n", config.Probe.Command, strings.Join(config.Probe.Args, " "))
			fmt.Fprintf(out, "  Max reboots:   %d\n", config.Recovery.MaxReboots)
			fmt.Fprintf(out, "  Reboot:        %s (dry-run %v)\n", config.Recovery.RebootCommand, config.Recovery.DryRun)
			fmt.Fprintf(out, "  Counter file:  %s\n", config.Recovery.CounterFile)

			if config.Notification.Enabled {
				fmt.Fprintf(out, "  Notifications: %s via %s:%d\n",
					config.Notification.Recipient.Email, config.Notification.SMTP.Host, config.Notification.SMTP.Port)
			} else {
				fmt.Fprintln(out, "  Notifications: disabled")
			}

			var sinks []string
			if config.Metrics.Textfile != "" {
				sinks = append(sinks, "textfile "+config.Metrics.Textfile)
			}
			if config.Metrics.PushgatewayURL != "" {
				sinks = append(sinks, "pushgateway "+config.Metrics.PushgatewayURL)
			}
			if config.Journal.Enabled {
				sinks = append(sinks, "journal "+config.Journal.Path)
			}
			if len(sinks) == 0 {
				sinks = append(sinks, "none")
			}
			fmt.Fprintf(out, "  Exporters:     %s\n", strings.Join(sinks, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&writeDefaults, "write-defaults", "", "Write the default configuration to this path (.yaml or .json) and exit")
	return cmd
}

// writeDefaultConfig saves the built-in defaults without overwriting an
// existing file. The hostname is left out so it keeps following the machine.
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}

	config, err := util.DefaultConfig()
	if err != nil {
		return err
	}
	config.Settings.Hostname = ""

	return util.SaveConfig(config, path)
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}
