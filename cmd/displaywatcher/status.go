package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/supporttools/displaywatcher/pkg/counter"
)

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the recorded reboot attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := prepare(opts)
			if err != nil {
				return err
			}

			c, err := counter.NewFileCounter(config.Recovery.CounterFile)
			if err != nil {
				return err
			}
			attempts, err := c.Read()
			if err != nil {
				return err
			}

			maxReboots := config.Recovery.MaxReboots
			remaining := maxReboots - attempts
			if remaining < 0 {
				remaining = 0
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host:            %s\n", config.Settings.Hostname)
			fmt.Fprintf(out, "Counter file:    %s\n", c.Path())
			fmt.Fprintf(out, "Reboot attempts: %d\n", attempts)
			fmt.Fprintf(out, "Max reboots:     %d\n", maxReboots)
			fmt.Fprintf(out, "Remaining:       %d\n", remaining)
			if config.Recovery.DryRun {
				fmt.Fprintln(out, "Dry-run:         enabled")
			}
			return nil
		},
	}
}

func newResetCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Set the reboot attempt counter back to zero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := prepare(opts)
			if err != nil {
				return err
			}

			c, err := counter.NewFileCounter(config.Recovery.CounterFile)
			if err != nil {
				return err
			}

			previous, readErr := c.Read()
			if err := c.Write(0); err != nil {
				return err
			}

			if readErr != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to 0 (previous content unreadable: %v)\n", c.Path(), readErr)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s to 0 (was %d)\n", c.Path(), previous)
			return nil
		},
	}
}
