package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/supporttools/displaywatcher/pkg/journal"
)

const defaultHistoryLimit = 20

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := prepare(opts)
			if err != nil {
				return err
			}
			if !config.Journal.Enabled {
				return fmt.Errorf("the run journal is disabled (set journal.enabled: true)")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			j, err := journal.Open(ctx, config.Journal, nil)
			if err != nil {
				return err
			}
			defer j.Close()

			runs, err := j.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded in %s\n", j.Path())
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tOUTCOME\tCORRECT\tATTEMPTS\tDURATION\tERROR")
			for _, r := range runs {
				correct := "-"
				if r.Healthy != nil {
					correct = strconv.FormatBool(*r.Healthy)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.StartedAt.Local().Format(time.RFC3339),
					r.Outcome,
					correct,
					formatAttempts(r.PreviousAttempts, r.Attempts),
					r.Duration().Round(time.Millisecond),
					r.ErrorKind,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Number of runs to show")
	return cmd
}

func formatAttempts(previous, current int) string {
	format := func(v int) string {
		if v < 0 {
			return "?"
		}
		return strconv.Itoa(v)
	}
	return format(previous) + "->" + format(current)
}
