package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newJournalCmd(a *app) *cobra.Command {
	var (
		path  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "journal [run-id]",
		Short: "Show recorded runs",
		Long:  "Without a run ID, lists the most recent runs. With one, lists that run's steps.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if path == "" {
				path = a.cfg.Journal.Path
			}
			if path == "" {
				return errors.New("no journal configured; set TOOLGRAPH_JOURNAL_PATH or --path")
			}
			store, err := a.openJournal(path)
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout())
			ctx := cmd.Context()

			if len(args) == 0 {
				runs, err := store.Runs(ctx, limit)
				if err != nil {
					return err
				}
				for _, id := range runs {
					p.line("%s", id)
				}
				return nil
			}

			entries, err := store.List(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("run %s not found", args[0])
			}

			p.heading("Run " + args[0])
			tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tSTEP\tNEXT\tDURATION\tDEGRADED\tERROR")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\t%s\n",
					e.Seq, e.NodeID, e.NextNode, e.Duration.Round(time.Millisecond), e.Degraded, e.Error)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "SQLite journal file (default TOOLGRAPH_JOURNAL_PATH)")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}
