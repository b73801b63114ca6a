package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

var (
	runsLimit    int
	runsShowJSON bool
	runsShowCopy bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived analysis runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(func(store core.RunStore) error {
			recs, err := store.List(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tPR\tSTATUS\tFINDINGS\tCREATED")
			for _, rec := range recs {
				findings := "-"
				if rec.Report != nil {
					findings = fmt.Sprintf("%d", rec.Report.TotalFindings())
				}
				status := string(rec.Status)
				if rec.Degraded {
					status += " (degraded)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					rec.RunID, rec.Ref.String(), status, findings,
					rec.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store core.RunStore) error {
			rec, err := store.Get(cmd.Context(), core.RunID(args[0]))
			if err != nil {
				return err
			}
			if runsShowJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			if rec.Markdown == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %s", rec.RunID, rec.Status)
				if rec.Error != "" {
					fmt.Fprintf(cmd.OutOrStdout(), " (%s)", rec.Error)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.Markdown)
			if runsShowCopy {
				copyReport(cmd, rec.Markdown)
			}
			return nil
		})
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run from the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store core.RunStore) error {
			if err := store.Delete(cmd.Context(), core.RunID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted run %s\n", args[0])
			return nil
		})
	},
}

func withStore(fn func(core.RunStore) error) error {
	store, err := state.NewSQLiteRunStore(cfg.State.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsShowCmd.Flags().BoolVar(&runsShowJSON, "json", false, "print the full record as JSON")
	runsShowCmd.Flags().BoolVar(&runsShowCopy, "copy", false, "copy the report markdown to the clipboard")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
