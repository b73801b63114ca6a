package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/github"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/clip"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/service/analysis"
)

var (
	analyzeRepo       string
	analyzeDryRun     bool
	analyzeDiagrams   bool
	analyzeMaxRetries int
	analyzeTimeout    time.Duration
	analyzeNoStore    bool
	analyzeCopy       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <pr>",
	Short: "Analyze a pull request's documentation impact",
	Long: `Analyze fetches the pull request, loads the repository's documentation,
and reports defects the change introduces or reveals. The PR argument
accepts owner/repo#number, a GitHub PR URL, or a bare number when a
default repository is configured.

The report is written under the report directory, posted as a PR
comment (skipped with --dry-run), and archived in the run database.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeRepo, "repo", "",
		"default owner/repo for bare PR numbers (overrides config)")
	analyzeCmd.Flags().BoolVar(&analyzeDryRun, "dry-run", false,
		"compute and print the report without posting a PR comment")
	analyzeCmd.Flags().BoolVar(&analyzeDiagrams, "diagrams", false,
		"render Mermaid diagrams for diagram_needed findings")
	analyzeCmd.Flags().IntVar(&analyzeMaxRetries, "max-retries", 0,
		"revision loop budget (0 uses the configured value)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 0,
		"run deadline (0 uses the configured value)")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false,
		"skip archiving the run in the database")
	analyzeCmd.Flags().BoolVar(&analyzeCopy, "copy", false,
		"copy the report markdown to the clipboard")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	repo := analyzeRepo
	if repo == "" {
		repo = cfg.GitHub.Repo
	}
	ref, err := github.ParsePRArg(args[0], repo)
	if err != nil {
		return err
	}

	runner, store, err := buildRunner(cfg, analyzeDryRun, analyzeNoStore)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enableDiagrams := analyzeDiagrams || cfg.Analysis.EnableDiagrams
	rec, err := runner.Run(ctx, ref, analysis.Options{
		DryRun:         analyzeDryRun,
		EnableDiagrams: enableDiagrams,
		MaxRetries:     analyzeMaxRetries,
		Timeout:        analyzeTimeout,
	})
	if rec != nil && rec.Report != nil {
		printReport(cmd, rec)
		if analyzeCopy {
			copyReport(cmd, rec.Markdown)
		}
	}
	if err != nil {
		return err
	}
	return nil
}

func copyReport(cmd *cobra.Command, markdown string) {
	res, err := clip.WriteAll(markdown)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "clipboard copy failed: %v\n", err)
		return
	}
	if res.Method == clip.MethodFile {
		fmt.Fprintf(cmd.ErrOrStderr(), "no clipboard available, report saved to %s\n", res.FilePath)
	}
}

func printReport(cmd *cobra.Command, rec *core.RunRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rec.Markdown)

	// A trailing status line helps interactive use; piped output stays
	// pure markdown.
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		status := "ok"
		if rec.Degraded {
			status = "degraded"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %d finding(s), %s\n",
			rec.RunID, rec.Report.TotalFindings(), status)
	}
}
