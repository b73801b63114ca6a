package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/github"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/state"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment is ready for analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		failed := false

		check := func(name string, err error) {
			if err != nil {
				failed = true
				fmt.Fprintf(out, "✗ %s: %v\n", name, err)
				return
			}
			fmt.Fprintf(out, "✓ %s\n", name)
		}

		gh := github.NewClient(logger, github.WithTimeout(cfg.GitHub.CommandTimeout))
		check("gh CLI authenticated", gh.VerifyAuth(cmd.Context()))

		check("LLM API key configured", func() error {
			if cfg.LLM.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
				return fmt.Errorf("set llm.api_key or OPENAI_API_KEY")
			}
			return nil
		}())

		check("run database", func() error {
			store, err := state.NewSQLiteRunStore(cfg.State.DBPath)
			if err != nil {
				return err
			}
			return store.Close()
		}())

		check("report directory writable", func() error {
			if err := os.MkdirAll(cfg.Report.Dir, 0o750); err != nil {
				return err
			}
			f, err := os.CreateTemp(cfg.Report.Dir, ".doctor-*")
			if err != nil {
				return err
			}
			name := f.Name()
			_ = f.Close()
			return os.Remove(name)
		}())

		if failed {
			return fmt.Errorf("environment checks failed")
		}
		fmt.Fprintln(out, "all checks passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
