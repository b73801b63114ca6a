package config

import (
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Validate checks configuration invariants. It collects every problem
// rather than stopping at the first so the user can fix them in one
// pass.
func (c *Config) Validate() error {
	var problems []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be one of auto, text, json", c.Log.Format))
	}

	if c.GitHub.Repo != "" && !strings.Contains(c.GitHub.Repo, "/") {
		problems = append(problems, fmt.Sprintf("github.repo %q must be owner/repo", c.GitHub.Repo))
	}
	if c.GitHub.CommandTimeout <= 0 {
		problems = append(problems, "github.command_timeout must be positive")
	}

	if c.Analysis.MaxRetries < 0 || c.Analysis.MaxRetries > 10 {
		problems = append(problems, fmt.Sprintf("analysis.max_retries %d must be between 0 and 10", c.Analysis.MaxRetries))
	}
	if c.Analysis.SimilarityThreshold < 0 || c.Analysis.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Sprintf("analysis.similarity_threshold %.2f must be in [0, 1]", c.Analysis.SimilarityThreshold))
	}
	if c.Analysis.MaxDocFiles <= 0 {
		problems = append(problems, "analysis.max_doc_files must be positive")
	}
	if c.Analysis.MaxDocBytes <= 0 {
		problems = append(problems, "analysis.max_doc_bytes must be positive")
	}
	if c.Analysis.MaxDocFileSize <= 0 || c.Analysis.MaxDocFileSize > c.Analysis.MaxDocBytes {
		problems = append(problems, "analysis.max_doc_file_size must be positive and no larger than analysis.max_doc_bytes")
	}
	if c.Analysis.Timeout <= 0 {
		problems = append(problems, "analysis.timeout must be positive")
	}

	if c.Server.Addr == "" {
		problems = append(problems, "server.addr cannot be empty")
	}

	if len(problems) > 0 {
		return core.ErrValidation(core.CodeInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
