package cmd

import (
	"os"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/diagram"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/github"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/llm"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/adapters/state"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/config"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/report"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/service"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/service/analysis"
)

// engineConfig maps the file/env configuration onto engine knobs,
// keeping engine defaults for anything left unset.
func engineConfig(cfg *config.Config) analysis.Config {
	ec := analysis.DefaultConfig()
	if cfg.Analysis.MaxRetries > 0 {
		ec.MaxRetries = cfg.Analysis.MaxRetries
	}
	if cfg.Analysis.SimilarityThreshold > 0 {
		ec.SimilarityThreshold = cfg.Analysis.SimilarityThreshold
	}
	if cfg.Analysis.MaxDocFiles > 0 {
		ec.MaxDocFiles = cfg.Analysis.MaxDocFiles
	}
	if cfg.Analysis.MaxDocBytes > 0 {
		ec.MaxDocBytes = cfg.Analysis.MaxDocBytes
	}
	if cfg.Analysis.MaxDocFileSize > 0 {
		ec.MaxDocFileSize = cfg.Analysis.MaxDocFileSize
	}
	if cfg.Analysis.Timeout > 0 {
		ec.Timeout = cfg.Analysis.Timeout
	}
	return ec
}

func llmConfig(cfg *config.Config) llm.Config {
	key := cfg.LLM.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	return llm.Config{
		APIKey:      key,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	}
}

// buildRunner assembles the full analysis stack from configuration.
// The returned store is open and owned by the caller; it is nil only
// when noStore is set.
func buildRunner(cfg *config.Config, dryRun, noStore bool) (*service.Runner, core.RunStore, error) {
	gh := github.NewClient(logger, github.WithTimeout(cfg.GitHub.CommandTimeout))

	caps := analysis.Capabilities{
		Fetcher:  gh,
		Docs:     gh,
		Reasoner: llm.NewReasoner(llmConfig(cfg), logger),
		Renderer: diagram.NewMermaidRenderer(),
	}
	if cfg.LLM.Embeddings {
		caps.Scorer = llm.NewEmbeddingScorer(llmConfig(cfg))
	}

	engine := analysis.NewEngine(caps, engineConfig(cfg), logger)

	opts := []service.RunnerOption{
		service.WithWriter(report.NewWriter(cfg.Report.Dir)),
	}
	if !dryRun {
		opts = append(opts, service.WithPoster(github.NewCommenter(gh)))
	}

	var store core.RunStore
	if !noStore {
		s, err := state.NewSQLiteRunStore(cfg.State.DBPath)
		if err != nil {
			return nil, nil, err
		}
		store = s
		opts = append(opts, service.WithStore(store))
	}

	return service.NewRunner(engine, logger, opts...), store, nil
}
