package analysis

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Extractor fetches the pull request diff and metadata and commits the
// change summary. A fetch failure is fatal: without a diff there is
// nothing to analyze.
type Extractor struct {
	sc *stageContext
}

func NewExtractor(sc *stageContext) *Extractor {
	return &Extractor{sc: sc}
}

func (e *Extractor) Kind() core.StageKind {
	return core.StageExtractor
}

func (e *Extractor) Run(ctx context.Context, st *core.AnalysisState) error {
	if err := e.sc.ref.Validate(); err != nil {
		return err
	}

	log := e.sc.logger.WithStage(string(e.Kind()))
	log.Info("fetching pull request", "ref", e.sc.ref.String())

	change, err := e.sc.caps.Fetcher.FetchPR(ctx, e.sc.ref)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", e.sc.ref.String(), err)
	}

	st.Change = change
	log.Info("change summary committed",
		"files", len(change.Files),
		"commits", change.Commits,
		"title", change.Title)
	return nil
}
