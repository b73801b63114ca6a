package analysis

import (
	"context"
	"path"
	"strings"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Discovery infers documentation-relevant signals from the change
// summary. Never fatal: on reasoning failure it degrades to the
// heuristic hints alone and the run proceeds.
type Discovery struct {
	sc *stageContext
}

func NewDiscovery(sc *stageContext) *Discovery {
	return &Discovery{sc: sc}
}

func (d *Discovery) Kind() core.StageKind {
	return core.StageDiscovery
}

func (d *Discovery) Run(ctx context.Context, st *core.AnalysisState) error {
	log := d.sc.logger.WithStage(string(d.Kind()))

	hints := heuristicHints(st.Change)

	var result *core.DiscoveryResult
	err := d.sc.retry.Execute(ctx, func(ctx context.Context) error {
		var rerr error
		result, rerr = d.sc.caps.Reasoner.Discover(ctx, core.DiscoveryRequest{Change: st.Change})
		return rerr
	})
	if err != nil {
		if ctx.Err() != nil {
			return core.ErrCancelled("discovery interrupted").WithCause(ctx.Err())
		}
		log.Warn("discovery reasoning failed, proceeding with heuristic hints only", "error", err)
		st.AddError("context discovery degraded: " + err.Error())
	} else {
		hints = append(hints, result.Hints...)
	}

	st.Hints = hints
	log.Info("context hints committed", "count", len(hints))
	return nil
}

// docFilePatterns matches filenames that are documentation by
// convention.
var docFilePatterns = []string{
	"readme", "changelog", "contributing", "license", "install", "usage",
}

// heuristicHints derives hints directly from the diff without any
// reasoning call: documentation files touched by the PR and keywords
// from the title.
func heuristicHints(change *core.ChangeSummary) []core.ContextHint {
	if change == nil {
		return nil
	}

	var hints []core.ContextHint
	for _, f := range change.Files {
		if isDocPath(f.Filename) {
			hints = append(hints, core.ContextHint{
				Kind:   "doc_file_changed",
				Value:  f.Filename,
				Weight: 1.0,
			})
		}
	}

	for _, word := range strings.Fields(strings.ToLower(change.Title)) {
		word = strings.Trim(word, ".,:;!?()[]")
		if len(word) >= 4 {
			hints = append(hints, core.ContextHint{
				Kind:   "keyword",
				Value:  word,
				Weight: 0.3,
			})
		}
	}
	return hints
}

func isDocPath(p string) bool {
	lower := strings.ToLower(p)
	ext := path.Ext(lower)
	if ext != ".md" && ext != ".rst" && ext != ".txt" && ext != ".adoc" {
		return false
	}
	if strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/") {
		return true
	}
	base := path.Base(lower)
	for _, pattern := range docFilePatterns {
		if strings.HasPrefix(base, pattern) {
			return true
		}
	}
	return ext == ".md"
}
