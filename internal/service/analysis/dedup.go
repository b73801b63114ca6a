package analysis

import (
	"context"
	"strings"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

// Deduplicator collapses near-duplicate findings before the terminal
// report. Two findings are duplicates only when they share a
// target_location AND are semantically equivalent, judged first by
// signature equality and otherwise by the similarity capability.
//
// Merge is idempotent: merging an already-merged set returns it
// unchanged.
type Deduplicator struct {
	scorer    core.SimilarityScorer
	threshold float64
	logger    *logging.Logger
}

// NewDeduplicator creates a deduplicator. A nil scorer disables the
// similarity fallback; signature equality still collapses duplicates.
func NewDeduplicator(scorer core.SimilarityScorer, threshold float64, logger *logging.Logger) *Deduplicator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Deduplicator{scorer: scorer, threshold: threshold, logger: logger}
}

// Merge returns the deduplicated finding set, preserving first-seen
// order of the survivors.
func (d *Deduplicator) Merge(ctx context.Context, findings []core.Finding) ([]core.Finding, error) {
	if len(findings) <= 1 {
		return findings, nil
	}

	kept := make([]core.Finding, 0, len(findings))

	for _, candidate := range findings {
		merged := false
		for i := range kept {
			dup, err := d.duplicates(ctx, kept[i], candidate)
			if err != nil {
				return nil, err
			}
			if dup {
				kept[i] = mergeFindings(kept[i], candidate)
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, candidate)
		}
	}

	if n := len(findings) - len(kept); n > 0 {
		d.logger.Debug("collapsed duplicate findings", "removed", n, "kept", len(kept))
	}
	return kept, nil
}

// duplicates decides whether two findings describe the same defect.
// Different target locations never collapse, regardless of similarity.
func (d *Deduplicator) duplicates(ctx context.Context, a, b core.Finding) (bool, error) {
	if a.TargetLocation != b.TargetLocation {
		return false, nil
	}
	if a.SemanticSignature != "" && a.SemanticSignature == b.SemanticSignature {
		return true, nil
	}
	if d.scorer == nil {
		return false, nil
	}

	score, err := d.scorer.Score(ctx, a, b)
	if err != nil {
		// The similarity capability is an optimization. On failure,
		// keep both findings rather than failing the run.
		d.logger.Warn("similarity scoring failed, keeping both findings", "error", err)
		return false, nil
	}
	return score >= d.threshold, nil
}

// mergeFindings folds a duplicate into its first-seen survivor: the
// higher severity wins, locations are unioned, and recommended updates
// are concatenated only when they do not conflict (one empty, or one
// containing the other); otherwise the first-seen text stays.
func mergeFindings(first, dup core.Finding) core.Finding {
	out := first

	if core.MoreSevere(dup.Severity, out.Severity) {
		out.Severity = dup.Severity
	}
	if dup.Confidence > out.Confidence {
		out.Confidence = dup.Confidence
	}

	out.ExtraLocations = unionLocations(out, dup)
	out.RecommendedUpdate = mergeUpdates(first.RecommendedUpdate, dup.RecommendedUpdate)
	out.Unvalidated = first.Unvalidated || dup.Unvalidated
	return out
}

func unionLocations(a, b core.Finding) []string {
	seen := map[string]struct{}{a.TargetLocation: {}}
	var union []string
	for _, loc := range append(append([]string{}, a.ExtraLocations...), b.ExtraLocations...) {
		if _, ok := seen[loc]; !ok {
			seen[loc] = struct{}{}
			union = append(union, loc)
		}
	}
	return union
}

func mergeUpdates(first, dup string) string {
	switch {
	case dup == "" || dup == first:
		return first
	case first == "":
		return dup
	case strings.Contains(first, dup):
		return first
	case strings.Contains(dup, first):
		return dup
	default:
		// Distinct texts are complementary: both findings described the
		// same defect, so both suggested edits apply at the location.
		return first + "\n\n" + dup
	}
}
