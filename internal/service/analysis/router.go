package analysis

import "github.com/hugo-lorenzo-mato/omnidoc/internal/core"

// Decision is the router's output: the next stage and whether the
// transition was forced by an exhausted revision budget.
type Decision struct {
	Next core.StageKind

	// Forced is true when the critic still rejected the findings but
	// the retry budget ran out, so control moves to the aggregator
	// anyway and the report ships with degraded confidence.
	Forced bool
}

// Route is a pure function from the just-completed stage and the
// current state to the next stage. The only conditional edge is after
// the critic; everything else is the fixed pipeline order.
//
// At the critic: accept routes forward to the aggregator; revise routes
// back to the auditor while the budget allows, and to the aggregator
// (forced) once attempts reach the ceiling.
func Route(completed core.StageKind, st *core.AnalysisState, rc *RetryController) Decision {
	switch completed {
	case core.StageExtractor:
		return Decision{Next: core.StageDiscovery}
	case core.StageDiscovery:
		return Decision{Next: core.StageScanner}
	case core.StageScanner:
		return Decision{Next: core.StageAuditor}
	case core.StageAuditor:
		return Decision{Next: core.StageCritic}
	case core.StageCritic:
		if st.Verdict != nil && st.Verdict.Accepted {
			return Decision{Next: core.StageAggregator}
		}
		if rc.CanRevise(st.Attempts) {
			return Decision{Next: core.StageAuditor}
		}
		return Decision{Next: core.StageAggregator, Forced: true}
	case core.StageAggregator:
		return Decision{Next: core.StageDone}
	default:
		return Decision{Next: core.StageDone}
	}
}
