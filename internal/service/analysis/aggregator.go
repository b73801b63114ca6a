package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Aggregator assembles the terminal report: severity-grouped findings
// plus any diagram artifacts. Terminal: once the report exists, the
// engine stops. It fails only when required upstream fields are absent,
// which signals a router sequencing bug.
type Aggregator struct {
	sc *stageContext
}

func NewAggregator(sc *stageContext) *Aggregator {
	return &Aggregator{sc: sc}
}

func (a *Aggregator) Kind() core.StageKind {
	return core.StageAggregator
}

func (a *Aggregator) Run(ctx context.Context, st *core.AnalysisState) error {
	log := a.sc.logger.WithStage(string(a.Kind()))

	if st.Change == nil {
		return core.ErrAggregation("change summary absent at aggregation")
	}
	if st.Verdict == nil {
		return core.ErrAggregation("verdict absent at aggregation")
	}

	findings := append([]core.Finding(nil), st.Findings...)

	// A rejecting verdict here means the retry budget ran out and the
	// router forced aggregation. Ship the findings anyway, flagging the
	// ones the last critic pass could not support.
	degraded := !st.Verdict.Accepted
	if degraded {
		flagUnvalidated(findings, st.Verdict.Unsupported)
	}

	findings = append(findings, degradationFindings(st.Errors)...)

	var diagrams []core.DiagramArtifact
	if st.EnableDiagrams {
		diagrams = a.renderDiagrams(ctx, st, findings)
	}
	if ctx.Err() != nil {
		return core.ErrCancelled("aggregation interrupted").WithCause(ctx.Err())
	}

	core.SortFindings(findings)

	report := &core.TerminalReport{
		RunID:       st.RunID,
		Ref:         st.Change.Ref,
		Title:       st.Change.Title,
		GeneratedAt: time.Now(),
		Groups:      core.GroupBySeverity(findings),
		Diagrams:    diagrams,
		Degraded:    degraded,
		Attempts:    st.Attempts,
		Notes:       append([]string(nil), st.Errors...),
	}

	st.Report = report
	log.Info("terminal report committed",
		"findings", report.TotalFindings(),
		"diagrams", len(diagrams),
		"degraded", degraded,
		"attempts", st.Attempts)
	return nil
}

// renderDiagrams obtains artifacts for the auditor's diagram requests.
// Rendering is best-effort: a failed or absent renderer downgrades the
// finding to text-only.
func (a *Aggregator) renderDiagrams(ctx context.Context, st *core.AnalysisState, findings []core.Finding) []core.DiagramArtifact {
	if a.sc.caps.Renderer == nil || len(st.DiagramRequests) == 0 {
		return nil
	}
	log := a.sc.logger.WithStage(string(a.Kind()))

	var artifacts []core.DiagramArtifact
	for _, req := range st.DiagramRequests {
		if ctx.Err() != nil {
			return artifacts
		}
		artifact, err := a.sc.caps.Renderer.Render(ctx, req)
		if err != nil {
			log.Warn("diagram rendering failed, finding stays text-only",
				"finding_id", req.FindingID, "error", err)
			continue
		}
		artifacts = append(artifacts, *artifact)
		for i := range findings {
			if findings[i].ID == artifact.FindingID {
				findings[i].Diagram = artifact.Source
			}
		}
	}
	return artifacts
}

func flagUnvalidated(findings []core.Finding, unsupported []string) {
	ids := make(map[string]struct{}, len(unsupported))
	for _, id := range unsupported {
		ids[id] = struct{}{}
	}
	for i := range findings {
		if _, ok := ids[findings[i].ID]; ok {
			findings[i].Unvalidated = true
		}
	}
}

// degradationFindings turns run-level degradation notes (scan
// truncation, discovery fallback) into info findings so consumers see
// that confidence is reduced.
func degradationFindings(notes []string) []core.Finding {
	out := make([]core.Finding, 0, len(notes))
	for _, note := range notes {
		f := core.Finding{
			ID:             uuid.NewString(),
			Kind:           core.FindingImprovement,
			Severity:       core.SeverityInfo,
			Title:          "Analysis ran with reduced coverage",
			Description:    note,
			TargetLocation: "",
			Provenance:     core.Provenance{Stage: core.StageAggregator},
			Confidence:     1.0,
		}
		f.SemanticSignature = core.ComputeSignature(f.Kind, f.TargetLocation, f.Title, f.Description)
		out = append(out, f)
	}
	return out
}
