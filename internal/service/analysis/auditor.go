package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Auditor produces candidate findings from the change summary and the
// documentation index. On a revision pass it receives the prior critic
// verdict and the rejected findings, so each pass is monotonically
// informative rather than a blind retry.
//
// The deduplicator runs here, after every pass, so the finding set
// handed to the critic and the aggregator is already collapsed.
type Auditor struct {
	sc    *stageContext
	dedup *Deduplicator
}

func NewAuditor(sc *stageContext, dedup *Deduplicator) *Auditor {
	return &Auditor{sc: sc, dedup: dedup}
}

func (a *Auditor) Kind() core.StageKind {
	return core.StageAuditor
}

func (a *Auditor) Run(ctx context.Context, st *core.AnalysisState) error {
	log := a.sc.logger.WithStage(string(a.Kind()))

	var findings []core.Finding
	var requests []core.DiagramRequest

	if st.Docs != nil && st.Docs.Status == core.DocStatusMissing {
		// Nothing to audit against: the whole repository needs
		// documentation. Emit one consolidated finding instead of a
		// per-file defect list, with an architecture overview diagram
		// when diagrams are enabled.
		f := a.consolidatedMissingDocs(st)
		findings = []core.Finding{f}
		if st.EnableDiagrams {
			requests = []core.DiagramRequest{missingDocsDiagramRequest(st, f.ID)}
		}
		log.Info("documentation missing, emitting consolidated finding",
			"diagram_requested", st.EnableDiagrams)
	} else {
		result, err := a.audit(ctx, st)
		if err != nil {
			if ctx.Err() != nil {
				return core.ErrCancelled("audit interrupted").WithCause(ctx.Err())
			}
			return fmt.Errorf("audit pass %d: %w", st.Attempts, err)
		}
		findings = result.Findings
		requests = result.DiagramRequests
	}

	for i := range findings {
		a.finalize(&findings[i], st.Attempts)
	}

	merged, err := a.dedup.Merge(ctx, findings)
	if err != nil {
		return err
	}

	st.Findings = merged
	st.DiagramRequests = linkDiagramRequests(requests, merged)
	log.Info("findings committed",
		"attempt", st.Attempts,
		"raw", len(findings),
		"merged", len(merged),
		"diagram_requests", len(requests))
	return nil
}

func (a *Auditor) audit(ctx context.Context, st *core.AnalysisState) (*core.AuditResult, error) {
	req := core.AuditRequest{
		Change:         st.Change,
		Hints:          st.Hints,
		Docs:           st.Docs,
		Attempt:        st.Attempts,
		EnableDiagrams: st.EnableDiagrams,
	}
	if st.Attempts > 0 && st.Verdict != nil {
		req.Feedback = st.Verdict
		req.PriorFindings = st.Findings
	}

	var result *core.AuditResult
	err := a.sc.retry.Execute(ctx, func(ctx context.Context) error {
		var rerr error
		result, rerr = a.sc.caps.Reasoner.Audit(ctx, req)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finalize assigns the derived fields the reasoner does not own: ID,
// provenance and semantic signature.
func (a *Auditor) finalize(f *core.Finding, attempt int) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.Provenance = core.Provenance{Stage: core.StageAuditor, Attempt: attempt}
	f.SemanticSignature = core.ComputeSignature(f.Kind, f.TargetLocation, f.Title, f.Description)
}

// linkDiagramRequests binds requests the reasoner could not address to
// a finding ID: requests arriving without one are matched to the
// surviving diagram_needed findings in order. Requests left unmatched
// are dropped.
func linkDiagramRequests(requests []core.DiagramRequest, findings []core.Finding) []core.DiagramRequest {
	claimed := make(map[string]struct{}, len(requests))
	for _, r := range requests {
		if r.FindingID != "" {
			claimed[r.FindingID] = struct{}{}
		}
	}

	var unclaimed []string
	for _, f := range findings {
		if f.Kind != core.FindingDiagramNeeded {
			continue
		}
		if _, ok := claimed[f.ID]; !ok {
			unclaimed = append(unclaimed, f.ID)
		}
	}

	known := make(map[string]struct{}, len(findings))
	for _, f := range findings {
		known[f.ID] = struct{}{}
	}

	out := make([]core.DiagramRequest, 0, len(requests))
	next := 0
	for _, r := range requests {
		if r.FindingID == "" {
			if next >= len(unclaimed) {
				continue
			}
			r.FindingID = unclaimed[next]
			next++
		}
		if _, ok := known[r.FindingID]; ok {
			out = append(out, r)
		}
	}
	return out
}

func (a *Auditor) consolidatedMissingDocs(st *core.AnalysisState) core.Finding {
	desc := "The repository has no documentation to check this change against. " +
		"Create a README covering the project purpose, installation and usage"
	if st.Change != nil && len(st.Change.Files) > 0 {
		desc += fmt.Sprintf(", including the behavior introduced by %s", st.Change.Ref.String())
	}
	desc += "."

	return core.Finding{
		ID:             uuid.NewString(),
		Kind:           core.FindingMissingDoc,
		Severity:       core.SeverityHigh,
		Title:          "Repository documentation is missing",
		Description:    desc,
		TargetLocation: "README.md",
		Confidence:     1.0,
	}
}

// missingDocsDiagramRequest builds the architecture overview backing
// the consolidated finding: one flow edge per top-level component the
// change touches, ending at the README that should describe them.
func missingDocsDiagramRequest(st *core.AnalysisState, findingID string) core.DiagramRequest {
	seen := make(map[string]struct{})
	var flows []string
	if st.Change != nil {
		for _, fc := range st.Change.Files {
			comp := fc.Filename
			if i := strings.IndexByte(comp, '/'); i > 0 {
				comp = comp[:i]
			}
			if _, ok := seen[comp]; ok {
				continue
			}
			seen[comp] = struct{}{}
			flows = append(flows, "Repository -> "+comp)
			if len(seen) == 6 {
				break
			}
		}
	}
	if len(flows) == 0 {
		flows = append(flows, "Repository -> Source code")
	}
	flows = append(flows, "Repository -> README")

	return core.DiagramRequest{
		FindingID:       findingID,
		Description:     "Architecture overview for the initial README",
		FlowDescription: strings.Join(flows, "\n"),
	}
}
