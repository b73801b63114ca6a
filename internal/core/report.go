package core

import "time"

// SeverityGroup is one severity bucket of the terminal report.
type SeverityGroup struct {
	Severity Severity  `json:"severity"`
	Findings []Finding `json:"findings"`
}

// TerminalReport is the final, deduplicated, severity-grouped output of
// a completed run. Once produced, the engine stops.
type TerminalReport struct {
	RunID       RunID     `json:"run_id"`
	Ref         PRRef     `json:"ref"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`

	// Groups preserve severity rank order: critical first, info last.
	// Empty severities are omitted.
	Groups []SeverityGroup `json:"groups"`

	// Diagrams are the rendered artifacts for diagram_needed findings.
	// A diagram_needed finding without an artifact here is reported
	// text-only.
	Diagrams []DiagramArtifact `json:"diagrams,omitempty"`

	// Degraded marks a report that shipped despite the critic still
	// rejecting part of it when the retry budget ran out. The affected
	// findings carry Unvalidated.
	Degraded bool `json:"degraded"`

	// Attempts is the number of auditor revision passes taken.
	Attempts int `json:"attempts"`

	// Notes carries degradation context (truncated scans, skipped
	// diagrams) for the consumer.
	Notes []string `json:"notes,omitempty"`
}

// TotalFindings returns the number of findings across all groups.
func (r *TerminalReport) TotalFindings() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Findings)
	}
	return n
}

// AllFindings flattens the groups in severity order.
func (r *TerminalReport) AllFindings() []Finding {
	out := make([]Finding, 0, r.TotalFindings())
	for _, g := range r.Groups {
		out = append(out, g.Findings...)
	}
	return out
}

// GroupBySeverity buckets findings into rank-ordered severity groups,
// dropping empty buckets. Input order within a bucket is preserved.
func GroupBySeverity(findings []Finding) []SeverityGroup {
	buckets := make(map[Severity][]Finding, 5)
	for _, f := range findings {
		buckets[f.Severity] = append(buckets[f.Severity], f)
	}

	var groups []SeverityGroup
	for _, sev := range AllSeverities() {
		if fs, ok := buckets[sev]; ok {
			groups = append(groups, SeverityGroup{Severity: sev, Findings: fs})
		}
	}
	return groups
}

// RunRecord is the archived form of a finished or failed run, persisted
// by the run store for the server and CLI history surfaces.
type RunRecord struct {
	RunID       RunID           `json:"run_id"`
	Ref         PRRef           `json:"ref"`
	Status      RunStatus       `json:"status"`
	Degraded    bool            `json:"degraded"`
	Error       string          `json:"error,omitempty"`
	Report      *TerminalReport `json:"report,omitempty"`
	Markdown    string          `json:"markdown,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
