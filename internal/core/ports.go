package core

import "context"

// PRFetcher retrieves pull request metadata and diffs from the hosting
// provider.
type PRFetcher interface {
	// FetchPR returns the change summary for the referenced pull request.
	FetchPR(ctx context.Context, ref PRRef) (*ChangeSummary, error)
}

// DocSource enumerates and loads documentation files from a repository.
type DocSource interface {
	// ListDocs returns candidate documentation paths at the PR head.
	ListDocs(ctx context.Context, ref PRRef) ([]string, error)

	// ReadDoc returns the content of one documentation file.
	ReadDoc(ctx context.Context, ref PRRef, path string) (string, error)
}

// DiscoveryRequest carries the change summary to the reasoning
// capability for hint extraction.
type DiscoveryRequest struct {
	Change *ChangeSummary
}

// DiscoveryResult is the reasoner's hint output.
type DiscoveryResult struct {
	Hints []ContextHint
}

// AuditRequest carries everything the auditor needs for one pass.
type AuditRequest struct {
	Change *ChangeSummary
	Hints  []ContextHint
	Docs   *DocumentationIndex

	// Attempt is the revision pass number, 0 on the first audit.
	Attempt int

	// Feedback is the prior critic verdict driving a revision pass,
	// nil on the first audit.
	Feedback *Verdict

	// PriorFindings are the findings the critic rejected, given back so
	// a revision can correct rather than regenerate them.
	PriorFindings []Finding

	// EnableDiagrams permits diagram_needed findings and requests.
	EnableDiagrams bool
}

// AuditResult is the auditor's raw reasoning output before signature
// assignment and merging.
type AuditResult struct {
	Findings        []Finding
	DiagramRequests []DiagramRequest
}

// CritiqueRequest asks the reasoner to judge findings against the
// source material they claim to describe.
type CritiqueRequest struct {
	Change   *ChangeSummary
	Docs     *DocumentationIndex
	Findings []Finding
}

// CritiqueResult is the reasoner's verdict.
type CritiqueResult struct {
	Verdict Verdict
}

// Reasoner is the opaque reasoning capability backing the discovery,
// auditor and critic stages. Implementations are interchangeable; the
// engine never inspects how a result was produced.
type Reasoner interface {
	Discover(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error)
	Audit(ctx context.Context, req AuditRequest) (*AuditResult, error)
	Critique(ctx context.Context, req CritiqueRequest) (*CritiqueResult, error)
}

// SimilarityScorer scores semantic similarity between two findings in
// [0, 1]. Used by the deduplicator when signatures alone cannot decide.
type SimilarityScorer interface {
	Score(ctx context.Context, a, b Finding) (float64, error)
}

// DiagramRenderer turns a diagram request into validated diagram source.
type DiagramRenderer interface {
	Render(ctx context.Context, req DiagramRequest) (*DiagramArtifact, error)
}

// ReportPoster publishes the rendered report to the pull request.
type ReportPoster interface {
	// Post creates or updates the analysis comment on the PR. Calling
	// it again with a new body replaces the previous comment rather
	// than stacking a second one.
	Post(ctx context.Context, ref PRRef, body string) error
}

// RunStore archives finished runs for the history and server surfaces.
type RunStore interface {
	Save(ctx context.Context, rec *RunRecord) error
	Get(ctx context.Context, id RunID) (*RunRecord, error)
	List(ctx context.Context, limit int) ([]*RunRecord, error)
	Delete(ctx context.Context, id RunID) error
	Close() error
}
