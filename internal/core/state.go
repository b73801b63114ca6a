package core

import (
	"fmt"
	"time"
)

// RunID uniquely identifies an analysis run.
type RunID string

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// PRRef identifies a pull request.
type PRRef struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// String returns the canonical owner/repo#number form.
func (r PRRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// Validate checks the reference is complete.
func (r PRRef) Validate() error {
	if r.Owner == "" || r.Repo == "" || r.Number <= 0 {
		return ErrValidation(CodeInvalidPRRef, "PR reference requires owner, repo and a positive number")
	}
	return nil
}

// FileChange describes one file touched by the pull request.
type FileChange struct {
	Filename         string `json:"filename"`
	Status           string `json:"status"` // added, modified, removed, renamed
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Patch            string `json:"patch,omitempty"`
	PreviousFilename string `json:"previous_filename,omitempty"`
	// Hunks counts the diff hunks parsed from Patch, used to gauge
	// how fragmented the change is.
	Hunks int `json:"hunks,omitempty"`
}

// ChangeSummary is the structured representation of the diff and PR
// metadata. Owned by the extractor; read-only afterward.
type ChangeSummary struct {
	Ref        PRRef        `json:"ref"`
	Title      string       `json:"title"`
	Body       string       `json:"body,omitempty"`
	State      string       `json:"state"`
	BaseBranch string       `json:"base_branch"`
	HeadBranch string       `json:"head_branch"`
	Author     string       `json:"author"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Commits    int          `json:"commits"`
	Files      []FileChange `json:"files"`
}

// ContextHint is a documentation-relevant signal inferred from the
// change. Owned by discovery; read-only afterward.
type ContextHint struct {
	// Kind is "keyword", "doc_file_changed", or "section".
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Weight float64 `json:"weight"`
}

// DocType classifies a documentation file.
type DocType string

const (
	DocTypeReadme    DocType = "readme"
	DocTypeAPI       DocType = "api"
	DocTypeGuide     DocType = "guide"
	DocTypeChangelog DocType = "changelog"
	DocTypeConfig    DocType = "config"
	DocTypeOther     DocType = "other"
)

// DocFile is a scanned documentation file reference with its excerpt.
type DocFile struct {
	Path    string  `json:"path"`
	Type    DocType `json:"type"`
	Content string  `json:"content,omitempty"`
	Size    int     `json:"size"`
	// Relevance is the hint-derived ranking key used for deterministic
	// truncation when the scanner hits its byte/file caps.
	Relevance float64 `json:"relevance"`
}

// DocStatus summarizes how documented the repository is.
type DocStatus string

const (
	DocStatusMissing DocStatus = "missing"
	DocStatusMinimal DocStatus = "minimal"
	DocStatusPresent DocStatus = "present"
)

// DocumentationIndex is the scanner's output: loaded documentation
// files plus an overall status. Read-only after the scanner commits it.
type DocumentationIndex struct {
	Files     []DocFile `json:"files"`
	Status    DocStatus `json:"status"`
	HasReadme bool      `json:"has_readme"`
	Truncated bool      `json:"truncated"`
	// TotalBytes is the byte count of loaded content, bounded by the
	// scanner's configured cap.
	TotalBytes int `json:"total_bytes"`
}

// Verdict is the critic's judgment over the current findings.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	// Unsupported lists IDs of findings judged fabricated or
	// unverifiable against the source material.
	Unsupported []string `json:"unsupported,omitempty"`
	// HallucinationRisk is one of none, low, medium, high.
	HallucinationRisk string `json:"hallucination_risk,omitempty"`
}

// DiagramRequest asks the diagram capability for a visual backing a
// diagram_needed finding.
type DiagramRequest struct {
	FindingID   string `json:"finding_id"`
	Description string `json:"description"`
	// FlowDescription is the structured flow the renderer turns into
	// diagram source.
	FlowDescription string `json:"flow_description"`
}

// DiagramArtifact is a rendered, validated diagram.
type DiagramArtifact struct {
	FindingID string `json:"finding_id"`
	// Kind is the diagram type: flowchart, sequence, class, state.
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// AnalysisState is the single record threaded through every stage.
// The engine owns it for the duration of one run; exactly one stage
// holds it at any instant. Each field has a single writer stage and is
// read-only once that stage commits.
type AnalysisState struct {
	RunID     RunID     `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	// Options fixed at run start.
	DryRun         bool `json:"dry_run"`
	EnableDiagrams bool `json:"enable_diagrams"`

	// Change is owned by the extractor.
	Change *ChangeSummary `json:"change,omitempty"`

	// Hints are owned by discovery.
	Hints []ContextHint `json:"hints,omitempty"`

	// Docs is owned by the scanner.
	Docs *DocumentationIndex `json:"docs,omitempty"`

	// Findings are appended by the auditor and merged by the
	// deduplicator; the critic never edits them.
	Findings []Finding `json:"findings,omitempty"`

	// DiagramRequests are produced by the auditor.
	DiagramRequests []DiagramRequest `json:"diagram_requests,omitempty"`

	// Attempts counts how many times control has returned to the
	// auditor. Invariant: 0 <= Attempts <= MaxRetries.
	Attempts int `json:"attempts"`

	// Verdict is the last critic output, nil before the first pass.
	Verdict *Verdict `json:"verdict,omitempty"`

	// Report is produced only by the aggregator; non-nil means final.
	Report *TerminalReport `json:"report,omitempty"`

	// Errors collects degradation notes (scanner truncation, discovery
	// fallback) that downstream stages surface as info findings.
	Errors []string `json:"errors,omitempty"`
}

// NewAnalysisState creates the initial state for a run. All optional
// fields start empty.
func NewAnalysisState(id RunID, dryRun, enableDiagrams bool) *AnalysisState {
	return &AnalysisState{
		RunID:          id,
		CreatedAt:      time.Now(),
		DryRun:         dryRun,
		EnableDiagrams: enableDiagrams,
	}
}

// IsFinal reports whether the terminal report has been produced.
func (s *AnalysisState) IsFinal() bool {
	return s.Report != nil
}

// FindingByID returns the finding with the given ID, if present.
func (s *AnalysisState) FindingByID(id string) (*Finding, bool) {
	for i := range s.Findings {
		if s.Findings[i].ID == id {
			return &s.Findings[i], true
		}
	}
	return nil, false
}

// AddError records a degradation note.
func (s *AnalysisState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}
