package analysis

import (
	"context"
	"time"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

// Capabilities bundles the external collaborators a run depends on.
// Each is an interface; stages never see concrete implementations.
type Capabilities struct {
	Fetcher  core.PRFetcher
	Docs     core.DocSource
	Reasoner core.Reasoner
	Scorer   core.SimilarityScorer

	// Renderer is optional. When nil, diagram_needed findings are
	// reported text-only.
	Renderer core.DiagramRenderer
}

// Config holds engine tuning knobs.
type Config struct {
	// MaxRetries bounds the auditor/critic revision loop.
	MaxRetries int

	// SimilarityThreshold is the duplicate-collapse cutoff in [0,1].
	SimilarityThreshold float64

	// Scanner caps. Content loaded beyond these is truncated
	// deterministically, largest relevance first.
	MaxDocFiles    int
	MaxDocBytes    int
	MaxDocFileSize int

	// Stage-local retry for transient reasoning failures. Distinct from
	// the revision loop.
	StageRetryAttempts int
	StageRetryBase     time.Duration
	StageRetryMax      time.Duration

	// Timeout bounds the whole run. Zero means no deadline.
	Timeout time.Duration
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:          3,
		SimilarityThreshold: 0.8,
		MaxDocFiles:         25,
		MaxDocBytes:         256 * 1024,
		MaxDocFileSize:      64 * 1024,
		StageRetryAttempts:  3,
		StageRetryBase:      time.Second,
		StageRetryMax:       30 * time.Second,
		Timeout:             10 * time.Minute,
	}
}

// Options are per-run knobs from the invocation surface. Zero values
// fall back to the engine Config.
type Options struct {
	DryRun         bool
	EnableDiagrams bool
	MaxRetries     int
	Timeout        time.Duration

	// RunID pins the run identifier. Empty means the engine assigns
	// a fresh one.
	RunID core.RunID
}

// Stage is one step of the pipeline. It reads upstream fields of the
// state and commits only the fields it owns.
type Stage interface {
	Kind() core.StageKind
	Run(ctx context.Context, st *core.AnalysisState) error
}

// stageContext carries the shared resources every stage needs.
type stageContext struct {
	ref    core.PRRef
	caps   Capabilities
	cfg    Config
	logger *logging.Logger
	retry  *RetryPolicy
}
