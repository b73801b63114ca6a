package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

// Engine drives one analysis run as a strictly sequential state
// machine: it executes the stage the router selects, enforces the
// run-scoped deadline, and stops once the aggregator commits the
// terminal report. Engines share no mutable state, so independent runs
// may execute concurrently on separate Engine instances.
type Engine struct {
	caps   Capabilities
	cfg    Config
	logger *logging.Logger
}

// NewEngine creates an engine over the given capabilities.
func NewEngine(caps Capabilities, cfg Config, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{caps: caps, cfg: cfg, logger: logger}
}

// Run analyzes one pull request and returns its terminal report.
// Cancellation or deadline expiry before aggregation yields a
// Cancelled outcome and no report.
func (e *Engine) Run(ctx context.Context, ref core.PRRef, opts Options) (*core.TerminalReport, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	cfg := e.cfg
	if opts.MaxRetries > 0 {
		cfg.MaxRetries = opts.MaxRetries
	}
	timeout := cfg.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runID := opts.RunID
	if runID == "" {
		runID = core.RunID(uuid.NewString())
	}
	st := core.NewAnalysisState(runID, opts.DryRun, opts.EnableDiagrams)
	log := e.logger.WithRun(string(st.RunID)).WithPR(ref.String())
	log.Info("analysis run started",
		"max_retries", cfg.MaxRetries,
		"dry_run", opts.DryRun,
		"diagrams", opts.EnableDiagrams)

	sc := &stageContext{
		ref:    ref,
		caps:   e.caps,
		cfg:    cfg,
		logger: log,
		retry: &RetryPolicy{
			MaxAttempts:  cfg.StageRetryAttempts,
			BaseDelay:    cfg.StageRetryBase,
			MaxDelay:     cfg.StageRetryMax,
			JitterFactor: 0.2,
			Multiplier:   2.0,
		},
	}
	dedup := NewDeduplicator(e.caps.Scorer, cfg.SimilarityThreshold, log)
	stages := map[core.StageKind]Stage{
		core.StageExtractor:  NewExtractor(sc),
		core.StageDiscovery:  NewDiscovery(sc),
		core.StageScanner:    NewScanner(sc),
		core.StageAuditor:    NewAuditor(sc, dedup),
		core.StageCritic:     NewCritic(sc),
		core.StageAggregator: NewAggregator(sc),
	}
	rc := NewRetryController(cfg.MaxRetries)

	started := time.Now()
	current := core.StageExtractor
	for current != core.StageDone {
		if err := ctx.Err(); err != nil {
			log.Warn("run cancelled", "at_stage", string(current))
			return nil, core.ErrCancelled("run cancelled at stage " + string(current)).WithCause(err)
		}

		stage := stages[current]
		if err := stage.Run(ctx, st); err != nil {
			if core.IsCancelled(err) || ctx.Err() != nil {
				log.Warn("run cancelled", "at_stage", string(current))
				return nil, core.ErrCancelled("run cancelled at stage " + string(current)).WithCause(err)
			}
			log.Error("run failed", "stage", string(current), "error", err)
			return nil, fmt.Errorf("stage %s: %w", current, err)
		}

		decision := Route(current, st, rc)
		if decision.Next == core.StageAuditor && current == core.StageCritic {
			st.Attempts++
			log.Info("revision pass scheduled",
				"attempt", st.Attempts,
				"max_retries", rc.MaxRetries(),
				"reason", st.Verdict.Reason)
		}
		if decision.Forced {
			log.Warn("retry budget exhausted, forcing aggregation",
				"attempts", st.Attempts,
				"unsupported", len(st.Verdict.Unsupported))
		}
		current = decision.Next
	}

	log.Info("analysis run completed",
		"findings", st.Report.TotalFindings(),
		"degraded", st.Report.Degraded,
		"duration", time.Since(started))
	return st.Report, nil
}
