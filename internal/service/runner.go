// Package service wires the analysis engine to its output sinks: the
// report writer, the PR commenter, and the run archive.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/report"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/service/analysis"
)

// Runner executes one analysis end to end: engine run, markdown
// render, report files, PR comment, archive record. The store and
// poster are optional; a nil writer skips file output.
type Runner struct {
	engine *analysis.Engine
	writer *report.Writer
	poster core.ReportPoster
	store  core.RunStore
	logger *logging.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWriter persists the rendered report under the writer's base dir.
func WithWriter(w *report.Writer) RunnerOption {
	return func(r *Runner) { r.writer = w }
}

// WithPoster posts the rendered report as a PR comment.
func WithPoster(p core.ReportPoster) RunnerOption {
	return func(r *Runner) { r.poster = p }
}

// WithStore archives every run, including failed ones.
func WithStore(s core.RunStore) RunnerOption {
	return func(r *Runner) { r.store = s }
}

// NewRunner creates a Runner around the engine.
func NewRunner(engine *analysis.Engine, logger *logging.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{engine: engine, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the analysis and returns the archived record. A post
// failure does not invalidate the computed report: the record is
// returned alongside the error so the caller can still use it.
func (r *Runner) Run(ctx context.Context, ref core.PRRef, opts analysis.Options) (*core.RunRecord, error) {
	if opts.RunID == "" {
		opts.RunID = core.RunID(uuid.NewString())
	}
	rec := &core.RunRecord{
		RunID:     opts.RunID,
		Ref:       ref,
		Status:    core.RunStatusRunning,
		CreatedAt: time.Now().UTC(),
	}

	rep, err := r.engine.Run(ctx, ref, opts)
	done := time.Now().UTC()
	rec.CompletedAt = &done

	if err != nil {
		rec.Status = core.RunStatusFailed
		if core.IsCancelled(err) {
			rec.Status = core.RunStatusCancelled
		}
		rec.Error = err.Error()
		r.archive(ctx, rec)
		return rec, err
	}
	rec.Status = core.RunStatusCompleted
	rec.Degraded = rep.Degraded
	rec.Report = rep
	rec.Markdown = report.RenderMarkdown(rep)

	if r.writer != nil {
		path, werr := r.writer.Write(rep)
		if werr != nil {
			r.logger.Warn("report files not written", "error", werr)
		} else {
			r.logger.Info("report written", "path", path)
		}
	}

	var postErr error
	if r.poster != nil && !opts.DryRun {
		postErr = r.poster.Post(ctx, ref, rec.Markdown)
		if postErr != nil {
			r.logger.Warn("report comment not posted", "error", postErr)
		}
	}

	r.archive(ctx, rec)
	return rec, postErr
}

// Launch satisfies the API server's launcher contract.
func (r *Runner) Launch(ctx context.Context, ref core.PRRef, enableDiagrams bool) (*core.RunRecord, error) {
	rec, err := r.Run(ctx, ref, analysis.Options{EnableDiagrams: enableDiagrams})
	if err != nil && rec != nil && rec.Status == core.RunStatusCompleted {
		// Post failures leave the record usable.
		return rec, nil
	}
	return rec, err
}

func (r *Runner) archive(ctx context.Context, rec *core.RunRecord) {
	if r.store == nil || rec.RunID == "" {
		return
	}
	// Archiving must survive a cancelled run context.
	if err := r.store.Save(context.WithoutCancel(ctx), rec); err != nil &&
		!errors.Is(err, context.Canceled) {
		r.logger.Warn("run not archived", "run_id", rec.RunID, "error", err)
	}
}
