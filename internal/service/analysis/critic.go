package analysis

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// Critic independently re-examines each finding against the change
// summary and the documentation index to catch fabricated or
// unsupported claims. It only judges; any correction happens on the
// next auditor pass. A reasoning failure that survives the stage-local
// retries is fatal, since unjudged findings cannot be shipped.
type Critic struct {
	sc *stageContext
}

func NewCritic(sc *stageContext) *Critic {
	return &Critic{sc: sc}
}

func (c *Critic) Kind() core.StageKind {
	return core.StageCritic
}

func (c *Critic) Run(ctx context.Context, st *core.AnalysisState) error {
	log := c.sc.logger.WithStage(string(c.Kind()))

	if len(st.Findings) == 0 {
		st.Verdict = &core.Verdict{
			Accepted: true,
			Reason:   "no findings to validate",
		}
		log.Info("no findings, accepting")
		return nil
	}

	req := core.CritiqueRequest{
		Change:   st.Change,
		Docs:     st.Docs,
		Findings: st.Findings,
	}

	var result *core.CritiqueResult
	err := c.sc.retry.Execute(ctx, func(ctx context.Context) error {
		var rerr error
		result, rerr = c.sc.caps.Reasoner.Critique(ctx, req)
		return rerr
	})
	if err != nil {
		if ctx.Err() != nil {
			return core.ErrCancelled("critique interrupted").WithCause(ctx.Err())
		}
		return fmt.Errorf("critique of %d findings: %w", len(st.Findings), err)
	}

	verdict := result.Verdict
	st.Verdict = &verdict
	log.Info("verdict committed",
		"accepted", verdict.Accepted,
		"unsupported", len(verdict.Unsupported),
		"risk", verdict.HallucinationRisk)
	return nil
}
