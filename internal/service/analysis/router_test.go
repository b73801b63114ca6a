package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

func TestRoute_LinearPipeline(t *testing.T) {
	rc := NewRetryController(3)
	st := &core.AnalysisState{}

	assert.Equal(t, core.StageDiscovery, Route(core.StageExtractor, st, rc).Next)
	assert.Equal(t, core.StageScanner, Route(core.StageDiscovery, st, rc).Next)
	assert.Equal(t, core.StageAuditor, Route(core.StageScanner, st, rc).Next)
	assert.Equal(t, core.StageCritic, Route(core.StageAuditor, st, rc).Next)
	assert.Equal(t, core.StageDone, Route(core.StageAggregator, st, rc).Next)
}

func TestRoute_CriticAccept(t *testing.T) {
	rc := NewRetryController(3)
	st := &core.AnalysisState{Verdict: &core.Verdict{Accepted: true}}

	d := Route(core.StageCritic, st, rc)
	assert.Equal(t, core.StageAggregator, d.Next)
	assert.False(t, d.Forced)
}

func TestRoute_CriticReviseWithinBudget(t *testing.T) {
	rc := NewRetryController(3)
	st := &core.AnalysisState{
		Attempts: 1,
		Verdict:  &core.Verdict{Accepted: false, Reason: "unsupported claim"},
	}

	d := Route(core.StageCritic, st, rc)
	assert.Equal(t, core.StageAuditor, d.Next)
	assert.False(t, d.Forced)
}

func TestRoute_CriticReviseBudgetExhausted(t *testing.T) {
	rc := NewRetryController(3)
	st := &core.AnalysisState{
		Attempts: 3,
		Verdict:  &core.Verdict{Accepted: false, Reason: "still unsupported"},
	}

	d := Route(core.StageCritic, st, rc)
	assert.Equal(t, core.StageAggregator, d.Next)
	assert.True(t, d.Forced)
}

func TestRoute_ZeroBudgetNeverRevises(t *testing.T) {
	rc := NewRetryController(0)
	st := &core.AnalysisState{Verdict: &core.Verdict{Accepted: false}}

	d := Route(core.StageCritic, st, rc)
	assert.Equal(t, core.StageAggregator, d.Next)
	assert.True(t, d.Forced)
}

func TestRetryController_Bounds(t *testing.T) {
	rc := NewRetryController(3)
	assert.True(t, rc.CanRevise(0))
	assert.True(t, rc.CanRevise(2))
	assert.False(t, rc.CanRevise(3))
	assert.True(t, rc.Exhausted(3))
	assert.False(t, rc.Exhausted(2))

	clamped := NewRetryController(-5)
	assert.Equal(t, 0, clamped.MaxRetries())
}
