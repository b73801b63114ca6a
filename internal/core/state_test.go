package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPRRefValidate(t *testing.T) {
	assert.NoError(t, PRRef{Owner: "acme", Repo: "widget", Number: 7}.Validate())
	assert.Error(t, PRRef{Repo: "widget", Number: 7}.Validate())
	assert.Error(t, PRRef{Owner: "acme", Number: 7}.Validate())
	assert.Error(t, PRRef{Owner: "acme", Repo: "widget"}.Validate())
	assert.Error(t, PRRef{Owner: "acme", Repo: "widget", Number: -1}.Validate())
}

func TestPRRefString(t *testing.T) {
	ref := PRRef{Owner: "acme", Repo: "widget", Number: 42}
	assert.Equal(t, "acme/widget#42", ref.String())
}

func TestNewAnalysisState(t *testing.T) {
	s := NewAnalysisState("run-1", true, false)

	assert.Equal(t, RunID("run-1"), s.RunID)
	assert.True(t, s.DryRun)
	assert.False(t, s.EnableDiagrams)
	assert.Zero(t, s.Attempts)
	assert.False(t, s.IsFinal())
	assert.Nil(t, s.Verdict)
}

func TestAnalysisState_IsFinal(t *testing.T) {
	s := NewAnalysisState("run-1", false, false)
	require.False(t, s.IsFinal())

	s.Report = &TerminalReport{RunID: s.RunID}
	assert.True(t, s.IsFinal())
}

func TestAnalysisState_FindingByID(t *testing.T) {
	s := NewAnalysisState("run-1", false, false)
	s.Findings = []Finding{
		{ID: "f1", Title: "first"},
		{ID: "f2", Title: "second"},
	}

	f, ok := s.FindingByID("f2")
	require.True(t, ok)
	assert.Equal(t, "second", f.Title)

	_, ok = s.FindingByID("f3")
	assert.False(t, ok)
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("auditor")
	require.NoError(t, err)
	assert.Equal(t, StageAuditor, s)

	s, err = ParseStage("done")
	require.NoError(t, err)
	assert.Equal(t, StageDone, s)

	_, err = ParseStage("renderer")
	assert.Error(t, err)
}

func TestAllStagesOrder(t *testing.T) {
	stages := AllStages()
	require.Len(t, stages, 6)
	assert.Equal(t, StageExtractor, stages[0])
	assert.Equal(t, StageAggregator, stages[5])
	for _, st := range stages {
		assert.True(t, ValidStage(st))
		assert.NotEqual(t, "Unknown stage", st.Description())
	}
	assert.False(t, ValidStage(StageDone))
}
