package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSignature_Deterministic(t *testing.T) {
	a := ComputeSignature(FindingMissingDoc, "README.md#Setup", "Document the new config parameter", "The timeout setting is undocumented")
	b := ComputeSignature(FindingMissingDoc, "README.md#Setup", "Document the new config parameter", "The timeout setting is undocumented")
	assert.Equal(t, a, b)
}

func TestComputeSignature_SynonymsCollapse(t *testing.T) {
	a := ComputeSignature(FindingMissingDoc, "README.md#Setup", "Configuration option undocumented", "")
	b := ComputeSignature(FindingMissingDoc, "README.md#Install", "Missing setting description", "")
	// Both mention the config concept at the same path, so they share a
	// signature even though the section and phrasing differ.
	assert.Equal(t, a, b)
}

func TestComputeSignature_DifferentPathsDiffer(t *testing.T) {
	a := ComputeSignature(FindingOutdated, "README.md#Usage", "API endpoint renamed", "")
	b := ComputeSignature(FindingOutdated, "docs/api.md#Usage", "API endpoint renamed", "")
	assert.NotEqual(t, a, b)
}

func TestComputeSignature_DifferentKindsDiffer(t *testing.T) {
	a := ComputeSignature(FindingOutdated, "README.md", "API endpoint renamed", "")
	b := ComputeSignature(FindingDiscrepancy, "README.md", "API endpoint renamed", "")
	assert.NotEqual(t, a, b)
}

func TestComputeSignature_FallsBackToNormalizedTitle(t *testing.T) {
	// No concept words at all: signature comes from title words minus
	// stopwords, sorted.
	a := ComputeSignature(FindingImprovement, "CHANGELOG.md", "Clarify release cadence", "")
	b := ComputeSignature(FindingImprovement, "CHANGELOG.md", "Release cadence, clarify!", "")
	assert.Equal(t, a, b)
}

func TestSeverityOrder(t *testing.T) {
	assert.Equal(t, 0, SeverityOrder(SeverityCritical))
	assert.Equal(t, 4, SeverityOrder(SeverityInfo))
	assert.Equal(t, 5, SeverityOrder(Severity("bogus")))
	assert.True(t, MoreSevere(SeverityHigh, SeverityLow))
	assert.False(t, MoreSevere(SeverityInfo, SeverityInfo))
}

func TestSortFindings_SeverityThenLocationThenTitle(t *testing.T) {
	fs := []Finding{
		{ID: "1", Severity: SeverityLow, TargetLocation: "b.md", Title: "z"},
		{ID: "2", Severity: SeverityCritical, TargetLocation: "z.md", Title: "a"},
		{ID: "3", Severity: SeverityLow, TargetLocation: "a.md", Title: "m"},
		{ID: "4", Severity: SeverityLow, TargetLocation: "b.md", Title: "a"},
	}
	SortFindings(fs)

	require.Len(t, fs, 4)
	assert.Equal(t, "2", fs[0].ID)
	assert.Equal(t, "3", fs[1].ID)
	assert.Equal(t, "4", fs[2].ID)
	assert.Equal(t, "1", fs[3].ID)
}

func TestFindingValidate(t *testing.T) {
	f := Finding{ID: "f1", Kind: FindingDiscrepancy, Severity: SeverityMedium, Title: "t"}
	require.NoError(t, f.Validate())

	missing := f
	missing.ID = ""
	assert.Error(t, missing.Validate())

	badKind := f
	badKind.Kind = "surprise"
	assert.Error(t, badKind.Validate())

	badSev := f
	badSev.Severity = "urgent"
	assert.Error(t, badSev.Validate())

	noTitle := f
	noTitle.Title = ""
	assert.Error(t, noTitle.Validate())
}

func TestLocationRoundTrip(t *testing.T) {
	loc := Location("docs/api.md", "Authentication")
	assert.Equal(t, "docs/api.md#Authentication", loc)

	path, section := SplitLocation(loc)
	assert.Equal(t, "docs/api.md", path)
	assert.Equal(t, "Authentication", section)

	path, section = SplitLocation("README.md")
	assert.Equal(t, "README.md", path)
	assert.Empty(t, section)
}

func TestGroupBySeverity(t *testing.T) {
	fs := []Finding{
		{ID: "1", Severity: SeverityInfo},
		{ID: "2", Severity: SeverityCritical},
		{ID: "3", Severity: SeverityCritical},
	}
	groups := GroupBySeverity(fs)

	require.Len(t, groups, 2)
	assert.Equal(t, SeverityCritical, groups[0].Severity)
	assert.Len(t, groups[0].Findings, 2)
	assert.Equal(t, SeverityInfo, groups[1].Severity)
}
