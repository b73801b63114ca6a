package llm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("  {\"a\":1}  "))
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosine([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosine(nil, nil))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
}

func sampleChange() *core.ChangeSummary {
	return &core.ChangeSummary{
		Ref:   core.PRRef{Owner: "acme", Repo: "widget", Number: 42},
		Title: "Add request timeout configuration",
		Body:  "Adds a timeout option.",
		Files: []core.FileChange{
			{Filename: "internal/server/server.go", Status: "modified", Additions: 40, Deletions: 5,
				Patch: "@@ -1 +1 @@\n-old\n+new"},
		},
	}
}

func TestAuditPrompt_FirstPass(t *testing.T) {
	p := auditPrompt(core.AuditRequest{
		Change: sampleChange(),
		Hints:  []core.ContextHint{{Kind: "keyword", Value: "timeout", Weight: 0.5}},
		Docs: &core.DocumentationIndex{
			Status: core.DocStatusPresent,
			Files:  []core.DocFile{{Path: "README.md", Content: "# Widget"}},
		},
	})

	assert.Contains(t, p, "acme/widget#42")
	assert.Contains(t, p, "timeout")
	assert.Contains(t, p, "README.md")
	assert.Contains(t, p, "# Widget")
	assert.NotContains(t, p, "Reviewer feedback")
	assert.Contains(t, p, "needs_diagram to false")
}

func TestAuditPrompt_RevisionPassCarriesFeedback(t *testing.T) {
	p := auditPrompt(core.AuditRequest{
		Change:  sampleChange(),
		Attempt: 1,
		Feedback: &core.Verdict{
			Accepted:    false,
			Reason:      "finding f1 cites a file not in the diff",
			Unsupported: []string{"f1"},
		},
		PriorFindings: []core.Finding{{
			ID: "f1", Kind: core.FindingOutdated, Severity: core.SeverityMedium,
			Title: "Stale example", TargetLocation: "README.md#Usage",
			Description: "example mentions removed flag",
		}},
		EnableDiagrams: true,
	})

	assert.Contains(t, p, "Reviewer feedback")
	assert.Contains(t, p, "finding f1 cites a file not in the diff")
	assert.Contains(t, p, "Rejected finding ids: f1")
	assert.Contains(t, p, "Stale example")
	assert.NotContains(t, p, "needs_diagram to false")
}

func TestCritiquePrompt(t *testing.T) {
	p := critiquePrompt(core.CritiqueRequest{
		Change: sampleChange(),
		Findings: []core.Finding{{
			ID: "f9", Kind: core.FindingMissingDoc, Severity: core.SeverityHigh,
			Title: "Timeout undocumented", TargetLocation: "README.md#Configuration",
			Description: "new option absent from docs",
		}},
	})

	assert.Contains(t, p, "id=f9")
	assert.Contains(t, p, "Timeout undocumented")
	assert.Contains(t, p, "(none found)")
}

func TestWriteChange_TruncatesLargeDiffs(t *testing.T) {
	change := sampleChange()
	big := make([]byte, maxPromptDiffBytes+100)
	for i := range big {
		big[i] = 'x'
	}
	change.Files[0].Patch = string(big)
	change.Files = append(change.Files, core.FileChange{Filename: "other.go", Patch: "@@ -1 +1 @@"})

	p := auditPrompt(core.AuditRequest{Change: change})
	assert.Contains(t, p, "[diff truncated]")
	assert.Contains(t, p, "[remaining files omitted]")
}

func TestWriteChange_TruncationKeepsValidUTF8(t *testing.T) {
	change := sampleChange()
	// 5-byte repeating unit lands the byte cap inside the two-byte rune.
	change.Files[0].Patch = strings.Repeat("± x\n", maxPromptDiffBytes/5+10)

	p := auditPrompt(core.AuditRequest{Change: change})
	assert.Contains(t, p, "[diff truncated]")
	assert.True(t, utf8.ValidString(p))
}
