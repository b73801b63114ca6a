package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

const discoverySystem = `You analyze pull requests to find which documentation topics they touch.
Respond with a JSON object: {"hints": [{"kind": "keyword"|"section"|"doc_file_changed", "value": string, "weight": number 0..1}]}.
Only report signals supported by the diff.`

const auditSystem = `You audit repository documentation against a pull request and report defects.
Respond with a JSON object: {"findings": [{"kind": "discrepancy"|"missing_doc"|"outdated"|"diagram_needed"|"improvement",
"severity": "critical"|"high"|"medium"|"low"|"info", "title": string, "description": string,
"target_location": "path#section", "extra_locations": [string], "recommended_update": string,
"confidence": number 0..1, "needs_diagram": bool, "flow_description": string}]}.
recommended_update must be text insertable at target_location as-is. Report only defects supported by the
provided diff and documentation. An empty findings list is a valid answer.`

const critiqueSystem = `You are a skeptical reviewer. Verify each reported documentation finding strictly against
the provided diff and documentation excerpts. Respond with a JSON object:
{"accepted": bool, "reason": string, "unsupported_ids": [string], "hallucination_risk": "none"|"low"|"medium"|"high"}.
Set accepted=false only when specific findings are fabricated or unsupported, and list their ids.`

// maxPromptDiffBytes bounds diff text per prompt to keep requests
// within the model context window.
const maxPromptDiffBytes = 24 * 1024

func discoveryPrompt(req core.DiscoveryRequest) string {
	var b strings.Builder
	writeChange(&b, req.Change)
	b.WriteString("\nList the documentation-relevant signals in this change.\n")
	return b.String()
}

func auditPrompt(req core.AuditRequest) string {
	var b strings.Builder
	writeChange(&b, req.Change)

	if len(req.Hints) > 0 {
		b.WriteString("\n## Context hints\n")
		for _, h := range req.Hints {
			fmt.Fprintf(&b, "- %s: %s (weight %.1f)\n", h.Kind, h.Value, h.Weight)
		}
	}

	writeDocs(&b, req.Docs)

	if req.Feedback != nil {
		b.WriteString("\n## Reviewer feedback on your previous findings\n")
		fmt.Fprintf(&b, "Reason: %s\n", req.Feedback.Reason)
		if len(req.Feedback.Unsupported) > 0 {
			fmt.Fprintf(&b, "Rejected finding ids: %s\n", strings.Join(req.Feedback.Unsupported, ", "))
		}
		b.WriteString("\n## Your previous findings\n")
		for _, f := range req.PriorFindings {
			fmt.Fprintf(&b, "- [%s] %s (%s at %s): %s\n", f.ID, f.Title, f.Severity, f.TargetLocation, f.Description)
		}
		b.WriteString("\nAddress the feedback: fix or drop the rejected findings, keep the supported ones.\n")
	} else {
		b.WriteString("\nReport the documentation defects this change introduces or reveals.\n")
	}

	if !req.EnableDiagrams {
		b.WriteString("Diagram findings are disabled for this run; set needs_diagram to false.\n")
	}
	return b.String()
}

func critiquePrompt(req core.CritiqueRequest) string {
	var b strings.Builder
	writeChange(&b, req.Change)
	writeDocs(&b, req.Docs)

	b.WriteString("\n## Findings to verify\n")
	for _, f := range req.Findings {
		fmt.Fprintf(&b, "- id=%s kind=%s severity=%s location=%s\n  %s: %s\n",
			f.ID, f.Kind, f.Severity, f.TargetLocation, f.Title, f.Description)
	}
	b.WriteString("\nVerify each finding against the material above.\n")
	return b.String()
}

func writeChange(b *strings.Builder, change *core.ChangeSummary) {
	if change == nil {
		return
	}
	fmt.Fprintf(b, "# Pull request %s: %s\n", change.Ref.String(), change.Title)
	if change.Body != "" {
		fmt.Fprintf(b, "\n%s\n", change.Body)
	}

	b.WriteString("\n## Diff\n")
	budget := maxPromptDiffBytes
	for _, f := range change.Files {
		fmt.Fprintf(b, "\n### %s (%s, +%d -%d)\n", f.Filename, f.Status, f.Additions, f.Deletions)
		patch := f.Patch
		if len(patch) > budget {
			cut := budget
			for cut > 0 && !utf8.RuneStart(patch[cut]) {
				cut--
			}
			patch = patch[:cut] + "\n[diff truncated]"
		}
		budget -= len(patch)
		if patch != "" {
			fmt.Fprintf(b, "```diff\n%s\n```\n", patch)
		}
		if budget <= 0 {
			b.WriteString("\n[remaining files omitted]\n")
			break
		}
	}
}

func writeDocs(b *strings.Builder, docs *core.DocumentationIndex) {
	if docs == nil || len(docs.Files) == 0 {
		b.WriteString("\n## Documentation\n(none found)\n")
		return
	}
	fmt.Fprintf(b, "\n## Documentation (%s", docs.Status)
	if docs.Truncated {
		b.WriteString(", truncated")
	}
	b.WriteString(")\n")
	for _, f := range docs.Files {
		fmt.Fprintf(b, "\n### %s\n%s\n", f.Path, f.Content)
	}
}
