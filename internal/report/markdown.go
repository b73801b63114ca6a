package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// severityIcons decorate the severity group headers.
var severityIcons = map[core.Severity]string{
	core.SeverityCritical: "🔴",
	core.SeverityHigh:     "🟠",
	core.SeverityMedium:   "🟡",
	core.SeverityLow:      "🔵",
	core.SeverityInfo:     "⚪",
}

var kindLabels = map[core.FindingKind]string{
	core.FindingDiscrepancy:   "Discrepancy",
	core.FindingMissingDoc:    "Missing documentation",
	core.FindingOutdated:      "Outdated documentation",
	core.FindingDiagramNeeded: "Diagram needed",
	core.FindingImprovement:   "Improvement",
}

// RenderMarkdown turns a terminal report into the markdown body used
// for PR comments, files and the terminal.
func RenderMarkdown(r *core.TerminalReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Documentation analysis for %s\n\n", r.Ref.String())

	total := r.TotalFindings()
	if total == 0 {
		b.WriteString("No documentation defects found. :tada:\n")
		writeFooter(&b, r)
		return b.String()
	}

	fmt.Fprintf(&b, "**%d finding%s**", total, plural(total))
	if r.Degraded {
		b.WriteString(" — ⚠️ some findings could not be validated and are marked accordingly")
	}
	b.WriteString("\n")

	for _, group := range r.Groups {
		fmt.Fprintf(&b, "\n### %s %s (%d)\n", severityIcons[group.Severity],
			titleCase(string(group.Severity)), len(group.Findings))

		for _, f := range group.Findings {
			writeFinding(&b, f)
		}
	}

	writeFooter(&b, r)
	return b.String()
}

func writeFinding(b *strings.Builder, f core.Finding) {
	fmt.Fprintf(b, "\n#### %s\n\n", f.Title)
	fmt.Fprintf(b, "*%s*", kindLabels[f.Kind])
	if f.TargetLocation != "" {
		fmt.Fprintf(b, " at `%s`", f.TargetLocation)
	}
	if f.Unvalidated {
		b.WriteString(" — ⚠️ *unvalidated*")
	}
	b.WriteString("\n\n")
	b.WriteString(f.Description)
	b.WriteString("\n")

	if len(f.ExtraLocations) > 0 {
		fmt.Fprintf(b, "\nAlso affects: `%s`\n", strings.Join(f.ExtraLocations, "`, `"))
	}

	if f.RecommendedUpdate != "" {
		b.WriteString("\n<details>\n<summary>Suggested update</summary>\n\n")
		fmt.Fprintf(b, "```markdown\n%s\n```\n", f.RecommendedUpdate)
		b.WriteString("\n</details>\n")
	}

	if f.Diagram != "" {
		fmt.Fprintf(b, "\n```mermaid\n%s\n```\n", strings.TrimSpace(f.Diagram))
	}
}

func writeFooter(b *strings.Builder, r *core.TerminalReport) {
	b.WriteString("\n---\n")
	fmt.Fprintf(b, "*Run `%s` · generated %s*\n",
		r.RunID, r.GeneratedAt.UTC().Format(time.RFC3339))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
