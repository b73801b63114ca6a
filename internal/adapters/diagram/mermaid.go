package diagram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// MermaidRenderer turns flow descriptions into validated Mermaid
// flowchart source. It is deliberately local: diagram layout is simple
// enough that no external service is worth the dependency, and the
// output is validated before it reaches a report.
type MermaidRenderer struct {
	maxNodes int
}

// NewMermaidRenderer creates a renderer.
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{maxNodes: 20}
}

// Render builds a flowchart from the request's flow description. The
// description is a chain of steps separated by "->", optionally several
// chains separated by newlines or semicolons.
func (r *MermaidRenderer) Render(_ context.Context, req core.DiagramRequest) (*core.DiagramArtifact, error) {
	source, err := r.build(req.FlowDescription)
	if err != nil {
		return nil, err
	}
	if err := Validate(source); err != nil {
		return nil, err
	}
	return &core.DiagramArtifact{
		FindingID: req.FindingID,
		Kind:      "flowchart",
		Source:    source,
	}, nil
}

func (r *MermaidRenderer) build(flow string) (string, error) {
	chains := splitChains(flow)
	if len(chains) == 0 {
		return "", core.ErrRender("empty flow description")
	}

	var b strings.Builder
	b.WriteString("flowchart TD\n")

	ids := map[string]string{}
	nextID := 'A'
	edges := 0

	nodeID := func(label string) (string, error) {
		label = sanitizeLabel(label)
		if id, ok := ids[label]; ok {
			return id, nil
		}
		if len(ids) >= r.maxNodes {
			return "", core.ErrRender("flow description exceeds node limit")
		}
		id := string(nextID)
		nextID++
		ids[label] = id
		fmt.Fprintf(&b, "    %s[%q]\n", id, label)
		return id, nil
	}

	for _, chain := range chains {
		steps := strings.Split(chain, "->")
		var prev string
		for _, step := range steps {
			step = strings.TrimSpace(step)
			if step == "" {
				continue
			}
			id, err := nodeID(step)
			if err != nil {
				return "", err
			}
			if prev != "" {
				fmt.Fprintf(&b, "    %s --> %s\n", prev, id)
				edges++
			}
			prev = id
		}
	}

	if edges == 0 {
		return "", core.ErrRender("flow description has no transitions")
	}
	return b.String(), nil
}

func splitChains(flow string) []string {
	var chains []string
	for _, part := range strings.FieldsFunc(flow, func(r rune) bool {
		return r == '\n' || r == ';'
	}) {
		if strings.TrimSpace(part) != "" {
			chains = append(chains, part)
		}
	}
	return chains
}

var labelUnsafe = regexp.MustCompile(`["\[\]{}()<>|]`)

func sanitizeLabel(label string) string {
	label = labelUnsafe.ReplaceAllString(label, "")
	label = strings.Join(strings.Fields(label), " ")
	if len(label) > 60 {
		label = label[:60]
	}
	return label
}

// diagramTypes are the Mermaid headers accepted by Validate.
var diagramTypes = []string{
	"flowchart", "graph", "sequenceDiagram", "classDiagram", "stateDiagram",
}

// Validate checks Mermaid source for the defects that break rendering:
// a missing diagram type header, unbalanced brackets, or a body with no
// content.
func Validate(source string) error {
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		return core.ErrRender("empty diagram source")
	}

	lines := strings.Split(trimmed, "\n")
	header := strings.TrimSpace(lines[0])

	typed := false
	for _, dt := range diagramTypes {
		if strings.HasPrefix(header, dt) {
			typed = true
			break
		}
	}
	if !typed {
		return core.ErrRender("unknown diagram type in header: " + header)
	}

	if len(lines) < 2 {
		return core.ErrRender("diagram has no body")
	}

	if err := checkBalanced(trimmed); err != nil {
		return err
	}
	return nil
}

func checkBalanced(source string) error {
	pairs := map[rune]rune{')': '(', ']': '[', '}': '{'}
	var stack []rune
	inString := false

	for _, ch := range source {
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '(', '[', '{':
			stack = append(stack, ch)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != pairs[ch] {
				return core.ErrRender("unbalanced brackets in diagram source")
			}
			stack = stack[:len(stack)-1]
		}
	}
	if inString {
		return core.ErrRender("unterminated quote in diagram source")
	}
	if len(stack) != 0 {
		return core.ErrRender("unbalanced brackets in diagram source")
	}
	return nil
}
