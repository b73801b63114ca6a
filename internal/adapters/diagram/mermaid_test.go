package diagram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

func TestRender_SimpleFlow(t *testing.T) {
	r := NewMermaidRenderer()
	artifact, err := r.Render(context.Background(), core.DiagramRequest{
		FindingID:       "f1",
		FlowDescription: "client -> api gateway -> worker",
	})
	require.NoError(t, err)

	assert.Equal(t, "f1", artifact.FindingID)
	assert.Equal(t, "flowchart", artifact.Kind)
	assert.Contains(t, artifact.Source, "flowchart TD")
	assert.Contains(t, artifact.Source, `A["client"]`)
	assert.Contains(t, artifact.Source, "A --> B")
	assert.Contains(t, artifact.Source, "B --> C")
	assert.NoError(t, Validate(artifact.Source))
}

func TestRender_SharedNodesAcrossChains(t *testing.T) {
	r := NewMermaidRenderer()
	artifact, err := r.Render(context.Background(), core.DiagramRequest{
		FlowDescription: "client -> server; server -> database\nserver -> cache",
	})
	require.NoError(t, err)

	// "server" appears in three chains but is declared once.
	assert.Equal(t, 1, countOccurrences(artifact.Source, `["server"]`))
}

func TestRender_EmptyFlowFails(t *testing.T) {
	r := NewMermaidRenderer()
	_, err := r.Render(context.Background(), core.DiagramRequest{FlowDescription: "   "})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatRender))
}

func TestRender_NoTransitionsFails(t *testing.T) {
	r := NewMermaidRenderer()
	_, err := r.Render(context.Background(), core.DiagramRequest{FlowDescription: "lonely node"})
	require.Error(t, err)
}

func TestRender_SanitizesLabels(t *testing.T) {
	r := NewMermaidRenderer()
	artifact, err := r.Render(context.Background(), core.DiagramRequest{
		FlowDescription: `client "evil] -> server [x]`,
	})
	require.NoError(t, err)
	assert.Contains(t, artifact.Source, `["client evil"]`)
	assert.Contains(t, artifact.Source, `["server x"]`)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("flowchart TD\n    A --> B"))
	assert.NoError(t, Validate("sequenceDiagram\n    A->>B: hello"))
	assert.Error(t, Validate(""))
	assert.Error(t, Validate("pie\n    \"a\": 1"))
	assert.Error(t, Validate("flowchart TD"))
	assert.Error(t, Validate("flowchart TD\n    A[start --> B"))
	assert.Error(t, Validate("flowchart TD\n    A[\"unterminated]"))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
