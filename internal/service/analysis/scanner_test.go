package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

func newScannerContext(docs *fakeDocs, cfg Config) *stageContext {
	return &stageContext{
		ref:    testRef(),
		caps:   Capabilities{Docs: docs},
		cfg:    cfg,
		logger: logging.NewNop(),
		retry:  &RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1},
	}
}

func TestScanner_LoadsAndClassifies(t *testing.T) {
	docs := &fakeDocs{files: map[string]string{
		"README.md":        strings.Repeat("# Widget project overview. ", 20),
		"CHANGELOG.md":     strings.Repeat("## v1.2.0 changes. ", 30),
		"docs/api.md":      strings.Repeat("GET /widgets endpoint. ", 30),
		"docs/user-guide.md": strings.Repeat("How to use widgets. ", 30),
	}}
	s := NewScanner(newScannerContext(docs, DefaultConfig()))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	require.NotNil(t, st.Docs)

	assert.Len(t, st.Docs.Files, 4)
	assert.True(t, st.Docs.HasReadme)
	assert.False(t, st.Docs.Truncated)
	assert.Equal(t, core.DocStatusPresent, st.Docs.Status)

	types := map[string]core.DocType{}
	for _, f := range st.Docs.Files {
		types[f.Path] = f.Type
	}
	assert.Equal(t, core.DocTypeReadme, types["README.md"])
	assert.Equal(t, core.DocTypeChangelog, types["CHANGELOG.md"])
	assert.Equal(t, core.DocTypeAPI, types["docs/api.md"])
	assert.Equal(t, core.DocTypeGuide, types["docs/user-guide.md"])
}

func TestScanner_FileCapTruncatesDeterministically(t *testing.T) {
	docs := &fakeDocs{files: map[string]string{
		"README.md":   strings.Repeat("readme ", 50),
		"docs/a.md":   strings.Repeat("alpha ", 50),
		"docs/b.md":   strings.Repeat("beta ", 50),
		"docs/c.md":   strings.Repeat("gamma ", 50),
	}}
	cfg := DefaultConfig()
	cfg.MaxDocFiles = 2
	s := NewScanner(newScannerContext(docs, cfg))
	st := core.NewAnalysisState("run-1", false, false)
	// A hint boosting docs/c.md must keep it over lexically earlier paths.
	st.Hints = []core.ContextHint{{Kind: "keyword", Value: "c.md", Weight: 1.0}}

	require.NoError(t, s.Run(context.Background(), st))

	require.True(t, st.Docs.Truncated)
	require.Len(t, st.Docs.Files, 2)
	// The hinted file outranks the README's base boost.
	assert.Equal(t, "docs/c.md", st.Docs.Files[0].Path)
	assert.Equal(t, "README.md", st.Docs.Files[1].Path)
	assert.NotEmpty(t, st.Errors)
}

func TestScanner_ByteCapTruncates(t *testing.T) {
	docs := &fakeDocs{files: map[string]string{
		"README.md": strings.Repeat("r", 600),
		"docs/a.md": strings.Repeat("a", 600),
	}}
	cfg := DefaultConfig()
	cfg.MaxDocBytes = 1000
	s := NewScanner(newScannerContext(docs, cfg))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))

	assert.True(t, st.Docs.Truncated)
	require.Len(t, st.Docs.Files, 1)
	assert.Equal(t, "README.md", st.Docs.Files[0].Path)
	assert.LessOrEqual(t, st.Docs.TotalBytes, 1000)
}

func TestScanner_PerFileSizeCap(t *testing.T) {
	docs := &fakeDocs{files: map[string]string{
		"README.md": strings.Repeat("x", 5000),
	}}
	cfg := DefaultConfig()
	cfg.MaxDocFileSize = 1024
	s := NewScanner(newScannerContext(docs, cfg))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	require.Len(t, st.Docs.Files, 1)
	assert.Equal(t, 1024, st.Docs.Files[0].Size)
}

func TestScanner_PerFileSizeCapKeepsValidUTF8(t *testing.T) {
	// Multi-byte runes straddling the cap must not be split.
	docs := &fakeDocs{files: map[string]string{
		"README.md": strings.Repeat("é", 600),
	}}
	cfg := DefaultConfig()
	cfg.MaxDocFileSize = 1023
	s := NewScanner(newScannerContext(docs, cfg))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	require.Len(t, st.Docs.Files, 1)

	content := st.Docs.Files[0].Content
	assert.True(t, utf8.ValidString(content))
	assert.Equal(t, 1022, len(content))
}

func TestTruncateRuneSafe(t *testing.T) {
	assert.Equal(t, "abc", truncateRuneSafe("abc", 10))
	assert.Equal(t, "ab", truncateRuneSafe("abc", 2))
	assert.Equal(t, "é", truncateRuneSafe("éé", 3))
	assert.Equal(t, "", truncateRuneSafe("é", 1))
}

func TestScanner_EmptyRepoIsMissing(t *testing.T) {
	s := NewScanner(newScannerContext(&fakeDocs{files: map[string]string{}}, DefaultConfig()))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	assert.Equal(t, core.DocStatusMissing, st.Docs.Status)
	assert.False(t, st.Docs.HasReadme)
}

func TestScanner_TinyReadmeIsMinimal(t *testing.T) {
	s := NewScanner(newScannerContext(&fakeDocs{files: map[string]string{
		"README.md": "# Widget",
	}}, DefaultConfig()))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	assert.Equal(t, core.DocStatusMinimal, st.Docs.Status)
	assert.True(t, st.Docs.HasReadme)
}

func TestScanner_ListFailureDegrades(t *testing.T) {
	docs := &fakeDocs{listErr: errors.New("clone failed")}
	s := NewScanner(newScannerContext(docs, DefaultConfig()))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	assert.Equal(t, core.DocStatusMissing, st.Docs.Status)
	assert.NotEmpty(t, st.Errors)
}

func TestScanner_ReadFailureSkipsFile(t *testing.T) {
	docs := &fakeDocs{
		files:   map[string]string{"README.md": "content"},
		readErr: errors.New("blob missing"),
	}
	s := NewScanner(newScannerContext(docs, DefaultConfig()))
	st := core.NewAnalysisState("run-1", false, false)

	require.NoError(t, s.Run(context.Background(), st))
	assert.Empty(t, st.Docs.Files)
	assert.Equal(t, core.DocStatusMissing, st.Docs.Status)
}

func TestRankCandidates_DeterministicTieBreak(t *testing.T) {
	ranked := rankCandidates([]string{"docs/b.md", "docs/a.md", "docs/c.md"}, nil)
	require.Len(t, ranked, 3)
	assert.Equal(t, "docs/a.md", ranked[0].Path)
	assert.Equal(t, "docs/b.md", ranked[1].Path)
	assert.Equal(t, "docs/c.md", ranked[2].Path)
}

func TestRelevance_DocFileChangedBoost(t *testing.T) {
	hints := []core.ContextHint{
		{Kind: "doc_file_changed", Value: "docs/api.md", Weight: 1.0},
		{Kind: "keyword", Value: "api", Weight: 0.3},
	}
	boosted := relevance("docs/api.md", hints)
	other := relevance("docs/guide.md", hints)
	assert.Greater(t, boosted, other)
}
