package github

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// mockRunner replays canned outputs keyed by a substring of the
// command line.
type mockRunner struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (m *mockRunner) Run(_ context.Context, args ...string) (string, error) {
	cmdline := "gh " + strings.Join(args, " ")
	m.calls = append(m.calls, cmdline)
	for key, err := range m.errors {
		if strings.Contains(cmdline, key) {
			return "", err
		}
	}
	for key, out := range m.responses {
		if strings.Contains(cmdline, key) {
			return out, nil
		}
	}
	return "", errors.New("unexpected command: " + cmdline)
}

const prViewJSON = `{
  "number": 42,
  "title": "Add request timeout configuration",
  "body": "Adds a timeout option.",
  "state": "OPEN",
  "baseRefName": "main",
  "headRefName": "feature/timeout",
  "createdAt": "2026-08-01T10:00:00Z",
  "updatedAt": "2026-08-02T10:00:00Z",
  "author": {"login": "jdoe"},
  "commits": [{"oid": "abc"}, {"oid": "def"}],
  "files": [
    {"path": "README.md", "additions": 3, "deletions": 0},
    {"path": "internal/server/server.go", "additions": 40, "deletions": 5}
  ]
}`

func testClient(runner *mockRunner) *Client {
	return NewClient(nil, WithRunner(runner))
}

func TestClient_FetchPR(t *testing.T) {
	runner := &mockRunner{responses: map[string]string{
		"pr view": prViewJSON,
		"pr diff": sampleDiff,
	}}
	client := testClient(runner)

	change, err := client.FetchPR(context.Background(), core.PRRef{Owner: "acme", Repo: "widget", Number: 42})
	require.NoError(t, err)

	assert.Equal(t, "Add request timeout configuration", change.Title)
	assert.Equal(t, "open", change.State)
	assert.Equal(t, "main", change.BaseBranch)
	assert.Equal(t, "jdoe", change.Author)
	assert.Equal(t, 2, change.Commits)
	require.Len(t, change.Files, 2)

	readme := change.Files[0]
	assert.Equal(t, "README.md", readme.Filename)
	assert.Equal(t, 3, readme.Additions)
	assert.Equal(t, 1, readme.Hunks)
	assert.Contains(t, readme.Patch, "+New timeout option.")
}

func TestClient_FetchPR_NotFound(t *testing.T) {
	runner := &mockRunner{errors: map[string]error{
		"pr view": &RunError{Command: "gh pr view", Stderr: "GraphQL: Could not resolve to a PullRequest", Err: errors.New("exit 1")},
	}}
	client := testClient(runner)

	_, err := client.FetchPR(context.Background(), core.PRRef{Owner: "acme", Repo: "widget", Number: 999})
	require.Error(t, err)

	var domErr *core.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, core.CodePRNotFound, domErr.Code)
	assert.Equal(t, core.ErrCatFetch, domErr.Category)
}

func TestClient_FetchPR_AccessDenied(t *testing.T) {
	runner := &mockRunner{errors: map[string]error{
		"pr view": &RunError{Command: "gh pr view", Stderr: "HTTP 403: Forbidden", Err: errors.New("exit 1")},
	}}
	client := testClient(runner)

	_, err := client.FetchPR(context.Background(), core.PRRef{Owner: "acme", Repo: "private", Number: 1})
	var domErr *core.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, core.CodeAccessDenied, domErr.Code)
}

func TestClient_FetchPR_NetworkFailure(t *testing.T) {
	runner := &mockRunner{errors: map[string]error{
		"pr view": errors.New("dial tcp: connection refused"),
	}}
	client := testClient(runner)

	_, err := client.FetchPR(context.Background(), core.PRRef{Owner: "acme", Repo: "widget", Number: 1})
	var domErr *core.DomainError
	require.ErrorAs(t, err, &domErr)
	assert.Equal(t, core.CodeNetworkFailure, domErr.Code)
	assert.False(t, core.IsRetryable(err))
}

func TestClient_ListDocs(t *testing.T) {
	runner := &mockRunner{responses: map[string]string{
		"git/trees": `{"tree": [
			{"path": "README.md", "type": "blob"},
			{"path": "docs/api.md", "type": "blob"},
			{"path": "docs", "type": "tree"},
			{"path": "main.go", "type": "blob"},
			{"path": "notes.txt", "type": "blob"},
			{"path": "CHANGELOG.txt", "type": "blob"}
		]}`,
	}}
	client := testClient(runner)

	paths, err := client.ListDocs(context.Background(), core.PRRef{Owner: "acme", Repo: "widget", Number: 1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"README.md", "docs/api.md", "CHANGELOG.txt"}, paths)
}

func TestClient_ReadDoc(t *testing.T) {
	runner := &mockRunner{responses: map[string]string{
		"contents/README.md": "# Widget\n\nUsage.",
	}}
	client := testClient(runner)

	content, err := client.ReadDoc(context.Background(), core.PRRef{Owner: "acme", Repo: "widget", Number: 1}, "README.md")
	require.NoError(t, err)
	assert.Contains(t, content, "# Widget")
}

func TestIsDocCandidate(t *testing.T) {
	assert.True(t, isDocCandidate("README.md"))
	assert.True(t, isDocCandidate("docs/guide.rst"))
	assert.True(t, isDocCandidate("manual.adoc"))
	assert.True(t, isDocCandidate("sub/readme.txt"))
	assert.False(t, isDocCandidate("notes.txt"))
	assert.False(t, isDocCandidate("main.go"))
	assert.False(t, isDocCandidate("image.png"))
}
