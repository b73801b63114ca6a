package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
	"github.com/hugo-lorenzo-mato/omnidoc/internal/logging"
)

// Client implements the PR fetch and documentation source capabilities
// over the gh CLI, so the binary needs no token plumbing of its own.
type Client struct {
	runner  CommandRunner
	timeout time.Duration
	logger  *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRunner injects a command runner, used by tests.
func WithRunner(r CommandRunner) Option {
	return func(c *Client) { c.runner = r }
}

// WithTimeout sets the per-command timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewClient creates a GitHub client.
func NewClient(logger *logging.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		timeout: 60 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = NewGHRunner(c.timeout)
	}
	return c
}

// VerifyAuth checks that gh is installed and authenticated.
func (c *Client) VerifyAuth(ctx context.Context) error {
	if _, err := c.run(ctx, "auth", "status"); err != nil {
		return core.ErrValidation("GH_NOT_AUTHENTICATED",
			"gh CLI is not authenticated, run 'gh auth login'").WithCause(err)
	}
	return nil
}

// run executes a gh command; the runner owns the deadline.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	return c.runner.Run(ctx, args...)
}

// prView mirrors the JSON fields requested from gh pr view.
type prView struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	BaseRefName string    `json:"baseRefName"`
	HeadRefName string    `json:"headRefName"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Author      struct {
		Login string `json:"login"`
	} `json:"author"`
	Commits []struct {
		OID string `json:"oid"`
	} `json:"commits"`
	Files []struct {
		Path      string `json:"path"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
	} `json:"files"`
}

// FetchPR returns the change summary for the referenced pull request:
// metadata plus the unified diff split per file.
func (c *Client) FetchPR(ctx context.Context, ref core.PRRef) (*core.ChangeSummary, error) {
	repo := ref.Owner + "/" + ref.Repo
	num := fmt.Sprintf("%d", ref.Number)

	output, err := c.run(ctx, "pr", "view", num, "--repo", repo, "--json",
		"number,title,body,state,baseRefName,headRefName,author,createdAt,updatedAt,commits,files")
	if err != nil {
		return nil, mapFetchError(err, ref)
	}

	var view prView
	if err := json.Unmarshal([]byte(output), &view); err != nil {
		return nil, core.ErrFetch(core.CodeParseFailed, "unexpected gh pr view output").WithCause(err)
	}

	diff, err := c.run(ctx, "pr", "diff", num, "--repo", repo)
	if err != nil {
		return nil, mapFetchError(err, ref)
	}

	patches, err := splitDiff(diff)
	if err != nil {
		c.logger.Warn("diff parsing failed, proceeding with file list only", "error", err)
	}

	change := &core.ChangeSummary{
		Ref:        ref,
		Title:      view.Title,
		Body:       view.Body,
		State:      strings.ToLower(view.State),
		BaseBranch: view.BaseRefName,
		HeadBranch: view.HeadRefName,
		Author:     view.Author.Login,
		CreatedAt:  view.CreatedAt,
		UpdatedAt:  view.UpdatedAt,
		Commits:    len(view.Commits),
	}
	for _, f := range view.Files {
		fc := core.FileChange{
			Filename:  f.Path,
			Status:    "modified",
			Additions: f.Additions,
			Deletions: f.Deletions,
		}
		if p, ok := patches[f.Path]; ok {
			fc.Patch = p.patch
			fc.Hunks = p.hunks
			fc.Status = p.status
			fc.PreviousFilename = p.previous
		}
		change.Files = append(change.Files, fc)
	}
	return change, nil
}

// treeEntry is one entry of the git tree listing.
type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// ListDocs returns documentation-like paths at the PR base repository's
// default branch.
func (c *Client) ListDocs(ctx context.Context, ref core.PRRef) ([]string, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/git/trees/HEAD?recursive=1", ref.Owner, ref.Repo)
	output, err := c.run(ctx, "api", endpoint)
	if err != nil {
		return nil, mapFetchError(err, ref)
	}

	var tree struct {
		Tree []treeEntry `json:"tree"`
	}
	if err := json.Unmarshal([]byte(output), &tree); err != nil {
		return nil, core.ErrFetch(core.CodeParseFailed, "unexpected git tree output").WithCause(err)
	}

	var paths []string
	for _, e := range tree.Tree {
		if e.Type == "blob" && isDocCandidate(e.Path) {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

// ReadDoc returns the raw content of one repository file.
func (c *Client) ReadDoc(ctx context.Context, ref core.PRRef, path string) (string, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/contents/%s", ref.Owner, ref.Repo, path)
	output, err := c.run(ctx, "api", endpoint, "-H", "Accept: application/vnd.github.raw+json")
	if err != nil {
		return "", mapFetchError(err, ref)
	}
	return output, nil
}

// docExtensions are the file extensions treated as documentation.
var docExtensions = []string{".md", ".rst", ".adoc", ".txt"}

func isDocCandidate(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range docExtensions {
		if strings.HasSuffix(lower, ext) {
			if ext == ".txt" {
				base := lower[strings.LastIndex(lower, "/")+1:]
				return strings.HasPrefix(base, "readme") || strings.HasPrefix(base, "changelog")
			}
			return true
		}
	}
	return false
}

// mapFetchError converts gh failures into the fetch error taxonomy.
func mapFetchError(err error, ref core.PRRef) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Could not resolve") ||
		strings.Contains(msg, "no pull requests found") ||
		strings.Contains(msg, "HTTP 404"):
		return core.ErrFetch(core.CodePRNotFound, "pull request not found: "+ref.String()).WithCause(err)
	case strings.Contains(msg, "HTTP 403") || strings.Contains(msg, "HTTP 401"):
		return core.ErrFetch(core.CodeAccessDenied, "access denied: "+ref.String()).WithCause(err)
	default:
		return core.ErrFetch(core.CodeNetworkFailure, "github request failed").WithCause(err)
	}
}
