package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

// CommentMarker identifies the analysis comment on a pull request so
// re-runs update it in place instead of stacking new comments.
const CommentMarker = "<!-- omnidoc-analysis -->"

// Commenter posts the rendered report as a PR comment.
type Commenter struct {
	client *Client
}

// NewCommenter creates a commenter over an existing client.
func NewCommenter(client *Client) *Commenter {
	return &Commenter{client: client}
}

type issueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// Post creates the analysis comment, or updates the existing one when
// a previous run already commented on this PR.
func (c *Commenter) Post(ctx context.Context, ref core.PRRef, body string) error {
	if !strings.Contains(body, CommentMarker) {
		body = CommentMarker + "\n" + body
	}

	existing, err := c.findExisting(ctx, ref)
	if err != nil {
		return err
	}

	if existing != nil {
		endpoint := fmt.Sprintf("repos/%s/%s/issues/comments/%d", ref.Owner, ref.Repo, existing.ID)
		if _, err := c.client.run(ctx, "api", "--method", "PATCH", endpoint, "-f", "body="+body); err != nil {
			return core.ErrPost("updating analysis comment").WithCause(err)
		}
		return nil
	}

	endpoint := fmt.Sprintf("repos/%s/%s/issues/%d/comments", ref.Owner, ref.Repo, ref.Number)
	if _, err := c.client.run(ctx, "api", "--method", "POST", endpoint, "-f", "body="+body); err != nil {
		return core.ErrPost("creating analysis comment").WithCause(err)
	}
	return nil
}

func (c *Commenter) findExisting(ctx context.Context, ref core.PRRef) (*issueComment, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/issues/%d/comments", ref.Owner, ref.Repo, ref.Number)
	output, err := c.client.run(ctx, "api", "--paginate", endpoint)
	if err != nil {
		return nil, core.ErrPost("listing PR comments").WithCause(err)
	}

	// --paginate may emit several concatenated JSON arrays.
	dec := json.NewDecoder(strings.NewReader(output))
	for dec.More() {
		var page []issueComment
		if err := dec.Decode(&page); err != nil {
			return nil, core.ErrPost("parsing PR comments").WithCause(err)
		}
		for i := range page {
			if strings.Contains(page[i].Body, CommentMarker) {
				return &page[i], nil
			}
		}
	}
	return nil, nil
}
