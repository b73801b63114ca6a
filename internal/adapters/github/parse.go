package github

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hugo-lorenzo-mato/omnidoc/internal/core"
)

var (
	shortRefRe = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)#(\d+)$`)
	urlRefRe   = regexp.MustCompile(`^https?://github\.com/([\w.-]+)/([\w.-]+)/pull/(\d+)(?:/.*)?$`)
)

// ParsePRArg resolves a pull request argument into a reference.
// Accepted forms: "owner/repo#123", a full GitHub PR URL, or a bare
// number combined with a defaultRepo of the form "owner/repo".
func ParsePRArg(arg, defaultRepo string) (core.PRRef, error) {
	arg = strings.TrimSpace(arg)

	if m := shortRefRe.FindStringSubmatch(arg); m != nil {
		return buildRef(m[1], m[2], m[3])
	}
	if m := urlRefRe.FindStringSubmatch(arg); m != nil {
		return buildRef(m[1], m[2], m[3])
	}

	if num, err := strconv.Atoi(arg); err == nil {
		owner, repo, ok := strings.Cut(defaultRepo, "/")
		if !ok || owner == "" || repo == "" {
			return core.PRRef{}, core.ErrValidation(core.CodeInvalidPRRef,
				"a bare PR number needs a repository, pass owner/repo#number or set github.repo")
		}
		ref := core.PRRef{Owner: owner, Repo: repo, Number: num}
		return ref, ref.Validate()
	}

	return core.PRRef{}, core.ErrValidation(core.CodeInvalidPRRef,
		"cannot parse pull request reference: "+arg)
}

func buildRef(owner, repo, number string) (core.PRRef, error) {
	num, err := strconv.Atoi(number)
	if err != nil {
		return core.PRRef{}, core.ErrValidation(core.CodeInvalidPRRef, "invalid PR number: "+number)
	}
	ref := core.PRRef{Owner: owner, Repo: repo, Number: num}
	return ref, ref.Validate()
}
