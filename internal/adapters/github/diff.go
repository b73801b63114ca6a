package github

import (
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// filePatch is the parsed per-file portion of a unified diff.
type filePatch struct {
	patch    string
	hunks    int
	status   string
	previous string
}

// splitDiff parses a multi-file unified diff into per-file patches,
// keyed by the new file path.
func splitDiff(unified string) (map[string]filePatch, error) {
	patches := make(map[string]filePatch)
	if strings.TrimSpace(unified) == "" {
		return patches, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(unified))
	if err != nil {
		return patches, err
	}

	for _, fd := range fileDiffs {
		name := trimDiffPrefix(fd.NewName)
		status := "modified"
		previous := ""

		switch {
		case fd.NewName == "/dev/null":
			name = trimDiffPrefix(fd.OrigName)
			status = "removed"
		case fd.OrigName == "/dev/null":
			status = "added"
		case trimDiffPrefix(fd.OrigName) != name:
			status = "renamed"
			previous = trimDiffPrefix(fd.OrigName)
		}

		raw, err := diff.PrintFileDiff(fd)
		if err != nil {
			continue
		}

		patches[name] = filePatch{
			patch:    string(raw),
			hunks:    len(fd.Hunks),
			status:   status,
			previous: previous,
		}
	}
	return patches, nil
}

// trimDiffPrefix strips the a/ or b/ prefix git puts on diff paths.
func trimDiffPrefix(name string) string {
	if len(name) > 2 && (strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/")) {
		return name[2:]
	}
	return name
}
