// Package testutil holds shared test helpers.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

var update = flag.Bool("update", false, "update golden files")

// AssertGolden compares actual output against testdata/<name>.golden.
// Run the tests with -update to rewrite the golden files.
func AssertGolden(t *testing.T, name string, actual []byte) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if *update {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("creating testdata dir: %v", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			t.Fatalf("updating golden file %s: %v", path, err)
		}
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading golden file %s (run with -update to create): %v", path, err)
	}
	if string(expected) != string(actual) {
		t.Errorf("output does not match %s\n--- want\n%s\n--- got\n%s",
			path, expected, actual)
	}
}
