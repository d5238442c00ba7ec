// Package selftest holds whole-tree hygiene checks that don't belong
// to any one package: gofmt cleanliness across the module.
package selftest

import (
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestGofmt tests that every .go file in the module is gofmt clean,
// using gofmt's own "-l" (list files that would be reformatted)
// directly against the module root: gofmt -l never rewrites a file,
// so there is no tree to copy and no diff to run. Unlike go build,
// gofmt -l does not skip directories whose name starts with "_": any
// .go file under such a directory is checked too.
func TestGofmt(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("resolving module root: %v", err)
	}

	out, err := exec.Command("gofmt", "-l", root).Output()
	if err != nil {
		t.Fatalf("gofmt -l: %v", err)
	}

	if dirty := strings.TrimSpace(string(out)); dirty != "" {
		t.Errorf("files are not gofmt clean, please run gofmt:\n%s", dirty)
	}
}
