package guard

import (
	"os"
	"path/filepath"
	"testing"

	extrae "github.com/Ergus/Extrae-rs"
)

var testSite Site

func TestEnterEmitsEnterAndLeave(t *testing.T) {
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(old)

	ti := extrae.Attach()
	func() {
		defer testSite.Enter(ti, "guarded-scope", "guard_test.go", 1, 1)()
	}()
	ti.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "TRACEDIR_*", "Trace.pcf"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one Trace.pcf after finalize, got %v, err %v", matches, err)
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !contains(string(data), "guarded-scope") {
		t.Fatalf("Trace.pcf should name the guarded scope's event:\n%s", string(data))
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
