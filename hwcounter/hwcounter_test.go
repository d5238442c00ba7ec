package hwcounter

import (
	"testing"

	"github.com/Ergus/Extrae-rs/nameset"
)

func TestOpenWithNoNamesIsANoOp(t *testing.T) {
	g, err := Open(nameset.New(), nil)
	if err != nil {
		t.Fatalf("Open(nil): %v", err)
	}
	if len(g.Sample()) != 0 {
		t.Fatalf("a Group opened with no names should sample nothing")
	}
	if err := g.Close(); err != nil {
		t.Fatalf("Close on an empty Group: %v", err)
	}
}

func TestOpenWithUnknownNameFails(t *testing.T) {
	_, err := Open(nameset.New(), []string{"not-a-real-counter"})
	if err == nil {
		t.Fatalf("Open with an unrecognized counter name should fail")
	}
}

func TestNamesMatchesCounterTable(t *testing.T) {
	for _, n := range Names() {
		if _, ok := names[n]; !ok {
			t.Errorf("Names() returned %q which is not in the counter table", n)
		}
	}
}
