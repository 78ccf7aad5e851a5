package daemon

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFinalizeSplitsReadAndWrote(t *testing.T) {
	j := NewJob("k1", 1024)
	j.visible.Insert("src")
	j.markRead("src/a.go")
	j.markWrote("out/a.o")
	j.addReadBytes(10)
	j.addWroteBytes(20)

	var got Report
	if err := json.Unmarshal(j.finalize(), &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	want := Report{IBytes: 10, OBytes: 20, Inputs: []string{"src/a.go"}, Outputs: []string{"out/a.o"}}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestFinalizeExcludesFuseHiddenFromOutputs(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markWrote("a.txt")
	j.markWrote(".fuse_hidden00001234")

	var got Report
	if err := json.Unmarshal(j.finalize(), &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	if diff := cmp.Diff([]string{"a.txt"}, got.Outputs); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
}

func TestFinalizeWriteWinsOverRead(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markRead("a.txt")
	j.markWrote("a.txt")

	var got Report
	if err := json.Unmarshal(j.finalize(), &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	if len(got.Inputs) != 0 {
		t.Fatalf("expected a.txt to appear only in outputs, got inputs=%v", got.Inputs)
	}

	if diff := cmp.Diff([]string{"a.txt"}, got.Outputs); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markWrote("a.txt")

	first := j.finalize()
	j.markWrote("b.txt") // must not affect the cached report
	second := j.finalize()

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("finalize must be idempotent (-first +second):\n%s", diff)
	}
}

func TestIsHidden(t *testing.T) {
	cases := map[string]bool{
		"a.txt":                         false,
		".fuse_hidden00001234":          true,
		"dir/.fuse_hidden00001234":      true,
		"dir/notfusehidden.txt":         false,
		".fuse_hidden_in_dir/x.txt":     false, // only the basename counts
	}

	for rel, want := range cases {
		if got := isHidden(rel); got != want {
			t.Errorf("isHidden(%q) = %v, want %v", rel, got, want)
		}
	}
}
