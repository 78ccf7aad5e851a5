package daemon

import "testing"

func TestJobIsReadableVisibleOnly(t *testing.T) {
	j := NewJob("k1", 1024)
	j.visible.Insert("src/main.go")

	if !j.isReadable("src/main.go") {
		t.Fatal("expected visible path to be readable")
	}

	if j.isReadable("src/other.go") {
		t.Fatal("expected non-visible path to be unreadable")
	}
}

func TestJobWrittenPathAlwaysReadable(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markWrote("build/out.o")

	if !j.isReadable("build/out.o") {
		t.Fatal("expected written path to be readable regardless of visibility")
	}

	if !j.isWritable("build/out.o") {
		t.Fatal("expected written path to be writable")
	}
}

func TestJobMarkReadDoesNotShadowWrite(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markWrote("a.txt")
	j.markRead("a.txt")

	if _, ok := j.read["a.txt"]; ok {
		t.Fatal("a path already in wrote must never also land in read")
	}
}

func TestJobForgetClearsBothSets(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markWrote("a.txt")
	j.forget("a.txt")

	if j.isWritable("a.txt") {
		t.Fatal("forgotten path must not remain writable")
	}
}

func TestJobMoveWithinMovesDescendants(t *testing.T) {
	j := NewJob("k1", 1024)
	j.markWrote("old/a.txt")
	j.markWrote("old/sub/b.txt")
	j.markRead("old/c.txt")

	j.moveWithin("old", "new", true)

	for _, p := range []string{"new/a.txt", "new/sub/b.txt", "new/c.txt"} {
		if _, ok := j.wrote[p]; !ok {
			if _, ok := j.read[p]; !ok {
				t.Fatalf("expected %s to be tracked after move", p)
			}
		}
	}

	for _, p := range []string{"old/a.txt", "old/sub/b.txt", "old/c.txt"} {
		if _, ok := j.wrote[p]; ok {
			t.Fatalf("old path %s must not remain tracked", p)
		}

		if _, ok := j.read[p]; ok {
			t.Fatalf("old path %s must not remain tracked", p)
		}
	}
}

func TestJobRefsAndLive(t *testing.T) {
	j := NewJob("k1", 1024)
	if j.Live() {
		t.Fatal("fresh job with no counters bumped must not be live")
	}

	j.livenessUses++

	if !j.Live() {
		t.Fatal("job with a positive counter must be live")
	}

	j.livenessUses--

	if j.Live() {
		t.Fatal("job with all counters at zero must not be live")
	}
}
