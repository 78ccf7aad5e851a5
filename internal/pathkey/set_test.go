package pathkey

import "testing"

func TestSetInsertContains(t *testing.T) {
	s := NewSet()
	s.Insert("b/c")
	s.Insert("a")
	s.Insert("a") // duplicate, no-op

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	if !s.Contains("a") || !s.Contains("b/c") {
		t.Fatalf("expected both members present")
	}

	if s.Contains("b") {
		t.Fatalf("did not expect %q to be a member", "b")
	}
}

func TestSetRemove(t *testing.T) {
	s := NewSet("a", "b")
	s.Remove("a")

	if s.Contains("a") {
		t.Fatalf("expected %q removed", "a")
	}

	if !s.Contains("b") {
		t.Fatalf("expected %q to remain", "b")
	}

	s.Remove("does-not-exist") // no-op, must not panic
}

func TestSetItemsSorted(t *testing.T) {
	s := NewSet("c", "a", "b")

	got := s.Items()
	want := []string{"a", "b", "c"}

	if len(got) != len(want) {
		t.Fatalf("Items() = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Items() = %v, want %v", got, want)
		}
	}
}

func TestHasAncestorExactMatch(t *testing.T) {
	s := NewSet("src/a.txt")

	if !s.HasAncestor("src/a.txt") {
		t.Fatalf("expected exact match to be visible")
	}
}

func TestHasAncestorDirectoryPrefix(t *testing.T) {
	s := NewSet("lib")

	cases := []struct {
		path string
		want bool
	}{
		{"lib/x.go", true},
		{"lib/sub/y.go", true},
		{"lib", true},
		{"libx", false},   // not a "/"-delimited descendant
		{"lib2/x.go", false},
		{"other", false},
	}

	for _, c := range cases {
		if got := s.HasAncestor(c.path); got != c.want {
			t.Errorf("HasAncestor(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestHasAncestorMultipleCandidates(t *testing.T) {
	s := NewSet("a", "a/b", "a/b/c")

	if !s.HasAncestor("a/b/c/d.txt") {
		t.Fatalf("expected descendant of deepest visible ancestor to match")
	}

	if s.HasAncestor("b/anything") {
		t.Fatalf("did not expect unrelated path to match")
	}
}

func TestHasAncestorEmptySet(t *testing.T) {
	s := NewSet()
	if s.HasAncestor("anything") {
		t.Fatalf("empty set must not report ancestors")
	}
}
