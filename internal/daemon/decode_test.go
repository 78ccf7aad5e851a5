package daemon

import "testing"

func TestSplitKey(t *testing.T) {
	cases := []struct {
		path    string
		key     string
		rel     string
	}{
		{"/k1", "k1", "."},
		{"k1", "k1", "."},
		{"/k1/a.txt", "k1", "a.txt"},
		{"/k1/sub/a.txt", "k1", "sub/a.txt"},
		{"", "", ""},
	}

	for _, c := range cases {
		key, rel := splitKey(c.path)
		if key != c.key || rel != c.rel {
			t.Errorf("splitKey(%q) = (%q, %q), want (%q, %q)", c.path, key, rel, c.key, c.rel)
		}
	}
}

func TestClassifyMarker(t *testing.T) {
	c := &Context{markerName: "wake", jobs: map[string]*Job{}}

	sp := c.classify(".f.wake")
	if sp.kind != specialMarker {
		t.Fatalf("expected specialMarker, got %v", sp.kind)
	}

	if sp := c.classify(".f.other"); sp.kind != specialNone {
		t.Fatalf("expected specialNone for unrecognized marker name, got %v", sp.kind)
	}
}

func TestClassifyJobPseudoFiles(t *testing.T) {
	job := NewJob("abc123", 1024)
	c := &Context{markerName: "wake", jobs: map[string]*Job{"abc123": job}}

	for name, wantKind := range map[string]specialKind{
		".i.abc123": specialInput,
		".o.abc123": specialOutput,
		".l.abc123": specialLiveness,
	} {
		sp := c.classify(name)
		if sp.kind != wantKind {
			t.Errorf("classify(%q).kind = %v, want %v", name, sp.kind, wantKind)
		}

		if sp.job != job {
			t.Errorf("classify(%q).job = %v, want %v", name, sp.job, job)
		}
	}
}

func TestClassifyUnknownJobKey(t *testing.T) {
	c := &Context{markerName: "wake", jobs: map[string]*Job{}}

	sp := c.classify(".i.nosuchjob")
	if sp.kind != specialInput {
		t.Fatalf("expected specialInput kind even for unknown key, got %v", sp.kind)
	}

	if sp.job != nil {
		t.Fatalf("expected nil job for unknown key, got %v", sp.job)
	}
}

func TestClassifyOrdinaryNameIsNotSpecial(t *testing.T) {
	c := &Context{markerName: "wake", jobs: map[string]*Job{}}

	if sp := c.classify("main.go"); sp.kind != specialNone {
		t.Fatalf("expected specialNone for an ordinary name, got %v", sp.kind)
	}

	if sp := c.classify(".hidden"); sp.kind != specialNone {
		t.Fatalf("expected specialNone for a dotfile that isn't 4+ chars with the right shape, got %v", sp.kind)
	}
}
