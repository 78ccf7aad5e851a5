package launchercli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunShowsUsageOnHelpFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr, []string{"jobfs-run", "--help"}, nil, nil)

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(stdout.String(), "jobfs-run - sandbox job launcher") {
		t.Errorf("stdout missing usage banner: %q", stdout.String())
	}
}

func TestRunFailsWithWrongArgumentCount(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr, []string{"jobfs-run", "only-one.json"}, nil, nil)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunFailsWhenInputJSONMissing(t *testing.T) {
	dir := t.TempDir()

	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr,
		[]string{"jobfs-run", filepath.Join(dir, "absent-input.json"), filepath.Join(dir, "output.json")},
		nil, nil)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(stderr.String(), "reading input json") {
		t.Errorf("stderr = %q, want a reading-input-json diagnostic", stderr.String())
	}
}

func TestRunFailsWhenInputJSONIsMalformed(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.json")

	if err := os.WriteFile(inputPath, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr,
		[]string{"jobfs-run", inputPath, filepath.Join(dir, "output.json")}, nil, nil)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	if !strings.Contains(stderr.String(), "parsing input json") {
		t.Errorf("stderr = %q, want a parsing-input-json diagnostic", stderr.String())
	}
}
