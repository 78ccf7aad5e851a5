package daemoncli

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunShowsUsageOnHelpFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr, []string{"jobfs-daemon", "--help"}, nil, nil)

	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}

	if !strings.Contains(stdout.String(), "jobfs-daemon - sandbox filesystem daemon") {
		t.Errorf("stdout missing usage banner: %q", stdout.String())
	}
}

func TestRunFailsWithoutMountPointArgument(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr, []string{"jobfs-daemon"}, nil, nil)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestRunFailsWithTooManyPositionalArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(strings.NewReader(""), &stdout, &stderr, []string{"jobfs-daemon", "/mnt/a", "/mnt/b"}, nil, nil)

	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

func TestDaemonMarkerNameTakesLastPathComponent(t *testing.T) {
	cases := map[string]string{
		"/workspace/.jobfs": ".jobfs",
		"/workspace/mnt/":    "mnt",
		"relative":           "relative",
	}

	for in, want := range cases {
		if got := daemonMarkerName(in); got != want {
			t.Errorf("daemonMarkerName(%q) = %q, want %q", in, got, want)
		}
	}
}
