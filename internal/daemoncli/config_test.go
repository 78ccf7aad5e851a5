package daemoncli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveOptionsAppliesBuiltInDefaults(t *testing.T) {
	dir := t.TempDir()
	mount := filepath.Join(dir, "mnt")

	opts, err := resolveOptions(mount, &cliFlags{}, nil)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}

	if opts.Linger != 60*time.Second {
		t.Errorf("Linger = %v, want 60s", opts.Linger)
	}

	if opts.LogPath != mount+".log" {
		t.Errorf("LogPath = %q, want %q", opts.LogPath, mount+".log")
	}

	if opts.MaxInputBytes != 128<<20 {
		t.Errorf("MaxInputBytes = %d, want %d", opts.MaxInputBytes, 128<<20)
	}
}

func TestResolveOptionsFileOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	mount := filepath.Join(dir, "mnt")

	cfg := `{
		// comment form exercises hujson.Standardize
		"lingerSeconds": 5,
		"trace": true,
	}`

	if err := os.WriteFile(mount+".jobfs.jsonc", []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := resolveOptions(mount, &cliFlags{}, nil)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}

	if opts.Linger != 5*time.Second {
		t.Errorf("Linger = %v, want 5s", opts.Linger)
	}

	if !opts.Trace {
		t.Error("Trace = false, want true from config file")
	}
}

func TestResolveOptionsCLIFlagOverridesFile(t *testing.T) {
	dir := t.TempDir()
	mount := filepath.Join(dir, "mnt")

	cfg := `{"lingerSeconds": 5}`
	if err := os.WriteFile(mount+".jobfs.jsonc", []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	flags := &cliFlags{linger: 90 * time.Second, lingerSet: true}

	opts, err := resolveOptions(mount, flags, nil)
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}

	if opts.Linger != 90*time.Second {
		t.Errorf("Linger = %v, want 90s (CLI should win over file)", opts.Linger)
	}
}

func TestResolveOptionsEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	mount := filepath.Join(dir, "mnt")

	cfg := `{"trace": false}`
	if err := os.WriteFile(mount+".jobfs.jsonc", []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := resolveOptions(mount, &cliFlags{}, map[string]string{"JOBFS_DEBUG_FUSE": "1"})
	if err != nil {
		t.Fatalf("resolveOptions: %v", err)
	}

	if !opts.Trace {
		t.Error("Trace = false, want true (env should win over file)")
	}
}

func TestLoadFileConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := loadFileConfig(filepath.Join(t.TempDir(), "absent.jsonc"))
	if err != nil {
		t.Fatalf("loadFileConfig: %v", err)
	}

	if cfg.LingerSeconds != nil {
		t.Error("expected zero-value fileConfig for a missing file")
	}
}
