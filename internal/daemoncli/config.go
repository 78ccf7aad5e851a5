package daemoncli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// fileConfig is the optional "<mount-point>.jobfs.jsonc" options file
// (SPEC_FULL.md §1.2). All fields are pointers so an absent key leaves the
// built-in default (or a higher-precedence CLI/env value) untouched.
type fileConfig struct {
	LingerSeconds      *int  `json:"lingerSeconds,omitempty"`
	MaxInputBytes      *int  `json:"maxInputBytes,omitempty"`
	MaxUnmountAttempts *int  `json:"maxUnmountAttempts,omitempty"`
	Trace              *bool `json:"trace,omitempty"`
}

// loadFileConfig reads and parses path, tolerating JSON-with-comments via
// hujson the same way the teacher's config.go standardizes .jsonc before
// decoding (calvinalkan-agent-sandbox's parseConfigFile). A missing file is
// not an error: the options file is entirely optional.
func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileConfig{}, nil
		}

		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var cfg fileConfig

	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return &cfg, nil
}

// resolvedOptions is what Run hands to daemon.NewContext once CLI flags,
// the JOBFS_DEBUG_FUSE environment variable, and the options file have been
// layered (CLI > env > file > built-in default, SPEC_FULL.md §1.2).
type resolvedOptions struct {
	Linger             time.Duration
	LogPath            string
	Trace              bool
	MaxInputBytes      int
	MaxUnmountAttempts int
}

func resolveOptions(mountPoint string, flags *cliFlags, env map[string]string) (resolvedOptions, error) {
	opts := resolvedOptions{
		Linger:             60 * time.Second,
		LogPath:            mountPoint + ".log",
		MaxInputBytes:      128 << 20,
		MaxUnmountAttempts: 8,
	}

	fcfg, err := loadFileConfig(mountPoint + ".jobfs.jsonc")
	if err != nil {
		return resolvedOptions{}, err
	}

	if fcfg.LingerSeconds != nil {
		opts.Linger = time.Duration(*fcfg.LingerSeconds) * time.Second
	}

	if fcfg.MaxInputBytes != nil {
		opts.MaxInputBytes = *fcfg.MaxInputBytes
	}

	if fcfg.MaxUnmountAttempts != nil {
		opts.MaxUnmountAttempts = *fcfg.MaxUnmountAttempts
	}

	if fcfg.Trace != nil {
		opts.Trace = *fcfg.Trace
	}

	if env["JOBFS_DEBUG_FUSE"] != "" {
		opts.Trace = true
	}

	if flags.lingerSet {
		opts.Linger = flags.linger
	}

	if flags.logSet {
		opts.LogPath = flags.log
	}

	if flags.debug {
		opts.Trace = true
	}

	if flags.maxInputBytesSet {
		opts.MaxInputBytes = flags.maxInputBytes
	}

	return opts, nil
}
