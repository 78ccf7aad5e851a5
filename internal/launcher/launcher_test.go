package launcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseJobSpecRoundTrip(t *testing.T) {
	input := `{
		"command": ["cat", "src/a.txt"],
		"environment": ["PATH=/usr/bin"],
		"visible": ["src/a.txt"],
		"directory": "sub",
		"stdin": ""
	}`

	spec, err := ParseJobSpec([]byte(input))
	require.NoError(t, err)
	require.Equal(t, []string{"cat", "src/a.txt"}, spec.Command)
	require.Equal(t, []string{"src/a.txt"}, spec.Visible)
	require.Equal(t, "sub", spec.Directory)
	require.Empty(t, spec.Stdin)
}

func TestParseJobSpecIgnoresIsolationFieldsGracefully(t *testing.T) {
	input := `{
		"command": ["true"],
		"hostname": "sandboxed",
		"user-id": 1000,
		"mount-ops": [{"type":"bind","source":"/a","destination":"/b","read-only":true}]
	}`

	spec, err := ParseJobSpec([]byte(input))
	require.NoError(t, err)
	require.Equal(t, "sandboxed", spec.Hostname)
	require.NotNil(t, spec.UserID)
	require.Equal(t, 1000, *spec.UserID)
	require.Len(t, spec.MountOps, 1)
}

func TestReportEncodeMatchesWireSchema(t *testing.T) {
	r := &Report{
		Usage: Usage{Status: 0, Runtime: 1.5, CPUTime: 0.2, MemBytes: 4096, InBytes: 10, OutBytes: 20},
		Inputs:  []string{"src/a.txt"},
		Outputs: []string{"out/b.txt"},
	}

	data, err := r.Encode()
	require.NoError(t, err)

	var generic map[string]any

	require.NoError(t, json.Unmarshal(data, &generic))
	require.Contains(t, generic, "usage")
	require.Contains(t, generic, "inputs")
	require.Contains(t, generic, "outputs")

	usage, ok := generic["usage"].(map[string]any)
	require.True(t, ok)
	require.Contains(t, usage, "status")
	require.Contains(t, usage, "runtime")
	require.Contains(t, usage, "cputime")
	require.Contains(t, usage, "membytes")
	require.Contains(t, usage, "inbytes")
	require.Contains(t, usage, "outbytes")
}

func TestParseDaemonReportFlatSchema(t *testing.T) {
	raw := `{"ibytes":5,"obytes":7,"inputs":["a"],"outputs":["b"]}`

	rep, err := parseDaemonReport([]byte(raw))
	require.NoError(t, err)
	require.Equal(t, uint64(5), rep.IBytes)
	require.Equal(t, uint64(7), rep.OBytes)
	require.Equal(t, []string{"a"}, rep.Inputs)
	require.Equal(t, []string{"b"}, rep.Outputs)
}

func TestConnectForkFailurePropagatesError(t *testing.T) {
	dir := t.TempDir()

	c := &Connector{
		MountPath:     dir,
		DaemonName:    "jobfs",
		DaemonBinary:  filepath.Join(dir, "no-such-binary"),
		LingerTimeout: time.Second,
	}

	_, err := c.Connect(context.Background())
	require.Error(t, err)
}

func TestConnectRespectsContextCancellation(t *testing.T) {
	dir := t.TempDir()

	c := &Connector{
		MountPath:     dir,
		DaemonName:    "jobfs",
		DaemonBinary:  "true",
		LingerTimeout: time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := c.Connect(ctx)
	require.Error(t, err)
}

func TestOpenStdinDefaultsToDevNull(t *testing.T) {
	f, err := openStdin("")
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, os.DevNull, f.Name())
}
