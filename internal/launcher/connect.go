package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"
)

// connectInitialBackoff and connectMaxDoublings implement spec §4.2.2
// step 2's "sleep with exponential back-off (10 ms doubled each attempt,
// capped at a small multi-attempt budget — conventionally 12 doublings)".
const (
	connectInitialBackoff = 10 * time.Millisecond
	connectMaxDoublings   = 12
)

// Connector implements spec §4.2.2: detect a running daemon via its
// marker file, or fork one and wait for it to come up.
type Connector struct {
	// MountPath is the daemon's mount point (spec §4.1.1's
	// "<workspace>/<mount-dir>").
	MountPath string
	// DaemonName is the marker suffix (".f.<name>"), conventionally the
	// mount directory's basename.
	DaemonName string
	// DaemonBinary is the path to the daemon executable to fork when no
	// marker is found.
	DaemonBinary string
	// LingerTimeout is passed to a newly forked daemon.
	LingerTimeout time.Duration
	// Trace forwards JOBFS_DEBUG_FUSE=1 to a daemon this Connector
	// forks (spec §6's trace toggle).
	Trace bool
}

func (c *Connector) markerPath() string {
	return filepath.Join(c.MountPath, ".f."+c.DaemonName)
}

// Connect implements spec §4.2.2 steps 1-3. The returned *os.File is the
// open marker descriptor (step 1's "if opening it succeeds, the daemon
// is alive"); the caller closes it once the liveness file is created
// (step 5).
func (c *Connector) Connect(ctx context.Context) (*os.File, error) {
	if f, err := os.Open(c.markerPath()); err == nil {
		return f, nil
	}

	if err := c.forkDaemon(); err != nil {
		return nil, fmt.Errorf("launcher: starting daemon: %w", err)
	}

	backoff := connectInitialBackoff

	for attempt := 0; attempt < connectMaxDoublings; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		if f, err := os.Open(c.markerPath()); err == nil {
			return f, nil
		}

		backoff *= 2
	}

	return nil, ErrConnectTimeout
}

// forkDaemon implements spec §4.2.2 step 2's fork and §3's supplemented
// "daemon double-fork + setsid daemonization": the child detaches into
// its own session via Setsid so it outlives this launcher process, and
// the launcher does not wait for it.
func (c *Connector) forkDaemon() error {
	args := []string{"--linger", c.LingerTimeout.String(), c.MountPath}

	cmd := exec.Command(c.DaemonBinary, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	cmd.Env = os.Environ()
	if c.Trace {
		cmd.Env = append(cmd.Env, "JOBFS_DEBUG_FUSE=1")
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	// Detach fully: we neither wait for this process nor keep it as a
	// child we must reap. It lives on as an orphan reparented to init
	// (or the nearest subreaper), which is the point of Setsid here.
	return cmd.Process.Release()
}
