// Package daemon implements the sandbox daemon (spec §4.1) and its
// shutdown/handover controller (spec §4.3): a user-space filesystem,
// mounted below a workspace, that projects a filtered per-job view of
// that workspace and classifies every access as a read or a write.
//
// The daemon's jobs mapping, per-job sets, and per-job buffers are
// mutated only from VFS callbacks, and go-fuse is configured to dispatch
// those callbacks from a single goroutine (SingleThreaded: true — see
// Mount in mount.go), so no package-level lock is required (spec §4.1.8,
// §5, §9).
package daemon

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Options configures a Context.
type Options struct {
	// WorkspaceRoot is the directory the daemon projects (spec §3's
	// "root file descriptor" anchor).
	WorkspaceRoot string
	// MarkerName is the daemon name used in the well-known ".f.<name>"
	// marker (spec §4.1.1), conventionally the mount directory's name.
	MarkerName string
	// MaxInputBytes caps each job's input manifest buffer (spec §6).
	MaxInputBytes int
	// LingerTimeout is how long the daemon waits, once idle, before
	// attempting to unmount (spec §4.3).
	LingerTimeout time.Duration
	// MaxUnmountAttempts bounds the shutdown retry loop (spec §4.3).
	MaxUnmountAttempts int
	Logger             zerolog.Logger
}

// Context is the daemon's process-wide state (spec §3's "Daemon context").
type Context struct {
	opts Options

	rootFD     int
	markerName string
	jobs       map[string]*Job

	globalUses int

	shutdown *shutdownController

	log zerolog.Logger
}

// NewContext opens the workspace root and constructs an empty Context.
// The returned Context owns rootFD for its entire lifetime (spec §3).
func NewContext(opts Options) (*Context, error) {
	if opts.MaxInputBytes <= 0 {
		opts.MaxInputBytes = 128 << 20
	}

	if opts.LingerTimeout <= 0 {
		opts.LingerTimeout = 60 * time.Second
	}

	if opts.MaxUnmountAttempts <= 0 {
		opts.MaxUnmountAttempts = 8
	}

	fd, err := unix.Open(opts.WorkspaceRoot, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return nil, fmt.Errorf("daemon: opening workspace root %q: %w", opts.WorkspaceRoot, err)
	}

	c := &Context{
		opts:       opts,
		rootFD:     fd,
		markerName: opts.MarkerName,
		jobs:       make(map[string]*Job),
		log:        opts.Logger,
	}

	c.shutdown = newShutdownController(c, opts.LingerTimeout, opts.MaxUnmountAttempts)

	return c, nil
}

// Close releases the workspace root descriptor. Callers must ensure no
// jobs remain live.
func (c *Context) Close() error {
	return unix.Close(c.rootFD)
}

// ExitCode blocks until the shutdown controller has decided the process
// must terminate (spec §4.3's terminal outcomes: successful unmount → 0,
// exhausted retries → non-zero) and returns that status. internal/daemoncli's
// Run is the sole caller.
func (c *Context) ExitCode() int {
	return c.shutdown.ExitCode()
}

// raiseFDLimit implements spec §4.1.9: at startup the daemon sets its
// open-file-descriptor limit to the hard maximum, since each concurrent
// open of a projected file consumes one descriptor on the workspace root.
// platformMaxNoFile caps the request on platforms whose RLIM_INFINITY is
// not a sane value to request outright.
func raiseFDLimit() error {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return fmt.Errorf("daemon: getrlimit NOFILE: %w", err)
	}

	want := rlimit.Max
	if platformMaxNoFile > 0 && want > platformMaxNoFile {
		want = platformMaxNoFile
	}

	if rlimit.Cur >= want {
		return nil
	}

	rlimit.Cur = want

	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return fmt.Errorf("daemon: setrlimit NOFILE to %d: %w", want, err)
	}

	return nil
}

// platformMaxNoFile is a sanity bound for platforms where the hard limit
// is reported as an unusably large sentinel; 0 means "no extra cap".
const platformMaxNoFile = 1 << 20

// arm evaluates the exit-arming predicate after any change to the jobs
// mapping or global counter (spec §3: "exit-arming timer: armed when
// (global counter = 0 AND jobs mapping is empty)", and §8 property 7:
// armed "within the same event-loop turn" the predicate becomes true).
func (c *Context) arm() {
	if c.globalUses == 0 && len(c.jobs) == 0 {
		c.shutdown.arm()
	} else {
		c.shutdown.disarm()
	}
}

// openMarker implements the global-counter half of spec §4.1.1's marker
// row: "Open bumps counter ... On final close: decrement global counter."
func (c *Context) openMarker() {
	c.globalUses++
	c.shutdown.disarm()
}

func (c *Context) closeMarker() {
	c.globalUses--
	c.arm()
}

// createJob implements spec §4.1.4: a job is created implicitly at the
// first create of ".l.K" for a previously unknown key (FS.Create). Returns
// ErrShuttingDown if the shutdown timer has already fired; FS.Create then
// fails the create with ESHUTDOWN.
func (c *Context) createJob(key string) (*Job, error) {
	if c.shutdown.unmountStarted() {
		return nil, ErrShuttingDown
	}

	job := NewJob(key, c.opts.MaxInputBytes)
	c.jobs[key] = job
	job.livenessUses++
	c.shutdown.disarm()

	return job, nil
}

// releaseJobLiveness decrements the liveness counter and erases the job once all
// three counters reach zero (spec §3, §8 property 6).
func (c *Context) releaseJobLiveness(job *Job) {
	job.livenessUses--
	c.maybeErase(job)
}

func (c *Context) releaseJobInput(job *Job) {
	job.inputUses--
	c.maybeErase(job)
}

func (c *Context) releaseJobOutput(job *Job) {
	job.outputUses--
	c.maybeErase(job)
}

func (c *Context) maybeErase(job *Job) {
	if job.Live() {
		return
	}

	delete(c.jobs, job.key)
	c.arm()
}
