package daemon

import "os"

// debugEnvVar enables per-callback FUSE tracing, named after the
// original's own kernel-call trace switch.
const debugEnvVar = "JOBFS_DEBUG_FUSE"

// TraceEnabled reports whether JOBFS_DEBUG_FUSE is set to a non-empty
// value in the process environment. internal/daemoncli does not call it:
// it reads the same variable from its injected environment map, and
// --debug or that variable sets Mount's trace argument and the logger's
// debug level.
func TraceEnabled() bool {
	return os.Getenv(debugEnvVar) != ""
}
