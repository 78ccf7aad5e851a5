package daemon

import "errors"

// ErrShuttingDown is returned when a client tries to create a job's
// liveness file while the daemon's shutdown sequence has already begun
// (spec §4.1.4, §4.3): the client must treat this as "daemon is gone;
// start a successor."
var ErrShuttingDown = errors.New("daemon: shutting down, refusing new job")
