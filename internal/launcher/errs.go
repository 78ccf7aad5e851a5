package launcher

import "errors"

// ErrConnectTimeout is returned when the exponential back-off budget is
// exhausted without ever observing the daemon marker (spec §4.2.2 step
// 3, §7 "Launcher connect timeout").
var ErrConnectTimeout = errors.New("launcher: could not contact daemon")
