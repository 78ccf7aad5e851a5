package daemon

import (
	"sync"
	"time"
)

// shutdownState is one of the four states spec §4.3 names.
type shutdownState int

const (
	stateRunning shutdownState = iota
	stateIdleArmed
	stateUnmountTrying
	stateLinger
)

// Unmounter performs the platform unmount of the daemon's mount point. It
// is a small seam so tests can substitute a fake without touching a real
// FUSE mount; Mount wires the real go-fuse server's Unmount.
type Unmounter interface {
	// Unmount attempts to unmount the filesystem. A nil error means the
	// mount point is gone; a non-nil error means it is still mounted
	// (spec §4.3: "if the mount point still exists; re-fork").
	Unmount() error
}

// shutdownController implements spec §4.3's state machine.
//
// The FUSE dispatch goroutine calls arm/disarm synchronously from inside
// VFS callbacks (spec §8 property 7: the timer must be armed within the
// same event-loop turn the idle predicate becomes true). The linger timer
// itself necessarily fires on a different goroutine (Go has no per-thread
// itimer+signal story equivalent to the C original's setitimer/SIGALRM on
// the FUSE thread); this is the one place this package uses a mutex,
// guarding only this small struct — Job and Context.jobs remain
// lock-free, touched exclusively from the FUSE dispatch goroutine (spec
// §9's design note: model the timer as a message delivered to the event
// loop, here realized as a channel send the owning goroutine drains).
type shutdownController struct {
	mu sync.Mutex

	state   shutdownState
	attempt int
	maxAttempt int
	linger  time.Duration

	timer *time.Timer
	unmounter Unmounter

	// events carries state-change notifications for observers (tests).
	// It is never closed, and a notification is dropped when it is full;
	// the decision to exit is delivered through exitCodeCh instead.
	events chan shutdownState
	// exitCode is set once the controller decides the process must
	// terminate (successful unmount → 0; exhausted retries → non-zero,
	// spec §4.3's "operator-visible failure").
	exitCode   int
	exitCodeCh chan int
}

func newShutdownController(c *Context, linger time.Duration, maxAttempt int) *shutdownController {
	return &shutdownController{
		state:      stateRunning,
		linger:     linger,
		maxAttempt: maxAttempt,
		events:     make(chan shutdownState, 16),
		exitCodeCh: make(chan int, 1),
	}
}

// SetUnmounter wires the real unmount implementation once the FUSE server
// is mounted. Must be called before any job activity that could arm the
// timer.
func (s *shutdownController) SetUnmounter(u Unmounter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unmounter = u
}

// Events exposes state transitions for observers.
func (s *shutdownController) Events() <-chan shutdownState { return s.events }

// ExitCode blocks until the controller decides to exit and returns the
// process exit status (spec §4.3's terminal outcomes).
func (s *shutdownController) ExitCode() int { return <-s.exitCodeCh }

func (s *shutdownController) notify(st shutdownState) {
	select {
	case s.events <- st:
	default:
	}
}

// arm transitions RUNNING → IDLE_ARMED and starts the linger timer (spec
// §4.3, §8 property 7). No-op if already armed or past the point of no
// return.
func (s *shutdownController) arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateRunning {
		return
	}

	s.state = stateIdleArmed
	s.timer = time.AfterFunc(s.linger, s.fire)
	s.notify(stateIdleArmed)
}

// disarm cancels the timer, promoting IDLE_ARMED → RUNNING (spec §4.3:
// "A cancellation of the exit is permitted only while no unmount attempt
// has yet been made"). Once an unmount attempt has started, disarm is a
// no-op: "UNMOUNT_TRY_n → RUNNING is impossible."
func (s *shutdownController) disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != stateIdleArmed {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.state = stateRunning
	s.notify(stateRunning)
}

// unmountStarted reports whether the point of no return has passed (spec
// §4.1.4: a .l.K create during this window must be refused).
func (s *shutdownController) unmountStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == stateUnmountTrying || s.state == stateLinger
}

// fire implements IDLE_ARMED → UNMOUNT_TRY_1 (spec §4.3).
func (s *shutdownController) fire() {
	s.mu.Lock()
	if s.state != stateIdleArmed {
		s.mu.Unlock()
		return
	}

	s.state = stateUnmountTrying
	s.attempt = 1
	s.mu.Unlock()

	s.notify(stateUnmountTrying)
	s.tryUnmount()
}

// tryUnmount runs one unmount attempt on a new goroutine, which calls the
// configured Unmounter (Mount wires the go-fuse server's Unmount); no
// child process is forked.
func (s *shutdownController) tryUnmount() {
	go func() {
		s.mu.Lock()
		u := s.unmounter
		attempt := s.attempt
		maxAttempt := s.maxAttempt
		s.mu.Unlock()

		var err error
		if u != nil {
			err = u.Unmount()
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if err == nil {
			// Mount point is gone: enter LINGER (spec §4.3) and signal
			// exit status 0 right away. Whether descriptors opened
			// through the mount are still in use is not checked.
			s.state = stateLinger
			s.notify(stateLinger)
			s.signalExit(0)

			return
		}

		if attempt >= maxAttempt {
			s.signalExit(1)
			return
		}

		s.attempt = attempt + 1
		delay := 100 * time.Millisecond << uint(attempt-1)
		s.timer = time.AfterFunc(delay, s.tryUnmount)
	}()
}

func (s *shutdownController) signalExit(code int) {
	select {
	case s.exitCodeCh <- code:
	default:
	}
}
