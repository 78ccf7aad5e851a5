package daemoncli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jobsandbox/jobfs/internal/daemon"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"golang.org/x/sys/unix"
)

const daemonExecutableName = "jobfs-daemon"

// cliFlags mirrors the teacher's run.go "parse then read back with a
// *Set suffix so callers can tell explicit from default" pattern, since
// pflag itself does not distinguish "flag given" from "flag defaulted" on
// a plain value.
type cliFlags struct {
	linger    time.Duration
	lingerSet bool

	log    string
	logSet bool

	debug bool

	maxInputBytes    int
	maxInputBytesSet bool
}

// Run is jobfs-daemon's entry point, isolated from global state so tests
// can drive it with fake stdio and an injected environment (SPEC_FULL.md
// §1.1, mirroring the teacher's Run(stdin, stdout, stderr, args, env,
// sigCh) int shape).
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	if runtime.GOOS != "linux" {
		fprintError(stderr, errors.New("jobfs-daemon requires Linux (uses FUSE via golang.org/x/sys/unix)"))
		return 1
	}

	flags := flag.NewFlagSet(daemonExecutableName, flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.Usage = func() {}
	flags.SetOutput(&strings.Builder{})

	flagHelp := flags.BoolP("help", "h", false, "Show help")
	flagLinger := flags.Duration("linger", 60*time.Second, "Idle linger before attempting unmount")
	flagLog := flags.String("log", "", "Daemon log file path (default: <mount-point>.log)")
	flagDebug := flags.Bool("debug", false, "Trace every VFS callback")
	flagMaxInputBytes := flags.Int("max-input-bytes", 128<<20, "Per-job input manifest cap, in bytes")

	if err := flags.Parse(args[1:]); err != nil {
		fprintError(stderr, err)
		return 1
	}

	if *flagHelp || flags.NArg() != 1 {
		printDaemonUsage(stdout)
		if *flagHelp {
			return 0
		}

		return 1
	}

	mountPoint := flags.Arg(0)

	flagsIn := &cliFlags{
		linger:           *flagLinger,
		lingerSet:        flags.Changed("linger"),
		log:              *flagLog,
		logSet:           flags.Changed("log"),
		debug:            *flagDebug,
		maxInputBytes:    *flagMaxInputBytes,
		maxInputBytesSet: flags.Changed("max-input-bytes"),
	}

	opts, err := resolveOptions(mountPoint, flagsIn, env)
	if err != nil {
		fprintError(stderr, err)
		return 1
	}

	logFile, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fprintError(stderr, fmt.Errorf("opening log file %s: %w", opts.LogPath, err))
		return 1
	}
	defer logFile.Close()

	// Advisory lock held for the daemon's entire running lifetime, released
	// only on entering LINGER (spec §4.3). A second daemon racing to start
	// against the same mount point observes this and backs off.
	if err := unix.Flock(int(logFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		fprintError(stderr, fmt.Errorf("acquiring advisory lock on %s: %w", opts.LogPath, err))
		return 1
	}

	runID := uuid.NewString()
	level := zerolog.InfoLevel
	if opts.Trace {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(logFile).Level(level).With().
		Timestamp().
		Str("run_id", runID).
		Str("mount", mountPoint).
		Logger()

	logger.Info().Msg("jobfs-daemon starting")

	if err := raiseFDLimit(); err != nil {
		logger.Warn().Err(err).Msg("raising fd limit")
	}

	ctx, err := daemon.NewContext(daemon.Options{
		WorkspaceRoot:      filepath.Dir(filepath.Clean(mountPoint)),
		MarkerName:         daemonMarkerName(mountPoint),
		MaxInputBytes:      opts.MaxInputBytes,
		LingerTimeout:      opts.Linger,
		MaxUnmountAttempts: opts.MaxUnmountAttempts,
		Logger:             logger,
	})
	if err != nil {
		fprintError(stderr, err)
		return 1
	}
	defer ctx.Close()

	srv, err := daemon.Mount(ctx, mountPoint, opts.Trace)
	if err != nil {
		fprintError(stderr, err)
		return 1
	}

	go srv.Serve()

	if err := srv.WaitMount(); err != nil {
		fprintError(stderr, fmt.Errorf("waiting for mount: %w", err))
		return 1
	}

	logger.Info().Msg("jobfs-daemon mounted, serving")

	done := make(chan int, 1)
	go func() { done <- ctx.ExitCode() }()

	if sigCh == nil {
		code := <-done
		logger.Info().Int("exit_code", code).Msg("jobfs-daemon exiting")

		return code
	}

	select {
	case code := <-done:
		logger.Info().Int("exit_code", code).Msg("jobfs-daemon exiting")
		return code
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("jobfs-daemon received signal, unmounting")

		if err := srv.Unmount(); err != nil {
			logger.Warn().Err(err).Msg("unmount on signal failed")
		}

		code := <-done
		logger.Info().Int("exit_code", code).Msg("jobfs-daemon exiting")

		return code
	}
}

func daemonMarkerName(mountPoint string) string {
	base := mountPoint
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}

	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '/' {
			return base[i+1:]
		}
	}

	return base
}

// raiseFDLimit is the daemon binary's half of spec §4.1.9: the daemon
// package itself only exposes the syscalls needed to do this from inside
// a single process, so main raises its own limit before mounting.
func raiseFDLimit() error {
	var rlimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlimit); err != nil {
		return err
	}

	if rlimit.Cur >= rlimit.Max {
		return nil
	}

	rlimit.Cur = rlimit.Max

	return unix.Setrlimit(unix.RLIMIT_NOFILE, &rlimit)
}

const daemonUsageHelp = `jobfs-daemon - sandbox filesystem daemon

Usage: jobfs-daemon [flags] <mount-point>

Flags:
  -h, --help                  Show help
      --linger <duration>     Idle linger before attempting unmount (default 60s)
      --log <path>            Daemon log file path (default: <mount-point>.log)
      --debug                 Trace every VFS callback (also: JOBFS_DEBUG_FUSE=1)
      --max-input-bytes <n>   Per-job input manifest cap, in bytes (default 128 MiB)

An optional "<mount-point>.jobfs.jsonc" file may override these defaults;
see SPEC_FULL.md §1.2. CLI flags and JOBFS_DEBUG_FUSE take priority over it.`

func printDaemonUsage(out io.Writer) {
	fprintln(out, daemonUsageHelp)
}

func fprintln(out io.Writer, a ...any) {
	_, _ = fmt.Fprintln(out, a...)
}

func fprintError(out io.Writer, err error) {
	_, _ = fmt.Fprintln(out, "jobfs-daemon: error:", err)
}
