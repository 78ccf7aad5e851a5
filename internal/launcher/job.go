package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// Run drives one job end to end (spec §4.2): connect, register, execute,
// disconnect. The job key is the launcher's own pid, per spec §3 ("in
// practice the client uses its own process id as a string").
func Run(ctx context.Context, connector *Connector, spec *JobSpec) (*Report, int, error) {
	if len(spec.Command) == 0 {
		return nil, 1, errors.New("launcher: job spec has no command")
	}

	key := strconv.Itoa(os.Getpid())

	marker, err := connector.Connect(ctx)
	if err != nil {
		return nil, 1, err
	}

	liveFD, err := register(connector.MountPath, key, spec.Visible, marker)
	if err != nil {
		return nil, 1, err
	}

	proc, execErr := execute(ctx, connector.MountPath, key, spec)

	report, discErr := disconnect(connector.MountPath, key, liveFD, proc)
	if discErr != nil {
		return nil, 1, discErr
	}

	if execErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(execErr, &exitErr) {
			return report, 1, execErr
		}
	}

	return report, 0, nil
}

// register implements spec §4.2.2 steps 4-6: create the liveness file
// without close-on-exec, close the marker, and write the visible-set
// manifest.
//
// The liveness descriptor is opened with golang.org/x/sys/unix.Open
// rather than the standard library's os.OpenFile specifically because
// Go's os package marks every descriptor it opens close-on-exec; spec
// §9's design note requires the opposite here, since the whole
// process tree the command forks must inherit this descriptor.
func register(mountPath, key string, visible []string, marker *os.File) (int, error) {
	liveFD, err := unix.Open(filepath.Join(mountPath, ".l."+key), unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o644)
	if err != nil {
		_ = marker.Close()

		return 0, fmt.Errorf("launcher: registering job: %w", err)
	}

	// Step 5: the liveness descriptor alone is now enough to keep the
	// daemon alive.
	_ = marker.Close()

	manifest, err := json.Marshal(struct {
		Visible []string `json:"visible"`
	}{Visible: visible})
	if err != nil {
		_ = unix.Close(liveFD)

		return 0, fmt.Errorf("launcher: encoding visible-set manifest: %w", err)
	}

	inputFD, err := unix.Open(filepath.Join(mountPath, ".i."+key), unix.O_WRONLY, 0)
	if err != nil {
		_ = unix.Close(liveFD)

		return 0, fmt.Errorf("launcher: opening input channel: %w", err)
	}

	if _, err := unix.Write(inputFD, manifest); err != nil {
		_ = unix.Close(inputFD)
		_ = unix.Close(liveFD)

		return 0, fmt.Errorf("launcher: writing visible-set manifest: %w", err)
	}

	if err := unix.Close(inputFD); err != nil {
		_ = unix.Close(liveFD)

		return 0, fmt.Errorf("launcher: closing input channel: %w", err)
	}

	return liveFD, nil
}

// processResult is what execute observes locally about the child
// (spec §4.2.3's "capturing exit status and rusage").
type processResult struct {
	status   int
	runtime  time.Duration
	cputime  time.Duration
	membytes uint64
}

// execute implements spec §4.2.3: chdir into the job's projected
// directory, wire up stdin, and run the command to completion.
func execute(ctx context.Context, mountPath, key string, spec *JobSpec) (processResult, error) {
	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = filepath.Join(mountPath, key, spec.Directory)
	cmd.Env = spec.Environment

	stdin, err := openStdin(spec.Stdin)
	if err != nil {
		return processResult{}, err
	}

	defer stdin.Close()

	cmd.Stdin = stdin

	// The command's own output has no bearing on the access report. With
	// nil writers os/exec connects stdout and stderr to the null device;
	// they are not left closed.
	cmd.Stdout = nil
	cmd.Stderr = nil

	start := time.Now()
	runErr := cmd.Run()
	wall := time.Since(start)

	result := processResult{runtime: wall}

	var exitErr *exec.ExitError

	switch {
	case runErr == nil:
		result.status = 0
	case errors.As(runErr, &exitErr):
		result.status = exitErr.ExitCode()
	default:
		return result, fmt.Errorf("launcher: running command: %w", runErr)
	}

	if cmd.ProcessState != nil {
		if ru, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
			result.cputime = rusageCPUTime(ru)
			result.membytes = uint64(ru.Maxrss) * 1024
		}
	}

	return result, runErr
}

func rusageCPUTime(ru *syscall.Rusage) time.Duration {
	user := time.Duration(ru.Utime.Sec)*time.Second + time.Duration(ru.Utime.Usec)*time.Microsecond
	sys := time.Duration(ru.Stime.Sec)*time.Second + time.Duration(ru.Stime.Usec)*time.Microsecond

	return user + sys
}

func openStdin(path string) (*os.File, error) {
	if path == "" {
		path = os.DevNull
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("launcher: opening stdin %q: %w", path, err)
	}

	return f, nil
}

// disconnect implements spec §4.2.4: probe-write the liveness file,
// read the daemon's report, merge it with locally observed process
// metadata, and release the job.
func disconnect(mountPath, key string, liveFD int, proc processResult) (*Report, error) {
	defer unix.Close(liveFD)

	// Step 1: this write always fails (spec §4.1.7); its side effect —
	// forcing the daemon to finalize the output report — is the point.
	_, _ = unix.Write(liveFD, []byte{0})
	_ = unix.Fsync(liveFD)

	outputFD, err := unix.Open(filepath.Join(mountPath, ".o."+key), unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("launcher: opening output report: %w", err)
	}

	buf, err := readAllFD(outputFD)

	_ = unix.Close(outputFD)

	if err != nil {
		return nil, fmt.Errorf("launcher: reading output report: %w", err)
	}

	daemonRep, err := parseDaemonReport(buf)
	if err != nil {
		return nil, err
	}

	return &Report{
		Usage: Usage{
			Status:   proc.status,
			Runtime:  proc.runtime.Seconds(),
			CPUTime:  proc.cputime.Seconds(),
			MemBytes: proc.membytes,
			InBytes:  daemonRep.IBytes,
			OutBytes: daemonRep.OBytes,
		},
		Inputs:  daemonRep.Inputs,
		Outputs: daemonRep.Outputs,
	}, nil
}
