package launchercli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jobsandbox/jobfs/internal/launcher"
	flag "github.com/spf13/pflag"
)

const runExecutableName = "jobfs-run"

// Run is jobfs-run's entry point (SPEC_FULL.md §0, §1.1): exactly two
// positional arguments, input-json and output-json, matching spec §6's
// CLI surface exactly. --debug is accepted but does not add a third
// positional argument.
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	flags := flag.NewFlagSet(runExecutableName, flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.Usage = func() {}
	flags.SetOutput(&strings.Builder{})

	flagHelp := flags.BoolP("help", "h", false, "Show help")
	flagDebug := flags.Bool("debug", false, "Trace a daemon this launcher forks")
	flagMount := flags.String("mount", "", "Daemon mount point (default: directory of input-json)")
	flagDaemon := flags.String("daemon-binary", "jobfs-daemon", "Daemon executable to fork if none is running")

	if err := flags.Parse(args[1:]); err != nil {
		fprintError(stderr, err)
		return 1
	}

	if *flagHelp || flags.NArg() != 2 {
		printRunUsage(stdout)
		if *flagHelp {
			return 0
		}

		return 1
	}

	inputPath, outputPath := flags.Arg(0), flags.Arg(1)

	mountPath := *flagMount
	if mountPath == "" {
		mountPath = filepath.Dir(inputPath)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fprintError(stderr, fmt.Errorf("reading input json: %w", err))
		return 1
	}

	spec, err := launcher.ParseJobSpec(data)
	if err != nil {
		fprintError(stderr, fmt.Errorf("parsing input json: %w", err))
		return 1
	}

	connector := &launcher.Connector{
		MountPath:     mountPath,
		DaemonName:    filepath.Base(mountPath),
		DaemonBinary:  *flagDaemon,
		LingerTimeout: 60 * time.Second,
		Trace:         *flagDebug,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	report, code, runErr := launcher.Run(ctx, connector, spec)
	if runErr != nil && report == nil {
		fprintError(stderr, runErr)
		return 1
	}

	encoded, err := report.Encode()
	if err != nil {
		fprintError(stderr, fmt.Errorf("encoding output json: %w", err))
		return 1
	}

	if err := os.WriteFile(outputPath, encoded, 0o644); err != nil {
		fprintError(stderr, fmt.Errorf("writing output json: %w", err))
		return 1
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fprintError(stderr, runErr)
	}

	return code
}

const runUsageHelp = `jobfs-run - sandbox job launcher

Usage: jobfs-run [flags] <input-json> <output-json>

Flags:
  -h, --help                 Show help
      --debug                Trace a daemon this launcher forks
      --mount <dir>          Daemon mount point (default: directory of input-json)
      --daemon-binary <path> Daemon executable to fork if none is running (default "jobfs-daemon")`

func printRunUsage(out io.Writer) {
	fprintln(out, runUsageHelp)
}

func fprintln(out io.Writer, a ...any) {
	_, _ = fmt.Fprintln(out, a...)
}

func fprintError(out io.Writer, err error) {
	_, _ = fmt.Fprintln(out, "jobfs-run: error:", err)
}
