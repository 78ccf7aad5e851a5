// Command jobfs is a multicall binary for operators who prefer a single
// installed executable (SPEC_FULL.md §0, §2.3): invoked as "jobfs-daemon"
// or "jobfs-run" (typically via a symlink, the install convention the
// teacher's multicall.go dispatches the same way for wrapped commands),
// it behaves exactly like that binary. Invoked as plain "jobfs", it
// exposes the same behavior through a small cobra subcommand tree plus a
// "check" command with no equivalent standalone binary.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jobsandbox/jobfs/internal/daemoncli"
	"github.com/jobsandbox/jobfs/internal/launchercli"
	"github.com/spf13/cobra"
)

func main() {
	if dispatchMulticall() {
		return
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jobfs:", err)
		os.Exit(1)
	}
}

// dispatchMulticall implements the argv0-sniffing half of SPEC_FULL.md
// §2.3, adapted from the teacher's multicall.go: when this binary is
// invoked under the name of one of the two single-purpose binaries
// (typically via a symlink), it behaves exactly as that binary and never
// returns. Returns false when invoked as plain "jobfs" so main falls
// through to cobra's own subcommand parsing.
func dispatchMulticall() bool {
	invoked := filepath.Base(os.Args[0])

	switch invoked {
	case "jobfs-daemon":
		os.Exit(daemoncli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, envMap(), signalChannel()))
		return true
	case "jobfs-run":
		os.Exit(launchercli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, envMap(), signalChannel()))
		return true
	default:
		return false
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "jobfs",
		Short: "jobfs - sandboxing filesystem daemon and job launcher",
		Long: `jobfs projects a filtered, per-job view of a workspace through FUSE and
classifies every access as a read or a write, for build systems that need
to discover a job's true input and output set without hand-maintained
dependency declarations.`,
	}

	root.AddCommand(daemonCmd(), runCmd(), checkCmd())

	return root
}

func daemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "daemon [flags] <mount-point>",
		Short:              "Run the sandbox filesystem daemon (C1)",
		DisableFlagParsing: true,
		RunE: func(_ *cobra.Command, args []string) error {
			fullArgs := append([]string{"jobfs-daemon"}, args...)
			os.Exit(daemoncli.Run(os.Stdin, os.Stdout, os.Stderr, fullArgs, envMap(), signalChannel()))

			return nil
		},
	}

	return cmd
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                "run [flags] <input-json> <output-json>",
		Short:              "Run one sandboxed job through the daemon (C2)",
		DisableFlagParsing: true,
		RunE: func(_ *cobra.Command, args []string) error {
			fullArgs := append([]string{"jobfs-run"}, args...)
			os.Exit(launchercli.Run(os.Stdin, os.Stdout, os.Stderr, fullArgs, envMap(), signalChannel()))

			return nil
		},
	}

	return cmd
}

func checkCmd() *cobra.Command {
	var mount string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a daemon marker is present at a mount point",
		Long: `Detect a live jobfs daemon by its ".f.<name>" marker file, the file
jobfs-run's connect step opens (spec §4.2.2 step 1). This command only
stats the marker and does not open it. Exits 0 if the marker exists, 1
otherwise.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inside, err := isDaemonMarkerPresent(mount)
			if err != nil {
				return err
			}

			if inside {
				fmt.Fprintln(cmd.OutOrStdout(), "daemon running:", mount)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "no daemon marker at:", mount)
			os.Exit(1)

			return nil
		},
	}

	cmd.Flags().StringVar(&mount, "mount", ".", "Mount point to check")

	return cmd
}

// isDaemonMarkerPresent mirrors launcher.Connector.markerPath's naming
// convention (".f." + basename of the mount point) without depending on
// the launcher package's unexported fields.
func isDaemonMarkerPresent(mount string) (bool, error) {
	name := filepath.Join(mount, ".f."+filepath.Base(mount))

	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

func envMap() map[string]string {
	env := make(map[string]string, len(os.Environ()))

	for _, kv := range os.Environ() {
		for i := range kv {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}

	return env
}

func signalChannel() chan os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	return sigCh
}
