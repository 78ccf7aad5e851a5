// Command jobfs-run is C2, the per-job launcher client (spec §4.2): it
// ensures a sandbox daemon is running, registers the job's visible set,
// executes the job's command, and writes the merged access report.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jobsandbox/jobfs/internal/launchercli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	env := make(map[string]string, len(os.Environ()))
	for _, kv := range os.Environ() {
		for i := range kv {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}

	os.Exit(launchercli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh))
}
