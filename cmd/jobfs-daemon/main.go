// Command jobfs-daemon is C1, the sandbox filesystem daemon (spec §4.1,
// §4.3). See cmd/jobfs for a multicall binary that dispatches to this
// behavior without a separate install.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/jobsandbox/jobfs/internal/daemoncli"
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

	os.Exit(daemoncli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, env, sigCh))
}
