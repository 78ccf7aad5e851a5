package daemon

import "encoding/json"

// inputManifest is the shape the daemon cares about when it parses a job's
// input buffer (spec §4.1.6). The launcher writes a document holding only
// "visible" (spec §4.2.2 step 6); any other keys a client might write are
// silently ignored via encoding/json's default unknown-field tolerance.
type inputManifest struct {
	Visible []string `json:"visible"`
}

// parseInputManifest implements spec §4.1.6: parse failures are logged by
// the caller and treated as an empty visible set, never aborting the job.
func parseInputManifest(buf []byte) (*inputManifest, error) {
	var m inputManifest

	if err := json.Unmarshal(buf, &m); err != nil {
		return &inputManifest{}, err
	}

	return &m, nil
}

// Report is the daemon's own classified access report, the content of the
// ".o.K" pseudo-file (spec §4.1.7). It is flat — "ibytes"/"obytes" sit
// alongside "inputs"/"outputs" — unlike the launcher's final merged output
// document (spec §6), which nests process-accounting fields the daemon
// never sees (status, runtime, cputime, membytes) under "usage". The
// launcher is responsible for that merge (spec §4.2.4 step 3).
type Report struct {
	IBytes  uint64   `json:"ibytes"`
	OBytes  uint64   `json:"obytes"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}
