// Package launcher implements the per-job client (spec §4.2): it ensures
// a sandbox daemon is running, registers a job's visible set, executes
// the job's command under the daemon-projected view, and merges the
// daemon's classified access report with locally observed process
// metadata into the final document the build engine consumes.
package launcher

import "encoding/json"

// MountOp is one entry of the wire schema's "mount-ops" isolation field
// (spec §6). The base daemon does not implement namespace isolation (see
// DESIGN.md); these fields are parsed so a well-formed input document
// from the upstream engine never fails to decode, but they are not acted
// on.
type MountOp struct {
	Type        string `json:"type"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	ReadOnly    bool   `json:"read-only"`
}

// JobSpec is the launcher's input document (spec §4.2.1, §6): the
// command description consumed by the upstream engine.
type JobSpec struct {
	Command     []string `json:"command"`
	Environment []string `json:"environment"`
	Visible     []string `json:"visible"`
	Directory   string   `json:"directory"`
	Stdin       string   `json:"stdin"`

	// Isolation fields are accepted but ignored by this daemon (spec
	// §6's "optional isolation fields ignored by the base daemon").
	Hostname       string    `json:"hostname,omitempty"`
	Domainname     string    `json:"domainname,omitempty"`
	UserID         *int      `json:"user-id,omitempty"`
	GroupID        *int      `json:"group-id,omitempty"`
	IsolateNetwork bool      `json:"isolate-network,omitempty"`
	MountOps       []MountOp `json:"mount-ops,omitempty"`
}

// ParseJobSpec decodes a job spec from its on-disk JSON form.
func ParseJobSpec(data []byte) (*JobSpec, error) {
	var spec JobSpec

	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, err
	}

	return &spec, nil
}
