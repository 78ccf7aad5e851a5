package launcher

import (
	"encoding/json"
	"fmt"

	"golang.org/x/sys/unix"
)

// Usage is the process-accounting half of the launcher's output document
// (spec §6): wall time, CPU time, and peak RSS observed locally, plus the
// daemon's byte counters folded in under the same object.
type Usage struct {
	Status   int     `json:"status"`
	Runtime  float64 `json:"runtime"`
	CPUTime  float64 `json:"cputime"`
	MemBytes uint64  `json:"membytes"`
	InBytes  uint64  `json:"inbytes"`
	OutBytes uint64  `json:"outbytes"`
}

// Report is the launcher's final output document (spec §4.2.4, §6).
type Report struct {
	Usage   Usage    `json:"usage"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

// Encode renders the report as indented JSON for the output-json file.
func (r *Report) Encode() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// daemonReport mirrors the daemon's internal ".o.K" wire format (spec
// §4.1.7): flat ibytes/obytes/inputs/outputs, distinct from the
// launcher's own nested output schema above. Declared independently
// here, rather than imported from internal/daemon, because the two sides
// of this schema are separate processes communicating over a pseudo-file
// protocol, not Go values shared in one address space.
type daemonReport struct {
	IBytes  uint64   `json:"ibytes"`
	OBytes  uint64   `json:"obytes"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

func parseDaemonReport(data []byte) (*daemonReport, error) {
	var r daemonReport

	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("launcher: decoding daemon report: %w", err)
	}

	return &r, nil
}

// readAllFD drains fd into memory. Used for the ".o.K" pseudo-file,
// which unlike a regular file cannot be stat'd for a reliable size ahead
// of time.
func readAllFD(fd int) ([]byte, error) {
	var out []byte

	buf := make([]byte, 64*1024)

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			return nil, err
		}

		if n == 0 {
			return out, nil
		}

		out = append(out, buf[:n]...)
	}
}
