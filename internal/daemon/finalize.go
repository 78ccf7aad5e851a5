package daemon

import (
	"encoding/json"
	"sort"
	"strings"
)

// fuseHiddenPrefix marks kernel rename-on-remove artifacts (spec §4.1.7,
// testable property 4): "If you delete a file that an application still
// holds open, the kernel renames it to .fuse_hiddenXXXXXXXX instead of
// actually unlinking it." Such names must never surface in a report.
const fuseHiddenPrefix = ".fuse_hidden"

// isHidden reports whether rel's last path component is a fuse_hidden
// artifact.
func isHidden(rel string) bool {
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}

	return strings.HasPrefix(base, fuseHiddenPrefix)
}

// finalize builds j's output report the first time it is called (spec
// §4.1.7: "the daemon synthesizes J.output" on the first write to .l.K,
// and thereafter it is immutable). Calling finalize again is a no-op that
// returns the previously computed bytes.
func (j *Job) finalize() []byte {
	if j.outputJSON != nil {
		return j.outputJSON
	}

	inputs := make([]string, 0, len(j.read))

	for p := range j.read {
		if _, wrote := j.wrote[p]; wrote {
			// read ∩ wrote = ∅ at finalization (spec §3 invariant, §8
			// property 1); wrote always wins since it reflects the
			// job's final claim on the path.
			continue
		}

		inputs = append(inputs, p)
	}

	sort.Strings(inputs)

	outputs := make([]string, 0, len(j.wrote))

	for p := range j.wrote {
		if isHidden(p) {
			continue
		}

		outputs = append(outputs, p)
	}

	sort.Strings(outputs)

	report := Report{
		IBytes:  j.ibytes,
		OBytes:  j.obytes,
		Inputs:  inputs,
		Outputs: outputs,
	}

	encoded, err := json.Marshal(report)
	if err != nil {
		// Report only contains strings and uints; Marshal cannot fail
		// here. Fall back to an empty object rather than panicking, so a
		// logic error in this package degrades to a client-visible empty
		// report instead of crashing the daemon for every other job.
		encoded = []byte(`{"ibytes":0,"obytes":0,"inputs":[],"outputs":[]}`)
	}

	j.outputJSON = encoded

	return encoded
}

// finalized reports whether finalize has already run.
func (j *Job) finalized() bool { return j.outputJSON != nil }
