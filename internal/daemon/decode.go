package daemon

import "strings"

// specialKind tags the four pseudo-file roles of spec §4.1.1.
type specialKind byte

const (
	specialNone specialKind = iota
	specialInput
	specialOutput
	specialLiveness
	specialMarker
)

// special describes a decoded special-file reference. Job is nil for
// specialMarker (the well-known daemon-alive marker is not job-scoped) and
// for an unrecognized job key (the reference names no live job).
type special struct {
	kind specialKind
	job  *Job
}

// classify implements spec §4.1.2's special-file recognition: names of the
// form ".i.K", ".o.K", ".l.K" address per-job pseudo-files; ".f.<name>"
// addresses the daemon-alive marker, where <name> is the daemon's
// configured name (conventionally the mount directory's basename, "wake"
// in the original).
//
// name is a single path component (no "/"), as found directly under the
// daemon's mount root.
func (c *Context) classify(name string) special {
	if len(name) < 4 || name[0] != '.' || name[2] != '.' {
		return special{}
	}

	kindCh := name[1]
	rest := name[3:]

	if kindCh == 'f' {
		if rest == c.markerName {
			return special{kind: specialMarker}
		}

		return special{}
	}

	var kind specialKind

	switch kindCh {
	case 'i':
		kind = specialInput
	case 'o':
		kind = specialOutput
	case 'l':
		kind = specialLiveness
	default:
		return special{}
	}

	job, ok := c.jobs[rest]
	if !ok {
		return special{kind: kind}
	}

	return special{kind: kind, job: job}
}

// splitKey implements spec §4.1.2's path decoding for ordinary (non-root,
// non-special) paths: K is the first component after the mount root, rel
// is the remainder or "." if only K was given.
//
// rel is returned without a leading "/". Callers must still check whether
// K names a known job before trusting rel.
func splitKey(path string) (key, rel string) {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return "", ""
	}

	i := strings.IndexByte(path, '/')
	if i < 0 {
		return path, "."
	}

	return path[:i], path[i+1:]
}
