package daemon

import (
	"strings"

	"github.com/jobsandbox/jobfs/internal/pathkey"
)

// Job is the per-job state described in spec §3: a visible set declared by
// the client, the read/wrote sets the daemon observed, the input/output
// JSON buffers, and the three reference counters that keep it alive.
//
// A Job is only ever touched from the daemon's single VFS dispatch
// goroutine (spec §4.1.8, §5), so it needs no internal locking.
type Job struct {
	key string

	visible *pathkey.Set
	read    map[string]struct{}
	wrote   map[string]struct{}

	inputBuf    []byte
	maxInputLen int

	outputJSON []byte

	ibytes, obytes uint64

	livenessUses int
	inputUses    int
	outputUses   int
}

// NewJob creates an empty Job for key, ready for its visible set to be
// populated once the input manifest is parsed (spec §4.1.4, §4.1.6).
func NewJob(key string, maxInputBytes int) *Job {
	return &Job{
		key:         key,
		visible:     pathkey.NewSet(),
		read:        make(map[string]struct{}),
		wrote:       make(map[string]struct{}),
		maxInputLen: maxInputBytes,
	}
}

// Key returns the job's opaque identifier.
func (j *Job) Key() string { return j.key }

// refs reports the sum of the three reference counters (spec §3's erasure
// invariant: a job is erased exactly when all three reach zero).
func (j *Job) refs() int {
	return j.livenessUses + j.inputUses + j.outputUses
}

// Live reports whether the job must be retained.
func (j *Job) Live() bool { return j.refs() > 0 }

// isVisible implements the visible-prefix predicate of spec §3: rel is
// visible if it (or an ancestor directory) is in the declared visible set.
func (j *Job) isVisible(rel string) bool {
	return j.visible.HasAncestor(rel)
}

// isReadable implements spec §4.1.3 rule 1.
func (j *Job) isReadable(rel string) bool {
	if _, ok := j.wrote[rel]; ok {
		return true
	}

	return j.isVisible(rel)
}

// isWritable implements spec §4.1.3 rule 2.
func (j *Job) isWritable(rel string) bool {
	_, ok := j.wrote[rel]
	return ok
}

// isCreatable implements spec §4.1.3 rule 3: creation is always permitted
// for a valid (K, rel); the caller distinguishes "already visible" (create
// conflict, EEXIST) from "needs a clobber of a pre-existing, unclaimed
// workspace entry" separately, since that decision requires a workspace
// stat the Job itself cannot perform.
func (j *Job) isCreatable(rel string) bool { return true }

// markRead records rel as read, per spec §4.1.3 rule 1's "On success, ...
// insert rel into J.read."
//
// A path already in wrote is never also recorded in read: the write-your-
// own-reads invariant (spec §8 property 9) is enforced here rather than
// only at finalization, since finalization only subtracts wrote from read
// for the final report and intermediate invariant checks rely on the sets
// never overlapping.
func (j *Job) markRead(rel string) {
	if _, wrote := j.wrote[rel]; wrote {
		return
	}

	j.read[rel] = struct{}{}
}

// markWrote records rel as written, per spec §4.1.3 rule 3.
func (j *Job) markWrote(rel string) {
	delete(j.read, rel)
	j.wrote[rel] = struct{}{}
}

// forget removes rel from both read and wrote (unlink/rmdir, spec §4.1.3).
func (j *Job) forget(rel string) {
	delete(j.read, rel)
	delete(j.wrote, rel)
}

// moveWithin moves from (and any of its descendants tracked in read/wrote)
// to the to namespace, for an intra-job rename or hardlink (spec §4.1.3
// rule 4). Hardlink callers only want the single-path semantics (no
// descendant walk, since a hardlink target can't have had descendants);
// pass withDescendants=false for that case.
func (j *Job) moveWithin(from, to string, withDescendants bool) {
	j.moveSet(j.read, from, to, withDescendants)
	j.moveSet(j.wrote, from, to, withDescendants)
}

func (j *Job) moveSet(set map[string]struct{}, from, to string, withDescendants bool) {
	if _, ok := set[from]; ok {
		delete(set, from)
		set[to] = struct{}{}
	}

	if !withDescendants {
		return
	}

	prefix := from + "/"

	var matched []string

	for p := range set {
		if strings.HasPrefix(p, prefix) {
			matched = append(matched, p)
		}
	}

	for _, p := range matched {
		delete(set, p)
		set[to+"/"+strings.TrimPrefix(p, prefix)] = struct{}{}
	}
}

// addReadBytes / addWroteBytes accumulate the running totals behind the
// output report's "ibytes"/"obytes" fields (spec §4.1.7).
func (j *Job) addReadBytes(n int)  { j.ibytes += uint64(n) }
func (j *Job) addWroteBytes(n int) { j.obytes += uint64(n) }
