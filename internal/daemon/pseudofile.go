package daemon

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"golang.org/x/sys/unix"
)

// inputFile backs a job's ".i.K" pseudo-file (spec §4.1.1). Writes append
// into the job's capped input buffer; on the final close the accumulated
// buffer is parsed into the visible set (spec §4.1.6).
type inputFile struct {
	nodefs.File

	c   *Context
	job *Job
}

func newInputFile(c *Context, job *Job) nodefs.File {
	return &inputFile{File: nodefs.NewDefaultFile(), c: c, job: job}
}

func (f *inputFile) String() string { return "inputFile" }

func (f *inputFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	if f.job == nil {
		return nil, fuse.ENOENT
	}

	return fuse.ReadResultData(f.job.readInput(off, len(dest))), fuse.OK
}

func (f *inputFile) Write(data []byte, off int64) (uint32, fuse.Status) {
	if f.job == nil {
		return 0, fuse.ENOENT
	}

	return uint32(f.job.writeInput(off, data)), fuse.OK
}

func (f *inputFile) GetAttr(out *fuse.Attr) fuse.Status {
	if f.job == nil {
		return fuse.ENOENT
	}

	out.Mode = unix.S_IFREG | 0o644
	out.Size = uint64(len(f.job.inputBuf))

	return fuse.OK
}

func (f *inputFile) Release() {
	if f.job == nil {
		return
	}

	last := f.job.inputUses == 1
	f.c.releaseJobInput(f.job)

	if last {
		if err := f.job.closeInput(); err != nil {
			f.c.log.Warn().Err(err).Str("job", f.job.key).Msg("parsing input manifest")
		}
	}
}

// outputFile backs a job's ".o.K" pseudo-file: the finalized, immutable
// report (spec §4.1.7). fs.go only opens it once the job exists and its
// report has been finalized, so reads always see the finished report.
type outputFile struct {
	nodefs.File

	c   *Context
	job *Job
}

func newOutputFile(c *Context, job *Job) nodefs.File {
	return &outputFile{File: nodefs.NewDefaultFile(), c: c, job: job}
}

func (f *outputFile) String() string { return "outputFile" }

func (f *outputFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	if f.job == nil || !f.job.finalized() {
		return nil, fuse.ENOENT
	}

	return fuse.ReadResultData(f.job.readOutput(off, len(dest))), fuse.OK
}

func (f *outputFile) GetAttr(out *fuse.Attr) fuse.Status {
	if f.job == nil || !f.job.finalized() {
		return fuse.ENOENT
	}

	out.Mode = unix.S_IFREG | 0o444
	out.Size = uint64(len(f.job.outputJSON))

	return fuse.OK
}

func (f *outputFile) Release() {
	if f.job != nil {
		f.c.releaseJobOutput(f.job)
	}
}

// livenessFile backs a job's ".l.K" pseudo-file. Opening it (creating it,
// for a new key) is what keeps a job alive; a client probes with a write
// to force finalization before reading ".o.K", and that write always
// fails since the handle carries no payload (spec §4.1.1, §4.1.7).
type livenessFile struct {
	nodefs.File

	c   *Context
	job *Job
}

func newLivenessFile(c *Context, job *Job) nodefs.File {
	return &livenessFile{File: nodefs.NewDefaultFile(), c: c, job: job}
}

func (f *livenessFile) String() string { return "livenessFile" }

func (f *livenessFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	return fuse.ReadResultData(nil), fuse.OK
}

// Write always fails with ENOSPC (spec §4.1.1, §4.1.7): the handle exists
// only to be probed, and finalize is idempotent, so triggering it here is
// safe even if the client retries the failing write.
func (f *livenessFile) Write(data []byte, off int64) (uint32, fuse.Status) {
	if f.job != nil {
		f.job.finalize()
	}

	return 0, fuse.Status(unix.ENOSPC)
}

func (f *livenessFile) GetAttr(out *fuse.Attr) fuse.Status {
	out.Mode = unix.S_IFREG | 0o444
	return fuse.OK
}

func (f *livenessFile) Release() {
	if f.job != nil {
		f.c.releaseJobLiveness(f.job)
	}
}

// markerFile backs the daemon-alive ".f.<name>" pseudo-file (spec
// §4.1.1): clients poll for its existence, and each open bumps the
// global reference counter that the exit-arming predicate watches.
type markerFile struct {
	nodefs.File

	c *Context
}

func newMarkerFile(c *Context) nodefs.File {
	return &markerFile{File: nodefs.NewDefaultFile(), c: c}
}

func (f *markerFile) String() string { return "markerFile" }

func (f *markerFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	return fuse.ReadResultData(nil), fuse.OK
}

func (f *markerFile) GetAttr(out *fuse.Attr) fuse.Status {
	out.Mode = unix.S_IFREG | 0o444
	now := time.Now()
	out.SetTimes(&now, &now, &now)

	return fuse.OK
}

func (f *markerFile) Release() {
	f.c.closeMarker()
}
