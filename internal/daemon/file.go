package daemon

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"golang.org/x/sys/unix"
)

// realFile backs an ordinary workspace file opened through a job's
// filtered view (spec §4.1). Every operation is anchored at fd, already
// opened via an *at syscall against the Context's root descriptor (spec
// §4.1.9); read and write activity folds back into the owning job's
// read/wrote sets and byte counters (spec §4.1.3, §4.1.7).
type realFile struct {
	nodefs.File

	c   *Context
	fd  int
	job *Job
	rel string
}

func newRealFile(c *Context, fd int, job *Job, rel string) nodefs.File {
	return &realFile{File: nodefs.NewDefaultFile(), c: c, fd: fd, job: job, rel: rel}
}

func (f *realFile) String() string { return "realFile(" + f.rel + ")" }

func (f *realFile) Read(dest []byte, off int64) (fuse.ReadResult, fuse.Status) {
	n, err := unix.Pread(f.fd, dest, int(off))
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	f.job.markRead(f.rel)
	f.job.addReadBytes(n)

	return fuse.ReadResultData(dest[:n]), fuse.OK
}

func (f *realFile) Write(data []byte, off int64) (uint32, fuse.Status) {
	n, err := unix.Pwrite(f.fd, data, int(off))
	if err != nil {
		return 0, fuse.ToStatus(err)
	}

	f.job.markWrote(f.rel)
	f.job.addWroteBytes(n)

	return uint32(n), fuse.OK
}

func (f *realFile) Flush() fuse.Status {
	// dup the fd before closing, matching go-fuse's own loopback example:
	// Flush may be called multiple times (once per dup'd descriptor) while
	// Release is called exactly once.
	newFd, err := unix.Dup(f.fd)
	if err != nil {
		return fuse.ToStatus(err)
	}

	err = unix.Close(newFd)

	return fuse.ToStatus(err)
}

func (f *realFile) Release() {
	_ = unix.Close(f.fd)
}

func (f *realFile) Fsync(flags int) fuse.Status {
	return fuse.ToStatus(unix.Fsync(f.fd))
}

func (f *realFile) Truncate(size uint64) fuse.Status {
	if err := unix.Ftruncate(f.fd, int64(size)); err != nil {
		return fuse.ToStatus(err)
	}

	f.job.markWrote(f.rel)

	return fuse.OK
}

func (f *realFile) Allocate(off uint64, size uint64, mode uint32) fuse.Status {
	if err := unix.Fallocate(f.fd, mode, int64(off), int64(size)); err != nil {
		return fuse.ToStatus(err)
	}

	f.job.markWrote(f.rel)

	return fuse.OK
}

func (f *realFile) GetAttr(out *fuse.Attr) fuse.Status {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return fuse.ToStatus(err)
	}

	statToAttr(&st, out)

	return fuse.OK
}

func (f *realFile) Chown(uid, gid uint32) fuse.Status {
	if err := unix.Fchown(f.fd, int(uid), int(gid)); err != nil {
		return fuse.ToStatus(err)
	}

	f.job.markWrote(f.rel)

	return fuse.OK
}

func (f *realFile) Chmod(perms uint32) fuse.Status {
	if err := unix.Fchmod(f.fd, perms); err != nil {
		return fuse.ToStatus(err)
	}

	f.job.markWrote(f.rel)

	return fuse.OK
}

func (f *realFile) Utimens(atime, mtime *time.Time) fuse.Status {
	ts := [2]unix.Timespec{toTimespec(atime), toTimespec(mtime)}

	if err := unix.UtimesNanoAt(f.c.rootFD, f.rel, ts[:], unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return fuse.ToStatus(err)
	}

	f.job.markWrote(f.rel)

	return fuse.OK
}
