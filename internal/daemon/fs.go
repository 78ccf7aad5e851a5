//go:build linux

package daemon

import (
	"fmt"
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"
	"golang.org/x/sys/unix"
)

// FS adapts a Context to go-fuse's path-based pathfs.FileSystem interface
// (spec §4.1's mount layout and per-operation policy). It mirrors the C
// original's fuse_operations table one callback at a time: every method
// here decodes its path argument with splitKey/classify and applies the
// readable/writable/creatable rules of spec §4.1.3 before touching the
// workspace through a *at syscall anchored at c.rootFD.
//
// FS embeds pathfs.NewDefaultFileSystem() so unimplemented optional
// operations (Mknod, Listxattr variants this build doesn't special-case,
// etc.) fail safe with ENOSYS rather than panicking.
type FS struct {
	pathfs.FileSystem

	c     *Context
	debug bool
}

// NewFS wraps c as a pathfs.FileSystem.
func NewFS(c *Context) *FS {
	return &FS{FileSystem: pathfs.NewDefaultFileSystem(), c: c}
}

func (fs *FS) String() string { return fmt.Sprintf("jobfs(%s)", fs.c.opts.WorkspaceRoot) }

func (fs *FS) SetDebug(debug bool) { fs.debug = debug }

// resolve decodes name into either a special-file reference or a (job,
// rel) pair, mirroring spec §4.1.2.
type resolved struct {
	sp      special
	job     *Job
	rel     string
	isRoot  bool // name == "" : the daemon mount root itself
	unknown bool // K did not name a known job
}

func (fs *FS) resolve(name string) resolved {
	if name == "" {
		return resolved{isRoot: true}
	}

	// Special files live only directly under the mount root.
	if i := indexByte(name, '/'); i < 0 {
		if sp := fs.c.classify(name); sp.kind != specialNone {
			return resolved{sp: sp}
		}
	}

	key, rel := splitKey(name)
	job, ok := fs.c.jobs[key]

	if !ok {
		return resolved{unknown: true}
	}

	if rel == "." {
		return resolved{job: job, rel: "."}
	}

	return resolved{job: job, rel: rel}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}

	return -1
}

// --- attribute / access operations -----------------------------------

func (fs *FS) GetAttr(name string, ctx *fuse.Context) (*fuse.Attr, fuse.Status) {
	r := fs.resolve(name)

	switch {
	case r.sp.kind == specialOutput:
		if r.sp.job == nil || !r.sp.job.finalized() {
			return nil, fuse.ENOENT
		}

		return fs.specialAttr(r.sp), fuse.OK
	case (r.sp.kind == specialInput || r.sp.kind == specialLiveness) && r.sp.job == nil:
		return nil, fuse.ENOENT
	case r.sp.kind != specialNone:
		return fs.specialAttr(r.sp), fuse.OK
	case r.isRoot || r.unknown && name == "":
		return fs.rootAttr()
	case r.unknown:
		return nil, fuse.ENOENT
	case r.rel == ".":
		return fs.rootAttr()
	}

	if !r.job.isReadable(r.rel) {
		return nil, fuse.ENOENT
	}

	var st unix.Stat_t

	err := unix.Fstatat(fs.c.rootFD, r.rel, &st, unix.AT_SYMLINK_NOFOLLOW)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	attr := &fuse.Attr{}
	statToAttr(&st, attr)

	return attr, fuse.OK
}

func (fs *FS) rootAttr() (*fuse.Attr, fuse.Status) {
	var st unix.Stat_t

	if err := unix.Fstat(fs.c.rootFD, &st); err != nil {
		return nil, fuse.ToStatus(err)
	}

	attr := &fuse.Attr{}
	statToAttr(&st, attr)

	return attr, fuse.OK
}

func (fs *FS) specialAttr(sp special) *fuse.Attr {
	attr := &fuse.Attr{Nlink: 1}

	switch sp.kind {
	case specialInput:
		attr.Mode = unix.S_IFREG | 0o644
		if sp.job != nil {
			attr.Size = uint64(len(sp.job.inputBuf))
		}
	case specialOutput:
		attr.Mode = unix.S_IFREG | 0o444
		if sp.job != nil {
			attr.Size = uint64(len(sp.job.outputJSON))
		}
	case specialLiveness, specialMarker:
		attr.Mode = unix.S_IFREG | 0o444
	}

	return attr
}

func statToAttr(st *unix.Stat_t, attr *fuse.Attr) {
	attr.Ino = st.Ino
	attr.Size = uint64(st.Size)
	attr.Blocks = uint64(st.Blocks)
	attr.Mode = st.Mode
	attr.Nlink = uint32(st.Nlink)
	attr.Owner = fuse.Owner{Uid: st.Uid, Gid: st.Gid}
	attr.Rdev = uint32(st.Rdev)
	attr.Blksize = uint32(st.Blksize)
	attr.SetTimes(statTime(st.Atim), statTime(st.Mtim), statTime(st.Ctim))
}

func statTime(ts unix.Timespec) *time.Time {
	t := time.Unix(ts.Sec, ts.Nsec)
	return &t
}

func (fs *FS) Access(name string, mode uint32, ctx *fuse.Context) fuse.Status {
	r := fs.resolve(name)

	switch r.sp.kind {
	case specialInput:
		if mode&unix.X_OK != 0 {
			return fuse.EACCES
		}

		return fuse.OK
	case specialOutput, specialLiveness, specialMarker:
		if mode&(unix.X_OK|unix.W_OK) != 0 {
			return fuse.EACCES
		}

		return fuse.OK
	}

	if r.isRoot {
		return fuse.OK
	}

	if r.unknown {
		return fuse.ENOENT
	}

	if r.rel == "." {
		return fuse.OK
	}

	if !r.job.isReadable(r.rel) {
		return fuse.ENOENT
	}

	err := unix.Faccessat(fs.c.rootFD, r.rel, mode, 0)

	return fuse.ToStatus(err)
}

func (fs *FS) Readlink(name string, ctx *fuse.Context) (string, fuse.Status) {
	r := fs.resolve(name)
	if r.sp.kind != specialNone || r.isRoot || r.unknown || r.rel == "." {
		return "", fuse.EINVAL
	}

	if !r.job.isReadable(r.rel) {
		return "", fuse.ENOENT
	}

	buf := make([]byte, unix.PathMax)

	n, err := unix.Readlinkat(fs.c.rootFD, r.rel, buf)
	if err != nil {
		return "", fuse.ToStatus(err)
	}

	r.job.markRead(r.rel)

	return string(buf[:n]), fuse.OK
}

// --- directory listing -------------------------------------------------

func (fs *FS) OpenDir(name string, ctx *fuse.Context) ([]fuse.DirEntry, fuse.Status) {
	r := fs.resolve(name)

	if r.sp.kind != specialNone {
		return nil, fuse.ENOTDIR
	}

	if r.isRoot {
		return fs.rootEntries(), fuse.OK
	}

	if r.unknown {
		return nil, fuse.ENOENT
	}

	var (
		dfd int
		err error
	)

	if r.rel == "." {
		dfd, err = unix.Dup(fs.c.rootFD)
	} else if !r.job.isReadable(r.rel) {
		return nil, fuse.ENOENT
	} else {
		dfd, err = unix.Openat(fs.c.rootFD, r.rel, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
	}

	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	defer unix.Close(dfd)

	names, err := readdirnames(dfd)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	entries := make([]fuse.DirEntry, 0, len(names))

	for _, n := range names {
		full := n
		if r.rel != "." {
			full = r.rel + "/" + n
		}

		if !r.job.isReadable(full) {
			continue
		}

		entries = append(entries, fuse.DirEntry{Name: n})
	}

	return entries, fuse.OK
}

// rootEntries implements spec §4.1.5: the marker plus, per live job, K,
// .l.K, .i.K, and (once finalized) .o.K.
func (fs *FS) rootEntries() []fuse.DirEntry {
	entries := []fuse.DirEntry{{Name: ".f." + fs.c.markerName, Mode: unix.S_IFREG}}

	for key, job := range fs.c.jobs {
		entries = append(entries,
			fuse.DirEntry{Name: key, Mode: unix.S_IFDIR},
			fuse.DirEntry{Name: ".l." + key, Mode: unix.S_IFREG},
			fuse.DirEntry{Name: ".i." + key, Mode: unix.S_IFREG},
		)

		if job.finalized() {
			entries = append(entries, fuse.DirEntry{Name: ".o." + key, Mode: unix.S_IFREG})
		}
	}

	return entries
}

// --- create-type operations --------------------------------------------

func (fs *FS) Create(name string, flags uint32, mode uint32, ctx *fuse.Context) (nodefs.File, fuse.Status) {
	r := fs.resolve(name)
	if r.sp.kind == specialLiveness && r.sp.job == nil {
		// First create of ".l.K" for an unknown K registers the job.
		job, err := fs.c.createJob(name[3:])
		if err != nil {
			return nil, fuse.Status(unix.ESHUTDOWN)
		}

		return newLivenessFile(fs.c, job), fuse.OK
	}

	if r.sp.kind != specialNone || r.isRoot {
		return nil, fuse.Status(unix.EEXIST)
	}

	if r.unknown {
		return nil, fuse.ENOENT
	}

	if r.rel == "." {
		return nil, fuse.Status(unix.EEXIST)
	}

	if r.job.isVisible(r.rel) && !r.job.isWritable(r.rel) {
		return nil, fuse.Status(unix.EEXIST)
	}

	openFlags := unix.O_CREAT | unix.O_RDWR | unix.O_NOFOLLOW
	if !r.job.isReadable(r.rel) {
		openFlags |= unix.O_TRUNC
	}

	if !r.job.isWritable(r.rel) && !r.job.isVisible(r.rel) {
		// Pre-existing, unclaimed workspace entry: clobber it first
		// (spec §4.1.3 rule 3).
		_ = removeRecursive(fs.c.rootFD, r.rel)
	}

	fd, err := unix.Openat(fs.c.rootFD, r.rel, openFlags, mode)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	r.job.markWrote(r.rel)

	return newRealFile(fs.c, fd, r.job, r.rel), fuse.OK
}

func (fs *FS) Mkdir(name string, mode uint32, ctx *fuse.Context) fuse.Status {
	r := fs.resolve(name)
	if r.sp.kind != specialNone || r.isRoot {
		return fuse.Status(unix.EEXIST)
	}

	if r.unknown {
		return fuse.ENOENT
	}

	if r.rel == "." {
		return fuse.Status(unix.EEXIST)
	}

	if r.job.isVisible(r.rel) && !r.job.isWritable(r.rel) {
		return fuse.Status(unix.EEXIST)
	}

	if !r.job.isWritable(r.rel) && !r.job.isVisible(r.rel) {
		_ = removeRecursive(fs.c.rootFD, r.rel)
	}

	if err := unix.Mkdirat(fs.c.rootFD, r.rel, mode); err != nil {
		return fuse.ToStatus(err)
	}

	r.job.markWrote(r.rel)

	return fuse.OK
}

func (fs *FS) Symlink(value, linkName string, ctx *fuse.Context) fuse.Status {
	r := fs.resolve(linkName)
	if r.sp.kind != specialNone || r.isRoot {
		return fuse.Status(unix.EEXIST)
	}

	if r.unknown {
		return fuse.ENOENT
	}

	if r.rel == "." {
		return fuse.Status(unix.EEXIST)
	}

	if r.job.isVisible(r.rel) && !r.job.isWritable(r.rel) {
		return fuse.Status(unix.EEXIST)
	}

	if !r.job.isWritable(r.rel) && !r.job.isVisible(r.rel) {
		_ = removeRecursive(fs.c.rootFD, r.rel)
	}

	err := unix.Symlinkat(value, fs.c.rootFD, r.rel)
	if err != nil {
		return fuse.ToStatus(err)
	}

	r.job.markWrote(r.rel)

	return fuse.OK
}

// --- mutating operations on existing state -----------------------------

func (fs *FS) Unlink(name string, ctx *fuse.Context) fuse.Status {
	return fs.removeImpl(name, 0)
}

func (fs *FS) Rmdir(name string, ctx *fuse.Context) fuse.Status {
	return fs.removeImpl(name, unix.AT_REMOVEDIR)
}

func (fs *FS) removeImpl(name string, flags int) fuse.Status {
	r := fs.resolve(name)
	if r.sp.kind != specialNone || r.isRoot {
		return fuse.EACCES
	}

	if r.unknown {
		return fuse.ENOENT
	}

	if r.rel == "." {
		return fuse.EACCES
	}

	if !r.job.isReadable(r.rel) {
		return fuse.ENOENT
	}

	if !r.job.isWritable(r.rel) {
		return fuse.EACCES
	}

	err := unix.Unlinkat(fs.c.rootFD, r.rel, flags)
	if err != nil {
		return fuse.ToStatus(err)
	}

	r.job.forget(r.rel)

	return fuse.OK
}

// Rename implements spec §4.1.3 rule 4 and §4.1.2's "rename-destination"
// special-case: rename is restricted to intra-job moves (EXDEV across
// jobs), and the source's read/wrote entries (plus descendants) migrate
// to the destination namespace.
func (fs *FS) Rename(oldName, newName string, ctx *fuse.Context) fuse.Status {
	if fs.isSpecialOrRoot(newName) {
		return fuse.Status(unix.EEXIST)
	}

	if fs.isSpecialOrRoot(oldName) {
		return fuse.EACCES
	}

	fromKey, fromRel := splitKey(oldName)
	toKey, toRel := splitKey(newName)

	fromJob, ok := fs.c.jobs[fromKey]
	if !ok {
		return fuse.ENOENT
	}

	if fromRel == "." {
		return fuse.EACCES
	}

	if toRel == "." {
		if _, ok := fs.c.jobs[toKey]; !ok {
			return fuse.EACCES
		}

		return fuse.Status(unix.EEXIST)
	}

	if toKey != fromKey {
		return fuse.Status(unix.EXDEV)
	}

	// Rename-source needs only be readable (spec §4.1.3 rule 4, §8
	// scenario S4): it is not itself mutated by the move.
	if !fromJob.isReadable(fromRel) {
		return fuse.ENOENT
	}

	// Rename-destination is create-type (spec §4.1.3 rule 3): EEXIST if
	// already visible, clobber-then-proceed for a pre-existing unclaimed
	// workspace entry.
	if fromJob.isVisible(toRel) && !fromJob.isWritable(toRel) {
		return fuse.Status(unix.EEXIST)
	}

	if !fromJob.isWritable(toRel) && !fromJob.isVisible(toRel) {
		_ = removeRecursive(fs.c.rootFD, toRel)
	}

	err := unix.Renameat(fs.c.rootFD, fromRel, fs.c.rootFD, toRel)
	if err != nil {
		return fuse.ToStatus(err)
	}

	fromJob.moveWithin(fromRel, toRel, true)
	fromJob.markWrote(toRel)

	return fuse.OK
}

// Link implements the hardlink half of spec §4.1.3 rule 4.
func (fs *FS) Link(oldName, newName string, ctx *fuse.Context) fuse.Status {
	if fs.isSpecialOrRoot(newName) {
		return fuse.Status(unix.EEXIST)
	}

	if fs.isSpecialOrRoot(oldName) {
		return fuse.EACCES
	}

	fromKey, fromRel := splitKey(oldName)
	toKey, toRel := splitKey(newName)

	fromJob, ok := fs.c.jobs[fromKey]
	if !ok {
		return fuse.ENOENT
	}

	if fromRel == "." {
		return fuse.EACCES
	}

	if toRel == "." {
		if _, ok := fs.c.jobs[toKey]; !ok {
			return fuse.EACCES
		}

		return fuse.Status(unix.EEXIST)
	}

	if toKey != fromKey {
		return fuse.Status(unix.EXDEV)
	}

	if !fromJob.isReadable(fromRel) {
		return fuse.ENOENT
	}

	if fromJob.isVisible(toRel) && !fromJob.isWritable(toRel) {
		return fuse.Status(unix.EEXIST)
	}

	if !fromJob.isWritable(toRel) && !fromJob.isVisible(toRel) {
		_ = removeRecursive(fs.c.rootFD, toRel)
	}

	err := unix.Linkat(fs.c.rootFD, fromRel, fs.c.rootFD, toRel, 0)
	if err != nil {
		return fuse.ToStatus(err)
	}

	fromJob.markWrote(toRel)

	return fuse.OK
}

func (fs *FS) isSpecialOrRoot(name string) bool {
	r := fs.resolve(name)
	return r.sp.kind != specialNone || r.isRoot
}

func (fs *FS) Chmod(name string, mode uint32, ctx *fuse.Context) fuse.Status {
	return fs.withWritable(name, func(job *Job, rel string) fuse.Status {
		return fuse.ToStatus(unix.Fchmodat(fs.c.rootFD, rel, mode, unix.AT_SYMLINK_NOFOLLOW))
	})
}

func (fs *FS) Chown(name string, uid, gid uint32, ctx *fuse.Context) fuse.Status {
	return fs.withWritable(name, func(job *Job, rel string) fuse.Status {
		return fuse.ToStatus(unix.Fchownat(fs.c.rootFD, rel, int(uid), int(gid), unix.AT_SYMLINK_NOFOLLOW))
	})
}

func (fs *FS) Truncate(name string, size uint64, ctx *fuse.Context) fuse.Status {
	return fs.withWritable(name, func(job *Job, rel string) fuse.Status {
		fd, err := unix.Openat(fs.c.rootFD, rel, unix.O_WRONLY|unix.O_NOFOLLOW, 0)
		if err != nil {
			return fuse.ToStatus(err)
		}

		defer unix.Close(fd)

		if err := unix.Ftruncate(fd, int64(size)); err != nil {
			return fuse.ToStatus(err)
		}

		job.markWrote(rel)

		return fuse.OK
	})
}

func (fs *FS) Utimens(name string, atime, mtime *time.Time, ctx *fuse.Context) fuse.Status {
	return fs.withWritable(name, func(job *Job, rel string) fuse.Status {
		ts := [2]unix.Timespec{toTimespec(atime), toTimespec(mtime)}

		err := unix.UtimesNanoAt(fs.c.rootFD, rel, ts[:], unix.AT_SYMLINK_NOFOLLOW)
		if err != nil {
			return fuse.ToStatus(err)
		}

		job.markWrote(rel)

		return fuse.OK
	})
}

func toTimespec(t *time.Time) unix.Timespec {
	if t == nil {
		return unix.Timespec{Nsec: unix.UTIME_OMIT}
	}

	return unix.NsecToTimespec(t.UnixNano())
}

// withWritable implements the repeated "mutating operation on existing
// state" shape of spec §4.1.3 rule 2: ENOENT if not readable, EACCES if
// readable-but-not-writable, otherwise run fn and mark written.
func (fs *FS) withWritable(name string, fn func(job *Job, rel string) fuse.Status) fuse.Status {
	r := fs.resolve(name)
	if r.sp.kind != specialNone || r.isRoot {
		return fuse.EACCES
	}

	if r.unknown {
		return fuse.ENOENT
	}

	if r.rel == "." {
		return fuse.EACCES
	}

	if !r.job.isReadable(r.rel) {
		return fuse.ENOENT
	}

	if !r.job.isWritable(r.rel) {
		return fuse.EACCES
	}

	return fn(r.job, r.rel)
}

// --- open / statfs -------------------------------------------------------

func (fs *FS) Open(name string, flags uint32, ctx *fuse.Context) (nodefs.File, fuse.Status) {
	r := fs.resolve(name)

	switch r.sp.kind {
	case specialInput:
		fs.c.log.Debug().Str("job", jobKeyOf(r.sp)).Msg("open .i pseudo-file")

		if r.sp.job != nil {
			r.sp.job.inputUses++
		}

		return newInputFile(fs.c, r.sp.job), fuse.OK
	case specialOutput:
		if r.sp.job == nil || !r.sp.job.finalized() {
			return nil, fuse.ENOENT
		}

		r.sp.job.outputUses++

		return newOutputFile(fs.c, r.sp.job), fuse.OK
	case specialLiveness:
		if r.sp.job != nil {
			r.sp.job.livenessUses++
		}

		return newLivenessFile(fs.c, r.sp.job), fuse.OK
	case specialMarker:
		fs.c.openMarker()
		return newMarkerFile(fs.c), fuse.OK
	}

	if r.isRoot || r.unknown || r.rel == "." {
		return nil, fuse.EINVAL
	}

	if !r.job.isReadable(r.rel) {
		return nil, fuse.ENOENT
	}

	fd, err := unix.Openat(fs.c.rootFD, r.rel, unix.O_RDWR|unix.O_NOFOLLOW, 0)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	return newRealFile(fs.c, fd, r.job, r.rel), fuse.OK
}

func jobKeyOf(sp special) string {
	if sp.job == nil {
		return ""
	}

	return sp.job.key
}

func (fs *FS) StatFs(name string) *fuse.StatfsOut {
	r := fs.resolve(name)

	fd := fs.c.rootFD

	switch {
	case r.sp.kind != specialNone, r.isRoot, r.rel == ".":
		// use the root fd as-is
	case r.unknown:
		return nil
	default:
		if !r.job.isReadable(r.rel) {
			return nil
		}

		opened, err := unix.Openat(fs.c.rootFD, r.rel, unix.O_RDONLY|unix.O_NOFOLLOW, 0)
		if err != nil {
			return nil
		}

		defer unix.Close(opened)

		fd = opened
	}

	var st unix.Statfs_t
	if err := unix.Fstatfs(fd, &st); err != nil {
		return nil
	}

	out := &fuse.StatfsOut{}
	out.Blocks = st.Blocks
	out.Bfree = st.Bfree
	out.Bavail = st.Bavail
	out.Files = st.Files
	out.Ffree = st.Ffree
	out.Bsize = uint32(st.Bsize)
	out.NameLen = uint32(st.Namelen)

	return out
}

// --- extended attributes (spec §3 "Supplemented features") -------------

func (fs *FS) GetXAttr(name, attribute string, ctx *fuse.Context) ([]byte, fuse.Status) {
	r := fs.resolve(name)
	if r.sp.kind != specialNone || r.isRoot || r.unknown {
		return nil, fuse.EACCES
	}

	if r.rel != "." && !r.job.isReadable(r.rel) {
		return nil, fuse.ENOENT
	}

	fd, err := fs.openForXattr(r, unix.O_RDONLY)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	defer unix.Close(fd)

	buf := make([]byte, 4096)

	n, err := unix.Fgetxattr(fd, attribute, buf)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	if r.rel != "." {
		r.job.markRead(r.rel)
	}

	return buf[:n], fuse.OK
}

func (fs *FS) ListXAttr(name string, ctx *fuse.Context) ([]string, fuse.Status) {
	r := fs.resolve(name)
	if r.sp.kind != specialNone || r.isRoot || r.unknown {
		return nil, fuse.EACCES
	}

	if r.rel != "." && !r.job.isReadable(r.rel) {
		return nil, fuse.ENOENT
	}

	fd, err := fs.openForXattr(r, unix.O_RDONLY)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	defer unix.Close(fd)

	buf := make([]byte, 4096)

	n, err := unix.Flistxattr(fd, buf)
	if err != nil {
		return nil, fuse.ToStatus(err)
	}

	if r.rel != "." {
		r.job.markRead(r.rel)
	}

	return splitNulTerminated(buf[:n]), fuse.OK
}

func (fs *FS) SetXAttr(name, attr string, data []byte, flags int, ctx *fuse.Context) fuse.Status {
	return fs.withWritable(name, func(job *Job, rel string) fuse.Status {
		fd, err := unix.Openat(fs.c.rootFD, rel, unix.O_WRONLY|unix.O_NOFOLLOW, 0)
		if err != nil {
			return fuse.ToStatus(err)
		}

		defer unix.Close(fd)

		if err := unix.Fsetxattr(fd, attr, data, flags); err != nil {
			return fuse.ToStatus(err)
		}

		job.markWrote(rel)

		return fuse.OK
	})
}

func (fs *FS) RemoveXAttr(name, attr string, ctx *fuse.Context) fuse.Status {
	return fs.withWritable(name, func(job *Job, rel string) fuse.Status {
		fd, err := unix.Openat(fs.c.rootFD, rel, unix.O_WRONLY|unix.O_NOFOLLOW, 0)
		if err != nil {
			return fuse.ToStatus(err)
		}

		defer unix.Close(fd)

		if err := unix.Fremovexattr(fd, attr); err != nil {
			return fuse.ToStatus(err)
		}

		job.markWrote(rel)

		return fuse.OK
	})
}

func (fs *FS) openForXattr(r resolved, flags int) (int, error) {
	if r.rel == "." {
		return unix.Dup(fs.c.rootFD)
	}

	return unix.Openat(fs.c.rootFD, r.rel, flags|unix.O_NOFOLLOW, 0)
}

func splitNulTerminated(buf []byte) []string {
	var out []string

	start := 0

	for i, b := range buf {
		if b == 0 {
			if i > start {
				out = append(out, string(buf[start:i]))
			}

			start = i + 1
		}
	}

	return out
}

func (fs *FS) OnMount(nodeFs *pathfs.PathNodeFs) {}
func (fs *FS) OnUnmount()                        {}
