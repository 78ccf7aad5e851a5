//go:build linux

package daemon

import (
	"fmt"

	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/hanwen/go-fuse/v2/fuse/nodefs"
	"github.com/hanwen/go-fuse/v2/fuse/pathfs"
)

// Server wraps the mounted go-fuse server. It satisfies Unmounter so the
// shutdown controller can drive the real unmount (spec §4.3) without
// depending on the fuse package directly.
type Server struct {
	raw *fuse.Server
}

// Mount projects c as a FUSE filesystem at mountPoint. Dispatch runs on a
// single goroutine (spec §4.1.8: "All filesystem operation callbacks are
// invoked from a single thread"), which is what lets Job and Context go
// without internal locking.
func Mount(c *Context, mountPoint string, trace bool) (*Server, error) {
	fs := NewFS(c)
	fs.SetDebug(trace)

	nodeFsOpts := &pathfs.PathNodeFsOptions{ClientInodes: false}
	nodeFs := pathfs.NewPathNodeFs(fs, nodeFsOpts)

	connOpts := nodefs.NewOptions()
	connOpts.EntryTimeout = 0
	connOpts.AttrTimeout = 0
	connOpts.NegativeTimeout = 0

	conn := nodefs.NewFileSystemConnector(nodeFs.Root(), connOpts)

	mountOpts := fuse.MountOptions{
		SingleThreaded: true,
		Name:           "jobfs",
		FsName:         c.markerName,
		Debug:          trace,
	}

	raw, err := fuse.NewServer(conn.RawFS(), mountPoint, &mountOpts)
	if err != nil {
		return nil, fmt.Errorf("daemon: mounting %q: %w", mountPoint, err)
	}

	srv := &Server{raw: raw}
	c.shutdown.SetUnmounter(srv)

	return srv, nil
}

// Serve blocks, dispatching FUSE requests until Unmount succeeds.
func (s *Server) Serve() { s.raw.Serve() }

// WaitMount blocks until the initial mount syscall has completed.
func (s *Server) WaitMount() error { return s.raw.WaitMount() }

// Unmount implements Unmounter by asking the kernel directly, rather than
// shelling out to fusermount/umount; go-fuse's Unmount already retries
// the handful of transient failures (e.g. EBUSY immediately after the
// last file descriptor closes).
func (s *Server) Unmount() error {
	return s.raw.Unmount()
}
