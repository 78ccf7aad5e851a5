package daemon

import "golang.org/x/sys/unix"

// readdirnames lists the names in the directory referenced by dfd,
// skipping "." and "..". Used by FS.OpenDir to enumerate a projected
// workspace directory before filtering by job policy.
func readdirnames(dfd int) ([]string, error) {
	var names []string

	buf := make([]byte, 4096)

	for {
		n, err := unix.ReadDirent(dfd, buf)
		if err != nil {
			return nil, err
		}

		if n == 0 {
			break
		}

		var raw []string

		_, _, raw = unix.ParseDirent(buf[:n], -1, raw)

		for _, name := range raw {
			if name == "." || name == ".." {
				continue
			}

			names = append(names, name)
		}
	}

	return names, nil
}

// removeRecursive deletes rel (file, empty directory, or a directory
// tree) anchored at rootFD. It implements the clobber-on-create half of
// spec §4.1.3 rule 3: a create/mkdir that lands on a pre-existing,
// unclaimed workspace entry removes it first, silently, exactly as the
// original daemon's first touch of a path did.
func removeRecursive(rootFD int, rel string) error {
	var st unix.Stat_t

	if err := unix.Fstatat(rootFD, rel, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		if err == unix.ENOENT {
			return nil
		}

		return err
	}

	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return unix.Unlinkat(rootFD, rel, 0)
	}

	dfd, err := unix.Openat(rootFD, rel, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return err
	}

	names, err := readdirnames(dfd)

	unix.Close(dfd)

	if err != nil {
		return err
	}

	for _, name := range names {
		if err := removeRecursive(rootFD, rel+"/"+name); err != nil {
			return err
		}
	}

	return unix.Unlinkat(rootFD, rel, unix.AT_REMOVEDIR)
}
