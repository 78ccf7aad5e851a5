package daemon

// writeInput appends into the input buffer at offset, capped at
// maxInputLen (spec §6's input-buffer size cap, recommended 128 MiB):
// "writes beyond a fixed ceiling ... are silently truncated at the cap."
// Returns the number of bytes actually accepted.
func (j *Job) writeInput(offset int64, p []byte) int {
	if offset < 0 || offset >= int64(j.maxInputLen) {
		return 0
	}

	end := offset + int64(len(p))
	if end > int64(j.maxInputLen) {
		end = int64(j.maxInputLen)
	}

	accepted := int(end - offset)
	if accepted <= 0 {
		return 0
	}

	if int(end) > len(j.inputBuf) {
		grown := make([]byte, end)
		copy(grown, j.inputBuf)
		j.inputBuf = grown
	}

	copy(j.inputBuf[offset:end], p[:accepted])

	return accepted
}

// readInput serves a read of the input buffer (the ".i.K" pseudo-file
// supports read as well as write, spec §4.1.1's table).
func (j *Job) readInput(offset int64, size int) []byte {
	return readByteBuf(j.inputBuf, offset, size)
}

// readOutput serves a read of the finalized output buffer.
func (j *Job) readOutput(offset int64, size int) []byte {
	return readByteBuf(j.outputJSON, offset, size)
}

func readByteBuf(buf []byte, offset int64, size int) []byte {
	if offset < 0 || offset >= int64(len(buf)) {
		return nil
	}

	end := offset + int64(size)
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}

	return buf[offset:end]
}

// closeInput implements spec §4.1.6: on the final close of the input
// channel's last open handle, parse the accumulated buffer into the
// visible set. Parse failures are logged by the caller (spec §7) and add
// nothing to the visible set: parseInputManifest discards any partially
// decoded document.
func (j *Job) closeInput() error {
	m, err := parseInputManifest(j.inputBuf)
	for _, p := range m.Visible {
		if p == "" || p[0] == '/' {
			// Empty / absolute paths are silently ignored (spec §4.1.6):
			// absolute paths are already visible through the real
			// filesystem outside the mount.
			continue
		}

		j.visible.Insert(p)
	}

	return err
}
