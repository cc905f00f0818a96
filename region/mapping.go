package region

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/exp/mmap"
)

const compareChunk = 64 * 1024

// IsRealMapping reports whether the loaded bytes match the leading bytes of the
// file backing the region.
//
// Only the overlap of min(LoadedSize, file size) is compared, so a file shorter
// than the snapshot that matches on the overlap still counts as real. With no
// snapshot loaded the metadata must be refreshable, and the empty overlap
// compares equal.
func (s *Snapshot) IsRealMapping() (bool, error) {
	if s.data == nil {
		if err := s.FillInfo(); err != nil {
			s.log.Debugln("Not loaded!")
			return false, err
		}
	}
	if err := s.LoadMappedName(); err != nil {
		return false, err
	}

	st, err := os.Stat(s.mappedName)
	if err != nil {
		s.log.Debugln("Could not open file!", s.mappedName, err)
		return false, fmt.Errorf("%w: %w", ErrBackingFileUnavailable, err)
	}
	if !st.Mode().IsRegular() {
		return false, fmt.Errorf("%w: %s is not a regular file", ErrBackingFileUnavailable, s.mappedName)
	}
	if st.Size() == 0 {
		// an empty file cannot be mapped
		return false, fmt.Errorf("%w: %s is empty", ErrMappingFailure, s.mappedName)
	}

	view, err := mmap.Open(s.mappedName)
	if err != nil {
		s.log.Debugln("Could not create mapping!", s.mappedName, err)
		return false, fmt.Errorf("%w: %w", ErrMappingFailure, err)
	}
	defer view.Close()

	overlap := view.Len()
	if len(s.data) < overlap {
		overlap = len(s.data)
	}

	chunk := make([]byte, compareChunk)
	for off := 0; off < overlap; off += compareChunk {
		n := overlap - off
		if n > compareChunk {
			n = compareChunk
		}
		if _, err := view.ReadAt(chunk[:n], int64(off)); err != nil {
			return false, fmt.Errorf("%w: reading %s: %w", ErrMappingFailure, s.mappedName, err)
		}
		if !bytes.Equal(chunk[:n], s.data[off:off+n]) {
			return false, nil
		}
	}

	return true, nil
}
