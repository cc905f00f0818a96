package region

import (
	"fmt"

	"memsieve/process"
)

// captureSize returns how many bytes LoadRemoteCopy should take: up to the end
// of the region, or up to the stop address when it lies inside [start, end)
func (s *Snapshot) captureSize() process.ProcessMemorySize {
	end := s.RegionEnd()
	if s.startVA >= end {
		return 0
	}
	size := process.ProcessMemorySize(end - s.startVA)
	if s.stopVA != 0 && s.stopVA >= s.startVA && s.stopVA < end {
		size = process.ProcessMemorySize(s.stopVA - s.startVA)
	}
	return size
}

// LoadRemoteCopy replaces the local copy with fresh bytes read from the target.
//
// A read that returns nothing on a guarded region is retried once, since the
// first touch of a guard page only clears the guard. A partial read still
// counts as success: LoadedSize keeps the declared size and BytesRead tells
// how much was actually copied.
func (s *Snapshot) LoadRemoteCopy() error {
	if !s.IsInfoFilled() {
		if err := s.FillInfo(); err != nil {
			return err
		}
	}

	s.release()

	size := s.captureSize()
	if size == 0 {
		return fmt.Errorf("%w at %s", ErrEmptyRegion, s.startVA.ToString())
	}

	buf, err := s.alloc(int(size))
	if err != nil {
		return fmt.Errorf("%w: %d bytes: %w", ErrSnapshotAlloc, size, err)
	}

	n, err := s.target.ReadMemoryInto(s.startVA, buf)
	if n == 0 && s.Protection().IsGuarded() {
		s.log.Debugln("Guarded page at", s.startVA.ToString(), "trying to read again...")
		n, err = s.target.ReadMemoryInto(s.startVA, buf)
	}

	if n == 0 {
		if ferr := s.free(buf); ferr != nil {
			s.log.Debugln("Could not release snapshot buffer:", ferr)
		}
		s.log.Debugln("Cannot read remote memory at", s.startVA.ToString(), err)
		if err == nil {
			return fmt.Errorf("%w at %s: nothing read", ErrSnapshotRead, s.startVA.ToString())
		}
		return fmt.Errorf("%w at %s: %w", ErrSnapshotRead, s.startVA.ToString(), err)
	}

	if err != nil {
		s.log.Debugln("Partial read at", s.startVA.ToString(), n, "of", size.ToString(), err)
	}

	s.data = buf
	s.loadedSize = size
	s.bytesRead = process.ProcessMemorySize(n)
	return nil
}
