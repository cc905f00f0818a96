// Package region takes snapshots of single memory regions of a foreign process.
//
// A Snapshot borrows a process.Target, caches the metadata of the region that
// contains its start address and owns at most one page-aligned local copy of
// the region bytes. It is not safe for concurrent use; run one Snapshot per
// goroutine instead.
package region

import (
	"errors"
	"fmt"

	"memsieve/debuglog"
	"memsieve/process"
	"memsieve/process/memory_map"

	"github.com/zeebo/xxh3"
)

var (
	// ErrRegionQuery is returned when the region containing the start address cannot be described.
	ErrRegionQuery = errors.New("region query failed")

	// ErrNameResolution is returned when no module or mapped file name is known for the allocation base.
	ErrNameResolution = errors.New("name resolution failed")

	// ErrEmptyRegion is returned when there are no bytes between the start address and the end of the capture.
	ErrEmptyRegion = errors.New("empty region")

	// ErrSnapshotAlloc is returned when the local buffer cannot be allocated.
	ErrSnapshotAlloc = errors.New("snapshot allocation failed")

	// ErrSnapshotRead is returned when nothing could be read from the target.
	ErrSnapshotRead = errors.New("snapshot read failed")

	// ErrBackingFileUnavailable is returned when the file behind a mapping cannot be opened.
	ErrBackingFileUnavailable = errors.New("backing file unavailable")

	// ErrMappingFailure is returned when the backing file cannot be mapped.
	ErrMappingFailure = errors.New("backing file mapping failed")
)

// InfoState tells whether the region metadata has been fetched
type InfoState int

const (
	InfoUnfilled InfoState = iota
	InfoFilled
)

// Option configures a Snapshot
type Option func(*Snapshot)

// WithStop clamps the captured bytes to [start, stop). It has no effect on the
// region metadata and is ignored when stop lies outside the region.
func WithStop(stop process.ProcessMemoryAddress) Option {
	return func(s *Snapshot) {
		s.stopVA = stop
	}
}

// WithLogger sets the diagnostic sink
func WithLogger(l debuglog.Logger) Option {
	return func(s *Snapshot) {
		s.log = l
	}
}

// Snapshot is a view of the memory region containing StartVA in a foreign process
type Snapshot struct {
	target  process.Target
	log     debuglog.Logger
	startVA process.ProcessMemoryAddress
	stopVA  process.ProcessMemoryAddress

	state InfoState
	info  memory_map.MemoryMapItem

	moduleName string
	mappedName string

	data       []byte
	loadedSize process.ProcessMemorySize
	bytesRead  process.ProcessMemorySize

	alloc func(size int) ([]byte, error)
	free  func(buf []byte) error
}

// New creates a Snapshot for the region containing start. target is borrowed
// and must stay open for the lifetime of the Snapshot.
func New(target process.Target, start process.ProcessMemoryAddress, opts ...Option) *Snapshot {
	s := &Snapshot{
		target:  target,
		log:     debuglog.Discard(),
		startVA: start,
		alloc:   allocPages,
		free:    freePages,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FillInfo queries the target for the region containing the start address.
// On failure the previous metadata, if any, is left untouched.
func (s *Snapshot) FillInfo() error {
	item, err := s.target.QueryRegion(s.startVA)
	if err != nil {
		if !errors.Is(err, process.ErrAddressNotMapped) {
			s.log.Debugln("Could not query region at", s.startVA.ToString(), err)
		}
		return fmt.Errorf("%w at %s: %w", ErrRegionQuery, s.startVA.ToString(), err)
	}
	if item.Size == 0 || !item.Contains(uint64(s.startVA)) {
		return fmt.Errorf("%w at %s: target returned %s", ErrRegionQuery, s.startVA.ToString(), item)
	}

	s.info = item
	s.state = InfoFilled
	return nil
}

// IsInfoFilled reports whether the region metadata is valid
func (s *Snapshot) IsInfoFilled() bool {
	return s.state == InfoFilled
}

// State returns the metadata state
func (s *Snapshot) State() InfoState {
	return s.state
}

// Info returns the region metadata and whether it is valid
func (s *Snapshot) Info() (memory_map.MemoryMapItem, bool) {
	return s.info, s.IsInfoFilled()
}

func (s *Snapshot) StartVA() process.ProcessMemoryAddress { return s.startVA }
func (s *Snapshot) StopVA() process.ProcessMemoryAddress  { return s.stopVA }

func (s *Snapshot) RegionStart() process.ProcessMemoryAddress {
	return process.ProcessMemoryAddress(s.info.Address)
}

// RegionEnd is exclusive
func (s *Snapshot) RegionEnd() process.ProcessMemoryAddress {
	return process.ProcessMemoryAddress(s.info.End())
}

func (s *Snapshot) AllocationBase() process.ProcessMemoryAddress {
	return process.ProcessMemoryAddress(s.info.AllocationBase)
}

func (s *Snapshot) Protection() memory_map.Protection        { return s.info.Protection }
func (s *Snapshot) InitialProtection() memory_map.Protection { return s.info.InitialProtection }
func (s *Snapshot) MappingType() memory_map.MappingType      { return s.info.Type }

// ModuleName returns the name cached by LoadModuleName
func (s *Snapshot) ModuleName() string { return s.moduleName }

// MappedName returns the path cached by LoadMappedName
func (s *Snapshot) MappedName() string { return s.mappedName }

// Data returns the loaded bytes, nil if nothing is loaded.
// The slice is only valid until the next LoadRemoteCopy, Reset or Close.
func (s *Snapshot) Data() []byte { return s.data }

// LoadedSize is the number of bytes the snapshot was declared to capture
func (s *Snapshot) LoadedSize() process.ProcessMemorySize { return s.loadedSize }

// BytesRead is the number of bytes the last load actually copied from the target.
// It may be lower than LoadedSize after a partial read.
func (s *Snapshot) BytesRead() process.ProcessMemorySize { return s.bytesRead }

// IsLoaded reports whether a local copy is held
func (s *Snapshot) IsLoaded() bool { return s.data != nil }

// Digest returns the xxh3 hash of the loaded bytes, zero when nothing is loaded
func (s *Snapshot) Digest() uint64 {
	if s.data == nil {
		return 0
	}
	return xxh3.Hash(s.data)
}

// Reset releases the local copy and forgets the metadata and names.
// Call it, then FillInfo again, after anything that may have changed the
// target's memory map.
func (s *Snapshot) Reset() {
	s.release()
	s.state = InfoUnfilled
	s.info = memory_map.MemoryMapItem{}
	s.moduleName = ""
	s.mappedName = ""
}

// Close releases the local copy. The borrowed target is not touched.
func (s *Snapshot) Close() error {
	if s.data == nil {
		return nil
	}
	buf := s.data
	s.data = nil
	s.loadedSize = 0
	s.bytesRead = 0
	return s.free(buf)
}

func (s *Snapshot) release() {
	if err := s.Close(); err != nil {
		s.log.Debugln("Could not release snapshot buffer:", err)
	}
}
