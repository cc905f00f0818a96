package process

import (
	"memsieve/process/memory_map"
)

// Process is the interface that defines operations for interacting with a system process
type Process interface {
	// Open opens a process with the given PID for memory operations
	Open(pid ProcessID) error

	// Close closes the process and releases resources
	Close() error

	// GetPID returns the process ID
	GetPID() ProcessID

	// UpdateMemoryMap refreshes the memory map for the process
	UpdateMemoryMap() error

	// GetMemoryMap returns a copy of the current memory map
	GetMemoryMap() ([]memory_map.MemoryMapItem, error)

	// Operations a region snapshot borrows from the process
	Target
}

// Target is the view of an open process that region snapshots borrow.
// The snapshot never opens or closes it.
type Target interface {
	RegionQuerier
	MemoryReader
	NameResolver
}

// RegionQuerier describes the memory region containing an address
type RegionQuerier interface {
	// QueryRegion returns the region containing addr, or ErrAddressNotMapped
	QueryRegion(addr ProcessMemoryAddress) (memory_map.MemoryMapItem, error)
}

// MemoryReader copies memory out of the process
type MemoryReader interface {
	// ReadMemoryInto reads up to len(buf) bytes starting at addr.
	// It returns the number of bytes copied, which may be short of len(buf)
	// together with a non-nil error when the read was partial.
	ReadMemoryInto(addr ProcessMemoryAddress, buf []byte) (int, error)
}

// NameResolver resolves names for an allocation base.
// Both methods return an empty string when nothing is known about the base.
type NameResolver interface {
	// ModuleName returns the short name of the module loaded at allocBase
	ModuleName(allocBase ProcessMemoryAddress) string

	// MappedName returns the full path of the file mapped at allocBase
	MappedName(allocBase ProcessMemoryAddress) string
}
