package memory_map

import (
	"fmt"
	"sort"
	"strings"
)

// Protection is the access a page of a region currently allows
type Protection uint32

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec
	// ProtGuard marks pages that fault on first access (Windows PAGE_GUARD)
	ProtGuard

	ProtNone Protection = 0
)

func (p Protection) IsReadable() bool   { return p&ProtRead != 0 }
func (p Protection) IsWritable() bool   { return p&ProtWrite != 0 }
func (p Protection) IsExecutable() bool { return p&ProtExec != 0 }
func (p Protection) IsGuarded() bool    { return p&ProtGuard != 0 }

// String renders the protection the way /proc/<pid>/maps does, with a trailing g for guard pages
func (p Protection) String() string {
	var sb strings.Builder
	for _, f := range []struct {
		bit Protection
		ch  byte
	}{{ProtRead, 'r'}, {ProtWrite, 'w'}, {ProtExec, 'x'}, {ProtGuard, 'g'}} {
		if p&f.bit != 0 {
			sb.WriteByte(f.ch)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// MappingType classifies what backs a region
type MappingType int

const (
	MappingUnknown MappingType = iota
	// MappingImage is an executable image loaded from disk
	MappingImage
	// MappingFile is a file mapped as data
	MappingFile
	// MappingPrivate is anonymous memory
	MappingPrivate
)

func (t MappingType) String() string {
	switch t {
	case MappingImage:
		return "image"
	case MappingFile:
		return "mapped"
	case MappingPrivate:
		return "private"
	}
	return "unknown"
}

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes

	AllocationBase    uint64      // Start of the allocation the region belongs to
	InitialProtection Protection  // Protection the allocation was created with
	Protection        Protection  // Current protection of the region
	Type              MappingType // What backs the region

	// procfs extras, zero on Windows
	Offset  uint64
	Device  string
	Inode   uint64
	Path    string
	Deleted bool
}

// End returns the exclusive upper bound of the region
func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

// Contains reports whether addr lies inside the region
func (mmItem MemoryMapItem) Contains(addr uint64) bool {
	return addr >= mmItem.Address && addr < mmItem.End()
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	s := fmt.Sprintf("Address: %x, Size: %d, Prot: %s, Type: %s, AllocBase: %x",
		mmItem.Address, mmItem.Size, mmItem.Protection, mmItem.Type, mmItem.AllocationBase)
	if mmItem.Path != "" {
		s += ", Path: " + mmItem.Path
	}
	return s
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return mmItem.Protection.IsReadable()
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return mmItem.Protection.IsWritable()
}

// MemoryMap reads the region table of one process
type MemoryMap interface {
	// ReadMemoryMap reads the current regions of the process, sorted by address
	ReadMemoryMap() ([]MemoryMapItem, error)
}

// FindRegion returns the region containing addr.
// memoryMap must be sorted by address.
func FindRegion(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// FindByAllocationStart returns the region that starts exactly at base
func FindByAllocationStart(base uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].Address >= base
	})
	if i < len(memoryMap) && memoryMap[i].Address == base {
		return &memoryMap[i]
	}
	return nil
}

// SortByAddress orders the regions by start address
func SortByAddress(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}
