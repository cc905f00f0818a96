//go:build windows

package memory_map

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// WindowsMemoryMap implements MemoryMap for Windows
type WindowsMemoryMap struct {
	handle windows.Handle
}

// NewWindowsMemoryMap creates a new WindowsMemoryMap instance for an open process handle.
// The handle is borrowed.
func NewWindowsMemoryMap(handle windows.Handle) *WindowsMemoryMap {
	return &WindowsMemoryMap{handle: handle}
}

// ReadMemoryMap walks the address space with VirtualQueryEx and returns every non-free region
func (w *WindowsMemoryMap) ReadMemoryMap() ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem

	addr := uintptr(0)
	for {
		var mbi windows.MemoryBasicInformation
		if err := windows.VirtualQueryEx(w.handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
			// ERROR_INVALID_PARAMETER marks the end of the user address space
			break
		}

		if mbi.State != memFree {
			memoryMap = append(memoryMap, ItemFromMBI(&mbi))
		}

		next := mbi.BaseAddress + mbi.RegionSize
		if next <= addr {
			break
		}
		addr = next
	}

	return memoryMap, nil
}

// QueryRegion returns the region containing addr, or ok=false if it is free or
// outside the address space
func QueryRegion(handle windows.Handle, addr uintptr) (item MemoryMapItem, ok bool, err error) {
	var mbi windows.MemoryBasicInformation
	if err := windows.VirtualQueryEx(handle, addr, &mbi, unsafe.Sizeof(mbi)); err != nil {
		if err == windows.ERROR_INVALID_PARAMETER {
			return MemoryMapItem{}, false, nil
		}
		return MemoryMapItem{}, false, err
	}
	if mbi.State == memFree {
		return MemoryMapItem{}, false, nil
	}
	return ItemFromMBI(&mbi), true, nil
}

// ItemFromMBI converts a MEMORY_BASIC_INFORMATION record
func ItemFromMBI(mbi *windows.MemoryBasicInformation) MemoryMapItem {
	return MemoryMapItem{
		Address:           uint64(mbi.BaseAddress),
		Size:              uint(mbi.RegionSize),
		AllocationBase:    uint64(mbi.AllocationBase),
		InitialProtection: protectionFromPage(mbi.AllocationProtect),
		Protection:        protectionFromPage(mbi.Protect),
		Type:              mappingTypeFromMBI(mbi.Type),
	}
}
