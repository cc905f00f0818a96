//go:build linux

package process_linux

import (
	"path/filepath"

	"memsieve/process"
	"memsieve/process/memory_map"
)

// ModuleName returns the file name of the executable image mapped at allocBase
func (p *LinuxProcess) ModuleName(allocBase process.ProcessMemoryAddress) string {
	item := p.allocationStart(allocBase)
	if item == nil || item.Type != memory_map.MappingImage {
		return ""
	}
	return filepath.Base(item.Path)
}

// MappedName returns the full path of the file mapped at allocBase
func (p *LinuxProcess) MappedName(allocBase process.ProcessMemoryAddress) string {
	item := p.allocationStart(allocBase)
	if item == nil || item.Type == memory_map.MappingPrivate {
		return ""
	}
	return item.Path
}

func (p *LinuxProcess) allocationStart(allocBase process.ProcessMemoryAddress) *memory_map.MemoryMapItem {
	p.mu.Lock()
	defer p.mu.Unlock()

	item := memory_map.FindByAllocationStart(uint64(allocBase), p.mm)
	if item == nil {
		return nil
	}
	found := *item
	return &found
}
