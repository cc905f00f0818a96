//go:build linux

package memory_map

import (
	"fmt"
	"os"
)

// LinuxMemoryMap implements MemoryMap for Linux
type LinuxMemoryMap struct {
	pid int
}

// NewLinuxMemoryMap creates a new LinuxMemoryMap instance for pid
func NewLinuxMemoryMap(pid int) *LinuxMemoryMap {
	return &LinuxMemoryMap{pid: pid}
}

// ReadMemoryMap reads and parses the memory map for a process from /proc/[pid]/maps
func (l *LinuxMemoryMap) ReadMemoryMap() ([]MemoryMapItem, error) {
	file, err := os.Open(fmt.Sprintf("/proc/%d/maps", l.pid))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseProcMaps(file)
}
