package memory_map

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

const deletedSuffix = " (deleted)"

// ParseProcMaps parses the /proc/[pid]/maps format and derives the allocation
// base, initial protection and mapping type of every region.
// Malformed lines are skipped.
func ParseProcMaps(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		item, ok := parseProcMapsLine(scanner.Text())
		if !ok {
			continue
		}
		memoryMap = append(memoryMap, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	SortByAddress(memoryMap)
	deriveAllocations(memoryMap)

	return memoryMap, nil
}

// parseProcMapsLine parses one line, e.g.
// 7f1c2a000000-7f1c2a021000 r-xp 00000000 08:01 1835123   /usr/lib/libc.so.6
func parseProcMapsLine(line string) (MemoryMapItem, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return MemoryMapItem{}, false
	}

	// Parse address range (e.g., "00400000-0040b000")
	addrRange := strings.Split(fields[0], "-")
	if len(addrRange) != 2 {
		return MemoryMapItem{}, false
	}

	startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
	if err != nil || endAddr <= startAddr {
		return MemoryMapItem{}, false
	}

	offset, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	inode, err := strconv.ParseUint(fields[4], 10, 64)
	if err != nil {
		return MemoryMapItem{}, false
	}

	item := MemoryMapItem{
		Address:    startAddr,
		Size:       uint(endAddr - startAddr),
		Protection: parsePerms(fields[1]),
		Offset:     offset,
		Device:     fields[3],
		Inode:      inode,
	}

	if len(fields) > 5 {
		item.Path = strings.Join(fields[5:], " ")
		if strings.HasSuffix(item.Path, deletedSuffix) {
			item.Path = strings.TrimSuffix(item.Path, deletedSuffix)
			item.Deleted = true
		}
	}

	return item, true
}

func parsePerms(perms string) Protection {
	prot := ProtNone
	if len(perms) > 0 && perms[0] == 'r' {
		prot |= ProtRead
	}
	if len(perms) > 1 && perms[1] == 'w' {
		prot |= ProtWrite
	}
	if len(perms) > 2 && perms[2] == 'x' {
		prot |= ProtExec
	}
	return prot
}

func isFileBacked(item MemoryMapItem) bool {
	return item.Inode != 0 && strings.HasPrefix(item.Path, "/")
}

// deriveAllocations fills AllocationBase, InitialProtection and Type.
// A file-backed region belongs to the nearest preceding offset-0 mapping of the
// same file; a file with any executable mapping is an image.
func deriveAllocations(memoryMap []MemoryMapItem) {
	type fileKey struct {
		dev   string
		inode uint64
	}

	executable := make(map[fileKey]bool)
	for _, item := range memoryMap {
		if isFileBacked(item) && item.Protection.IsExecutable() {
			executable[fileKey{item.Device, item.Inode}] = true
		}
	}

	bases := make(map[fileKey]int)
	for i := range memoryMap {
		item := &memoryMap[i]
		if !isFileBacked(*item) {
			item.AllocationBase = item.Address
			item.InitialProtection = item.Protection
			item.Type = MappingPrivate
			continue
		}

		key := fileKey{item.Device, item.Inode}
		if item.Offset == 0 {
			bases[key] = i
		}

		base := i
		if b, ok := bases[key]; ok {
			base = b
		}
		item.AllocationBase = memoryMap[base].Address
		item.InitialProtection = memoryMap[base].Protection

		if executable[key] {
			item.Type = MappingImage
		} else {
			item.Type = MappingFile
		}
	}
}
