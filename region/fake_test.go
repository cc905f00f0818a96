package region

import (
	"errors"

	"memsieve/process"
	"memsieve/process/memory_map"
)

// fakeTarget is an in-memory process with a flat address space starting at base
type fakeTarget struct {
	base    uint64
	mem     []byte
	regions []memory_map.MemoryMapItem

	modules map[process.ProcessMemoryAddress]string
	mapped  map[process.ProcessMemoryAddress]string

	// zeroReads makes the next N reads copy nothing
	zeroReads int
	// readLimit caps every read, zero means no cap
	readLimit int
	reads     int
	queryErr  error
}

func newFakeTarget(base uint64, mem []byte, regions ...memory_map.MemoryMapItem) *fakeTarget {
	return &fakeTarget{
		base:    base,
		mem:     mem,
		regions: regions,
		modules: map[process.ProcessMemoryAddress]string{},
		mapped:  map[process.ProcessMemoryAddress]string{},
	}
}

func (f *fakeTarget) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.MemoryMapItem, error) {
	if f.queryErr != nil {
		return memory_map.MemoryMapItem{}, f.queryErr
	}
	item := memory_map.FindRegion(uint64(addr), f.regions)
	if item == nil {
		return memory_map.MemoryMapItem{}, process.ErrAddressNotMapped
	}
	return *item, nil
}

func (f *fakeTarget) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	f.reads++
	if f.zeroReads > 0 {
		f.zeroReads--
		return 0, errors.New("access violation")
	}
	if uint64(addr) < f.base || uint64(addr) >= f.base+uint64(len(f.mem)) {
		return 0, process.ErrAddressNotMapped
	}
	src := f.mem[uint64(addr)-f.base:]
	n := copy(buf, src)
	if f.readLimit > 0 && n > f.readLimit {
		n = f.readLimit
	}
	if n < len(buf) {
		return n, errors.New("partial copy")
	}
	return n, nil
}

func (f *fakeTarget) ModuleName(allocBase process.ProcessMemoryAddress) string {
	return f.modules[allocBase]
}

func (f *fakeTarget) MappedName(allocBase process.ProcessMemoryAddress) string {
	return f.mapped[allocBase]
}
