//go:build linux

package process_linux

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"testing"
	"unsafe"

	"memsieve/process"
	"memsieve/process/memory_map"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSelf(t *testing.T) process.Process {
	t.Helper()
	p, err := NewWithPID(process.ProcessID(os.Getpid()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestQueryRegionContainsAddress(t *testing.T) {
	p := openSelf(t)

	data := make([]byte, 4096)
	addr := process.ProcessMemoryAddress(uintptr(unsafe.Pointer(&data[0])))

	item, err := p.QueryRegion(addr)
	require.NoError(t, err)
	assert.True(t, item.Contains(uint64(addr)))
	assert.True(t, item.IsReadable())
	assert.Equal(t, memory_map.MappingPrivate, item.Type)
	runtime.KeepAlive(data)
}

func TestQueryRegionNotMapped(t *testing.T) {
	p := openSelf(t)

	_, err := p.QueryRegion(0x10)
	assert.ErrorIs(t, err, process.ErrAddressNotMapped)
}

func TestReadMemoryIntoSelf(t *testing.T) {
	p := openSelf(t)

	data := []byte("memsieve-self-read-check")
	addr := process.ProcessMemoryAddress(uintptr(unsafe.Pointer(&data[0])))

	buf := make([]byte, len(data))
	n, err := p.ReadMemoryInto(addr, buf)
	if errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.ENOSYS) {
		t.Skip("process_vm_readv not permitted here:", err)
	}
	require.NoError(t, err)
	assert.Equal(t, len(data), n)
	assert.Equal(t, data, buf)
}

func TestReadMemoryIntoClosed(t *testing.T) {
	p := New()
	_, err := p.ReadMemoryInto(0x1000, make([]byte, 8))
	assert.ErrorIs(t, err, process.ErrProcessNotOpen)
}

func TestNamesOfOwnExecutable(t *testing.T) {
	p := openSelf(t)

	exe, err := os.Executable()
	require.NoError(t, err)
	exe, err = filepath.EvalSymlinks(exe)
	require.NoError(t, err)

	mm, err := p.GetMemoryMap()
	require.NoError(t, err)

	var image *memory_map.MemoryMapItem
	for i := range mm {
		if mm[i].Path == exe && mm[i].Offset == 0 {
			image = &mm[i]
			break
		}
	}
	if image == nil {
		t.Skip("test binary not found in its own maps")
	}

	base := process.ProcessMemoryAddress(image.Address)
	assert.Equal(t, memory_map.MappingImage, image.Type)
	assert.Equal(t, filepath.Base(exe), p.ModuleName(base))
	assert.Equal(t, exe, p.MappedName(base))
}
