//go:build windows

package region

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const pageAligned = true

// allocPages commits a read-write buffer with VirtualAlloc, which is always page aligned
func allocPages(size int) ([]byte, error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, err
	}
	// addr is VirtualAlloc memory owned by the OS, not the Go heap, so vet's
	// unsafe.Pointer warning here is expected.
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func freePages(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return windows.VirtualFree(uintptr(unsafe.Pointer(&buf[0])), 0, windows.MEM_RELEASE)
}
