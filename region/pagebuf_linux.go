//go:build linux

package region

import (
	"golang.org/x/sys/unix"
)

const pageAligned = true

// allocPages maps a private anonymous read-write buffer. The kernel hands out
// whole pages, so the buffer is page aligned.
func allocPages(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
}

func freePages(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return unix.Munmap(buf)
}
