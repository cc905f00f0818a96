package region

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageBufferRoundTrip(t *testing.T) {
	size := os.Getpagesize() + 123
	buf, err := allocPages(size)
	require.NoError(t, err)
	require.Len(t, buf, size)

	for _, b := range buf {
		require.Zero(t, b)
	}
	buf[0] = 0xCC
	buf[size-1] = 0xC3
	assert.Equal(t, byte(0xC3), buf[size-1])

	assert.NoError(t, freePages(buf))
	assert.NoError(t, freePages(nil))
}

func TestPageBufferIsAligned(t *testing.T) {
	buf, err := allocPages(64)
	require.NoError(t, err)
	defer func() { _ = freePages(buf) }()

	if !pageAligned {
		t.Skip("heap buffers on this platform are not page aligned")
	}
	addr := uintptr(unsafe.Pointer(&buf[0]))
	assert.Zero(t, addr%uintptr(os.Getpagesize()))
}
