//go:build linux

package process_linux

import (
	"fmt"
	"unsafe"

	"memsieve/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv uses the process_vm_readv syscall to read memory from another process
// into localBuf. The returned count may be short if the range crosses an unreadable page.
func process_vm_readv(
	pid process.ProcessID,
	localBuf []byte,
	remoteAddr process.ProcessMemoryAddress,
) (int, error) {
	if len(localBuf) == 0 {
		return 0, nil
	}

	// Create iovec for local buffer
	localIov := unix.Iovec{Base: &localBuf[0]}
	localIov.SetLen(len(localBuf))

	// Create iovec for remote buffer
	remoteIov := unix.RemoteIovec{
		Base: uintptr(remoteAddr),
		Len:  len(localBuf),
	}

	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),                        // Remote process PID
		uintptr(unsafe.Pointer(&localIov)),  // Local iovec
		uintptr(1),                          // Number of local iovecs
		uintptr(unsafe.Pointer(&remoteIov)), // Remote iovec
		uintptr(1),                          // Number of remote iovecs
		uintptr(0),                          // Flags (reserved for future use)
	)

	if errno != 0 {
		return 0, fmt.Errorf("process_vm_readv failed: %w", errno)
	}

	if int(n) != len(localBuf) {
		return int(n), fmt.Errorf("partial read: %d of %d bytes", n, len(localBuf))
	}

	return int(n), nil
}

// ReadMemoryInto reads up to len(buf) bytes from the process at addr
func (p *LinuxProcess) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	pid := p.GetPID()
	if pid == 0 {
		return 0, process.ErrProcessNotOpen
	}

	n, err := process_vm_readv(pid, buf, addr)
	if err != nil && n == 0 {
		return 0, fmt.Errorf("failed to read process memory at %s: %w", addr.ToString(), err)
	}

	return n, err
}
