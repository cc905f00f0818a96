//go:build windows

package process_windows

import (
	"fmt"
	"sync"

	"memsieve/process"
	"memsieve/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const openAccess = windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mm     []memory_map.MemoryMapItem
	mu     sync.Mutex
}

// New creates a new WindowsProcess instance
func New() process.Process {
	return &WindowsProcess{
		log: logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open")),
	}
}

// NewWithPID creates a new WindowsProcess instance and opens it with the given PID
func NewWithPID(pid process.ProcessID) (process.Process, error) {
	p := &WindowsProcess{}
	err := p.Open(pid)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *WindowsProcess) Open(pid process.ProcessID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	handle, err := windows.OpenProcess(openAccess, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess failed: %w", err)
	}

	p.pid = pid
	p.handle = handle
	p.log = logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid)))

	if err := p.updateMemoryMapInternal(); err != nil {
		p.log.Warn("Failed to initialize memory map: ", err)
	}

	p.log.Infoln("Process opened")
	return nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle != 0 {
		if err := windows.CloseHandle(p.handle); err != nil {
			return fmt.Errorf("CloseHandle failed: %w", err)
		}
		p.handle = 0
	}

	p.pid = 0
	p.mm = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))
	p.log.Infoln("Process closed")

	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) UpdateMemoryMap() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateMemoryMapInternal()
}

func (p *WindowsProcess) updateMemoryMapInternal() error {
	if p.handle == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.NewWindowsMemoryMap(p.handle).ReadMemoryMap()
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}
	p.mm = mm
	return nil
}

func (p *WindowsProcess) GetMemoryMap() ([]memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return nil, process.ErrProcessNotOpen
	}
	result := make([]memory_map.MemoryMapItem, len(p.mm))
	copy(result, p.mm)
	return result, nil
}

// QueryRegion asks VirtualQueryEx for the region containing addr
func (p *WindowsProcess) QueryRegion(addr process.ProcessMemoryAddress) (memory_map.MemoryMapItem, error) {
	handle := p.getHandle()
	if handle == 0 {
		return memory_map.MemoryMapItem{}, process.ErrProcessNotOpen
	}

	item, ok, err := memory_map.QueryRegion(handle, uintptr(addr))
	if err != nil {
		return memory_map.MemoryMapItem{}, fmt.Errorf("VirtualQueryEx at %s: %w", addr.ToString(), err)
	}
	if !ok {
		return memory_map.MemoryMapItem{}, process.ErrAddressNotMapped
	}
	return item, nil
}

// ReadMemoryInto reads up to len(buf) bytes at addr. ERROR_PARTIAL_COPY still
// reports how many bytes made it into buf.
func (p *WindowsProcess) ReadMemoryInto(addr process.ProcessMemoryAddress, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	handle := p.getHandle()
	if handle == 0 {
		return 0, process.ErrProcessNotOpen
	}

	var bytesRead uintptr
	err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(len(buf)), &bytesRead)
	if err != nil {
		return int(bytesRead), fmt.Errorf("ReadProcessMemory at %s: %w", addr.ToString(), err)
	}

	return int(bytesRead), nil
}

func (p *WindowsProcess) getHandle() windows.Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handle
}
