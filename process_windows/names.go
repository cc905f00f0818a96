//go:build windows

package process_windows

import (
	"strings"
	"unsafe"

	"memsieve/process"

	"golang.org/x/sys/windows"
)

var (
	modpsapi               = windows.NewLazySystemDLL("psapi.dll")
	procGetMappedFileNameW = modpsapi.NewProc("GetMappedFileNameW")
)

// ModuleName returns the base name of the module loaded at allocBase
func (p *WindowsProcess) ModuleName(allocBase process.ProcessMemoryAddress) string {
	handle := p.getHandle()
	if handle == 0 || allocBase == 0 {
		return ""
	}

	buf := make([]uint16, windows.MAX_PATH)
	if err := windows.GetModuleBaseName(handle, windows.Handle(allocBase), &buf[0], uint32(len(buf))); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf)
}

// MappedName returns the path of the file mapped at allocBase, converted from
// the NT device form to a drive letter path where possible
func (p *WindowsProcess) MappedName(allocBase process.ProcessMemoryAddress) string {
	handle := p.getHandle()
	if handle == 0 || allocBase == 0 {
		return ""
	}

	buf := make([]uint16, windows.MAX_PATH)
	n, _, _ := procGetMappedFileNameW.Call(
		uintptr(handle),
		uintptr(allocBase),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
	)
	if n == 0 {
		return ""
	}

	return devicePathToDosPath(windows.UTF16ToString(buf[:n]))
}

// devicePathToDosPath turns \Device\HarddiskVolume3\x.dll into C:\x.dll
func devicePathToDosPath(devicePath string) string {
	target := make([]uint16, windows.MAX_PATH)
	for drive := 'A'; drive <= 'Z'; drive++ {
		name := string(drive) + ":"
		namePtr, err := windows.UTF16PtrFromString(name)
		if err != nil {
			continue
		}
		n, err := windows.QueryDosDevice(namePtr, &target[0], uint32(len(target)))
		if err != nil || n == 0 {
			continue
		}
		device := windows.UTF16ToString(target)
		if device == "" {
			continue
		}
		prefix := device + `\`
		if strings.HasPrefix(strings.ToLower(devicePath), strings.ToLower(prefix)) {
			return name + devicePath[len(device):]
		}
	}
	return devicePath
}
