package main

import (
	"memsieve/process"
	"memsieve/process_windows"
)

func openProcess(pid process.ProcessID) (process.Process, error) {
	return process_windows.NewWithPID(pid)
}
