package main

import (
	"memsieve/process"
	"memsieve/process_linux"
)

func openProcess(pid process.ProcessID) (process.Process, error) {
	return process_linux.NewWithPID(pid)
}
