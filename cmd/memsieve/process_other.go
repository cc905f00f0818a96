//go:build !linux && !windows

package main

import (
	"errors"

	"memsieve/process"
)

func openProcess(pid process.ProcessID) (process.Process, error) {
	return nil, errors.New("reading other processes is not supported on this platform")
}
