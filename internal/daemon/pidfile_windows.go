//go:build windows

package daemon

import (
	"os"
	"syscall"
)

// Windows only reliably supports killing another process.
var (
	termSignal = syscall.SIGKILL
	killSignal = syscall.SIGKILL
)

func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// FindProcess opens a handle on Windows and fails for exited processes.
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = proc.Release()
	return true
}

func signal(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}
