//go:build !windows

package daemon

import (
	"syscall"
)

var (
	termSignal = syscall.SIGTERM
	killSignal = syscall.SIGKILL
)

// alive uses signal 0, which checks for the process without signalling it.
func alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

func signal(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}
