//go:build linux

package processmgr

import "syscall"

// sysProcAttr isolates the child in its own process group and kills it if
// the server dies first.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
