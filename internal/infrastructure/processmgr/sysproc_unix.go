//go:build unix && !linux

package processmgr

import "syscall"

// sysProcAttr isolates the child in its own process group. Pdeathsig has no
// equivalent here; StopAll on shutdown covers orphan cleanup.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
