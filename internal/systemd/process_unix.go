//go:build unix

package systemd

import (
	"os/exec"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateGroup signals the whole process group (negative pid). Children
// that run as root under sudo may refuse our signal; sudo itself forwards
// SIGTERM to them.
func terminateGroup(cmd *exec.Cmd, grace time.Duration) error {
	group := -cmd.Process.Pid
	if err := unix.Kill(group, unix.SIGTERM); err != nil {
		return cmd.Process.Kill()
	}
	go func() {
		time.Sleep(grace)
		// ESRCH once the group has exited is expected.
		_ = unix.Kill(group, unix.SIGKILL)
	}()
	return nil
}
