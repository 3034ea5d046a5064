//go:build !unix

package systemd

import (
	"os/exec"
	"time"
)

func setProcessGroup(cmd *exec.Cmd) {}

func terminateGroup(cmd *exec.Cmd, grace time.Duration) error {
	return cmd.Process.Kill()
}
