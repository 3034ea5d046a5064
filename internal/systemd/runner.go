package systemd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// killGrace is how long a timed-out helper gets after SIGTERM before the
// process group is killed and its pipes are abandoned.
const killGrace = time.Second

// Runner executes a privileged helper such as systemctl or journalctl.
// Stdout is returned even when the command exits non-zero.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the local host, optionally through
// non-interactive sudo.
type ExecRunner struct {
	UseSudo bool

	grace time.Duration
}

func NewExecRunner(useSudo bool) *ExecRunner {
	return &ExecRunner{UseSudo: useSudo, grace: killGrace}
}

// Run starts the helper in its own process group. When ctx ends the group
// gets SIGTERM, which sudo relays to the helper it spawned, then SIGKILL
// after the grace period. Run returns within the grace period even if a
// surviving grandchild still holds stdout open.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	if r.UseSudo {
		args = append([]string{"-n", name}, args...)
		name = "sudo"
	}

	grace := r.grace
	if grace <= 0 {
		grace = killGrace
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		return terminateGroup(cmd, grace)
	}
	cmd.WaitDelay = grace

	err := cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return stdout.String(), fmt.Errorf("%s %s timed out: %w", name, strings.Join(args, " "), ctx.Err())
		}
		return stdout.String(), fmt.Errorf("%s %s failed: %w (stderr: %s)", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}
