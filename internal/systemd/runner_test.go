//go:build unix

package systemd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerReturnsStdoutOnFailure(t *testing.T) {
	r := NewExecRunner(false)

	out, err := r.Run(context.Background(), "sh", "-c", "echo inactive; echo oops >&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, "inactive\n", out)
	assert.Contains(t, err.Error(), "oops")
}

// sh forks sleep and waits for it, like sudo waits for systemctl.
func TestExecRunnerTimeoutTearsDownChildren(t *testing.T) {
	r := &ExecRunner{grace: 200 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sh", "-c", "sleep 4; true")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, elapsed, 2*time.Second)
}

func TestExecRunnerKillsHelpersIgnoringTerm(t *testing.T) {
	r := &ExecRunner{grace: 200 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, "sh", "-c", "trap '' TERM; sleep 4; true")
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second)
}
