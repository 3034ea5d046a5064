package systemd

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.outputs[call], r.errs[call]
}

func TestSystemctlManagerCommands(t *testing.T) {
	runner := &fakeRunner{}
	manager := NewSystemctlManager(runner)
	ctx := context.Background()

	require.NoError(t, manager.Start(ctx, "minecraft.service"))
	require.NoError(t, manager.Stop(ctx, "minecraft.service"))
	require.NoError(t, manager.Restart(ctx, "playit.service"))
	_, err := manager.Journal(ctx, "minecraft.service", 50)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"systemctl start minecraft.service",
		"systemctl stop minecraft.service",
		"systemctl restart playit.service",
		"journalctl -u minecraft.service -n 50 --no-pager --quiet",
	}, runner.calls)
}

func TestSystemctlActiveStateUsesPrintedState(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string]string{
			"systemctl is-active minecraft.service": "failed\n",
		},
		errs: map[string]error{
			"systemctl is-active minecraft.service": errors.New("exit status 3"),
			"systemctl is-active playit.service":    errors.New("sudo: a password is required"),
		},
	}
	manager := NewSystemctlManager(runner)

	state, err := manager.ActiveState(context.Background(), "minecraft.service")
	require.NoError(t, err)
	assert.Equal(t, "failed", state)

	_, err = manager.ActiveState(context.Background(), "playit.service")
	assert.Error(t, err)
}

func TestParseShowOutput(t *testing.T) {
	props := parseShowOutput("ActiveState=active\nActiveEnterTimestampMonotonic=123456789\n")
	assert.Equal(t, "active", props.ActiveState)
	assert.Equal(t, uint64(123456789), props.ActiveEnterMonotonic)

	props = parseShowOutput("ActiveState=inactive\nActiveEnterTimestampMonotonic=n/a\ngarbage\n")
	assert.Equal(t, "inactive", props.ActiveState)
	assert.Zero(t, props.ActiveEnterMonotonic)

	assert.Equal(t, UnitProperties{}, parseShowOutput(""))
}

func TestSystemctlProperties(t *testing.T) {
	call := "systemctl show minecraft.service --property=ActiveState --property=ActiveEnterTimestampMonotonic"
	runner := &fakeRunner{outputs: map[string]string{call: "ActiveState=active\nActiveEnterTimestampMonotonic=5000000\n"}}

	props, err := NewSystemctlManager(runner).Properties(context.Background(), "minecraft.service")
	require.NoError(t, err)
	assert.Equal(t, UnitProperties{ActiveState: "active", ActiveEnterMonotonic: 5000000}, props)
}
