package systemd

import (
	"testing"

	"github.com/TheGojiOG/mcadmin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnitManagerSelectsSystemctl(t *testing.T) {
	units, err := NewUnitManager(config.ServicesConfig{Backend: "systemctl", UseSudo: true})
	require.NoError(t, err)

	manager, ok := units.(*SystemctlManager)
	require.True(t, ok)
	runner, ok := manager.runner.(*ExecRunner)
	require.True(t, ok)
	assert.True(t, runner.UseSudo)
}

func TestNewUnitManagerRejectsUnknownBackend(t *testing.T) {
	_, err := NewUnitManager(config.ServicesConfig{Backend: "upstart"})
	assert.Error(t, err)
}
