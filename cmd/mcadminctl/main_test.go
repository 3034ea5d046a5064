package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/TheGojiOG/mcadmin/internal/config"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUnits struct {
	state   string
	journal string
	started []string
}

func (f *fakeUnits) Start(ctx context.Context, unit string) error {
	f.started = append(f.started, unit)
	return nil
}

func (f *fakeUnits) Stop(ctx context.Context, unit string) error    { return nil }
func (f *fakeUnits) Restart(ctx context.Context, unit string) error { return nil }

func (f *fakeUnits) ActiveState(ctx context.Context, unit string) (string, error) {
	return f.state, nil
}

func (f *fakeUnits) Properties(ctx context.Context, unit string) (systemd.UnitProperties, error) {
	return systemd.UnitProperties{ActiveState: f.state}, nil
}

func (f *fakeUnits) Journal(ctx context.Context, unit string, lines int) (string, error) {
	return f.journal, nil
}

type harness struct {
	executor   *server.MockCommandExecutor
	units      *fakeUnits
	configPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	root := t.TempDir()
	configPath := filepath.Join(root, "config.yaml")
	body := []byte(`
rcon:
  password: test-password
services:
  backend: systemctl
  game_server: minecraft.service
  tunnel_agent: playit.service
`)
	require.NoError(t, os.WriteFile(configPath, body, 0644))

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DOTENV_PATH", filepath.Join(root, "missing.env"))

	return &harness{
		executor:   &server.MockCommandExecutor{},
		units:      &fakeUnits{state: "active"},
		configPath: configPath,
	}
}

func (h *harness) run(args ...string) (string, error) {
	b := backends{
		executor: func(config.RCONConfig) server.Executor { return h.executor },
		units:    func(config.ServicesConfig) (systemd.UnitManager, error) { return h.units, nil },
	}
	cmd := newRootCmd(b)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPolicyCheck(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("--role", "operator", "policy", "check", "say", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "allowed")
	assert.Contains(t, out, "^say .+")

	_, err = h.run("--role", "operator", "policy", "check", "stop")
	assert.ErrorIs(t, err, server.ErrPolicyDenied)

	_, err = h.run("--role", "viewer", "policy", "check", "list")
	assert.ErrorIs(t, err, server.ErrPolicyDenied)
	assert.Empty(t, h.executor.Commands())
}

func TestPolicyListJSON(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("--role", "admin", "--json", "policy", "list")
	require.NoError(t, err)

	var resp struct {
		Roles   []string            `json:"roles"`
		Allowed map[string][]string `json:"allowed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"admin"}, resp.Roles)
	assert.Contains(t, resp.Allowed, "operator")
	assert.Contains(t, resp.Allowed, "admin")
}

func TestRconExecRunsThroughPolicy(t *testing.T) {
	h := newHarness(t)
	h.executor.MockOutput = "Saved the game"

	out, err := h.run("--role", "admin", "rcon", "exec", "save-all")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved the game")

	_, err = h.run("--role", "operator", "rcon", "exec", "save-all")
	assert.ErrorIs(t, err, server.ErrPolicyDenied)

	_, err = h.run("--role", "viewer", "rcon", "exec", "list")
	assert.Error(t, err)

	assert.Equal(t, []string{"save-all"}, h.executor.Commands())
}

func TestPlayers(t *testing.T) {
	h := newHarness(t)
	h.executor.MockOutput = "There are 2 of a max of 10 players online: Alice, Bob"

	out, err := h.run("players")
	require.NoError(t, err)
	assert.Contains(t, out, "2/10 online")
	assert.Contains(t, out, "Bob")
}

func TestPlayerKickJoinsReason(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("--role", "operator", "player", "kick", "Steve", "too", "loud")
	require.NoError(t, err)

	_, err = h.run("--role", "operator", "player", "ban", "Steve")
	assert.Error(t, err)

	assert.Equal(t, []string{"kick Steve too loud"}, h.executor.Commands())
}

func TestServiceCommands(t *testing.T) {
	h := newHarness(t)
	h.units.journal = "a\nERROR boom\nc"

	out, err := h.run("service", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "game-server")
	assert.Contains(t, out, "active")

	_, err = h.run("service", "start", "game-server")
	assert.Error(t, err)

	_, err = h.run("--role", "operator", "service", "start", "game-server")
	require.NoError(t, err)
	assert.Equal(t, []string{"minecraft.service"}, h.units.started)

	_, err = h.run("--role", "operator", "service", "start", "nether")
	assert.ErrorIs(t, err, systemd.ErrUnknownService)

	out, err = h.run("service", "logs", "game-server", "--filter", "errors")
	require.NoError(t, err)
	assert.Equal(t, "ERROR boom\n", out)

	_, err = h.run("service", "logs", "game-server", "--lines", "0")
	assert.ErrorIs(t, err, systemd.ErrInvalidLineCount)
}
