package systemd

import (
	"bufio"
	"context"
	"strconv"
	"strings"
)

// SystemctlManager drives units through the systemctl and journalctl
// command line tools.
type SystemctlManager struct {
	runner Runner
}

func NewSystemctlManager(runner Runner) *SystemctlManager {
	return &SystemctlManager{runner: runner}
}

func (m *SystemctlManager) Start(ctx context.Context, unit string) error {
	_, err := m.runner.Run(ctx, "systemctl", "start", unit)
	return err
}

func (m *SystemctlManager) Stop(ctx context.Context, unit string) error {
	_, err := m.runner.Run(ctx, "systemctl", "stop", unit)
	return err
}

func (m *SystemctlManager) Restart(ctx context.Context, unit string) error {
	_, err := m.runner.Run(ctx, "systemctl", "restart", unit)
	return err
}

// ActiveState runs is-active. It exits non-zero for every state other than
// active while still printing the state, so printed output wins over the
// exit status.
func (m *SystemctlManager) ActiveState(ctx context.Context, unit string) (string, error) {
	out, err := m.runner.Run(ctx, "systemctl", "is-active", unit)
	if state := strings.TrimSpace(out); state != "" {
		return state, nil
	}
	return "", err
}

func (m *SystemctlManager) Properties(ctx context.Context, unit string) (UnitProperties, error) {
	out, err := m.runner.Run(ctx, "systemctl", "show", unit,
		"--property=ActiveState",
		"--property=ActiveEnterTimestampMonotonic",
	)
	if err != nil {
		return UnitProperties{}, err
	}
	return parseShowOutput(out), nil
}

func (m *SystemctlManager) Journal(ctx context.Context, unit string, lines int) (string, error) {
	return m.runner.Run(ctx, "journalctl", "-u", unit, "-n", strconv.Itoa(lines), "--no-pager", "--quiet")
}

// parseShowOutput reads "Key=Value" lines. Missing or unparsable values are
// left at their zero value.
func parseShowOutput(out string) UnitProperties {
	var props UnitProperties
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "ActiveState":
			props.ActiveState = strings.TrimSpace(value)
		case "ActiveEnterTimestampMonotonic":
			if ts, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64); err == nil {
				props.ActiveEnterMonotonic = ts
			}
		}
	}
	return props
}
