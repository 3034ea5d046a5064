package systemd

import (
	"fmt"

	"github.com/TheGojiOG/mcadmin/internal/config"
)

// NewUnitManager selects the backend named in configuration. The dbus
// backend holds a bus connection; callers should close it through io.Closer.
func NewUnitManager(cfg config.ServicesConfig) (UnitManager, error) {
	runner := NewExecRunner(cfg.UseSudo)

	switch cfg.Backend {
	case "", "systemctl":
		return NewSystemctlManager(runner), nil
	case "dbus":
		manager, err := NewDBusManager(runner)
		if err != nil {
			return nil, err
		}
		return manager, nil
	default:
		return nil, fmt.Errorf("unknown service backend %q", cfg.Backend)
	}
}
