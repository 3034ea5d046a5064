package systemd

import (
	"context"
	"errors"

	"github.com/TheGojiOG/mcadmin/internal/config"
)

// Logical names of the managed services.
const (
	GameServer  = "game-server"
	TunnelAgent = "tunnel-agent"
)

var (
	ErrUnknownService   = errors.New("unknown service")
	ErrProcessControl   = errors.New("service control failed")
	ErrInvalidLineCount = errors.New("line count must be between 1 and 1000")
)

// Descriptor maps a logical service name to its systemd unit.
type Descriptor struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// Descriptors builds the service table from configuration.
func Descriptors(cfg config.ServicesConfig) []Descriptor {
	return []Descriptor{
		{Name: GameServer, Unit: cfg.GameServer},
		{Name: TunnelAgent, Unit: cfg.TunnelAgent},
	}
}

// UnitProperties is a point-in-time read of a unit's activation state.
// ActiveEnterMonotonic is in microseconds of CLOCK_MONOTONIC, or 0 when the
// unit has never been activated.
type UnitProperties struct {
	ActiveState          string
	ActiveEnterMonotonic uint64
}

// UnitManager talks to the OS service manager. Implementations must be safe
// for concurrent use; calls on the same unit are not serialized.
type UnitManager interface {
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Restart(ctx context.Context, unit string) error
	ActiveState(ctx context.Context, unit string) (string, error)
	Properties(ctx context.Context, unit string) (UnitProperties, error)
	Journal(ctx context.Context, unit string, lines int) (string, error)
}
