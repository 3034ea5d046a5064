package systemd

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	systemdDest    = "org.freedesktop.systemd1"
	systemdPath    = dbus.ObjectPath("/org/freedesktop/systemd1")
	managerIface   = "org.freedesktop.systemd1.Manager"
	unitIface      = "org.freedesktop.systemd1.Unit"
	propertiesGet  = "org.freedesktop.DBus.Properties.Get"
	jobRemoved     = managerIface + ".JobRemoved"
	jobModeReplace = "replace"
	jobResultDone  = "done"

	matchJobs = "type='signal',sender='org.freedesktop.systemd1',interface='org.freedesktop.systemd1.Manager',member='JobRemoved'"
)

// ErrJobFailed means systemd finished a unit job with a result other than
// "done" (failed, timeout, dependency, canceled, skipped).
var ErrJobFailed = errors.New("unit job did not complete")

// DBusManager drives units over the systemd D-Bus API. Journal reads have no
// D-Bus equivalent and go through the wrapped journal reader.
type DBusManager struct {
	conn    *dbus.Conn
	journal *SystemctlManager
}

// NewDBusManager connects to the system bus. The connection is shared by
// all calls and closed with Close.
func NewDBusManager(journalRunner Runner) (*DBusManager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}
	if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchJobs).Err; err != nil {
		conn.Close()
		return nil, fmt.Errorf("match JobRemoved: %w", err)
	}
	if err := conn.Object(systemdDest, systemdPath).Call(managerIface+".Subscribe", 0).Err; err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to systemd: %w", err)
	}
	return &DBusManager{conn: conn, journal: NewSystemctlManager(journalRunner)}, nil
}

func (m *DBusManager) Close() error {
	return m.conn.Close()
}

func (m *DBusManager) Start(ctx context.Context, unit string) error {
	return m.job(ctx, "StartUnit", unit)
}

func (m *DBusManager) Stop(ctx context.Context, unit string) error {
	return m.job(ctx, "StopUnit", unit)
}

func (m *DBusManager) Restart(ctx context.Context, unit string) error {
	return m.job(ctx, "RestartUnit", unit)
}

// job queues a unit job and waits for systemd to remove it. The method call
// only returns the job path; the outcome arrives later in JobRemoved.
func (m *DBusManager) job(ctx context.Context, method, unit string) error {
	// Registered before the call so a fast job's signal is not missed.
	signals := make(chan *dbus.Signal, 64)
	m.conn.Signal(signals)
	defer m.conn.RemoveSignal(signals)

	var jobPath dbus.ObjectPath
	obj := m.conn.Object(systemdDest, systemdPath)
	if err := obj.CallWithContext(ctx, managerIface+"."+method, 0, unit, jobModeReplace).Store(&jobPath); err != nil {
		return fmt.Errorf("%s %s: %w", method, unit, err)
	}

	result, err := awaitJob(ctx, signals, jobPath)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, unit, err)
	}
	return jobOutcome(method, unit, result)
}

// awaitJob reads JobRemoved signals until the one for job arrives and
// returns its result string.
func awaitJob(ctx context.Context, signals <-chan *dbus.Signal, job dbus.ObjectPath) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for job %s: %w", job, ctx.Err())
		case sig, ok := <-signals:
			if !ok {
				return "", fmt.Errorf("waiting for job %s: bus connection closed", job)
			}
			// JobRemoved carries (id uint32, job path, unit string, result string).
			if sig == nil || sig.Name != jobRemoved || len(sig.Body) < 4 {
				continue
			}
			if path, _ := sig.Body[1].(dbus.ObjectPath); path != job {
				continue
			}
			result, _ := sig.Body[3].(string)
			return result, nil
		}
	}
}

func jobOutcome(method, unit, result string) error {
	if result == jobResultDone {
		return nil
	}
	return fmt.Errorf("%w: %s %s finished with result %q", ErrJobFailed, method, unit, result)
}

func (m *DBusManager) ActiveState(ctx context.Context, unit string) (string, error) {
	path, err := m.unitPath(ctx, unit)
	if err != nil {
		return "", err
	}
	variant, err := m.property(ctx, path, "ActiveState")
	if err != nil {
		return "", err
	}
	state, _ := variant.Value().(string)
	return state, nil
}

func (m *DBusManager) Properties(ctx context.Context, unit string) (UnitProperties, error) {
	path, err := m.unitPath(ctx, unit)
	if err != nil {
		return UnitProperties{}, err
	}

	var props UnitProperties
	state, err := m.property(ctx, path, "ActiveState")
	if err != nil {
		return UnitProperties{}, err
	}
	props.ActiveState, _ = state.Value().(string)

	entered, err := m.property(ctx, path, "ActiveEnterTimestampMonotonic")
	if err != nil {
		return UnitProperties{}, err
	}
	props.ActiveEnterMonotonic, _ = entered.Value().(uint64)

	return props, nil
}

func (m *DBusManager) Journal(ctx context.Context, unit string, lines int) (string, error) {
	return m.journal.Journal(ctx, unit, lines)
}

// unitPath uses LoadUnit rather than GetUnit so inactive units that are not
// currently loaded still resolve.
func (m *DBusManager) unitPath(ctx context.Context, unit string) (dbus.ObjectPath, error) {
	var path dbus.ObjectPath
	obj := m.conn.Object(systemdDest, systemdPath)
	if err := obj.CallWithContext(ctx, managerIface+".LoadUnit", 0, unit).Store(&path); err != nil {
		return "", fmt.Errorf("load unit %s: %w", unit, err)
	}
	return path, nil
}

func (m *DBusManager) property(ctx context.Context, path dbus.ObjectPath, name string) (dbus.Variant, error) {
	var variant dbus.Variant
	obj := m.conn.Object(systemdDest, path)
	if err := obj.CallWithContext(ctx, propertiesGet, 0, unitIface, name).Store(&variant); err != nil {
		return dbus.Variant{}, fmt.Errorf("get %s: %w", name, err)
	}
	return variant, nil
}
