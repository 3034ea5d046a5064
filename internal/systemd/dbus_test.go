package systemd

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jobSignal(id uint32, job dbus.ObjectPath, unit, result string) *dbus.Signal {
	return &dbus.Signal{
		Sender: systemdDest,
		Path:   systemdPath,
		Name:   jobRemoved,
		Body:   []interface{}{id, job, unit, result},
	}
}

func TestAwaitJobMatchesJobPath(t *testing.T) {
	job := dbus.ObjectPath("/org/freedesktop/systemd1/job/42")
	signals := make(chan *dbus.Signal, 4)
	signals <- &dbus.Signal{Name: "org.freedesktop.DBus.Properties.PropertiesChanged"}
	signals <- jobSignal(41, "/org/freedesktop/systemd1/job/41", "playit.service", "done")
	signals <- jobSignal(42, job, "minecraft.service", "failed")

	result, err := awaitJob(context.Background(), signals, job)
	require.NoError(t, err)
	assert.Equal(t, "failed", result)
}

func TestAwaitJobHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := awaitJob(ctx, make(chan *dbus.Signal), "/org/freedesktop/systemd1/job/7")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitJobClosedBus(t *testing.T) {
	signals := make(chan *dbus.Signal)
	close(signals)

	_, err := awaitJob(context.Background(), signals, "/org/freedesktop/systemd1/job/7")
	assert.Error(t, err)
}

func TestJobOutcome(t *testing.T) {
	assert.NoError(t, jobOutcome("StartUnit", "minecraft.service", "done"))

	for _, result := range []string{"failed", "timeout", "dependency", "canceled", "skipped", ""} {
		err := jobOutcome("StartUnit", "minecraft.service", result)
		assert.ErrorIs(t, err, ErrJobFailed, result)
	}
}
