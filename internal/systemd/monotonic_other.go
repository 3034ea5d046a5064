//go:build !linux

package systemd

import (
	"errors"
	"time"
)

// MonotonicNow is only available on Linux, where systemd runs.
func MonotonicNow() (time.Duration, error) {
	return 0, errors.New("monotonic clock not supported on this platform")
}
