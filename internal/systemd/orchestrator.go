package systemd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	ActionTimeout = 10 * time.Second
	QueryTimeout  = 5 * time.Second

	MinLogLines = 1
	MaxLogLines = 1000

	stateActive   = "active"
	stateInactive = "inactive"
)

// Clock returns the current CLOCK_MONOTONIC reading.
type Clock func() (time.Duration, error)

// ActionResult reports a completed lifecycle action.
type ActionResult struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Service string `json:"service"`
}

// Observation is a fresh sample of one service's state.
type Observation struct {
	Service string `json:"service"`
	Active  bool   `json:"active"`
	State   string `json:"state"`
}

// SystemStatus samples every managed service.
type SystemStatus struct {
	Services  map[string]Observation `json:"services"`
	AllActive bool                   `json:"all_active"`
}

// Orchestrator runs lifecycle actions and reads on the managed services.
// Nothing is cached and concurrent calls for the same service are not
// serialized.
type Orchestrator struct {
	units    UnitManager
	services map[string]Descriptor
	order    []string
	clock    Clock

	actionTimeout time.Duration
	queryTimeout  time.Duration
}

// NewOrchestrator creates an orchestrator over the given services.
func NewOrchestrator(units UnitManager, descriptors []Descriptor) *Orchestrator {
	o := &Orchestrator{
		units:         units,
		services:      make(map[string]Descriptor, len(descriptors)),
		clock:         MonotonicNow,
		actionTimeout: ActionTimeout,
		queryTimeout:  QueryTimeout,
	}
	for _, d := range descriptors {
		if _, exists := o.services[d.Name]; !exists {
			o.order = append(o.order, d.Name)
		}
		o.services[d.Name] = d
	}
	return o
}

// Services returns the managed services in registration order.
func (o *Orchestrator) Services() []Descriptor {
	out := make([]Descriptor, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.services[name])
	}
	return out
}

func (o *Orchestrator) lookup(id string) (Descriptor, error) {
	d, ok := o.services[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownService, id)
	}
	return d, nil
}

func (o *Orchestrator) Start(id string) (*ActionResult, error) {
	return o.act(id, "start", o.units.Start)
}

func (o *Orchestrator) Stop(id string) (*ActionResult, error) {
	return o.act(id, "stop", o.units.Stop)
}

func (o *Orchestrator) Restart(id string) (*ActionResult, error) {
	return o.act(id, "restart", o.units.Restart)
}

func (o *Orchestrator) act(id, action string, run func(context.Context, string) error) (*ActionResult, error) {
	d, err := o.lookup(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.actionTimeout)
	defer cancel()

	log.Printf("[Orchestrator] %s %s (%s)", action, d.Name, d.Unit)
	if err := run(ctx, d.Unit); err != nil {
		log.Printf("[Orchestrator] %s %s failed: %v", action, d.Name, err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrProcessControl, action, d.Unit, err)
	}

	return &ActionResult{Success: true, Action: action, Service: d.Name}, nil
}

// Status samples the service. Any failure, including a name that maps to no
// managed unit, reads as inactive so a broken query never looks like a
// running service.
func (o *Orchestrator) Status(id string) Observation {
	d, err := o.lookup(id)
	if err != nil {
		log.Printf("[Orchestrator] status: %v", err)
		return Observation{Service: id, Active: false, State: stateInactive}
	}
	return o.observe(d)
}

func (o *Orchestrator) observe(d Descriptor) Observation {
	ctx, cancel := context.WithTimeout(context.Background(), o.queryTimeout)
	defer cancel()

	state, err := o.units.ActiveState(ctx, d.Unit)
	state = strings.TrimSpace(state)
	if err != nil || state == "" {
		if err != nil {
			log.Printf("[Orchestrator] status %s unavailable: %v", d.Name, err)
		}
		return Observation{Service: d.Name, Active: false, State: stateInactive}
	}
	return Observation{Service: d.Name, Active: state == stateActive, State: state}
}

// StatusAll samples every managed service concurrently.
func (o *Orchestrator) StatusAll() SystemStatus {
	var (
		mu     sync.Mutex
		status = SystemStatus{Services: make(map[string]Observation, len(o.order)), AllActive: len(o.order) > 0}
		group  errgroup.Group
	)

	for _, name := range o.order {
		d := o.services[name]
		group.Go(func() error {
			obs := o.observe(d)
			mu.Lock()
			defer mu.Unlock()
			status.Services[d.Name] = obs
			if !obs.Active {
				status.AllActive = false
			}
			return nil
		})
	}
	_ = group.Wait()

	return status
}

// Logs returns at most lines of the service's most recent journal output.
func (o *Orchestrator) Logs(id string, lines int) (string, error) {
	if lines < MinLogLines || lines > MaxLogLines {
		return "", fmt.Errorf("%w: got %d", ErrInvalidLineCount, lines)
	}
	d, err := o.lookup(id)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.queryTimeout)
	defer cancel()

	out, err := o.units.Journal(ctx, d.Unit, lines)
	if err != nil {
		return "", fmt.Errorf("%w: logs %s: %w", ErrProcessControl, d.Unit, err)
	}
	return lastLines(out, lines), nil
}

func lastLines(out string, n int) string {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return ""
	}
	lines := strings.Split(out, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Uptime returns whole seconds since the unit last entered the active
// state, measured on the monotonic clock. It returns 0 when the unit is not
// active, has no activation timestamp, or cannot be queried.
func (o *Orchestrator) Uptime(id string) (int64, error) {
	d, err := o.lookup(id)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.queryTimeout)
	defer cancel()

	props, err := o.units.Properties(ctx, d.Unit)
	if err != nil {
		log.Printf("[Orchestrator] uptime %s unavailable: %v", d.Name, err)
		return 0, nil
	}
	if props.ActiveState != stateActive || props.ActiveEnterMonotonic == 0 {
		return 0, nil
	}

	now, err := o.clock()
	if err != nil {
		log.Printf("[Orchestrator] monotonic clock unavailable: %v", err)
		return 0, nil
	}

	entered := time.Duration(props.ActiveEnterMonotonic) * time.Microsecond
	if now < entered {
		return 0, nil
	}
	return int64((now - entered) / time.Second), nil
}

// FormatUptime renders seconds as "Xd Xh Xm Xs".
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds%60)
}
