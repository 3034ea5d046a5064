package rcon

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/TheGojiOG/mcadmin/internal/logging"
	"github.com/gorcon/rcon"
)

// Timeout bounds the dial and every read or write of one exchange.
const Timeout = 5 * time.Second

var (
	ErrConnection = errors.New("rcon connection failed")
	ErrAuth       = errors.New("rcon authentication failed")
	ErrTimeout    = errors.New("rcon timed out")
	ErrProtocol   = errors.New("rcon protocol error")
)

// Phases of one exchange, reported in ExecError.
const (
	PhaseDial = "dial"
	PhaseAuth = "auth"
	PhaseExec = "exec"
)

// ExecError describes a failed exchange. Kind is one of the package
// sentinels and is matched by errors.Is.
type ExecError struct {
	Op   string
	Addr string
	Kind error
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Addr, e.Kind, e.Err)
}

func (e *ExecError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Client runs commands on a remote console. Every call opens its own
// authenticated connection and closes it before returning, so a single
// Client can be shared freely between goroutines.
type Client struct {
	addr     string
	password string
	timeout  time.Duration
}

// NewClient creates a client for the console at addr (host:port).
func NewClient(addr, password string) *Client {
	return &Client{
		addr:     addr,
		password: password,
		timeout:  Timeout,
	}
}

// Addr returns the console address.
func (c *Client) Addr() string {
	return c.addr
}

// Execute sends command and returns the server's response text.
func (c *Client) Execute(command string) (string, error) {
	started := time.Now()
	logger := logging.Component("rcon")

	conn, err := rcon.Dial(c.addr, c.password,
		rcon.SetDialTimeout(c.timeout),
		rcon.SetDeadline(c.timeout),
	)
	if err != nil {
		// Dial closes the connection itself when authentication fails.
		execErr := c.classify(dialPhase(err), err)
		logger.Warn("rcon_dial_failed", "addr", c.addr, "phase", execErr.Op, "error", err)
		return "", execErr
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Debug("rcon_close_failed", "addr", c.addr, "error", closeErr)
		}
	}()

	response, err := conn.Execute(command)
	if err != nil {
		execErr := c.classify(PhaseExec, err)
		logger.Warn("rcon_exec_failed", "addr", c.addr, "command", command, "error", err)
		return "", execErr
	}

	logger.Debug("rcon_exec", "addr", c.addr, "command", command, "duration", time.Since(started))
	return response, nil
}

// dialPhase separates TCP connect failures from failures during the
// authentication handshake, both of which rcon.Dial reports.
func dialPhase(err error) string {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return PhaseDial
	}
	return PhaseAuth
}

func (c *Client) classify(phase string, err error) *ExecError {
	return &ExecError{Op: phase, Addr: c.addr, Kind: kindOf(phase, err), Err: err}
}

func kindOf(phase string, err error) error {
	if errors.Is(err, rcon.ErrAuthFailed) {
		return ErrAuth
	}

	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return ErrTimeout
	}

	if phase == PhaseDial ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return ErrConnection
	}

	return ErrProtocol
}
