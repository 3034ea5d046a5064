package rcon

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	typeResponseValue  int32 = 0
	typeExecOrAuthResp int32 = 2
	typeAuth           int32 = 3
)

type packet struct {
	id   int32
	kind int32
	body string
}

func readPacket(r io.Reader) (packet, error) {
	var size int32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return packet{}, err
	}
	if size < 10 || size > 4096 {
		return packet{}, fmt.Errorf("bad packet size %d", size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return packet{}, err
	}
	return packet{
		id:   int32(binary.LittleEndian.Uint32(buf[0:4])),
		kind: int32(binary.LittleEndian.Uint32(buf[4:8])),
		body: string(buf[8 : len(buf)-2]),
	}, nil
}

func writePacket(w io.Writer, p packet) error {
	buf := make([]byte, 0, 14+len(p.body))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(len(p.body)+10)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.id))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(p.kind))
	buf = append(buf, p.body...)
	buf = append(buf, 0, 0)
	_, err := w.Write(buf)
	return err
}

// fakeServer is a minimal remote console. The handler sees each executed
// command and returns the response body.
type fakeServer struct {
	listener net.Listener
	password string
	handler  func(command string) string
	// stall makes the server accept connections and then go silent.
	stall bool

	mu          sync.Mutex
	connections int
	commands    []string
	wg          sync.WaitGroup
}

func newFakeServer(t *testing.T, password string, handler func(string) string) *fakeServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{listener: listener, password: password, handler: handler}
	t.Cleanup(func() {
		_ = listener.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeServer) start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.connections++
			s.mu.Unlock()

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer conn.Close()
				s.serve(conn)
			}()
		}
	}()
}

func (s *fakeServer) serve(conn net.Conn) {
	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))

	auth, err := readPacket(conn)
	if err != nil || auth.kind != typeAuth {
		return
	}
	if s.stall {
		_, _ = io.Copy(io.Discard, conn)
		return
	}
	if auth.body != s.password {
		_ = writePacket(conn, packet{id: -1, kind: typeExecOrAuthResp})
		return
	}
	if err := writePacket(conn, packet{id: auth.id, kind: typeExecOrAuthResp}); err != nil {
		return
	}

	for {
		cmd, err := readPacket(conn)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.commands = append(s.commands, cmd.body)
		s.mu.Unlock()

		if err := writePacket(conn, packet{id: cmd.id, kind: typeResponseValue, body: s.handler(cmd.body)}); err != nil {
			return
		}
	}
}

func (s *fakeServer) addr() string {
	return s.listener.Addr().String()
}

func (s *fakeServer) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *fakeServer) connectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

func TestExecuteReturnsResponse(t *testing.T) {
	server := newFakeServer(t, "secret", func(command string) string {
		return "There are 1 of a max of 20 players online: Steve"
	})
	server.start()

	client := NewClient(server.addr(), "secret")
	response, err := client.Execute("list")
	require.NoError(t, err)
	assert.Equal(t, "There are 1 of a max of 20 players online: Steve", response)

	_, err = client.Execute("list")
	require.NoError(t, err)
	assert.Equal(t, 2, server.connectionCount(), "each command uses a fresh session")
}

func TestExecuteAuthFailure(t *testing.T) {
	server := newFakeServer(t, "secret", func(string) string { return "" })
	server.start()

	client := NewClient(server.addr(), "wrong")
	_, err := client.Execute("list")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, PhaseAuth, execErr.Op)
	assert.Empty(t, server.received(), "no command is sent after a rejected login")
}

func TestExecuteConnectionRefused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = NewClient(addr, "secret").Execute("list")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, PhaseDial, execErr.Op)
}

func TestExecuteTimeout(t *testing.T) {
	server := newFakeServer(t, "secret", func(string) string { return "" })
	server.stall = true
	server.start()

	client := NewClient(server.addr(), "secret")
	client.timeout = 200 * time.Millisecond

	started := time.Now()
	_, err := client.Execute("list")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(started), 2*time.Second)
}

func TestExecuteRejectsEmptyCommand(t *testing.T) {
	server := newFakeServer(t, "secret", func(string) string { return "" })
	server.start()

	_, err := NewClient(server.addr(), "secret").Execute("")
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestConcurrentExecutionsAreIndependent(t *testing.T) {
	server := newFakeServer(t, "secret", func(command string) string {
		return "echo " + command
	})
	server.start()

	client := NewClient(server.addr(), "secret")

	const workers = 16
	responses := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = client.Execute(fmt.Sprintf("say %d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("echo say %d", i), responses[i])
	}
	assert.Equal(t, workers, server.connectionCount())
}
