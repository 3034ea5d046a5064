package server

import (
	"sort"
	"strings"
	"sync"
)

// Executor sends one command to the game server console and returns its
// reply. The rcon client satisfies it.
type Executor interface {
	Execute(command string) (string, error)
}

// MockCommandExecutor for testing
type MockCommandExecutor struct {
	MockOutput string
	MockError  error
	// Handlers are matched by the longest prefix of the command.
	Handlers map[string]func(command string) (string, error)

	mu       sync.Mutex
	commands []string
}

func (m *MockCommandExecutor) Execute(command string) (string, error) {
	m.mu.Lock()
	m.commands = append(m.commands, command)
	m.mu.Unlock()

	if len(m.Handlers) > 0 {
		prefixes := make([]string, 0, len(m.Handlers))
		for prefix := range m.Handlers {
			prefixes = append(prefixes, prefix)
		}
		sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
		for _, prefix := range prefixes {
			if strings.HasPrefix(command, prefix) {
				return m.Handlers[prefix](command)
			}
		}
	}
	return m.MockOutput, m.MockError
}

// Commands returns every command received so far, in order.
func (m *MockCommandExecutor) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}
