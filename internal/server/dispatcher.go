package server

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/auth"
	"github.com/TheGojiOG/mcadmin/internal/console"
	"github.com/TheGojiOG/mcadmin/internal/policy"
)

var (
	// ErrPolicyDenied means the command was rejected before reaching the
	// game server.
	ErrPolicyDenied    = errors.New("command not permitted")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrExecution wraps every console failure: connection, login,
	// timeout or protocol.
	ErrExecution = errors.New("command execution failed")
)

// ListCommand asks the server for its player roster.
const ListCommand = "list"

// CommandResult is the outcome of one dispatched command. Players is only
// set for the list command.
type CommandResult struct {
	Command  string              `json:"command"`
	Success  bool                `json:"success"`
	Response string              `json:"response"`
	Players  *console.PlayerList `json:"players,omitempty"`
	Pattern  string              `json:"matched_pattern,omitempty"`
}

// Dispatcher sends authorized commands to the game server. It holds no
// per-request state and is shared by all handlers.
type Dispatcher struct {
	policy   *policy.Engine
	executor Executor
}

// NewDispatcher creates a dispatcher
func NewDispatcher(engine *policy.Engine, executor Executor) *Dispatcher {
	return &Dispatcher{policy: engine, executor: executor}
}

// Policy returns the engine used for free-form commands.
func (d *Dispatcher) Policy() *policy.Engine {
	return d.policy
}

// Run checks a free-form command against the policy and sends it. Denied
// commands never reach the network.
func (d *Dispatcher) Run(command string, roles auth.RoleSet) (*CommandResult, error) {
	command = strings.TrimSpace(command)

	decision := d.policy.Authorize(command, roles)
	if !decision.Allowed {
		log.Printf("[Dispatcher] Denied command %q for roles %q", command, roles.String())
		return nil, fmt.Errorf("%w: %q", ErrPolicyDenied, command)
	}

	result, err := d.send(command)
	if err != nil {
		return nil, err
	}
	result.Pattern = decision.Pattern.Expr
	return result, nil
}

// Test sends the list command to check that the console is reachable.
func (d *Dispatcher) Test() (*CommandResult, error) {
	return d.send(ListCommand)
}

// PlayerList fetches and interprets the roster. Failures are reported in
// the result's Error field, never returned.
func (d *Dispatcher) PlayerList() console.PlayerList {
	response, err := d.executor.Execute(ListCommand)
	if err != nil {
		log.Printf("[Dispatcher] Player list unavailable: %v", err)
		return console.EmptyPlayerList(err.Error())
	}
	return console.ParsePlayerList(response)
}

// Kick removes a player from the server with an optional reason.
func (d *Dispatcher) Kick(player, reason string) (*CommandResult, error) {
	return d.playerCommand("kick", player, reason)
}

// Ban bans a player with an optional reason.
func (d *Dispatcher) Ban(player, reason string) (*CommandResult, error) {
	return d.playerCommand("ban", player, reason)
}

func (d *Dispatcher) Pardon(player string) (*CommandResult, error) {
	return d.playerCommand("pardon", player, "")
}

func (d *Dispatcher) WhitelistAdd(player string) (*CommandResult, error) {
	return d.playerCommand("whitelist add", player, "")
}

func (d *Dispatcher) WhitelistRemove(player string) (*CommandResult, error) {
	return d.playerCommand("whitelist remove", player, "")
}

func (d *Dispatcher) Op(player string) (*CommandResult, error) {
	return d.playerCommand("op", player, "")
}

func (d *Dispatcher) Deop(player string) (*CommandResult, error) {
	return d.playerCommand("deop", player, "")
}

// Broadcast sends a chat message to every player.
func (d *Dispatcher) Broadcast(message string) (*CommandResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidArgument)
	}
	return d.send("say " + message)
}

// playerCommand builds "<verb> <player> [suffix]". Arguments are trimmed
// and otherwise passed through unchanged.
func (d *Dispatcher) playerCommand(verb, player, suffix string) (*CommandResult, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		return nil, fmt.Errorf("%w: player is required", ErrInvalidArgument)
	}
	command := strings.TrimSpace(verb + " " + player + " " + strings.TrimSpace(suffix))
	return d.send(command)
}

func (d *Dispatcher) send(command string) (*CommandResult, error) {
	response, err := d.executor.Execute(command)
	if err != nil {
		log.Printf("[Dispatcher] Command %q failed: %v", command, err)
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	result := &CommandResult{
		Command:  command,
		Success:  true,
		Response: response,
	}
	if strings.EqualFold(command, ListCommand) {
		players := console.ParsePlayerList(response)
		result.Players = &players
	}
	return result, nil
}
