package models

import (
	"github.com/TheGojiOG/mcadmin/internal/console"
	"github.com/TheGojiOG/mcadmin/internal/policy"
)

// CommandRequest represents a console command request
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// BroadcastRequest carries a chat message for every player.
type BroadcastRequest struct {
	Message string `json:"message" binding:"required"`
}

// CommandResponse represents the response to a command
type CommandResponse struct {
	Success        bool                `json:"success"`
	Command        string              `json:"command,omitempty"`
	ExecutedBy     string              `json:"executed_by,omitempty"`
	Response       string              `json:"response"`
	MatchedPattern string              `json:"matched_pattern,omitempty"`
	Players        *console.PlayerList `json:"players,omitempty"`
}

// CommandCheckResponse reports a policy decision without executing anything.
type CommandCheckResponse struct {
	Command        string `json:"command"`
	Allowed        bool   `json:"allowed"`
	MatchedPattern string `json:"matched_pattern,omitempty"`
}

// AllowedCommandsResponse lists the patterns available to the caller.
type AllowedCommandsResponse struct {
	Roles    []string              `json:"roles"`
	Allowed  map[string][]string   `json:"allowed"`
	Examples []policy.ExampleGroup `json:"examples"`
}

// ServiceLogsResponse carries recent journal lines for one service.
type ServiceLogsResponse struct {
	Service string   `json:"service"`
	Lines   int      `json:"lines"`
	Logs    []string `json:"logs"`
}

// ServiceUptimeResponse reports time since the service became active.
type ServiceUptimeResponse struct {
	Service         string `json:"service"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	UptimeFormatted string `json:"uptime_formatted"`
}
