package permissions

import "github.com/TheGojiOG/mcadmin/internal/auth"

// Action names checked by the HTTP layer and the CLI.
const (
	PlayersRead     = "players.read"
	CommandsAllowed = "commands.allowed"
	ServicesStatus  = "services.status"
	ServicesLogs    = "services.logs"
	ServicesUptime  = "services.uptime"

	ConsoleExecute  = "console.execute"
	ConsoleTest     = "console.test"
	PlayersKick     = "players.kick"
	WhitelistAdd    = "whitelist.add"
	WhitelistRemove = "whitelist.remove"
	ChatBroadcast   = "chat.broadcast"
	ServicesStart   = "services.start"
	ServicesRestart = "services.restart"

	PlayersBan    = "players.ban"
	PlayersPardon = "players.pardon"
	PlayersOp     = "players.op"
	PlayersDeop   = "players.deop"
	ServicesStop  = "services.stop"
)

var minimumTier = map[string]auth.Tier{
	PlayersRead:     auth.TierViewer,
	CommandsAllowed: auth.TierViewer,
	ServicesStatus:  auth.TierViewer,
	ServicesLogs:    auth.TierViewer,
	ServicesUptime:  auth.TierViewer,

	ConsoleExecute:  auth.TierOperator,
	ConsoleTest:     auth.TierOperator,
	PlayersKick:     auth.TierOperator,
	WhitelistAdd:    auth.TierOperator,
	WhitelistRemove: auth.TierOperator,
	ChatBroadcast:   auth.TierOperator,
	ServicesStart:   auth.TierOperator,
	ServicesRestart: auth.TierOperator,

	PlayersBan:    auth.TierAdmin,
	PlayersPardon: auth.TierAdmin,
	PlayersOp:     auth.TierAdmin,
	PlayersDeop:   auth.TierAdmin,
	ServicesStop:  auth.TierAdmin,
}

// MinimumTier returns the lowest tier allowed to perform action. Unknown
// actions report false.
func MinimumTier(action string) (auth.Tier, bool) {
	tier, ok := minimumTier[action]
	return tier, ok
}

// Allowed reports whether roles may perform action. Unknown actions are denied.
func Allowed(action string, roles auth.RoleSet) bool {
	tier, ok := minimumTier[action]
	if !ok {
		return false
	}
	return roles.AtLeast(tier)
}

// All returns every known action.
func All() []string {
	actions := make([]string, 0, len(minimumTier))
	for action := range minimumTier {
		actions = append(actions, action)
	}
	return actions
}
