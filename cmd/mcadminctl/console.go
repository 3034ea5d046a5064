package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/console"
	"github.com/TheGojiOG/mcadmin/internal/permissions"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/spf13/cobra"
)

func (c *cli) rconCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rcon",
		Short: "Talk to the game server console",
	}

	exec := &cobra.Command{
		Use:   "exec <command...>",
		Short: "Send an allow-listed console command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ConsoleExecute); err != nil {
				return err
			}
			d, err := c.dispatcher()
			if err != nil {
				return err
			}
			result, err := d.Run(joinArgs(args), c.roleSet())
			if err != nil {
				return err
			}
			return c.printResult(cmd, result)
		},
	}

	test := &cobra.Command{
		Use:   "test",
		Short: "Check that the console answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ConsoleTest); err != nil {
				return err
			}
			d, err := c.dispatcher()
			if err != nil {
				return err
			}
			result, err := d.Test()
			if err != nil {
				return err
			}
			return c.printResult(cmd, result)
		},
	}

	cmd.AddCommand(exec, test)
	return cmd
}

func (c *cli) playersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "Show who is online",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.PlayersRead); err != nil {
				return err
			}
			d, err := c.dispatcher()
			if err != nil {
				return err
			}
			players := d.PlayerList()
			return c.print(cmd, players, func(w io.Writer) {
				writePlayers(w, players)
			})
		},
	}
}

// playerAction binds a CLI verb to a dispatcher template and its permission.
type playerAction struct {
	use       string
	short     string
	action    string
	hasReason bool
	run       func(d *server.Dispatcher, player, reason string) (*server.CommandResult, error)
}

func (c *cli) playerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Moderate a single player",
	}

	actions := []playerAction{
		{use: "kick", short: "Kick a player", action: permissions.PlayersKick, hasReason: true,
			run: func(d *server.Dispatcher, p, r string) (*server.CommandResult, error) { return d.Kick(p, r) }},
		{use: "ban", short: "Ban a player", action: permissions.PlayersBan, hasReason: true,
			run: func(d *server.Dispatcher, p, r string) (*server.CommandResult, error) { return d.Ban(p, r) }},
		{use: "pardon", short: "Lift a player's ban", action: permissions.PlayersPardon,
			run: func(d *server.Dispatcher, p, _ string) (*server.CommandResult, error) { return d.Pardon(p) }},
		{use: "op", short: "Grant operator status", action: permissions.PlayersOp,
			run: func(d *server.Dispatcher, p, _ string) (*server.CommandResult, error) { return d.Op(p) }},
		{use: "deop", short: "Revoke operator status", action: permissions.PlayersDeop,
			run: func(d *server.Dispatcher, p, _ string) (*server.CommandResult, error) { return d.Deop(p) }},
		{use: "whitelist-add", short: "Add a player to the whitelist", action: permissions.WhitelistAdd,
			run: func(d *server.Dispatcher, p, _ string) (*server.CommandResult, error) { return d.WhitelistAdd(p) }},
		{use: "whitelist-remove", short: "Remove a player from the whitelist", action: permissions.WhitelistRemove,
			run: func(d *server.Dispatcher, p, _ string) (*server.CommandResult, error) { return d.WhitelistRemove(p) }},
	}

	for _, a := range actions {
		cmd.AddCommand(c.playerActionCmd(a))
	}
	return cmd
}

func (c *cli) playerActionCmd(a playerAction) *cobra.Command {
	use := a.use + " <player>"
	args := cobra.ExactArgs(1)
	if a.hasReason {
		use += " [reason...]"
		args = cobra.MinimumNArgs(1)
	}

	return &cobra.Command{
		Use:   use,
		Short: a.short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(a.action); err != nil {
				return err
			}
			d, err := c.dispatcher()
			if err != nil {
				return err
			}
			result, err := a.run(d, args[0], joinArgs(args[1:]))
			if err != nil {
				return err
			}
			return c.printResult(cmd, result)
		},
	}
}

func (c *cli) broadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <message...>",
		Short: "Send a chat message to every player",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ChatBroadcast); err != nil {
				return err
			}
			d, err := c.dispatcher()
			if err != nil {
				return err
			}
			result, err := d.Broadcast(joinArgs(args))
			if err != nil {
				return err
			}
			return c.printResult(cmd, result)
		},
	}
}

func (c *cli) printResult(cmd *cobra.Command, result *server.CommandResult) error {
	return c.print(cmd, result, func(w io.Writer) {
		if result.Players != nil {
			writePlayers(w, *result.Players)
			return
		}
		response := console.StripFormatting(result.Response)
		if strings.TrimSpace(response) == "" {
			fmt.Fprintf(w, "%s: ok\n", result.Command)
			return
		}
		fmt.Fprintln(w, response)
	})
}

func writePlayers(w io.Writer, players console.PlayerList) {
	if !players.OK() {
		fmt.Fprintf(w, "player list unavailable: %s\n", players.Error)
		return
	}
	fmt.Fprintf(w, "%d/%d online\n", players.Online, players.Max)
	for _, name := range players.Players {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
