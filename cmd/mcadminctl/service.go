package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/console"
	"github.com/TheGojiOG/mcadmin/internal/models"
	"github.com/TheGojiOG/mcadmin/internal/permissions"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
	"github.com/spf13/cobra"
)

func (c *cli) serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Control the game server and tunnel agent units",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the managed services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ServicesStatus); err != nil {
				return err
			}
			orch, release, err := c.orchestrator()
			if err != nil {
				return err
			}
			defer release()

			services := orch.Services()
			return c.print(cmd, services, func(w io.Writer) {
				for _, s := range services {
					fmt.Fprintf(w, "%-14s %s\n", s.Name, s.Unit)
				}
			})
		},
	}

	status := &cobra.Command{
		Use:   "status [service]",
		Short: "Show whether services are running",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ServicesStatus); err != nil {
				return err
			}
			orch, release, err := c.orchestrator()
			if err != nil {
				return err
			}
			defer release()

			if len(args) == 1 {
				obs := orch.Status(args[0])
				return c.print(cmd, obs, func(w io.Writer) {
					fmt.Fprintf(w, "%-14s %s\n", obs.Service, obs.State)
				})
			}

			all := orch.StatusAll()
			return c.print(cmd, all, func(w io.Writer) {
				for _, d := range orch.Services() {
					fmt.Fprintf(w, "%-14s %s\n", d.Name, all.Services[d.Name].State)
				}
			})
		},
	}

	var (
		lines         int
		filterMode    string
		filterPattern string
		caseSensitive bool
	)
	logs := &cobra.Command{
		Use:   "logs <service>",
		Short: "Print recent journal lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ServicesLogs); err != nil {
				return err
			}
			filter, err := console.NewOutputFilter(filterMode, filterPattern, caseSensitive)
			if err != nil {
				return err
			}
			orch, release, err := c.orchestrator()
			if err != nil {
				return err
			}
			defer release()

			out, err := orch.Logs(args[0], lines)
			if err != nil {
				return err
			}
			entries := []string{}
			if out != "" {
				entries = filter.FilterLines(strings.Split(out, "\n"))
			}

			resp := models.ServiceLogsResponse{Service: args[0], Lines: lines, Logs: entries}
			return c.print(cmd, resp, func(w io.Writer) {
				for _, line := range entries {
					fmt.Fprintln(w, line)
				}
			})
		},
	}
	logs.Flags().IntVarP(&lines, "lines", "n", 100, "number of lines (1-1000)")
	logs.Flags().StringVar(&filterMode, "filter", console.FilterNone, "filter mode: none, errors, search or regex")
	logs.Flags().StringVar(&filterPattern, "pattern", "", "search text or regular expression")
	logs.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match the pattern case-sensitively")

	uptime := &cobra.Command{
		Use:   "uptime <service>",
		Short: "Show how long a service has been active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(permissions.ServicesUptime); err != nil {
				return err
			}
			orch, release, err := c.orchestrator()
			if err != nil {
				return err
			}
			defer release()

			seconds, err := orch.Uptime(args[0])
			if err != nil {
				return err
			}
			resp := models.ServiceUptimeResponse{
				Service:         args[0],
				UptimeSeconds:   seconds,
				UptimeFormatted: systemd.FormatUptime(seconds),
			}
			return c.print(cmd, resp, func(w io.Writer) {
				fmt.Fprintf(w, "%s up %s\n", resp.Service, resp.UptimeFormatted)
			})
		},
	}

	cmd.AddCommand(
		list,
		status,
		c.lifecycleCmd("start", "Start a service", permissions.ServicesStart, (*systemd.Orchestrator).Start),
		c.lifecycleCmd("stop", "Stop a service", permissions.ServicesStop, (*systemd.Orchestrator).Stop),
		c.lifecycleCmd("restart", "Restart a service", permissions.ServicesRestart, (*systemd.Orchestrator).Restart),
		logs,
		uptime,
	)
	return cmd
}

func (c *cli) lifecycleCmd(use, short, action string, run func(*systemd.Orchestrator, string) (*systemd.ActionResult, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <service>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.authorize(action); err != nil {
				return err
			}
			orch, release, err := c.orchestrator()
			if err != nil {
				return err
			}
			defer release()

			result, err := run(orch, args[0])
			if err != nil {
				return err
			}
			return c.print(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s ok\n", result.Service, result.Action)
			})
		},
	}
}
