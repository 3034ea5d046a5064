package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/TheGojiOG/mcadmin/internal/models"
	"github.com/TheGojiOG/mcadmin/internal/policy"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/spf13/cobra"
)

func (c *cli) policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the command allow-list",
	}

	check := &cobra.Command{
		Use:   "check <command...>",
		Short: "Report whether the roles may send a command",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			engine, err := c.loadPolicy(cfg)
			if err != nil {
				return err
			}

			command := joinArgs(args)
			decision := engine.Authorize(command, c.roleSet())
			resp := models.CommandCheckResponse{Command: command, Allowed: decision.Allowed}
			if decision.Pattern != nil {
				resp.MatchedPattern = decision.Pattern.Expr
			}

			if err := c.print(cmd, resp, func(w io.Writer) {
				if resp.Allowed {
					fmt.Fprintf(w, "allowed: %q matches %s\n", command, resp.MatchedPattern)
				} else {
					fmt.Fprintf(w, "denied: %q\n", command)
				}
			}); err != nil {
				return err
			}
			if !resp.Allowed {
				return fmt.Errorf("%w: %q", server.ErrPolicyDenied, command)
			}
			return nil
		},
	}

	var showExamples bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List the patterns available to the roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			engine, err := c.loadPolicy(cfg)
			if err != nil {
				return err
			}

			resp := models.AllowedCommandsResponse{
				Roles:   c.roleSet().Names(),
				Allowed: engine.AllowedPatterns(c.roleSet()),
			}
			if showExamples {
				resp.Examples = engine.Examples()
			}

			return c.print(cmd, resp, func(w io.Writer) {
				tiers := make([]string, 0, len(resp.Allowed))
				for tier := range resp.Allowed {
					tiers = append(tiers, tier)
				}
				sort.Strings(tiers)
				if len(tiers) == 0 {
					fmt.Fprintln(w, "no console commands available")
				}
				for _, tier := range tiers {
					fmt.Fprintf(w, "%s:\n", tier)
					for _, expr := range resp.Allowed[tier] {
						fmt.Fprintf(w, "  %s\n", expr)
					}
				}
				for _, group := range resp.Examples {
					fmt.Fprintf(w, "\n# %s\n", group.Group)
					for _, ex := range group.Commands {
						fmt.Fprintf(w, "  %s\n", ex.Command)
					}
				}
			})
		},
	}
	list.Flags().BoolVar(&showExamples, "examples", false, "include example commands")

	validate := &cobra.Command{
		Use:   "validate <file>",
		Short: "Load and validate a policy file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := policy.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d operator, %d admin patterns, %d example groups\n",
				len(catalogue.Operator()), len(catalogue.Admin()), len(catalogue.Examples()))
			return nil
		},
	}

	cmd.AddCommand(check, list, validate)
	return cmd
}
