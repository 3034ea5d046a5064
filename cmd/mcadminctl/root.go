package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TheGojiOG/mcadmin/internal/auth"
	"github.com/TheGojiOG/mcadmin/internal/config"
	"github.com/TheGojiOG/mcadmin/internal/logging"
	"github.com/TheGojiOG/mcadmin/internal/permissions"
	"github.com/TheGojiOG/mcadmin/internal/policy"
	"github.com/TheGojiOG/mcadmin/internal/rcon"
	"github.com/TheGojiOG/mcadmin/internal/server"
	"github.com/TheGojiOG/mcadmin/internal/systemd"
	"github.com/spf13/cobra"
)

// backends builds the outbound collaborators. Tests swap in doubles.
type backends struct {
	executor func(cfg config.RCONConfig) server.Executor
	units    func(cfg config.ServicesConfig) (systemd.UnitManager, error)
}

func defaultBackends() backends {
	return backends{
		executor: func(cfg config.RCONConfig) server.Executor {
			return rcon.NewClient(cfg.Address(), cfg.Password)
		},
		units: systemd.NewUnitManager,
	}
}

type cli struct {
	backends

	configPath string
	roles      []string
	jsonOutput bool
	verbose    bool
}

func newRootCmd(b backends) *cobra.Command {
	c := &cli{backends: b}

	root := &cobra.Command{
		Use:          "mcadminctl",
		Short:        "Administer the Minecraft server from the host",
		Long:         `mcadminctl runs the gateway's policy, console and service operations directly, acting with the roles given by --role.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.configPath != "" {
				if err := os.Setenv("CONFIG_PATH", c.configPath); err != nil {
					return err
				}
			}
			return nil
		},
	}

	// Global flags available to all subcommands
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to config.yaml (defaults to CONFIG_PATH or ./configs/config.yaml)")
	root.PersistentFlags().StringSliceVarP(&c.roles, "role", "r", []string{string(auth.RoleViewer)}, "roles to act with (viewer, operator, admin)")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		c.policyCmd(),
		c.rconCmd(),
		c.playersCmd(),
		c.playerCmd(),
		c.broadcastCmd(),
		c.serviceCmd(),
	)
	return root
}

func (c *cli) roleSet() auth.RoleSet {
	return auth.NewRoleSet(c.roles...)
}

// authorize applies the same coarse tier table as the HTTP layer.
func (c *cli) authorize(action string) error {
	roles := c.roleSet()
	if permissions.Allowed(action, roles) {
		return nil
	}
	tier, _ := permissions.MinimumTier(action)
	return fmt.Errorf("%s requires the %s role (have %q)", action, tier, roles.String())
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}
	if c.verbose {
		if _, err := logging.InitTo(cfg.Logging, os.Stderr); err != nil {
			return nil, fmt.Errorf("failed to set up logging: %w", err)
		}
	}
	return cfg, nil
}

func (c *cli) loadPolicy(cfg *config.Config) (*policy.Engine, error) {
	catalogue, err := policy.LoadFile(cfg.Policy.Path)
	if err != nil {
		return nil, err
	}
	return policy.NewEngine(catalogue), nil
}

func (c *cli) dispatcher() (*server.Dispatcher, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RCON.Validate(); err != nil {
		return nil, err
	}
	engine, err := c.loadPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return server.NewDispatcher(engine, c.executor(cfg.RCON)), nil
}

// orchestrator returns the orchestrator and a release func for the backend.
func (c *cli) orchestrator() (*systemd.Orchestrator, func(), error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Services.Validate(); err != nil {
		return nil, nil, err
	}
	units, err := c.units(cfg.Services)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if closer, ok := units.(io.Closer); ok {
			_ = closer.Close()
		}
	}
	return systemd.NewOrchestrator(units, systemd.Descriptors(cfg.Services)), release, nil
}

// print writes v as indented JSON when --json is set, otherwise calls text.
func (c *cli) print(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if c.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
