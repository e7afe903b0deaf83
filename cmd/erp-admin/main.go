package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mikelcalvo/erp-admin/internal/api"
	"github.com/mikelcalvo/erp-admin/internal/config"
	"github.com/mikelcalvo/erp-admin/internal/logger"
	"github.com/mikelcalvo/erp-admin/internal/tui"
)

// Colors for terminal output
const (
	Red    = "\033[0;31m"
	Green  = "\033[0;32m"
	Yellow = "\033[1;33m"
	Blue   = "\033[0;34m"
	Cyan   = "\033[0;36m"
	Reset  = "\033[0m"
)

// env is what every command that talks to the backend needs.
type env struct {
	cfg    *config.Config
	client *api.Client
	log    zerolog.Logger
	closer io.Closer
}

func (e *env) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// setup loads the config, starts logging and builds the API client.
func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	closer, err := logger.Setup(cfg.LoggerConfig())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tokens := api.StaticToken(cfg.APIToken)
	if cfg.TokenFile != "" {
		tokens = api.FileToken(cfg.TokenFile, cfg.TokenTTL)
	}
	client, err := api.New(cfg.BaseURL(), tokens, api.WithLogger(logger.WithComponent("api")))
	if err != nil {
		closer.Close()
		return nil, err
	}
	return &env{cfg: cfg, client: client, log: logger.WithComponent("cmd"), closer: closer}, nil
}

// app holds the state shared by the commands of one invocation.
type app struct {
	setup func() (*env, error)
	env   *env
	yes   bool
}

// offline marks commands that run without config.
const offline = "offline"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "erp-admin",
		Short: "ERP admin console and command line",
		Long: `erp-admin manages the master data and documents of the ERP backend.

Without a command it opens the interactive console. The other commands
script the same operations: list, inspect, create, update and delete
records, and move documents through their workflow.

Configuration is read from .erp-config (or the environment):
  ERP_API_URL     backend origin, /api/ is appended
  ERP_API_TOKEN   bearer token, or
  ERP_TOKEN_FILE  file holding the token, re-read every ERP_TOKEN_TTL`,
		Example: `  erp-admin
  erp-admin list customers --search acme
  erp-admin get sales 12
  erp-admin create customers name="Acme Ltd" phone=555-0101
  erp-admin set firms 3 vat_type=standard
  erp-admin approve receipts 7
  erp-admin summary prices`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsBackend(cmd) || a.env != nil {
				return nil
			}
			e, err := a.setup()
			if err != nil {
				return err
			}
			a.env = e
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(a.env.client, a.env.cfg)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "tui",
			Short: "Open the interactive console",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return tui.Run(a.env.client, a.env.cfg)
			},
		},
		pingCmd(a),
		configCmd(a),
		versionCmd(),
		listCmd(a),
		getCmd(a),
		createCmd(a),
		setCmd(a),
		deleteCmd(a),
		summaryCmd(a),
	)
	for _, c := range transitionCmds(a) {
		root.AddCommand(c)
	}
	return root
}

func needsBackend(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[offline] != "" {
			return false
		}
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{offline: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ERP Admin v%s\n", tui.Version)
			fmt.Fprintf(out, "Created by %s in %s\n", tui.Author, tui.Year)
		},
	}
}

func pingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test connection and authentication",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%sTesting connection to %s...%s\n", Blue, a.env.cfg.APIURL, Reset)
			items, err := a.env.client.GetCollection(cmd.Context(), "companies/", nil)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			fmt.Fprintf(out, "%s✓ Connection successful%s\n", Green, Reset)
			fmt.Fprintf(out, "  Companies visible: %s%d%s\n", Yellow, len(items), Reset)
			return nil
		},
	}
}

func configCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg := a.env.cfg
			fmt.Fprintf(out, "%sCurrent configuration:%s\n", Blue, Reset)
			if cfg.Path != "" {
				fmt.Fprintf(out, "  File: %s\n", cfg.Path)
			} else {
				fmt.Fprintf(out, "  File: %snone, environment only%s\n", Yellow, Reset)
			}
			fmt.Fprintf(out, "  API URL: %s\n", cfg.BaseURL())
			switch {
			case cfg.TokenFile != "":
				fmt.Fprintf(out, "  Token: file %s (cached %s)\n", cfg.TokenFile, cfg.TokenTTL)
			case len(cfg.APIToken) > 8:
				fmt.Fprintf(out, "  Token: %s...\n", cfg.APIToken[:8])
			default:
				fmt.Fprintf(out, "  Token: ****\n")
			}
			fmt.Fprintf(out, "  Brand: %s\n", cfg.Brand)
			fmt.Fprintf(out, "  Page size: %d\n", cfg.PageSize)
			fmt.Fprintf(out, "  Log: %s %s -> %s\n", cfg.LogLevel, cfg.LogFormat, cfg.LogOutput)
			return nil
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{setup: setup}
	root := newRootCmd(a)

	err := root.ExecuteContext(ctx)
	stop()
	if err != nil && a.env != nil {
		a.env.log.Error().Err(err).Msg("command failed")
	}
	a.env.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %s%s\n", Red, err, Reset)
		os.Exit(1)
	}
}
