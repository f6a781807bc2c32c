package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rahul/maintbot/internal/commands"
	"github.com/rahul/maintbot/internal/governance"
	"github.com/rahul/maintbot/internal/maintenance"
	"github.com/rahul/maintbot/internal/maintlog"
	"github.com/rahul/maintbot/internal/observability"
	"github.com/rahul/maintbot/internal/registry"
	"github.com/rahul/maintbot/internal/store"
	"github.com/rahul/maintbot/pkg/config"
)

var (
	configPath    string
	userSetConfig bool
	verbose       bool
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("could not read .env")
	}

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintbot",
		Short: "Log equipment maintenance into the shared workbook from chat",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.ConfigureLogging(verbose)
			userSetConfig = cmd.Flags().Changed("config")
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "config file (yaml, toml or json)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newQueryCommand(commands.KindList, "List equipment in the registry"))
	cmd.AddCommand(newQueryCommand(commands.KindStatus, "Show last maintenance dates"))
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newCheckCommand())

	return cmd
}

// app holds the wiring shared by the server and the one-shot commands.
type app struct {
	cfg       *config.Config
	equipment *registry.Store
	history   *store.HistoryStore
	logger    *observability.Logger
	service   *maintenance.Service
	commands  *commands.Registry
	policy    *governance.DefaultPolicyEngine
}

func loadApp() (*app, error) {
	// The default config file is optional; environment variables suffice.
	path := configPath
	if _, err := os.Stat(path); os.IsNotExist(err) && !userSetConfig {
		path = ""
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if cfg.WorkbookPath() == "" {
		return nil, fmt.Errorf("no workbook configured: set maintenance.excel_file_path or MAINTBOT_WORKBOOK_PATH")
	}

	history, err := store.NewHistoryStore(cfg.Memory.Path)
	if err != nil {
		return nil, err
	}

	equipment := registry.NewStore(cfg.Maintenance.RegistryPath)
	logger := observability.NewLogger(cfg.App.LogDir)
	updater := maintlog.NewUpdater(cfg, equipment)
	service := maintenance.NewService(equipment, updater, history).WithEvents(logger)

	policy, err := buildPolicy(cfg.Policy)
	if err != nil {
		history.Close()
		return nil, err
	}

	return &app{
		cfg:       cfg,
		equipment: equipment,
		history:   history,
		logger:    logger,
		service:   service,
		commands:  commands.NewDefaultRegistry(service, equipment, history),
		policy:    policy,
	}, nil
}

func (a *app) Close() {
	if err := a.history.Close(); err != nil {
		log.WithError(err).Warn("closing history store")
	}
}

func buildPolicy(p config.PolicyConfig) (*governance.DefaultPolicyEngine, error) {
	gov := governance.NewDefaultPolicyEngine()
	for _, u := range p.AllowedUsers {
		gov.AllowUser(u)
	}
	for _, c := range p.AllowedChats {
		gov.AllowChat(c)
	}
	for _, c := range p.DeniedCommands {
		gov.DenyCommand(c)
	}
	for _, pattern := range p.DeniedPatterns {
		if err := gov.DenyArguments(pattern); err != nil {
			return nil, fmt.Errorf("policy pattern %q: %w", pattern, err)
		}
	}
	return gov, nil
}
