package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/rahul/maintbot/internal/agent"
	"github.com/rahul/maintbot/internal/gateway"
	"github.com/rahul/maintbot/internal/observability"
)

func newServeCommand() *cobra.Command {
	var promptsDir string
	var dashboard bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat gateways and the due-maintenance scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(promptsDir, dashboard)
		},
	}
	cmd.Flags().StringVar(&promptsDir, "prompts", "./prompts", "directory of interpreter prompt files")
	cmd.Flags().BoolVar(&dashboard, "dashboard", true, "show the live status line on a terminal")
	return cmd
}

func serve(promptsDir string, dashboard bool) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dashboard = dashboard && observability.IsTerminal()
	if dashboard {
		observability.PrintBanner()
		observability.InitializeTerminal()
		defer observability.CleanupTerminal()
	}

	interpreter, err := a.interpreter(promptsDir)
	if err != nil {
		return err
	}
	brain := agent.NewCommandBrain(a.commands, a.policy, interpreter, a.logger)

	gateways, targets, err := a.gateways(brain)
	if err != nil {
		return err
	}
	if len(gateways) == 0 {
		return fmt.Errorf("no gateway enabled: configure telegram, discord or http")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(targets) > 0 {
		scheduler := agent.NewScheduler(a.equipment, a.history, targets, a.cfg.Maintenance.AlertDaysBefore, a.cfg.CheckInterval())
		scheduler.Logger = a.logger
		go scheduler.Start(ctx)
	} else {
		log.Warn("No notify_chats configured, due reminders are disabled")
	}

	if dashboard {
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					observability.PrintLiveStatus()
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.logger.LogHeartbeat()
			}
		}
	}()

	for name, g := range gateways {
		go func() {
			if err := g.Start(ctx); err != nil {
				log.WithError(err).WithField("gateway", name).Error("GATEWAY CRITICAL ERROR")
				stop()
			}
		}()
	}

	<-ctx.Done()
	for name, g := range gateways {
		if err := g.Stop(); err != nil {
			log.WithError(err).WithField("gateway", name).Warn("gateway did not stop cleanly")
		}
	}
	log.Info("maintbot stopped")
	return nil
}

// interpreter returns nil when no model provider is enabled, which keeps the
// bot on strict command parsing.
func (a *app) interpreter(promptsDir string) (*agent.Interpreter, error) {
	pName, pCfg := a.cfg.GetDefaultProvider()
	switch pName {
	case "":
		log.Info("No model provider enabled, free-text messages will not be interpreted")
		return nil, nil
	case "openai", "openrouter":
	default:
		return nil, fmt.Errorf("provider %s not yet implemented", pName)
	}

	opts := []openai.Option{
		openai.WithToken(pCfg.APIKey),
		openai.WithModel(pCfg.Model),
	}
	if pCfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return agent.NewInterpreter(llm, a.commands, agent.NewPromptManager(promptsDir), a.logger), nil
}

// gateways builds every enabled gateway and the reminder targets among them.
func (a *app) gateways(brain agent.Brain) (map[string]gateway.Messenger, []agent.Target, error) {
	gateways := make(map[string]gateway.Messenger)
	var targets []agent.Target

	if tgCfg, ok := a.cfg.GetTelegramConfig(); ok {
		if tgCfg.Token == "" {
			return nil, nil, fmt.Errorf("telegram gateway is enabled but the token is missing")
		}
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, brain)
		if err != nil {
			return nil, nil, fmt.Errorf("telegram: %w", err)
		}
		gateways["telegram"] = tg
		for _, chat := range tgCfg.NotifyChats {
			targets = append(targets, agent.Target{Messenger: tg, ChatID: chat})
		}
	}

	if dcCfg, ok := a.cfg.GetDiscordConfig(); ok {
		if dcCfg.Token == "" {
			return nil, nil, fmt.Errorf("discord gateway is enabled but the token is missing")
		}
		dc, err := gateway.NewDiscordGateway(dcCfg.Token, brain)
		if err != nil {
			return nil, nil, fmt.Errorf("discord: %w", err)
		}
		gateways["discord"] = dc
		for _, chat := range dcCfg.NotifyChats {
			targets = append(targets, agent.Target{Messenger: dc, ChatID: chat})
		}
	}

	if hCfg, ok := a.cfg.GetHTTPConfig(); ok {
		h := gateway.NewHTTPGateway(hCfg.Listen, hCfg.Token, brain)
		h.Service = a.cfg.App.Name
		gateways["http"] = h
	}

	return gateways, targets, nil
}
