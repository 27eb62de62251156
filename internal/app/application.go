package app

import (
	"context"
	"flag"
	"time"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/admin"
	"github.com/ezhov-dev/zapguard/internal/commands/aicmd"
	"github.com/ezhov-dev/zapguard/internal/commands/attendance"
	"github.com/ezhov-dev/zapguard/internal/commands/browse"
	docscmd "github.com/ezhov-dev/zapguard/internal/commands/docs"
	"github.com/ezhov-dev/zapguard/internal/commands/help"
	"github.com/ezhov-dev/zapguard/internal/commands/memory"
	"github.com/ezhov-dev/zapguard/internal/commands/remind"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/core"
	"github.com/ezhov-dev/zapguard/internal/health"
)

const (
	messageRetentionDays = 30
	taskRetentionDays    = 7
	cleanupInterval      = 24 * time.Hour
)

type Application struct {
	container *di.Container
	registry  *commands.Registry
	bot       *core.Bot
	monitor   *health.Monitor
}

func New(ctx context.Context) (*Application, error) {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := commands.NewRegistry(container.WA, container.ChatService, container.Localizer, cfg, container.Logger)
	assistant := core.NewAssistant(container.Orchestrator, registry, container.WA, container.DB, container.Localizer, container.Logger)
	monitor := health.NewMonitor(container.WA, cfg.Health(), container.Logger)
	bot := core.NewBot(
		container.WA,
		registry,
		assistant,
		container.Docs,
		container.DB,
		monitor,
		container.Rotation,
		container.Localizer,
		cfg,
		container.Logger,
	)

	app := &Application{
		container: container,
		registry:  registry,
		bot:       bot,
		monitor:   monitor,
	}
	app.registerCommands(assistant)
	return app, nil
}

// registerCommands instantiates every command and registers the enabled
// ones. Disabled commands don't exist as far as dispatch and help are
// concerned.
func (a *Application) registerCommands(assistant *core.Assistant) {
	c := a.container
	candidates := []commands.Command{
		aicmd.NewAICommand(c, assistant),
		admin.NewKickCommand(c),
		admin.NewPurgeCommand(c),
		admin.NewPollCommand(c),
		admin.NewWelcomeCommand(c),
		admin.NewAvatarCommand(c),
		docscmd.NewFetchCommand(c),
		docscmd.NewListCommand(c),
		docscmd.NewRenameCommand(c),
		docscmd.NewDeleteCommand(c),
		docscmd.NewMasterSearchCommand(c),
		docscmd.NewMasterRenameCommand(c),
		attendance.NewAttendanceCommand(c),
		remind.NewRemindCommand(c),
		memory.NewRememberCommand(c),
		memory.NewRecallCommand(c),
		browse.NewBrowseCommand(c),
		help.NewHelpCommand(c, a.registry),
	}

	for _, cmd := range candidates {
		if !c.Cfg.GetCommandConfig(cmd.Name()).Enabled {
			c.Logger.WithField("command", cmd.Name()).Debug("Command disabled")
			continue
		}
		a.registry.Register(cmd)
	}
}

// Start connects the transport and runs until the context is cancelled.
func (a *Application) Start(ctx context.Context) error {
	c := a.container

	if err := c.WA.Connect(ctx); err != nil {
		return err
	}

	a.monitor.Start(ctx)
	c.Reminders.Start(ctx)
	if err := c.Attendance.StartPolls(ctx); err != nil {
		return err
	}

	handlers := make(map[string]commands.Command)
	for _, cmd := range a.registry.All() {
		handlers[cmd.Name()] = cmd
	}
	c.Queue.Start(ctx, handlers)

	go a.cleanupLoop(ctx)

	c.Logger.Info("Bot started")
	a.bot.Run(ctx)
	return a.container.Close()
}

func (a *Application) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.container.DB.PurgeOldMessages(messageRetentionDays); err != nil {
				a.container.Logger.WithError(err).Error("Failed to purge old messages")
			}
			if err := a.container.DB.PurgeOldTasks(taskRetentionDays); err != nil {
				a.container.Logger.WithError(err).Error("Failed to purge old tasks")
			}
		}
	}
}
