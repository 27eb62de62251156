package base

import (
	"context"
	"time"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/queue"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

// Command carries the shared collaborators every concrete command needs.
// Concrete commands embed it and override the descriptive methods.
type Command struct {
	command     commands.Command
	WA          whatsapp.Client
	Logger      logger.Logger
	Cfg         *config.Config
	DB          database.Database
	Queue       *queue.Queue
	ChatService *service.ChatService
	Localizer   *service.Localizer
}

func NewCommand(cmd commands.Command, di *di.Container) *Command {
	return &Command{
		command:     cmd,
		WA:          di.WA,
		Logger:      di.Logger,
		Cfg:         di.Cfg,
		DB:          di.DB,
		Queue:       di.Queue,
		ChatService: di.ChatService,
		Localizer:   di.Localizer,
	}
}

func (c *Command) Name() string {
	return ""
}

func (c *Command) Aliases() []string {
	return []string{}
}

func (c *Command) Description() string {
	return ""
}

func (c *Command) Usage() string {
	return ""
}

func (c *Command) Category() string {
	return commands.CategoryUtility
}

func (c *Command) Constraints() commands.Constraints {
	return commands.Constraints{}
}

func (c *Command) Handle(ctx context.Context, msg *whatsapp.Message, args []string) error {
	cfg := c.Cfg.GetCommandConfig(c.command.Name())
	if cfg.Queue.Enabled {
		config := c.command.GetQueueConfig()
		retryDelayMillis := int64(config.RetryDelay / time.Millisecond)
		return c.Queue.Add(c.command, msg, args,
			config.MaxRetries,
			retryDelayMillis)
	}
	return c.command.Execute(ctx, msg, args)
}

func (c *Command) GetQueueConfig() commands.QueueConfig {
	cfg := c.Cfg.GetCommandConfig(c.command.Name())
	return commands.QueueConfig{
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Timeout:    cfg.Queue.Timeout,
		Throttle: commands.ThrottleConfig{
			Concurrency: cfg.Queue.Throttle.Concurrency,
			Period:      cfg.Queue.Throttle.Period,
			Requests:    cfg.Queue.Throttle.Requests,
		},
	}
}

func (c *Command) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	return nil
}

func (c *Command) L(messageID string, data map[string]any) string {
	return c.Localizer.Localize(messageID, data)
}

func (c *Command) Reply(ctx context.Context, msg *whatsapp.Message, text string) error {
	return c.WA.SendReply(ctx, msg.ChatJID, text, msg)
}
