package help

import (
	"context"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type HelpCommand struct {
	*base.Command
	registry *commands.Registry
}

func NewHelpCommand(c *di.Container, registry *commands.Registry) commands.Command {
	cmd := &HelpCommand{registry: registry}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show this list" }
func (c *HelpCommand) Category() string    { return commands.CategoryUtility }

func (c *HelpCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	return c.Reply(ctx, msg, c.registry.HelpText())
}
