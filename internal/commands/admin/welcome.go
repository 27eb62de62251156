package admin

import (
	"context"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type WelcomeCommand struct {
	*base.Command
}

func NewWelcomeCommand(c *di.Container) commands.Command {
	cmd := &WelcomeCommand{}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *WelcomeCommand) Name() string        { return "welcome" }
func (c *WelcomeCommand) Description() string { return "Toggle or set the greeting for new members" }
func (c *WelcomeCommand) Usage() string       { return "?welcome on|off|<text>" }
func (c *WelcomeCommand) Category() string    { return commands.CategoryAdmin }

func (c *WelcomeCommand) Constraints() commands.Constraints {
	return commands.Constraints{
		GroupOnly: true,
		AdminOnly: true,
	}
}

func (c *WelcomeCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if len(args) == 0 {
		return c.Reply(ctx, msg, c.L("welcome.usage", nil))
	}

	switch strings.ToLower(args[0]) {
	case "on":
		_, text, err := c.DB.GetWelcome(msg.ChatJID)
		if err != nil {
			return err
		}
		if err := c.DB.SetWelcome(msg.ChatJID, true, text); err != nil {
			return err
		}
		return c.Reply(ctx, msg, c.L("welcome.enabled", nil))
	case "off":
		_, text, err := c.DB.GetWelcome(msg.ChatJID)
		if err != nil {
			return err
		}
		if err := c.DB.SetWelcome(msg.ChatJID, false, text); err != nil {
			return err
		}
		return c.Reply(ctx, msg, c.L("welcome.disabled", nil))
	default:
		// custom greeting also turns the feature on, {name} mentions the joiner
		if err := c.DB.SetWelcome(msg.ChatJID, true, strings.Join(args, " ")); err != nil {
			return err
		}
		return c.Reply(ctx, msg, c.L("welcome.set", nil))
	}
}
