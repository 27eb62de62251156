package remind

import (
	"context"
	"errors"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type RemindCommand struct {
	*base.Command
	reminders *service.ReminderService
}

func NewRemindCommand(c *di.Container) commands.Command {
	cmd := &RemindCommand{reminders: c.Reminders}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *RemindCommand) Name() string        { return "remind" }
func (c *RemindCommand) Description() string { return "Set a one-shot reminder" }
func (c *RemindCommand) Usage() string       { return "?remind <duration|HH:MM> <text>" }
func (c *RemindCommand) Category() string    { return commands.CategoryUtility }

func (c *RemindCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if len(args) < 2 {
		return c.Reply(ctx, msg, c.L("remind.usage", nil))
	}

	rem, err := c.reminders.Create(msg.ChatJID, msg.SenderJID, args[0], strings.Join(args[1:], " "))
	if errors.Is(err, service.ErrInvalidTime) {
		return c.Reply(ctx, msg, c.L("remind.invalid_time", nil))
	}
	if err != nil {
		return err
	}

	return c.Reply(ctx, msg, c.L("remind.set", map[string]any{
		"Time": rem.FireAt.Format("Mon 15:04"),
	}))
}
