package admin

import (
	"context"
	"strconv"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

const purgeLimit = 50

type PurgeCommand struct {
	*base.Command
}

func NewPurgeCommand(c *di.Container) commands.Command {
	cmd := &PurgeCommand{}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *PurgeCommand) Name() string        { return "purge" }
func (c *PurgeCommand) Description() string { return "Delete the bot's recent messages" }
func (c *PurgeCommand) Usage() string       { return "?purge <count>" }
func (c *PurgeCommand) Category() string    { return commands.CategoryAdmin }

func (c *PurgeCommand) Constraints() commands.Constraints {
	return commands.Constraints{
		GroupOnly: true,
		AdminOnly: true,
	}
}

func (c *PurgeCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if len(args) == 0 {
		return c.Reply(ctx, msg, c.L("purge.usage", nil))
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		return c.Reply(ctx, msg, c.L("purge.usage", nil))
	}
	if count > purgeLimit {
		count = purgeLimit
	}

	stored, err := c.DB.GetRecentMessages(msg.ChatJID, purgeLimit*2)
	if err != nil {
		return err
	}

	deleted := 0
	self := c.WA.SelfJID()
	for _, m := range stored {
		if deleted >= count {
			break
		}
		if !m.FromMe {
			continue
		}
		if err := c.WA.RevokeMessage(ctx, msg.ChatJID, self, m.MessageID); err != nil {
			c.Logger.WithError(err).WithField("message_id", m.MessageID).Warn("Failed to revoke message")
			continue
		}
		deleted++
	}

	return c.Reply(ctx, msg, c.L("purge.done", map[string]any{"Count": deleted}))
}
