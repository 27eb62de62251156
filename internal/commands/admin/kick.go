package admin

import (
	"context"
	"regexp"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

var mentionPattern = regexp.MustCompile(`@(\d{5,})`)

type KickCommand struct {
	*base.Command
}

func NewKickCommand(c *di.Container) commands.Command {
	cmd := &KickCommand{}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *KickCommand) Name() string        { return "kick" }
func (c *KickCommand) Description() string { return "Remove mentioned members from the group" }
func (c *KickCommand) Usage() string       { return "?kick @member" }
func (c *KickCommand) Category() string    { return commands.CategoryAdmin }

func (c *KickCommand) Constraints() commands.Constraints {
	return commands.Constraints{
		GroupOnly:        true,
		AdminOnly:        true,
		RequiresBotAdmin: true,
	}
}

func (c *KickCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	targets := kickTargets(msg, args)
	if len(targets) == 0 {
		return c.Reply(ctx, msg, c.L("kick.usage", nil))
	}

	if err := c.WA.RemoveParticipants(ctx, msg.ChatJID, targets); err != nil {
		return err
	}
	c.ChatService.Invalidate(msg.ChatJID)

	return c.Reply(ctx, msg, c.L("kick.done", map[string]any{"Count": len(targets)}))
}

// kickTargets prefers real mention metadata; the textual @number form covers
// model-initiated kicks, which carry no mention records.
func kickTargets(msg *whatsapp.Message, args []string) []string {
	if len(msg.MentionedJIDs) > 0 {
		return msg.MentionedJIDs
	}

	var targets []string
	for _, arg := range args {
		for _, match := range mentionPattern.FindAllStringSubmatch(arg, -1) {
			targets = append(targets, match[1]+"@s.whatsapp.net")
		}
	}
	return targets
}
