package admin

import (
	"context"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type AvatarCommand struct {
	*base.Command
}

func NewAvatarCommand(c *di.Container) commands.Command {
	cmd := &AvatarCommand{}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *AvatarCommand) Name() string        { return "avatar" }
func (c *AvatarCommand) Description() string { return "Set the group icon from an attached image" }
func (c *AvatarCommand) Usage() string       { return "?avatar (as image caption)" }
func (c *AvatarCommand) Category() string    { return commands.CategoryAdmin }

func (c *AvatarCommand) Constraints() commands.Constraints {
	return commands.Constraints{
		GroupOnly:        true,
		AdminOnly:        true,
		RequiresBotAdmin: true,
	}
}

func (c *AvatarCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if !msg.HasMedia() || !strings.HasPrefix(msg.Media.MimeType, "image/") {
		return c.Reply(ctx, msg, c.L("avatar.no_image", nil))
	}

	data, err := c.WA.DownloadMedia(ctx, msg)
	if err != nil {
		return err
	}
	if err := c.WA.SetGroupPhoto(ctx, msg.ChatJID, data); err != nil {
		return err
	}
	return c.Reply(ctx, msg, c.L("avatar.done", nil))
}
