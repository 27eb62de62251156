package docs

import (
	"context"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type DeleteCommand struct {
	*base.Command
	docs *service.DocsService
}

func NewDeleteCommand(c *di.Container) commands.Command {
	cmd := &DeleteCommand{docs: c.Docs}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *DeleteCommand) Name() string        { return "delete" }
func (c *DeleteCommand) Description() string { return "Delete a stored document" }
func (c *DeleteCommand) Usage() string       { return "?delete <name>" }
func (c *DeleteCommand) Category() string    { return commands.CategoryDocs }

func (c *DeleteCommand) Constraints() commands.Constraints {
	return commands.Constraints{OwnerOnly: true}
}

func (c *DeleteCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		return c.Reply(ctx, msg, c.L("docs.usage_delete", nil))
	}

	if err := c.docs.Delete(msg.ChatJID, name); err != nil {
		return c.Reply(ctx, msg, c.L("docs.not_found", map[string]any{"Name": name}))
	}
	return c.Reply(ctx, msg, c.L("docs.deleted", map[string]any{"Name": name}))
}
