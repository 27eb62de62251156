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

type RenameCommand struct {
	*base.Command
	docs *service.DocsService
}

func NewRenameCommand(c *di.Container) commands.Command {
	cmd := &RenameCommand{docs: c.Docs}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *RenameCommand) Name() string        { return "rename" }
func (c *RenameCommand) Description() string { return "Rename a stored document" }
func (c *RenameCommand) Usage() string       { return "?rename old:new" }
func (c *RenameCommand) Category() string    { return commands.CategoryDocs }

func (c *RenameCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	oldName, newName, ok := splitRenamePair(args)
	if !ok {
		return c.Reply(ctx, msg, c.L("docs.usage_rename", nil))
	}

	if err := c.docs.Rename(msg.ChatJID, oldName, newName); err != nil {
		return c.Reply(ctx, msg, c.L("docs.not_found", map[string]any{"Name": oldName}))
	}
	return c.Reply(ctx, msg, c.L("docs.renamed", map[string]any{"Old": oldName, "New": newName}))
}

// splitRenamePair parses "old:new" from the rejoined argument list so names
// containing spaces work without quoting.
func splitRenamePair(args []string) (oldName, newName string, ok bool) {
	oldName, newName, found := strings.Cut(strings.Join(args, " "), ":")
	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	return oldName, newName, found && oldName != "" && newName != ""
}
