package docs

import (
	"context"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type MasterRenameCommand struct {
	*base.Command
	docs *service.DocsService
}

func NewMasterRenameCommand(c *di.Container) commands.Command {
	cmd := &MasterRenameCommand{docs: c.Docs}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *MasterRenameCommand) Name() string        { return "masterrename" }
func (c *MasterRenameCommand) Description() string { return "Rename a document in any chat" }
func (c *MasterRenameCommand) Usage() string       { return "?masterrename old:new" }
func (c *MasterRenameCommand) Category() string    { return commands.CategoryDocs }

func (c *MasterRenameCommand) Constraints() commands.Constraints {
	return commands.Constraints{OwnerOnly: true, Hidden: true}
}

func (c *MasterRenameCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	oldName, newName, ok := splitRenamePair(args)
	if !ok {
		return c.Reply(ctx, msg, c.L("docs.usage_rename", nil))
	}

	// exact-name match anywhere, first hit wins
	matches, err := c.docs.Search(oldName)
	if err != nil {
		return err
	}
	for _, doc := range matches {
		if doc.Name != oldName {
			continue
		}
		if err := c.docs.Rename(doc.ChatJID, oldName, newName); err != nil {
			return err
		}
		return c.Reply(ctx, msg, c.L("docs.renamed", map[string]any{"Old": oldName, "New": newName}))
	}
	return c.Reply(ctx, msg, c.L("docs.not_found", map[string]any{"Name": oldName}))
}
