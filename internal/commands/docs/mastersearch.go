package docs

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type MasterSearchCommand struct {
	*base.Command
	docs *service.DocsService
}

func NewMasterSearchCommand(c *di.Container) commands.Command {
	cmd := &MasterSearchCommand{docs: c.Docs}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *MasterSearchCommand) Name() string        { return "mastersearch" }
func (c *MasterSearchCommand) Description() string { return "Search documents across all chats" }
func (c *MasterSearchCommand) Usage() string       { return "?mastersearch <query>" }
func (c *MasterSearchCommand) Category() string    { return commands.CategoryDocs }

func (c *MasterSearchCommand) Constraints() commands.Constraints {
	return commands.Constraints{OwnerOnly: true, Hidden: true}
}

func (c *MasterSearchCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return c.Reply(ctx, msg, c.L("docs.usage_search", nil))
	}

	results, err := c.docs.Search(query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return c.Reply(ctx, msg, c.L("docs.search_empty", map[string]any{"Query": query}))
	}

	c.docs.BeginSelection(msg.SenderJID, results)

	var sb strings.Builder
	sb.WriteString(c.L("docs.search_header", map[string]any{"Query": query}))
	for i, doc := range results {
		fmt.Fprintf(&sb, "\n%d. %s (%s)", i+1, doc.Name, service.HumanSize(doc.Size))
	}
	return c.Reply(ctx, msg, sb.String())
}
