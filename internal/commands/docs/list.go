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

type ListCommand struct {
	*base.Command
	docs *service.DocsService
}

func NewListCommand(c *di.Container) commands.Command {
	cmd := &ListCommand{docs: c.Docs}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *ListCommand) Name() string        { return "list" }
func (c *ListCommand) Description() string { return "List documents stored in this chat" }
func (c *ListCommand) Category() string    { return commands.CategoryDocs }

func (c *ListCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	documents, err := c.docs.List(msg.ChatJID)
	if err != nil {
		return err
	}
	if len(documents) == 0 {
		return c.Reply(ctx, msg, c.L("docs.empty", nil))
	}

	var sb strings.Builder
	sb.WriteString(c.L("docs.list_header", nil))
	for _, doc := range documents {
		fmt.Fprintf(&sb, "\n• %s (%s)", doc.Name, service.HumanSize(doc.Size))
	}
	return c.Reply(ctx, msg, sb.String())
}
