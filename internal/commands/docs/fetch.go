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

type FetchCommand struct {
	*base.Command
	docs *service.DocsService
}

func NewFetchCommand(c *di.Container) commands.Command {
	cmd := &FetchCommand{docs: c.Docs}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *FetchCommand) Name() string        { return "fetch" }
func (c *FetchCommand) Aliases() []string   { return []string{"get"} }
func (c *FetchCommand) Description() string { return "Send back a stored document by name" }
func (c *FetchCommand) Usage() string       { return "?fetch <name>" }
func (c *FetchCommand) Category() string    { return commands.CategoryDocs }

func (c *FetchCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	name := strings.Join(args, " ")
	if name == "" {
		return c.Reply(ctx, msg, c.Usage())
	}

	doc, err := c.docs.Find(msg.ChatJID, name)
	if err != nil {
		return err
	}
	if doc == nil {
		return c.Reply(ctx, msg, c.L("docs.not_found", map[string]any{"Name": name}))
	}
	return c.docs.Send(ctx, msg.ChatJID, doc)
}
