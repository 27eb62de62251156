package memory

import (
	"context"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type RememberCommand struct {
	*base.Command
	memory *service.MemoryService
}

func NewRememberCommand(c *di.Container) commands.Command {
	cmd := &RememberCommand{memory: c.Memory}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *RememberCommand) Name() string        { return "remember" }
func (c *RememberCommand) Description() string { return "Store a note for later recall" }
func (c *RememberCommand) Usage() string       { return "?remember <note>" }
func (c *RememberCommand) Category() string    { return commands.CategoryAI }

func (c *RememberCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	note := strings.Join(args, " ")
	if note == "" {
		return c.Reply(ctx, msg, c.L("memory.usage_remember", nil))
	}

	if err := c.memory.Remember(ctx, msg.ChatJID, msg.SenderJID, note); err != nil {
		return err
	}
	return c.Reply(ctx, msg, c.L("memory.saved", nil))
}
