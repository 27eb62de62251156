package memory

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

const recallLimit = 3

type RecallCommand struct {
	*base.Command
	memory *service.MemoryService
}

func NewRecallCommand(c *di.Container) commands.Command {
	cmd := &RecallCommand{memory: c.Memory}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *RecallCommand) Name() string        { return "recall" }
func (c *RecallCommand) Description() string { return "Find stored notes by meaning" }
func (c *RecallCommand) Usage() string       { return "?recall <query>" }
func (c *RecallCommand) Category() string    { return commands.CategoryAI }

func (c *RecallCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return c.Reply(ctx, msg, c.L("memory.usage_recall", nil))
	}

	results, err := c.memory.Recall(ctx, msg.ChatJID, query, recallLimit)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return c.Reply(ctx, msg, c.L("memory.none", nil))
	}

	var sb strings.Builder
	for i, result := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, result.Memory.Text)
	}
	return c.Reply(ctx, msg, strings.TrimSpace(sb.String()))
}
