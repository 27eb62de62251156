package aicmd

import (
	"context"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/core"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

// AICommand is the explicit entry point to the assistant, for chats where
// mentioning the bot is awkward or a direct chat has no mention at all.
type AICommand struct {
	*base.Command
	assistant *core.Assistant
}

func NewAICommand(c *di.Container, assistant *core.Assistant) commands.Command {
	cmd := &AICommand{assistant: assistant}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *AICommand) Name() string        { return "ai" }
func (c *AICommand) Aliases() []string   { return []string{"ask"} }
func (c *AICommand) Description() string { return "Ask the assistant anything" }
func (c *AICommand) Usage() string       { return "?ai <question>" }
func (c *AICommand) Category() string    { return commands.CategoryAI }

func (c *AICommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	prompt := strings.Join(args, " ")
	if prompt == "" && msg.HasQuoted() {
		prompt = msg.QuotedText
	}
	if prompt == "" {
		return c.Reply(ctx, msg, c.Usage())
	}
	return c.assistant.Handle(ctx, msg, prompt)
}
