package admin

import (
	"context"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type PollCommand struct {
	*base.Command
}

func NewPollCommand(c *di.Container) commands.Command {
	cmd := &PollCommand{}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *PollCommand) Name() string        { return "poll" }
func (c *PollCommand) Description() string { return "Create a poll, -m allows multiple answers" }
func (c *PollCommand) Usage() string       { return "?poll [-m] question, option1, option2" }
func (c *PollCommand) Category() string    { return commands.CategoryAdmin }

func (c *PollCommand) Constraints() commands.Constraints {
	return commands.Constraints{GroupOnly: true}
}

func (c *PollCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	multiSelect := false
	if len(args) > 0 && args[0] == "-m" {
		multiSelect = true
		args = args[1:]
	}

	parts := strings.Split(strings.Join(args, " "), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	// question plus at least two options
	if len(parts) < 3 || parts[0] == "" {
		return c.Reply(ctx, msg, c.L("poll.usage", nil))
	}
	for _, part := range parts[1:] {
		if part == "" {
			return c.Reply(ctx, msg, c.L("poll.usage", nil))
		}
	}

	return c.WA.SendPoll(ctx, msg.ChatJID, parts[0], parts[1:], multiSelect)
}
