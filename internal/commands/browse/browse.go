package browse

import (
	"context"
	"errors"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type BrowseCommand struct {
	*base.Command
	browser *service.Browser
}

func NewBrowseCommand(c *di.Container) commands.Command {
	cmd := &BrowseCommand{browser: c.Browser}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *BrowseCommand) Name() string        { return "browse" }
func (c *BrowseCommand) Description() string { return "Load a web page and return its text" }
func (c *BrowseCommand) Usage() string       { return "?browse <url>" }
func (c *BrowseCommand) Category() string    { return commands.CategoryUtility }

func (c *BrowseCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if len(args) == 0 {
		return c.Reply(ctx, msg, c.L("browse.usage", nil))
	}

	page, err := c.browser.Fetch(ctx, args[0])
	if errors.Is(err, service.ErrBrowserDisabled) {
		return c.Reply(ctx, msg, c.L("browse.disabled", nil))
	}
	if err != nil {
		c.Logger.WithError(err).Warn("Page fetch failed")
		return c.Reply(ctx, msg, c.L("browse.failed", nil))
	}

	var sb strings.Builder
	if page.Title != "" {
		sb.WriteString("*" + page.Title + "*\n\n")
	}
	sb.WriteString(page.Text)
	return c.Reply(ctx, msg, sb.String())
}
