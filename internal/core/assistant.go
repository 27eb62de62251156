package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

const recentContextSize = 5

type Generator interface {
	GenerateResponse(ctx context.Context, req ai.Request) ai.Response
}

type CommandRunner interface {
	Execute(ctx context.Context, msg *whatsapp.Message, name, rest string) error
}

type Localizer interface {
	Localize(messageID string, data map[string]any) string
}

// Assistant turns free-text mentions into AI conversations and, when the
// model emits an action token, routes it through the regular command path so
// permission checks are re-derived from the message author.
type Assistant struct {
	generator Generator
	runner    CommandRunner
	client    whatsapp.Client
	db        database.Database
	localizer Localizer
	logger    logger.Logger
}

func NewAssistant(
	generator Generator,
	runner CommandRunner,
	client whatsapp.Client,
	db database.Database,
	localizer Localizer,
	log logger.Logger,
) *Assistant {
	return &Assistant{
		generator: generator,
		runner:    runner,
		client:    client,
		db:        db,
		localizer: localizer,
		logger:    log.WithField("component", "assistant"),
	}
}

func (a *Assistant) Handle(ctx context.Context, msg *whatsapp.Message, prompt string) error {
	if err := a.client.SendTyping(ctx, msg.ChatJID); err != nil {
		a.logger.WithError(err).Debug("Failed to send typing")
	}

	req := a.buildRequest(ctx, msg, prompt)
	resp := a.generator.GenerateResponse(ctx, req)
	reply := ParseReply(resp.Text)

	switch {
	case reply.Invalid:
		return a.reply(ctx, msg, a.localizer.Localize("ai.not_sure", nil))
	case reply.Action != nil:
		a.logger.WithFields(logger.Fields{
			"action": reply.Action.Command,
			"params": reply.Action.Params,
			"sender": msg.SenderJID,
		}).Info("Running model-initiated action")
		if err := a.runner.Execute(ctx, msg, reply.Action.CommandName(), reply.Action.Params); err != nil {
			// the command path already answered the user
			a.logger.WithError(err).Warn("Model-initiated action failed")
		}
		return nil
	default:
		text := reply.Text
		if wantsSources(prompt) && len(resp.Sources) > 0 {
			text += "\n\n" + FormatSources(a.localizer.Localize("ai.sources", nil), resp.Sources)
		}
		return a.reply(ctx, msg, text)
	}
}

func (a *Assistant) buildRequest(ctx context.Context, msg *whatsapp.Message, prompt string) ai.Request {
	req := ai.Request{
		Text:        prompt,
		SenderName:  msg.PushName,
		ContextType: ai.ContextNone,
	}

	switch {
	case msg.HasQuoted():
		req.Context = msg.QuotedText
		req.ContextType = ai.ContextQuoted
	default:
		if recent := a.recentContext(msg.ChatJID); recent != "" {
			req.Context = recent
			req.ContextType = ai.ContextRecent
		}
	}

	if msg.HasMedia() && supportedMedia(msg.Media.MimeType) {
		data, err := a.client.DownloadMedia(ctx, msg)
		if err != nil {
			a.logger.WithError(err).Warn("Failed to download media for AI request")
		} else {
			req.Media = &ai.Media{MimeType: msg.Media.MimeType, Data: data}
		}
	}

	return req
}

// recentContext renders the chat's last messages oldest-first.
func (a *Assistant) recentContext(chatJID string) string {
	messages, err := a.db.GetRecentMessages(chatJID, recentContextSize)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load recent messages")
		return ""
	}

	var sb strings.Builder
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.Text == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s: %s\n", whatsapp.BareJID(m.SenderJID), m.Text)
	}
	return strings.TrimSpace(sb.String())
}

func (a *Assistant) reply(ctx context.Context, msg *whatsapp.Message, text string) error {
	return a.client.SendReply(ctx, msg.ChatJID, text, msg)
}

func supportedMedia(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

func wantsSources(prompt string) bool {
	lowered := strings.ToLower(prompt)
	return strings.Contains(lowered, "source") || strings.Contains(lowered, "citation") || strings.Contains(lowered, "cite")
}
