package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/health"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

// Health is the slice of the monitor the event loop drives.
type Health interface {
	Touch()
	ConfirmedReady()
	RestartBot(reason string)
	HandleLogout()
	Status() health.Status
	HeartbeatAge() time.Duration
}

// Bot owns the event loop: every transport event flows through Run exactly
// once, message handling is fanned out so one slow handler never blocks the
// stream.
type Bot struct {
	client    whatsapp.Client
	registry  *commands.Registry
	assistant *Assistant
	docs      *service.DocsService
	db        database.Database
	monitor   Health
	rotation  *ai.Rotation
	localizer Localizer
	cfg       *config.Config
	logger    logger.Logger
	startedAt time.Time
}

func NewBot(
	client whatsapp.Client,
	registry *commands.Registry,
	assistant *Assistant,
	docs *service.DocsService,
	db database.Database,
	monitor Health,
	rotation *ai.Rotation,
	localizer Localizer,
	cfg *config.Config,
	log logger.Logger,
) *Bot {
	return &Bot{
		client:    client,
		registry:  registry,
		assistant: assistant,
		docs:      docs,
		db:        db,
		monitor:   monitor,
		rotation:  rotation,
		localizer: localizer,
		cfg:       cfg,
		logger:    log.WithField("component", "bot"),
		startedAt: time.Now(),
	}
}

// Run consumes transport events until the context is cancelled or the event
// channel closes.
func (b *Bot) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.client.Events():
			if !ok {
				return
			}
			b.handleEvent(ctx, evt)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, evt whatsapp.Event) {
	switch e := evt.(type) {
	case whatsapp.MessageEvent:
		go b.handleMessage(ctx, e.Message)
	case whatsapp.ConnectedEvent:
		b.logger.Info("Transport connected")
		b.monitor.ConfirmedReady()
	case whatsapp.DisconnectedEvent:
		b.monitor.RestartBot("disconnected")
	case whatsapp.LoggedOutEvent:
		b.monitor.HandleLogout()
	case whatsapp.KeepAliveTimeoutEvent:
		b.monitor.RestartBot(fmt.Sprintf("keep-alive timeout (%d errors)", e.ErrorCount))
	case whatsapp.StreamReplacedEvent:
		b.monitor.RestartBot("stream replaced by another session")
	case whatsapp.GroupJoinEvent:
		go b.handleJoin(ctx, e)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *whatsapp.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.WithFields(logger.Fields{
				"panic": rec,
				"chat":  msg.ChatJID,
			}).Error("Message handler panicked")
		}
	}()

	b.monitor.Touch()

	if err := b.db.SaveMessage(msg.ChatJID, msg.ID, msg.SenderJID, msg.IsFromMe, msg.Text); err != nil {
		b.logger.WithError(err).Warn("Failed to store message")
	}
	if msg.IsFromMe {
		return
	}
	if err := b.client.MarkRead(ctx, msg); err != nil {
		b.logger.WithError(err).Debug("Failed to mark read")
	}

	if msg.HasMedia() && msg.Media.Type == whatsapp.MediaDocument {
		b.storeDocument(ctx, msg)
	}

	text := strings.TrimSpace(msg.Text)
	switch {
	case text == "":
		return
	case b.handleSelectionPick(ctx, msg, text):
		return
	case b.registry.IsCommand(text):
		// dispatch errors are already answered and logged
		_ = b.registry.Dispatch(ctx, msg)
	case b.isSystem(text):
		b.handleSystem(ctx, msg, text)
	case b.isAddressedToBot(msg):
		if err := b.assistant.Handle(ctx, msg, b.stripSelfMention(text)); err != nil {
			b.logger.WithError(err).Error("Assistant reply failed")
		}
	}
}

func (b *Bot) storeDocument(ctx context.Context, msg *whatsapp.Message) {
	doc, err := b.docs.Store(ctx, msg)
	if err != nil {
		b.logger.WithError(err).Warn("Failed to auto-store document")
		return
	}
	reply := b.localizer.Localize("docs.saved", map[string]any{
		"Name": doc.Name,
		"Size": service.HumanSize(doc.Size),
	})
	if err := b.client.SendReply(ctx, msg.ChatJID, reply, msg); err != nil {
		b.logger.WithError(err).Error("Failed to confirm stored document")
	}
}

// handleSelectionPick resolves a bare number against a pending master-search
// selection. Returns true when the message was consumed by the selection.
func (b *Bot) handleSelectionPick(ctx context.Context, msg *whatsapp.Message, text string) bool {
	index, err := strconv.Atoi(text)
	if err != nil || !b.docs.HasSelection(msg.SenderJID) {
		return false
	}

	doc, err := b.docs.TakeSelection(msg.SenderJID, index)
	switch {
	case err == service.ErrSelectionInvalid:
		b.reply(ctx, msg, b.localizer.Localize("docs.selection_invalid", nil))
	case err != nil:
		b.reply(ctx, msg, b.localizer.Localize("docs.selection_expired", nil))
	default:
		if sendErr := b.docs.Send(ctx, msg.ChatJID, doc); sendErr != nil {
			b.logger.WithError(sendErr).Error("Failed to send selected document")
			b.reply(ctx, msg, b.localizer.Localize("error.generic", nil))
		}
	}
	return true
}

func (b *Bot) handleJoin(ctx context.Context, evt whatsapp.GroupJoinEvent) {
	enabled, text, err := b.db.GetWelcome(evt.ChatJID)
	if err != nil {
		b.logger.WithError(err).Warn("Failed to load welcome settings")
		return
	}
	if !enabled {
		return
	}

	mention := "@" + strings.SplitN(whatsapp.BareJID(evt.UserJID), "@", 2)[0]
	if text == "" {
		text = b.localizer.Localize("welcome.default", map[string]any{"Name": mention})
	} else {
		text = strings.ReplaceAll(text, "{name}", mention)
	}
	if err := b.client.SendMentions(ctx, evt.ChatJID, text, []string{evt.UserJID}); err != nil {
		b.logger.WithError(err).Error("Failed to send welcome message")
	}
}

func (b *Bot) isAddressedToBot(msg *whatsapp.Message) bool {
	self := b.client.SelfJID()
	if msg.QuotedSender != "" && whatsapp.SameUser(msg.QuotedSender, self) {
		return true
	}
	for _, jid := range msg.MentionedJIDs {
		if whatsapp.SameUser(jid, self) {
			return true
		}
	}
	return false
}

// stripSelfMention removes the bot's own @-mention token from the prompt.
func (b *Bot) stripSelfMention(text string) string {
	self := whatsapp.BareJID(b.client.SelfJID())
	user, _, _ := strings.Cut(self, "@")
	if user != "" {
		text = strings.ReplaceAll(text, "@"+user, "")
	}
	return strings.TrimSpace(text)
}

func (b *Bot) reply(ctx context.Context, msg *whatsapp.Message, text string) {
	if err := b.client.SendReply(ctx, msg.ChatJID, text, msg); err != nil {
		b.logger.WithError(err).Error("Failed to send reply")
	}
}
