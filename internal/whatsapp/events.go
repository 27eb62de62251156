package whatsapp

import (
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// handleEvent converts whatsmeow events into the bot's Event sum type.
// Only events the dispatcher and health monitor care about are forwarded.
func (c *meowClient) handleEvent(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		c.handleMessage(evt)
	case *events.Connected:
		c.emit(ConnectedEvent{})
	case *events.Disconnected:
		c.emit(DisconnectedEvent{})
	case *events.LoggedOut:
		c.emit(LoggedOutEvent{})
	case *events.KeepAliveTimeout:
		c.emit(KeepAliveTimeoutEvent{ErrorCount: evt.ErrorCount})
	case *events.StreamReplaced:
		c.emit(StreamReplacedEvent{})
	case *events.GroupInfo:
		for _, jid := range evt.Join {
			c.emit(GroupJoinEvent{
				ChatJID: evt.JID.String(),
				UserJID: jid.ToNonAD().String(),
			})
		}
	}
}

func (c *meowClient) handleMessage(evt *events.Message) {
	// Status broadcasts are noise for a group bot.
	if evt.Info.Chat.Server == "broadcast" {
		return
	}

	msg := &Message{
		ID:        string(evt.Info.ID),
		ChatJID:   evt.Info.Chat.String(),
		SenderJID: evt.Info.Sender.ToNonAD().String(),
		PushName:  evt.Info.PushName,
		IsFromMe:  evt.Info.IsFromMe,
		IsGroup:   evt.Info.IsGroup,
		Timestamp: evt.Info.Timestamp,
		raw:       evt.Message,
	}

	extractContent(evt.Message, msg)
	extractQuoted(evt.Message, msg)

	c.emit(MessageEvent{Message: msg})
}

func extractContent(waMsg *waE2E.Message, msg *Message) {
	if waMsg == nil {
		return
	}

	if waMsg.Conversation != nil {
		msg.Text = waMsg.GetConversation()
		return
	}

	if ext := waMsg.ExtendedTextMessage; ext != nil {
		msg.Text = ext.GetText()
		msg.MentionedJIDs = ext.GetContextInfo().GetMentionedJID()
		return
	}

	if img := waMsg.ImageMessage; img != nil {
		msg.Text = img.GetCaption()
		msg.MentionedJIDs = img.GetContextInfo().GetMentionedJID()
		msg.Media = &MediaInfo{
			Type:     MediaImage,
			MimeType: img.GetMimetype(),
			Size:     img.GetFileLength(),
		}
		return
	}

	if doc := waMsg.DocumentMessage; doc != nil {
		msg.Text = doc.GetCaption()
		msg.Media = &MediaInfo{
			Type:     MediaDocument,
			MimeType: doc.GetMimetype(),
			Filename: doc.GetFileName(),
			Size:     doc.GetFileLength(),
		}
		return
	}

	if audio := waMsg.AudioMessage; audio != nil {
		msg.Media = &MediaInfo{
			Type:     MediaAudio,
			MimeType: audio.GetMimetype(),
			Size:     audio.GetFileLength(),
		}
		return
	}

	if video := waMsg.VideoMessage; video != nil {
		msg.Text = video.GetCaption()
		msg.Media = &MediaInfo{
			Type:     MediaVideo,
			MimeType: video.GetMimetype(),
			Size:     video.GetFileLength(),
		}
	}
}

func extractQuoted(waMsg *waE2E.Message, msg *Message) {
	ctxInfo := contextInfo(waMsg)
	if ctxInfo == nil || ctxInfo.GetStanzaID() == "" {
		return
	}

	msg.QuotedID = ctxInfo.GetStanzaID()
	msg.QuotedSender = ctxInfo.GetParticipant()
	msg.QuotedText = quotedText(ctxInfo.GetQuotedMessage())
}

func contextInfo(waMsg *waE2E.Message) *waE2E.ContextInfo {
	if waMsg == nil {
		return nil
	}
	if ext := waMsg.ExtendedTextMessage; ext != nil {
		return ext.GetContextInfo()
	}
	if img := waMsg.ImageMessage; img != nil {
		return img.GetContextInfo()
	}
	if doc := waMsg.DocumentMessage; doc != nil {
		return doc.GetContextInfo()
	}
	return nil
}

func quotedText(quoted *waE2E.Message) string {
	if quoted == nil {
		return ""
	}
	if quoted.Conversation != nil {
		return quoted.GetConversation()
	}
	if ext := quoted.ExtendedTextMessage; ext != nil {
		return ext.GetText()
	}
	if img := quoted.ImageMessage; img != nil {
		return img.GetCaption()
	}
	return ""
}
