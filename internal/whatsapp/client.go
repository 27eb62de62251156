package whatsapp

import (
	"context"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow"
	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

const eventBufferSize = 256

type meowClient struct {
	cfg    config.WhatsAppConfig
	client *whatsmeow.Client
	logger logger.Logger
	events chan Event
}

// NewClient creates the whatsmeow-backed transport client. The session store
// shares the modernc sqlite driver with the rest of the bot.
func NewClient(ctx context.Context, cfg config.WhatsAppConfig, log logger.Logger) (Client, error) {
	container, err := sqlstore.New(ctx, "sqlite", cfg.SessionDSN, waLog.Noop)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	device, err := getDevice(ctx, container)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	if cfg.DeviceName != "" {
		store.DeviceProps.Os = proto.String(cfg.DeviceName)
	}

	c := &meowClient{
		cfg:    cfg,
		client: whatsmeow.NewClient(device, waLog.Noop),
		logger: log.WithField("component", "whatsapp"),
		events: make(chan Event, eventBufferSize),
	}
	c.client.AddEventHandler(c.handleEvent)

	return c, nil
}

func getDevice(ctx context.Context, container *sqlstore.Container) (*store.Device, error) {
	devices, err := container.GetAllDevices(ctx)
	if err != nil {
		return nil, err
	}
	if len(devices) > 0 {
		return devices[0], nil
	}
	return container.NewDevice(), nil
}

func (c *meowClient) Connect(ctx context.Context) error {
	if c.client.Store.ID == nil {
		return c.loginWithQR(ctx)
	}
	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	c.logger.Info("Connected with existing session")
	return nil
}

func (c *meowClient) loginWithQR(ctx context.Context) error {
	qrChan, _ := c.client.GetQRChannel(ctx)
	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect for QR: %w", err)
	}

	c.logger.Info("Scan the QR code below to link the account")
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			fmt.Println("\n" + evt.Code + "\n")
		case "success":
			c.logger.Info("QR login successful")
			return nil
		case "timeout":
			return fmt.Errorf("QR code timed out, restart to retry")
		default:
			if evt.Error != nil {
				return fmt.Errorf("QR login: %w", evt.Error)
			}
		}
	}
	return fmt.Errorf("QR channel closed unexpectedly")
}

func (c *meowClient) Disconnect() {
	c.client.Disconnect()
}

func (c *meowClient) Logout(ctx context.Context) error {
	return c.client.Logout(ctx)
}

func (c *meowClient) SelfJID() string {
	if c.client.Store.ID == nil {
		return ""
	}
	return c.client.Store.ID.ToNonAD().String()
}

func (c *meowClient) Events() <-chan Event {
	return c.events
}

func (c *meowClient) emit(evt Event) {
	select {
	case c.events <- evt:
	default:
		c.logger.Warn("Event channel full, dropping event")
	}
}

func (c *meowClient) send(ctx context.Context, chatJID string, msg *waE2E.Message) error {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", chatJID, err)
	}
	_, err = c.client.SendMessage(ctx, jid, msg)
	return err
}

func (c *meowClient) SendText(ctx context.Context, chatJID, text string) error {
	return c.send(ctx, chatJID, &waE2E.Message{Conversation: proto.String(text)})
}

func (c *meowClient) SendReply(ctx context.Context, chatJID, text string, quoted *Message) error {
	if quoted == nil {
		return c.SendText(ctx, chatJID, text)
	}
	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				StanzaID:      proto.String(quoted.ID),
				Participant:   proto.String(quoted.SenderJID),
				QuotedMessage: quoted.raw,
			},
		},
	}
	return c.send(ctx, chatJID, msg)
}

func (c *meowClient) SendMentions(ctx context.Context, chatJID, text string, mentionJIDs []string) error {
	msg := &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text: proto.String(text),
			ContextInfo: &waE2E.ContextInfo{
				MentionedJID: mentionJIDs,
			},
		},
	}
	return c.send(ctx, chatJID, msg)
}

func (c *meowClient) SendPoll(ctx context.Context, chatJID, question string, options []string, multiSelect bool) error {
	selectable := 1
	if multiSelect {
		selectable = len(options)
	}
	return c.send(ctx, chatJID, c.client.BuildPollCreation(question, options, selectable))
}

func (c *meowClient) SendDocument(ctx context.Context, chatJID, filename, mimeType string, data []byte) error {
	uploaded, err := c.client.Upload(ctx, data, whatsmeow.MediaDocument)
	if err != nil {
		return fmt.Errorf("upload document: %w", err)
	}
	msg := &waE2E.Message{
		DocumentMessage: &waE2E.DocumentMessage{
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
			Mimetype:      proto.String(mimeType),
			FileName:      proto.String(filename),
			Title:         proto.String(filename),
		},
	}
	return c.send(ctx, chatJID, msg)
}

func (c *meowClient) SendTyping(ctx context.Context, chatJID string) error {
	if !c.cfg.SendTyping {
		return nil
	}
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return err
	}
	return c.client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

func (c *meowClient) SendPresence(ctx context.Context) error {
	return c.client.SendPresence(ctx, types.PresenceAvailable)
}

func (c *meowClient) MarkRead(ctx context.Context, msg *Message) error {
	if !c.cfg.AutoRead {
		return nil
	}
	chat, err := types.ParseJID(msg.ChatJID)
	if err != nil {
		return err
	}
	sender, err := types.ParseJID(msg.SenderJID)
	if err != nil {
		return err
	}
	return c.client.MarkRead(ctx, []types.MessageID{types.MessageID(msg.ID)}, time.Now(), chat, sender)
}

func (c *meowClient) DownloadMedia(ctx context.Context, msg *Message) ([]byte, error) {
	if msg.raw == nil || msg.Media == nil {
		return nil, fmt.Errorf("message has no media")
	}
	var downloadable whatsmeow.DownloadableMessage
	switch {
	case msg.raw.GetImageMessage() != nil:
		downloadable = msg.raw.GetImageMessage()
	case msg.raw.GetDocumentMessage() != nil:
		downloadable = msg.raw.GetDocumentMessage()
	case msg.raw.GetAudioMessage() != nil:
		downloadable = msg.raw.GetAudioMessage()
	case msg.raw.GetVideoMessage() != nil:
		downloadable = msg.raw.GetVideoMessage()
	default:
		return nil, fmt.Errorf("unsupported media type %s", msg.Media.Type)
	}
	return c.client.Download(ctx, downloadable)
}

func (c *meowClient) GroupInfo(ctx context.Context, chatJID string) (*GroupInfo, error) {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return nil, err
	}
	info, err := c.client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get group info: %w", err)
	}

	group := &GroupInfo{
		JID:          info.JID.String(),
		Name:         info.Name,
		Participants: make([]Participant, 0, len(info.Participants)),
	}
	for _, p := range info.Participants {
		group.Participants = append(group.Participants, Participant{
			JID:          p.JID.ToNonAD().String(),
			IsAdmin:      p.IsAdmin,
			IsSuperAdmin: p.IsSuperAdmin,
		})
	}
	return group, nil
}

func (c *meowClient) RemoveParticipants(ctx context.Context, chatJID string, jids []string) error {
	chat, err := types.ParseJID(chatJID)
	if err != nil {
		return err
	}
	targets := make([]types.JID, 0, len(jids))
	for _, raw := range jids {
		jid, err := types.ParseJID(raw)
		if err != nil {
			return fmt.Errorf("invalid participant JID %q: %w", raw, err)
		}
		targets = append(targets, jid)
	}
	_, err = c.client.UpdateGroupParticipants(ctx, chat, targets, whatsmeow.ParticipantChangeRemove)
	return err
}

func (c *meowClient) RevokeMessage(ctx context.Context, chatJID, senderJID, messageID string) error {
	chat, err := types.ParseJID(chatJID)
	if err != nil {
		return err
	}
	sender, err := types.ParseJID(senderJID)
	if err != nil {
		return err
	}
	_, err = c.client.SendMessage(ctx, chat, c.client.BuildRevoke(chat, sender, types.MessageID(messageID)))
	return err
}

func (c *meowClient) SetGroupPhoto(ctx context.Context, chatJID string, jpeg []byte) error {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return err
	}
	_, err = c.client.SetGroupPhoto(ctx, jid, jpeg)
	return err
}

func (c *meowClient) SetGroupName(ctx context.Context, chatJID, name string) error {
	jid, err := types.ParseJID(chatJID)
	if err != nil {
		return err
	}
	return c.client.SetGroupName(ctx, jid, name)
}
