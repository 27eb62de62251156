package whatsapp

import (
	"context"
	"time"

	waE2E "go.mau.fi/whatsmeow/proto/waE2E"
)

// Event is the single inbound event type consumed by the dispatcher.
// Exactly one delivery per underlying transport event, in arrival order.
type Event interface {
	event()
}

type MessageEvent struct {
	Message *Message
}

type ConnectedEvent struct{}

type DisconnectedEvent struct{}

// LoggedOutEvent means the user unlinked the device. Terminal, not a failure.
type LoggedOutEvent struct{}

type KeepAliveTimeoutEvent struct {
	ErrorCount int
}

type StreamReplacedEvent struct{}

// GroupJoinEvent fires once per participant added to a group the bot is in.
type GroupJoinEvent struct {
	ChatJID string
	UserJID string
}

func (MessageEvent) event()          {}
func (ConnectedEvent) event()        {}
func (DisconnectedEvent) event()     {}
func (LoggedOutEvent) event()        {}
func (KeepAliveTimeoutEvent) event() {}
func (StreamReplacedEvent) event()   {}
func (GroupJoinEvent) event()        {}

type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaDocument MediaType = "document"
	MediaAudio    MediaType = "audio"
	MediaVideo    MediaType = "video"
)

type MediaInfo struct {
	Type     MediaType
	MimeType string
	Filename string
	Size     uint64
}

// Message is the narrow view of an inbound message: only the fields the
// bot actually consumes, independent from the transport SDK's own types.
type Message struct {
	ID            string
	ChatJID       string
	SenderJID     string
	PushName      string
	Text          string
	MentionedJIDs []string
	IsFromMe      bool
	IsGroup       bool
	QuotedID      string
	QuotedSender  string
	QuotedText    string
	Media         *MediaInfo
	Timestamp     time.Time

	raw *waE2E.Message
}

func (m *Message) HasMedia() bool {
	return m.Media != nil
}

func (m *Message) HasQuoted() bool {
	return m.QuotedID != ""
}

type Participant struct {
	JID          string
	IsAdmin      bool
	IsSuperAdmin bool
}

type GroupInfo struct {
	JID          string
	Name         string
	Participants []Participant
}

// Client is the transport surface the rest of the bot depends on. The
// whatsmeow-backed implementation is the only production one; tests use fakes.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Logout(ctx context.Context) error
	SelfJID() string
	Events() <-chan Event

	SendText(ctx context.Context, chatJID, text string) error
	SendReply(ctx context.Context, chatJID, text string, quoted *Message) error
	SendMentions(ctx context.Context, chatJID, text string, mentionJIDs []string) error
	SendPoll(ctx context.Context, chatJID, question string, options []string, multiSelect bool) error
	SendDocument(ctx context.Context, chatJID, filename, mimeType string, data []byte) error
	SendTyping(ctx context.Context, chatJID string) error
	SendPresence(ctx context.Context) error
	MarkRead(ctx context.Context, msg *Message) error

	DownloadMedia(ctx context.Context, msg *Message) ([]byte, error)
	GroupInfo(ctx context.Context, chatJID string) (*GroupInfo, error)
	RemoveParticipants(ctx context.Context, chatJID string, jids []string) error
	RevokeMessage(ctx context.Context, chatJID, senderJID, messageID string) error
	SetGroupPhoto(ctx context.Context, chatJID string, jpeg []byte) error
	SetGroupName(ctx context.Context, chatJID, name string) error
}
