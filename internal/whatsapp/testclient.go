package whatsapp

import (
	"context"
	"sync"
)

// TestClient is an in-memory Client for tests, in the same spirit as
// logger.TestLogger. Every outbound call is recorded for assertions and the
// event channel can be fed manually.
type TestClient struct {
	mu sync.Mutex

	SelfJIDValue string
	Group        *GroupInfo
	GroupErr     error
	SendErr      error
	MediaData    []byte

	events chan Event

	SentTexts    []SentText
	SentPolls    []SentPoll
	SentDocs     []SentDocument
	Removed      [][]string
	Revoked      []string
	GroupPhotos  int
	GroupNames   []string
	Disconnected bool
	LoggedOut    bool
}

type SentText struct {
	ChatJID  string
	Text     string
	Mentions []string
	QuotedID string
}

type SentDocument struct {
	ChatJID  string
	Filename string
	MimeType string
	Data     []byte
}

type SentPoll struct {
	ChatJID     string
	Question    string
	Options     []string
	MultiSelect bool
}

func NewTestClient() *TestClient {
	return &TestClient{
		SelfJIDValue: "10000000000@s.whatsapp.net",
		events:       make(chan Event, 16),
	}
}

func (c *TestClient) Emit(evt Event) {
	c.events <- evt
}

func (c *TestClient) Connect(ctx context.Context) error { return nil }

func (c *TestClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Disconnected = true
}

func (c *TestClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.LoggedOut = true
	return nil
}

func (c *TestClient) SelfJID() string { return c.SelfJIDValue }

func (c *TestClient) Events() <-chan Event { return c.events }

func (c *TestClient) SendText(ctx context.Context, chatJID, text string) error {
	return c.recordText(SentText{ChatJID: chatJID, Text: text})
}

func (c *TestClient) SendReply(ctx context.Context, chatJID, text string, quoted *Message) error {
	sent := SentText{ChatJID: chatJID, Text: text}
	if quoted != nil {
		sent.QuotedID = quoted.ID
	}
	return c.recordText(sent)
}

func (c *TestClient) SendMentions(ctx context.Context, chatJID, text string, mentionJIDs []string) error {
	return c.recordText(SentText{ChatJID: chatJID, Text: text, Mentions: mentionJIDs})
}

func (c *TestClient) SendPoll(ctx context.Context, chatJID, question string, options []string, multiSelect bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.SentPolls = append(c.SentPolls, SentPoll{
		ChatJID:     chatJID,
		Question:    question,
		Options:     options,
		MultiSelect: multiSelect,
	})
	return nil
}

func (c *TestClient) SendDocument(ctx context.Context, chatJID, filename, mimeType string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.SentDocs = append(c.SentDocs, SentDocument{
		ChatJID:  chatJID,
		Filename: filename,
		MimeType: mimeType,
		Data:     data,
	})
	return nil
}

func (c *TestClient) SendTyping(ctx context.Context, chatJID string) error { return nil }

func (c *TestClient) SendPresence(ctx context.Context) error { return c.SendErr }

func (c *TestClient) MarkRead(ctx context.Context, msg *Message) error { return nil }

func (c *TestClient) DownloadMedia(ctx context.Context, msg *Message) ([]byte, error) {
	return c.MediaData, nil
}

func (c *TestClient) GroupInfo(ctx context.Context, chatJID string) (*GroupInfo, error) {
	if c.GroupErr != nil {
		return nil, c.GroupErr
	}
	if c.Group != nil {
		return c.Group, nil
	}
	return &GroupInfo{JID: chatJID}, nil
}

func (c *TestClient) RemoveParticipants(ctx context.Context, chatJID string, jids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Removed = append(c.Removed, jids)
	return nil
}

func (c *TestClient) RevokeMessage(ctx context.Context, chatJID, senderJID, messageID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Revoked = append(c.Revoked, messageID)
	return nil
}

func (c *TestClient) SetGroupPhoto(ctx context.Context, chatJID string, jpeg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GroupPhotos++
	return c.SendErr
}

func (c *TestClient) SetGroupName(ctx context.Context, chatJID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GroupNames = append(c.GroupNames, name)
	return c.SendErr
}

func (c *TestClient) recordText(sent SentText) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.SentTexts = append(c.SentTexts, sent)
	return nil
}

// LastText returns the most recent outbound text, or an empty record.
func (c *TestClient) LastText() SentText {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.SentTexts) == 0 {
		return SentText{}
	}
	return c.SentTexts[len(c.SentTexts)-1]
}
