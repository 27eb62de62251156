package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type fakeGenerator struct {
	response ai.Response
	requests []ai.Request
}

func (f *fakeGenerator) GenerateResponse(ctx context.Context, req ai.Request) ai.Response {
	f.requests = append(f.requests, req)
	return f.response
}

type fakeRunner struct {
	names []string
	rests []string
	err   error
}

func (f *fakeRunner) Execute(ctx context.Context, msg *whatsapp.Message, name, rest string) error {
	f.names = append(f.names, name)
	f.rests = append(f.rests, rest)
	return f.err
}

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	cfg := config.NewTestConfig(map[string]any{
		config.DATABASE_DSN: ":memory:",
	})
	db, err := database.NewSQLiteDB(cfg, logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLocalizer(t *testing.T) *service.Localizer {
	t.Helper()
	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)
	return localizer
}

func newTestAssistant(t *testing.T, gen *fakeGenerator, runner *fakeRunner) (*Assistant, *whatsapp.TestClient, database.Database) {
	t.Helper()
	client := whatsapp.NewTestClient()
	db := newTestDB(t)
	a := NewAssistant(gen, runner, client, db, newTestLocalizer(t), logger.NewTestLogger())
	return a, client, db
}

func userMessage(text string) *whatsapp.Message {
	return &whatsapp.Message{
		ID:        "MSG1",
		ChatJID:   "120363000000000000@g.us",
		SenderJID: "4915200000000@s.whatsapp.net",
		PushName:  "Alex",
		Text:      text,
		IsGroup:   true,
	}
}

func TestHandleRepliesWithText(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{Text: "The answer is 42."}}
	a, client, _ := newTestAssistant(t, gen, &fakeRunner{})

	err := a.Handle(context.Background(), userMessage("what is the answer"), "what is the answer")

	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", client.LastText().Text)
	require.Len(t, gen.requests, 1)
	assert.Equal(t, "Alex", gen.requests[0].SenderName)
}

func TestHandleAppendsSourcesWhenAsked(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{
		Text:    "Go 1.25 is out.",
		Sources: []ai.Source{{Title: "Go Blog", URL: "https://go.dev/blog"}},
	}}
	a, client, _ := newTestAssistant(t, gen, &fakeRunner{})

	err := a.Handle(context.Background(), userMessage("news? cite sources"), "news? cite sources")

	require.NoError(t, err)
	assert.Contains(t, client.LastText().Text, "Go 1.25 is out.")
	assert.Contains(t, client.LastText().Text, "https://go.dev/blog")
}

func TestHandleOmitsSourcesWhenNotAsked(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{
		Text:    "Go 1.25 is out.",
		Sources: []ai.Source{{Title: "Go Blog", URL: "https://go.dev/blog"}},
	}}
	a, client, _ := newTestAssistant(t, gen, &fakeRunner{})

	err := a.Handle(context.Background(), userMessage("any news?"), "any news?")

	require.NoError(t, err)
	assert.Equal(t, "Go 1.25 is out.", client.LastText().Text)
}

func TestHandleRoutesActionThroughRunner(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{Text: "EXECUTE:KICK:@4915211111111"}}
	runner := &fakeRunner{}
	a, client, _ := newTestAssistant(t, gen, runner)

	err := a.Handle(context.Background(), userMessage("throw them out"), "throw them out")

	require.NoError(t, err)
	assert.Equal(t, []string{"kick"}, runner.names)
	assert.Equal(t, []string{"@4915211111111"}, runner.rests)
	// action short-circuits the text reply
	assert.Empty(t, client.SentTexts)
}

func TestHandleUnknownActionRepliesNotSure(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{Text: "EXECUTE:EXPLODE:now"}}
	runner := &fakeRunner{}
	a, client, _ := newTestAssistant(t, gen, runner)

	err := a.Handle(context.Background(), userMessage("do something"), "do something")

	require.NoError(t, err)
	assert.Empty(t, runner.names)
	assert.NotEmpty(t, client.LastText().Text)
}

func TestBuildRequestQuotedContext(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{Text: "ok"}}
	a, _, _ := newTestAssistant(t, gen, &fakeRunner{})

	msg := userMessage("summarize this")
	msg.QuotedID = "Q1"
	msg.QuotedText = "long announcement text"

	require.NoError(t, a.Handle(context.Background(), msg, "summarize this"))

	require.Len(t, gen.requests, 1)
	assert.Equal(t, ai.ContextQuoted, gen.requests[0].ContextType)
	assert.Equal(t, "long announcement text", gen.requests[0].Context)
}

func TestBuildRequestRecentContext(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{Text: "ok"}}
	a, _, db := newTestAssistant(t, gen, &fakeRunner{})

	msg := userMessage("what did I miss")
	require.NoError(t, db.SaveMessage(msg.ChatJID, "A1", "4915211111111@s.whatsapp.net", false, "see you at 5"))

	require.NoError(t, a.Handle(context.Background(), msg, "what did I miss"))

	require.Len(t, gen.requests, 1)
	assert.Equal(t, ai.ContextRecent, gen.requests[0].ContextType)
	assert.Contains(t, gen.requests[0].Context, "see you at 5")
}

func TestBuildRequestAttachesImage(t *testing.T) {
	gen := &fakeGenerator{response: ai.Response{Text: "a cat"}}
	a, client, _ := newTestAssistant(t, gen, &fakeRunner{})
	client.MediaData = []byte{0xFF, 0xD8, 0xFF}

	msg := userMessage("what is this")
	msg.Media = &whatsapp.MediaInfo{Type: whatsapp.MediaImage, MimeType: "image/jpeg"}

	require.NoError(t, a.Handle(context.Background(), msg, "what is this"))

	require.Len(t, gen.requests, 1)
	require.NotNil(t, gen.requests[0].Media)
	assert.Equal(t, "image/jpeg", gen.requests[0].Media.MimeType)
}
