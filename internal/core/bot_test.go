package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/ai"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/health"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type fakeHealth struct {
	touches  int
	ready    int
	restarts []string
	logouts  int
}

func (f *fakeHealth) Touch()                    { f.touches++ }
func (f *fakeHealth) ConfirmedReady()           { f.ready++ }
func (f *fakeHealth) RestartBot(reason string)  { f.restarts = append(f.restarts, reason) }
func (f *fakeHealth) HandleLogout()             { f.logouts++ }
func (f *fakeHealth) Status() health.Status     { return health.StatusHealthy }
func (f *fakeHealth) HeartbeatAge() time.Duration { return time.Second }

type echoCommand struct {
	executed bool
	gotArgs  []string
}

func (c *echoCommand) Name() string                         { return "echo" }
func (c *echoCommand) Aliases() []string                    { return nil }
func (c *echoCommand) Description() string                  { return "echo" }
func (c *echoCommand) Usage() string                        { return "?echo" }
func (c *echoCommand) Category() string                     { return commands.CategoryUtility }
func (c *echoCommand) Constraints() commands.Constraints    { return commands.Constraints{} }
func (c *echoCommand) GetQueueConfig() commands.QueueConfig { return commands.QueueConfig{} }

func (c *echoCommand) Handle(ctx context.Context, msg *whatsapp.Message, args []string) error {
	return c.Execute(ctx, msg, args)
}

func (c *echoCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	c.executed = true
	c.gotArgs = args
	return nil
}

type fixedChat struct{}

func (fixedChat) Snapshot(ctx context.Context, msg *whatsapp.Message) (commands.ChatSnapshot, error) {
	return commands.ChatSnapshot{IsGroup: msg.IsGroup}, nil
}

type botFixture struct {
	bot     *Bot
	client  *whatsapp.TestClient
	monitor *fakeHealth
	echo    *echoCommand
	gen     *fakeGenerator
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()
	client := whatsapp.NewTestClient()
	db := newTestDB(t)
	localizer := newTestLocalizer(t)
	log := logger.NewTestLogger()
	cfg := config.NewTestConfig(map[string]any{
		config.GLOBAL_OWNER_JID: "491700000000@s.whatsapp.net",
	})

	registry := commands.NewRegistry(client, fixedChat{}, localizer, cfg, log)
	echo := &echoCommand{}
	registry.Register(echo)

	gen := &fakeGenerator{response: ai.Response{Text: "hello from the model"}}
	assistant := NewAssistant(gen, registry, client, db, localizer, log)

	docs := service.NewDocsService(db, client, config.DocsConfig{
		StorageDir:   t.TempDir(),
		SelectionTTL: time.Minute,
	}, log)
	rotation := ai.NewRotation([]config.RotationEntry{{Model: "gpt-4o", Label: "primary"}}, log)
	monitor := &fakeHealth{}

	bot := NewBot(client, registry, assistant, docs, db, monitor, rotation, localizer, cfg, log)
	return &botFixture{bot: bot, client: client, monitor: monitor, echo: echo, gen: gen}
}

func inbound(text string) *whatsapp.Message {
	return &whatsapp.Message{
		ID:        "IN1",
		ChatJID:   "120363000000000000@g.us",
		SenderJID: "4915200000000@s.whatsapp.net",
		PushName:  "Alex",
		Text:      text,
		IsGroup:   true,
	}
}

func TestMessageTouchesHeartbeatAndStores(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleMessage(context.Background(), inbound("just chatting"))

	assert.Equal(t, 1, f.monitor.touches)
	stored, err := f.bot.db.GetRecentMessages("120363000000000000@g.us", 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "just chatting", stored[0].Text)
}

func TestOwnMessagesAreStoredButNotDispatched(t *testing.T) {
	f := newBotFixture(t)
	msg := inbound("?echo hi")
	msg.IsFromMe = true

	f.bot.handleMessage(context.Background(), msg)

	assert.False(t, f.echo.executed)
	stored, err := f.bot.db.GetRecentMessages(msg.ChatJID, 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCommandDispatch(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleMessage(context.Background(), inbound("?echo one two"))

	assert.True(t, f.echo.executed)
	assert.Equal(t, []string{"one", "two"}, f.echo.gotArgs)
}

func TestSystemPing(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleMessage(context.Background(), inbound("!ping"))

	assert.Equal(t, "pong", f.client.LastText().Text)
}

func TestSystemStatus(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleMessage(context.Background(), inbound("!status"))

	status := f.client.LastText().Text
	assert.Contains(t, status, "healthy")
	assert.Contains(t, status, "primary")
}

func TestMentionTriggersAssistant(t *testing.T) {
	f := newBotFixture(t)
	msg := inbound("@10000000000 what time is it")
	msg.MentionedJIDs = []string{f.client.SelfJIDValue}

	f.bot.handleMessage(context.Background(), msg)

	require.Len(t, f.gen.requests, 1)
	assert.Equal(t, "what time is it", f.gen.requests[0].Text)
	assert.Equal(t, "hello from the model", f.client.LastText().Text)
}

func TestReplyToBotTriggersAssistant(t *testing.T) {
	f := newBotFixture(t)
	msg := inbound("and in London?")
	msg.QuotedID = "B1"
	msg.QuotedSender = f.client.SelfJIDValue
	msg.QuotedText = "It is 14:00 in Berlin."

	f.bot.handleMessage(context.Background(), msg)

	require.Len(t, f.gen.requests, 1)
	assert.Equal(t, ai.ContextQuoted, f.gen.requests[0].ContextType)
}

func TestPlainTextIsIgnored(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleMessage(context.Background(), inbound("nothing for the bot here"))

	assert.Empty(t, f.gen.requests)
	assert.Empty(t, f.client.SentTexts)
}

func TestDocumentAutoStore(t *testing.T) {
	f := newBotFixture(t)
	f.client.MediaData = []byte("chapter one")
	msg := inbound("")
	msg.Media = &whatsapp.MediaInfo{
		Type:     whatsapp.MediaDocument,
		MimeType: "application/pdf",
		Filename: "notes.pdf",
	}

	f.bot.handleMessage(context.Background(), msg)

	assert.Contains(t, f.client.LastText().Text, "notes.pdf")
	docs, err := f.bot.docs.List(msg.ChatJID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestSelectionPickSendsDocument(t *testing.T) {
	f := newBotFixture(t)
	f.client.MediaData = []byte("stored doc")
	msg := inbound("")
	msg.Media = &whatsapp.MediaInfo{Type: whatsapp.MediaDocument, MimeType: "application/pdf", Filename: "pick.pdf"}
	f.bot.handleMessage(context.Background(), msg)

	docs, err := f.bot.docs.List(msg.ChatJID)
	require.NoError(t, err)
	f.bot.docs.BeginSelection("4915200000000@s.whatsapp.net", docs)

	f.bot.handleMessage(context.Background(), inbound("1"))

	require.Len(t, f.client.SentDocs, 1)
	assert.Equal(t, "pick.pdf", f.client.SentDocs[0].Filename)
}

func TestWelcomeOnJoin(t *testing.T) {
	f := newBotFixture(t)
	require.NoError(t, f.bot.db.SetWelcome("120363000000000000@g.us", true, ""))

	f.bot.handleJoin(context.Background(), whatsapp.GroupJoinEvent{
		ChatJID: "120363000000000000@g.us",
		UserJID: "4915233333333@s.whatsapp.net",
	})

	sent := f.client.LastText()
	assert.Contains(t, sent.Text, "@4915233333333")
	assert.Equal(t, []string{"4915233333333@s.whatsapp.net"}, sent.Mentions)
}

func TestWelcomeDisabledStaysSilent(t *testing.T) {
	f := newBotFixture(t)

	f.bot.handleJoin(context.Background(), whatsapp.GroupJoinEvent{
		ChatJID: "120363000000000000@g.us",
		UserJID: "4915233333333@s.whatsapp.net",
	})

	assert.Empty(t, f.client.SentTexts)
}

func TestLifecycleEventsDriveMonitor(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.bot.handleEvent(ctx, whatsapp.ConnectedEvent{})
	f.bot.handleEvent(ctx, whatsapp.DisconnectedEvent{})
	f.bot.handleEvent(ctx, whatsapp.StreamReplacedEvent{})
	f.bot.handleEvent(ctx, whatsapp.KeepAliveTimeoutEvent{ErrorCount: 3})
	f.bot.handleEvent(ctx, whatsapp.LoggedOutEvent{})

	assert.Equal(t, 1, f.monitor.ready)
	assert.Len(t, f.monitor.restarts, 3)
	assert.Equal(t, 1, f.monitor.logouts)
}
