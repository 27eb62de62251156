package docs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/cache"
	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/queue"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

func newTestContainer(t *testing.T) (*di.Container, *whatsapp.TestClient) {
	t.Helper()
	client := whatsapp.NewTestClient()
	log := logger.NewTestLogger()
	cfg := config.NewTestConfig(map[string]any{
		config.DATABASE_DSN:     ":memory:",
		config.GLOBAL_OWNER_JID: "491700000000@s.whatsapp.net",
	})
	db, err := database.NewSQLiteDB(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	localizer, err := service.NewLocalizer("en")
	require.NoError(t, err)

	return &di.Container{
		Cfg:         cfg,
		Logger:      log,
		DB:          db,
		Queue:       queue.NewQueue(db, log),
		WA:          client,
		ChatService: service.NewChatService(client, cache.NewMemoryCache(), log),
		Localizer:   localizer,
		Docs: service.NewDocsService(db, client, config.DocsConfig{
			StorageDir:   t.TempDir(),
			SelectionTTL: time.Minute,
		}, log),
	}, client
}

func storeDoc(t *testing.T, c *di.Container, client *whatsapp.TestClient, chatJID, name string) {
	t.Helper()
	client.MediaData = []byte("content of " + name)
	_, err := c.Docs.Store(context.Background(), &whatsapp.Message{
		ID:      "M-" + name,
		ChatJID: chatJID,
		IsGroup: true,
		Media: &whatsapp.MediaInfo{
			Type:     whatsapp.MediaDocument,
			MimeType: "application/pdf",
			Filename: name,
		},
	})
	require.NoError(t, err)
}

func chatMessage(chatJID, text string) *whatsapp.Message {
	return &whatsapp.Message{
		ID:        "MSG1",
		ChatJID:   chatJID,
		SenderJID: "491700000000@s.whatsapp.net",
		Text:      text,
		IsGroup:   true,
	}
}

func TestFetchSendsStoredDocument(t *testing.T) {
	c, client := newTestContainer(t)
	chat := "120363000000000000@g.us"
	storeDoc(t, c, client, chat, "notes.pdf")
	cmd := NewFetchCommand(c)

	require.NoError(t, cmd.Execute(context.Background(), chatMessage(chat, "?fetch notes.pdf"), []string{"notes.pdf"}))

	require.Len(t, client.SentDocs, 1)
	assert.Equal(t, "notes.pdf", client.SentDocs[0].Filename)
	assert.Equal(t, []byte("content of notes.pdf"), client.SentDocs[0].Data)
}

func TestFetchUnknownName(t *testing.T) {
	c, client := newTestContainer(t)
	cmd := NewFetchCommand(c)

	require.NoError(t, cmd.Execute(context.Background(), chatMessage("120363000000000000@g.us", "?fetch nope"), []string{"nope"}))

	assert.Empty(t, client.SentDocs)
	assert.Contains(t, client.LastText().Text, "nope")
}

func TestSplitRenamePair(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		oldName string
		newName string
		ok      bool
	}{
		{"simple", []string{"a.pdf:b.pdf"}, "a.pdf", "b.pdf", true},
		{"spaces in names", []string{"old", "name.pdf:new", "name.pdf"}, "old name.pdf", "new name.pdf", true},
		{"missing colon", []string{"a.pdf"}, "", "", false},
		{"empty new name", []string{"a.pdf:"}, "", "", false},
		{"empty args", nil, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldName, newName, ok := splitRenamePair(tt.args)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.oldName, oldName)
				assert.Equal(t, tt.newName, newName)
			}
		})
	}
}

func TestRenameUpdatesIndex(t *testing.T) {
	c, client := newTestContainer(t)
	chat := "120363000000000000@g.us"
	storeDoc(t, c, client, chat, "draft.pdf")
	cmd := NewRenameCommand(c)

	require.NoError(t, cmd.Execute(context.Background(), chatMessage(chat, "?rename"), []string{"draft.pdf:final.pdf"}))

	doc, err := c.Docs.Find(chat, "final.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
}

func TestMasterSearchBeginsSelection(t *testing.T) {
	c, client := newTestContainer(t)
	storeDoc(t, c, client, "chat-a@g.us", "exam notes.pdf")
	storeDoc(t, c, client, "chat-b@g.us", "exam schedule.pdf")
	cmd := NewMasterSearchCommand(c)
	msg := chatMessage("491700000000@s.whatsapp.net", "?mastersearch exam")

	require.NoError(t, cmd.Execute(context.Background(), msg, []string{"exam"}))

	reply := client.LastText().Text
	assert.Contains(t, reply, "1.")
	assert.Contains(t, reply, "2.")
	assert.True(t, c.Docs.HasSelection("491700000000@s.whatsapp.net"))
}

func TestMasterRenameFindsAcrossChats(t *testing.T) {
	c, client := newTestContainer(t)
	storeDoc(t, c, client, "chat-b@g.us", "misfiled.pdf")
	cmd := NewMasterRenameCommand(c)
	msg := chatMessage("491700000000@s.whatsapp.net", "?masterrename")

	require.NoError(t, cmd.Execute(context.Background(), msg, []string{"misfiled.pdf:found.pdf"}))

	doc, err := c.Docs.Find("chat-b@g.us", "found.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)
}
