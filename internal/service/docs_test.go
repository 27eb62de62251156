package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

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

func newDocsService(t *testing.T, client *whatsapp.TestClient) *DocsService {
	t.Helper()
	cfg := config.DocsConfig{
		StorageDir:   t.TempDir(),
		SelectionTTL: time.Minute,
	}
	return NewDocsService(newTestDB(t), client, cfg, logger.NewTestLogger())
}

func mediaMessage(chatJID, filename, mimeType string) *whatsapp.Message {
	return &whatsapp.Message{
		ID:        "MEDIA1",
		ChatJID:   chatJID,
		SenderJID: "4915200000000@s.whatsapp.net",
		IsGroup:   true,
		Media: &whatsapp.MediaInfo{
			Type:     whatsapp.MediaDocument,
			MimeType: mimeType,
			Filename: filename,
		},
	}
}

func TestStoreAndFind(t *testing.T) {
	client := whatsapp.NewTestClient()
	client.MediaData = []byte("lecture notes")
	svc := newDocsService(t, client)

	doc, err := svc.Store(context.Background(), mediaMessage("120363000000000000@g.us", "notes.pdf", "application/pdf"))
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", doc.Name)
	assert.Equal(t, int64(len("lecture notes")), doc.Size)

	found, err := svc.Find("120363000000000000@g.us", "notes.pdf")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, doc.ID, found.ID)
	assert.FileExists(t, found.Path)
}

func TestStoreGeneratesNameWhenMissing(t *testing.T) {
	client := whatsapp.NewTestClient()
	client.MediaData = []byte{0xFF, 0xD8}
	svc := newDocsService(t, client)

	doc, err := svc.Store(context.Background(), mediaMessage("120363000000000000@g.us", "", "image/jpeg"))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Name)
	assert.Contains(t, doc.Name, ".jpg")
}

func TestDeleteRemovesIndexAndFile(t *testing.T) {
	client := whatsapp.NewTestClient()
	client.MediaData = []byte("bye")
	svc := newDocsService(t, client)

	doc, err := svc.Store(context.Background(), mediaMessage("120363000000000000@g.us", "bye.pdf", "application/pdf"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete("120363000000000000@g.us", "bye.pdf"))
	assert.NoFileExists(t, doc.Path)

	found, err := svc.Find("120363000000000000@g.us", "bye.pdf")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSelectionLifecycle(t *testing.T) {
	svc := newDocsService(t, whatsapp.NewTestClient())
	owner := "491700000000@s.whatsapp.net"
	docs := []database.Document{
		{ID: "a", Name: "first.pdf"},
		{ID: "b", Name: "second.pdf"},
	}

	_, err := svc.TakeSelection(owner, 1)
	assert.ErrorIs(t, err, ErrSelectionExpired)

	svc.BeginSelection(owner, docs)
	assert.True(t, svc.HasSelection(owner))

	_, err = svc.TakeSelection(owner, 3)
	assert.ErrorIs(t, err, ErrSelectionInvalid)

	doc, err := svc.TakeSelection(owner, 2)
	require.NoError(t, err)
	assert.Equal(t, "second.pdf", doc.Name)

	// Consumed on success
	_, err = svc.TakeSelection(owner, 1)
	assert.ErrorIs(t, err, ErrSelectionExpired)
}

func TestSelectionExpires(t *testing.T) {
	svc := newDocsService(t, whatsapp.NewTestClient())
	svc.cfg.SelectionTTL = -time.Second
	owner := "491700000000@s.whatsapp.net"

	svc.BeginSelection(owner, []database.Document{{ID: "a", Name: "old.pdf"}})

	_, err := svc.TakeSelection(owner, 1)
	assert.ErrorIs(t, err, ErrSelectionExpired)
	assert.False(t, svc.HasSelection(owner))
}

func TestSelectionBoundToUser(t *testing.T) {
	svc := newDocsService(t, whatsapp.NewTestClient())
	svc.BeginSelection("491700000000@s.whatsapp.net", []database.Document{{ID: "a", Name: "mine.pdf"}})

	_, err := svc.TakeSelection("4915200000000@s.whatsapp.net", 1)
	assert.ErrorIs(t, err, ErrSelectionExpired)
}
