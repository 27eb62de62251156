package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/cache"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

func TestSnapshotDirectChat(t *testing.T) {
	client := whatsapp.NewTestClient()
	svc := NewChatService(client, cache.NewMemoryCache(), logger.NewTestLogger())

	snapshot, err := svc.Snapshot(context.Background(), &whatsapp.Message{
		ChatJID:   "4915200000000@s.whatsapp.net",
		SenderJID: "4915200000000@s.whatsapp.net",
	})

	require.NoError(t, err)
	assert.False(t, snapshot.IsGroup)
}

func TestSnapshotResolvesRoles(t *testing.T) {
	client := whatsapp.NewTestClient()
	client.Group = &whatsapp.GroupInfo{
		JID:  "120363000000000000@g.us",
		Name: "Test Group",
		Participants: []whatsapp.Participant{
			{JID: "4915200000000@s.whatsapp.net", IsAdmin: true},
			{JID: client.SelfJIDValue, IsSuperAdmin: true},
			{JID: "4915211111111@s.whatsapp.net"},
		},
	}
	svc := NewChatService(client, cache.NewMemoryCache(), logger.NewTestLogger())

	snapshot, err := svc.Snapshot(context.Background(), &whatsapp.Message{
		ChatJID:   "120363000000000000@g.us",
		SenderJID: "4915200000000.0:5@s.whatsapp.net",
		IsGroup:   true,
	})

	require.NoError(t, err)
	assert.True(t, snapshot.IsGroup)
	assert.True(t, snapshot.SenderIsAdmin)
	assert.False(t, snapshot.SenderIsSuperAdmin)
	assert.True(t, snapshot.BotIsAdmin)
}

func TestGroupServedFromCache(t *testing.T) {
	client := whatsapp.NewTestClient()
	client.Group = &whatsapp.GroupInfo{JID: "120363000000000000@g.us", Name: "Cached"}
	svc := NewChatService(client, cache.NewMemoryCache(), logger.NewTestLogger())

	first, err := svc.Group(context.Background(), "120363000000000000@g.us")
	require.NoError(t, err)

	// Transport changes, cache should still answer
	client.Group = &whatsapp.GroupInfo{JID: "120363000000000000@g.us", Name: "Fresh"}
	second, err := svc.Group(context.Background(), "120363000000000000@g.us")
	require.NoError(t, err)

	assert.Equal(t, first.Name, second.Name)
}
