package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ezhov-dev/zapguard/internal/cache"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

const groupCacheTTL = 5 * time.Minute

// ChatService answers role questions about chats. Group metadata is cached
// in memory only, admin changes should be picked up within minutes.
type ChatService struct {
	client whatsapp.Client
	cache  cache.Cache
	logger logger.Logger
}

func NewChatService(client whatsapp.Client, c cache.Cache, log logger.Logger) *ChatService {
	return &ChatService{
		client: client,
		cache:  c,
		logger: log,
	}
}

func (s *ChatService) Snapshot(ctx context.Context, msg *whatsapp.Message) (commands.ChatSnapshot, error) {
	if !msg.IsGroup {
		return commands.ChatSnapshot{}, nil
	}

	info, err := s.Group(ctx, msg.ChatJID)
	if err != nil {
		return commands.ChatSnapshot{IsGroup: true}, err
	}

	snapshot := commands.ChatSnapshot{IsGroup: true}
	selfJID := s.client.SelfJID()
	for _, p := range info.Participants {
		if whatsapp.SameUser(p.JID, msg.SenderJID) {
			snapshot.SenderIsAdmin = p.IsAdmin
			snapshot.SenderIsSuperAdmin = p.IsSuperAdmin
		}
		if whatsapp.SameUser(p.JID, selfJID) {
			snapshot.BotIsAdmin = p.IsAdmin || p.IsSuperAdmin
		}
	}
	return snapshot, nil
}

// Group returns group metadata, served from cache when fresh.
func (s *ChatService) Group(ctx context.Context, chatJID string) (*whatsapp.GroupInfo, error) {
	key := cache.MemoryOnlyPrefix + "group:" + chatJID
	if data, found := s.cache.Get(key); found {
		var info whatsapp.GroupInfo
		if err := json.Unmarshal(data, &info); err == nil {
			return &info, nil
		}
	}

	info, err := s.client.GroupInfo(ctx, chatJID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(info); err == nil {
		if err := s.cache.Set(key, data, groupCacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache group info")
		}
	}
	return info, nil
}

// Invalidate drops the cached metadata for a chat, used after membership
// changes the bot itself made.
func (s *ChatService) Invalidate(chatJID string) {
	_ = s.cache.Delete(cache.MemoryOnlyPrefix + "group:" + chatJID)
}
