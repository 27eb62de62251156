package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

var (
	ErrSelectionExpired = errors.New("selection expired")
	ErrSelectionInvalid = errors.New("selection index out of range")
)

// DocsService stores chat media on disk and keeps a searchable index in the
// database. Files are named by their generated ID, the original name only
// lives in the index so renames never touch the filesystem.
type DocsService struct {
	db     database.Database
	client whatsapp.Client
	cfg    config.DocsConfig
	logger logger.Logger

	mu        sync.Mutex
	selection *searchSelection
}

// searchSelection is the single pending pick from a cross-chat search.
// Starting a new search replaces it, there is never more than one.
type searchSelection struct {
	docs      []database.Document
	ownerJID  string
	expiresAt time.Time
}

func NewDocsService(db database.Database, client whatsapp.Client, cfg config.DocsConfig, log logger.Logger) *DocsService {
	return &DocsService{
		db:     db,
		client: client,
		cfg:    cfg,
		logger: log.WithField("component", "docs"),
	}
}

// Store downloads the message's media and indexes it under the chat.
func (s *DocsService) Store(ctx context.Context, msg *whatsapp.Message) (*database.Document, error) {
	if !msg.HasMedia() {
		return nil, errors.New("message has no media")
	}

	data, err := s.client.DownloadMedia(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	id := uuid.NewString()
	name := msg.Media.Filename
	if name == "" {
		name = id + extensionFor(msg.Media.MimeType)
	}

	// re-sending a file under the same name replaces the previous version
	if existing, err := s.db.FindDocument(msg.ChatJID, name); err == nil && existing != nil {
		if err := s.Delete(msg.ChatJID, name); err != nil {
			s.logger.WithError(err).Warn("Failed to replace existing document")
		}
	}

	dir := filepath.Join(s.cfg.StorageDir, sanitizeDirName(msg.ChatJID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	path := filepath.Join(dir, id+filepath.Ext(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	doc := database.Document{
		ID:       id,
		ChatJID:  msg.ChatJID,
		Name:     name,
		MimeType: msg.Media.MimeType,
		Path:     path,
		Size:     int64(len(data)),
	}
	if err := s.db.SaveDocument(doc); err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			s.logger.WithError(removeErr).Warn("Failed to remove orphaned file")
		}
		return nil, fmt.Errorf("index document: %w", err)
	}

	s.logger.WithFields(logger.Fields{
		"chat": msg.ChatJID,
		"name": name,
		"size": doc.Size,
	}).Info("Stored document")
	return &doc, nil
}

func (s *DocsService) List(chatJID string) ([]database.Document, error) {
	return s.db.ListDocuments(chatJID)
}

func (s *DocsService) Find(chatJID, name string) (*database.Document, error) {
	return s.db.FindDocument(chatJID, name)
}

func (s *DocsService) Rename(chatJID, oldName, newName string) error {
	return s.db.RenameDocument(chatJID, oldName, newName)
}

// Delete removes the index entry and the file behind it.
func (s *DocsService) Delete(chatJID, name string) error {
	doc, err := s.db.FindDocument(chatJID, name)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document %q not found", name)
	}
	if err := s.db.DeleteDocument(doc.ID); err != nil {
		return err
	}
	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		s.logger.WithError(err).Warn("Failed to remove document file")
	}
	return nil
}

// Send delivers a stored document back into a chat.
func (s *DocsService) Send(ctx context.Context, chatJID string, doc *database.Document) error {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	return s.client.SendDocument(ctx, chatJID, doc.Name, doc.MimeType, data)
}

// Search matches document names across all chats.
func (s *DocsService) Search(query string) ([]database.Document, error) {
	return s.db.SearchDocuments(query)
}

// BeginSelection parks search results for a numbered follow-up pick.
func (s *DocsService) BeginSelection(ownerJID string, docs []database.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = &searchSelection{
		docs:      docs,
		ownerJID:  ownerJID,
		expiresAt: time.Now().Add(s.cfg.SelectionTTL),
	}
}

// TakeSelection resolves a 1-based pick from the pending search. The
// selection is consumed on success, a bad index leaves it in place.
func (s *DocsService) TakeSelection(ownerJID string, index int) (*database.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel := s.selection
	if sel == nil || sel.ownerJID != ownerJID {
		return nil, ErrSelectionExpired
	}
	if time.Now().After(sel.expiresAt) {
		s.selection = nil
		return nil, ErrSelectionExpired
	}
	if index < 1 || index > len(sel.docs) {
		return nil, ErrSelectionInvalid
	}
	doc := sel.docs[index-1]
	s.selection = nil
	return &doc, nil
}

// HasSelection reports whether a live selection is pending for the user.
func (s *DocsService) HasSelection(ownerJID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection != nil && s.selection.ownerJID == ownerJID && time.Now().Before(s.selection.expiresAt)
}

func HumanSize(size int64) string {
	return humanize.Bytes(uint64(size))
}

func sanitizeDirName(jid string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, jid)
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	case "audio/ogg; codecs=opus", "audio/ogg":
		return ".ogg"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
