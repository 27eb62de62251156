package database

import (
	"context"
	"database/sql"
	"time"
)

type Database interface {
	GetDB() *sql.DB

	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)
	Close() error

	// Message log, used for purge and reply context
	SaveMessage(chatJID, messageID, senderJID string, fromMe bool, text string) error
	GetRecentMessages(chatJID string, limit int) ([]StoredMessage, error)
	PurgeOldMessages(retentionDays int) error

	// Per-chat settings
	SetWelcome(chatJID string, enabled bool, text string) error
	GetWelcome(chatJID string) (bool, string, error)

	// Document index
	SaveDocument(doc Document) error
	ListDocuments(chatJID string) ([]Document, error)
	FindDocument(chatJID, name string) (*Document, error)
	RenameDocument(chatJID, oldName, newName string) error
	DeleteDocument(id string) error
	SearchDocuments(query string) ([]Document, error)

	// Attendance
	SaveAttendanceRecord(rec AttendanceRecord) error
	GetAttendanceStats(chatJID, userJID string) (present, total int, err error)
	GetAttendanceHistory(chatJID string, limit int) ([]AttendanceRecord, error)
	SaveTimetableEntry(entry TimetableEntry) error
	GetTimetable(chatJID string) ([]TimetableEntry, error)
	ListTimetableEntries() ([]TimetableEntry, error)

	// Reminders
	SaveReminder(rem Reminder) error
	DeleteReminder(id string) error
	ListPendingReminders() ([]Reminder, error)
	MarkReminderFired(id string) error

	// Semantic memory
	SaveMemory(mem Memory) error
	ListMemories(chatJID string) ([]Memory, error)

	// Task queue
	PurgeOldTasks(retentionDays int) error
}

type StoredMessage struct {
	ChatJID   string
	MessageID string
	SenderJID string
	FromMe    bool
	Text      string
	CreatedAt time.Time
}

type Document struct {
	ID        string
	ChatJID   string
	Name      string
	MimeType  string
	Path      string
	Size      int64
	CreatedAt time.Time
}

type AttendanceRecord struct {
	ID        int64
	ChatJID   string
	UserJID   string
	Subject   string
	Present   bool
	Date      time.Time
	CreatedAt time.Time
}

type TimetableEntry struct {
	ID      int64
	ChatJID string
	Weekday int
	Hour    int
	Minute  int
	Subject string
}

type Reminder struct {
	ID        string
	ChatJID   string
	UserJID   string
	Text      string
	FireAt    time.Time
	Fired     bool
	CreatedAt time.Time
}

type Memory struct {
	ID        string
	ChatJID   string
	UserJID   string
	Text      string
	Embedding []byte
	CreatedAt time.Time
}
