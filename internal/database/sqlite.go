package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

type sqliteDB struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteDB(cfg *config.Config, log logger.Logger) (Database, error) {
	db, err := sql.Open("sqlite", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(logger.Fields{
		"DSN": cfg.GetDatabaseDSN(),
	}).Debug("Database alive")

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	return &sqliteDB{db: db, logger: log}, nil
}

func (s *sqliteDB) GetDB() *sql.DB {
	return s.db
}

func (s *sqliteDB) Exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(query, args...)
}

func (s *sqliteDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqliteDB) Query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

func (s *sqliteDB) QueryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(query, args...)
}

func (s *sqliteDB) Close() error {
	return s.db.Close()
}

func (s *sqliteDB) ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	backoff := retry.WithMaxRetries(3, retry.NewConstant(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var execErr error
		res, execErr = s.ExecContext(ctx, query, args...)
		if execErr != nil && strings.Contains(execErr.Error(), "database is locked") {
			s.logger.WithFields(logger.Fields{
				"query": query,
				"error": execErr.Error(),
			}).Warn("Database locked, retrying...")
			return retry.RetryableError(execErr)
		}
		return execErr
	})
	return res, err
}

// Message log

func (s *sqliteDB) SaveMessage(chatJID, messageID, senderJID string, fromMe bool, text string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO messages (chat_jid, message_id, sender_jid, from_me, text)
		VALUES (?, ?, ?, ?, ?)
	`, chatJID, messageID, senderJID, fromMe, text)
	return err
}

func (s *sqliteDB) GetRecentMessages(chatJID string, limit int) ([]StoredMessage, error) {
	rows, err := s.db.Query(`
		SELECT chat_jid, message_id, sender_jid, from_me, text, created_at
		FROM messages WHERE chat_jid = ?
		ORDER BY created_at DESC LIMIT ?
	`, chatJID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ChatJID, &m.MessageID, &m.SenderJID, &m.FromMe, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *sqliteDB) PurgeOldMessages(retentionDays int) error {
	_, err := s.db.Exec("DELETE FROM messages WHERE created_at < datetime('now', ?)", fmt.Sprintf("-%d days", retentionDays))
	return err
}

// Chat settings

func (s *sqliteDB) SetWelcome(chatJID string, enabled bool, text string) error {
	_, err := s.db.Exec(`
		INSERT INTO chat_settings (chat_jid, welcome_enabled, welcome_text)
		VALUES (?, ?, ?)
		ON CONFLICT(chat_jid) DO UPDATE SET
			welcome_enabled = excluded.welcome_enabled,
			welcome_text = excluded.welcome_text,
			updated_at = CURRENT_TIMESTAMP
	`, chatJID, enabled, text)
	return err
}

func (s *sqliteDB) GetWelcome(chatJID string) (bool, string, error) {
	var enabled bool
	var text string
	err := s.db.QueryRow("SELECT welcome_enabled, welcome_text FROM chat_settings WHERE chat_jid = ?", chatJID).Scan(&enabled, &text)
	if err == sql.ErrNoRows {
		return false, "", nil
	}
	return enabled, text, err
}

// Documents

func (s *sqliteDB) SaveDocument(doc Document) error {
	_, err := s.db.Exec(`
		INSERT INTO documents (id, chat_jid, name, mime_type, path, size)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.ChatJID, doc.Name, doc.MimeType, doc.Path, doc.Size)
	return err
}

func (s *sqliteDB) scanDocuments(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.ChatJID, &d.Name, &d.MimeType, &d.Path, &d.Size, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *sqliteDB) ListDocuments(chatJID string) ([]Document, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, name, mime_type, path, size, created_at
		FROM documents WHERE chat_jid = ? ORDER BY created_at DESC
	`, chatJID)
	if err != nil {
		return nil, err
	}
	return s.scanDocuments(rows)
}

func (s *sqliteDB) FindDocument(chatJID, name string) (*Document, error) {
	var d Document
	err := s.db.QueryRow(`
		SELECT id, chat_jid, name, mime_type, path, size, created_at
		FROM documents WHERE chat_jid = ? AND name = ?
	`, chatJID, name).Scan(&d.ID, &d.ChatJID, &d.Name, &d.MimeType, &d.Path, &d.Size, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *sqliteDB) RenameDocument(chatJID, oldName, newName string) error {
	res, err := s.db.Exec("UPDATE documents SET name = ? WHERE chat_jid = ? AND name = ?", newName, chatJID, oldName)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("document %q not found", oldName)
	}
	return nil
}

func (s *sqliteDB) DeleteDocument(id string) error {
	_, err := s.db.Exec("DELETE FROM documents WHERE id = ?", id)
	return err
}

func (s *sqliteDB) SearchDocuments(query string) ([]Document, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, name, mime_type, path, size, created_at
		FROM documents WHERE name LIKE '%' || ? || '%' ORDER BY created_at DESC LIMIT 20
	`, query)
	if err != nil {
		return nil, err
	}
	return s.scanDocuments(rows)
}

// Attendance

func (s *sqliteDB) SaveAttendanceRecord(rec AttendanceRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO attendance (chat_jid, user_jid, subject, present, date)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ChatJID, rec.UserJID, rec.Subject, rec.Present, rec.Date)
	return err
}

func (s *sqliteDB) GetAttendanceStats(chatJID, userJID string) (int, int, error) {
	var present, total int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(present), 0), COUNT(*)
		FROM attendance WHERE chat_jid = ? AND user_jid = ?
	`, chatJID, userJID).Scan(&present, &total)
	return present, total, err
}

func (s *sqliteDB) GetAttendanceHistory(chatJID string, limit int) ([]AttendanceRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, user_jid, subject, present, date, created_at
		FROM attendance WHERE chat_jid = ? ORDER BY date DESC LIMIT ?
	`, chatJID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []AttendanceRecord
	for rows.Next() {
		var r AttendanceRecord
		if err := rows.Scan(&r.ID, &r.ChatJID, &r.UserJID, &r.Subject, &r.Present, &r.Date, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqliteDB) SaveTimetableEntry(entry TimetableEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO timetable (chat_jid, weekday, hour, minute, subject)
		VALUES (?, ?, ?, ?, ?)
	`, entry.ChatJID, entry.Weekday, entry.Hour, entry.Minute, entry.Subject)
	return err
}

func (s *sqliteDB) GetTimetable(chatJID string) ([]TimetableEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, weekday, hour, minute, subject
		FROM timetable WHERE chat_jid = ? ORDER BY weekday, hour, minute
	`, chatJID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TimetableEntry
	for rows.Next() {
		var e TimetableEntry
		if err := rows.Scan(&e.ID, &e.ChatJID, &e.Weekday, &e.Hour, &e.Minute, &e.Subject); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *sqliteDB) ListTimetableEntries() ([]TimetableEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, weekday, hour, minute, subject
		FROM timetable ORDER BY chat_jid, weekday, hour, minute
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TimetableEntry
	for rows.Next() {
		var e TimetableEntry
		if err := rows.Scan(&e.ID, &e.ChatJID, &e.Weekday, &e.Hour, &e.Minute, &e.Subject); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Reminders

func (s *sqliteDB) SaveReminder(rem Reminder) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, chat_jid, user_jid, text, fire_at, fired)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rem.ID, rem.ChatJID, rem.UserJID, rem.Text, rem.FireAt, rem.Fired)
	return err
}

func (s *sqliteDB) DeleteReminder(id string) error {
	_, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	return err
}

func (s *sqliteDB) ListPendingReminders() ([]Reminder, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, user_jid, text, fire_at, fired, created_at
		FROM reminders WHERE fired = 0 ORDER BY fire_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.ChatJID, &r.UserJID, &r.Text, &r.FireAt, &r.Fired, &r.CreatedAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

func (s *sqliteDB) MarkReminderFired(id string) error {
	_, err := s.db.Exec("UPDATE reminders SET fired = 1 WHERE id = ?", id)
	return err
}

// Semantic memory

func (s *sqliteDB) SaveMemory(mem Memory) error {
	_, err := s.db.Exec(`
		INSERT INTO memories (id, chat_jid, user_jid, text, embedding)
		VALUES (?, ?, ?, ?, ?)
	`, mem.ID, mem.ChatJID, mem.UserJID, mem.Text, mem.Embedding)
	return err
}

func (s *sqliteDB) ListMemories(chatJID string) ([]Memory, error) {
	rows, err := s.db.Query(`
		SELECT id, chat_jid, user_jid, text, embedding, created_at
		FROM memories WHERE chat_jid = ? ORDER BY created_at
	`, chatJID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		if err := rows.Scan(&m.ID, &m.ChatJID, &m.UserJID, &m.Text, &m.Embedding, &m.CreatedAt); err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

// Tasks

func (s *sqliteDB) PurgeOldTasks(retentionDays int) error {
	_, err := s.db.Exec(`
		DELETE FROM tasks WHERE status IN ('complete', 'failed')
		AND created_at < datetime('now', ?)
	`, fmt.Sprintf("-%d days", retentionDays))
	return err
}
