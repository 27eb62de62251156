package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

const reminderTick = 15 * time.Second

var ErrInvalidTime = errors.New("invalid time expression")

// ReminderService persists one-shot reminders and delivers them when due.
// Pending reminders survive restarts, the scan loop simply picks them up
// again from the database.
type ReminderService struct {
	db        database.Database
	client    whatsapp.Client
	localizer *Localizer
	logger    logger.Logger
}

func NewReminderService(db database.Database, client whatsapp.Client, localizer *Localizer, log logger.Logger) *ReminderService {
	return &ReminderService{
		db:        db,
		client:    client,
		localizer: localizer,
		logger:    log.WithField("component", "reminders"),
	}
}

// Create parses the time expression and stores the reminder.
func (s *ReminderService) Create(chatJID, userJID, whenRaw, text string) (*database.Reminder, error) {
	fireAt, err := ParseWhen(whenRaw, time.Now())
	if err != nil {
		return nil, err
	}

	rem := database.Reminder{
		ID:      uuid.NewString(),
		ChatJID: chatJID,
		UserJID: userJID,
		Text:    text,
		FireAt:  fireAt,
	}
	if err := s.db.SaveReminder(rem); err != nil {
		return nil, fmt.Errorf("save reminder: %w", err)
	}
	return &rem, nil
}

// Start runs the delivery loop until the context is cancelled.
func (s *ReminderService) Start(ctx context.Context) {
	pending, err := s.db.ListPendingReminders()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load pending reminders")
	} else if len(pending) > 0 {
		s.logger.WithField("count", len(pending)).Info("Resuming pending reminders")
	}

	go func() {
		ticker := time.NewTicker(reminderTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.fireDue(ctx)
			}
		}
	}()
}

func (s *ReminderService) fireDue(ctx context.Context) {
	pending, err := s.db.ListPendingReminders()
	if err != nil {
		s.logger.WithError(err).Error("Failed to list reminders")
		return
	}

	now := time.Now()
	for _, rem := range pending {
		if rem.FireAt.After(now) {
			// List is ordered by fire time, the rest are in the future
			break
		}
		text := s.localizer.Localize("remind.fire", map[string]any{"Text": rem.Text})
		if err := s.client.SendMentions(ctx, rem.ChatJID, text, []string{rem.UserJID}); err != nil {
			s.logger.WithError(err).WithField("id", rem.ID).Error("Failed to deliver reminder")
			continue
		}
		if err := s.db.MarkReminderFired(rem.ID); err != nil {
			s.logger.WithError(err).WithField("id", rem.ID).Error("Failed to mark reminder fired")
		}
	}
}

// ParseWhen accepts either a Go duration ("2h", "45m") or a wall-clock
// "HH:MM", which resolves to the next occurrence of that time.
func ParseWhen(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidTime
	}

	if d, err := time.ParseDuration(raw); err == nil {
		if d <= 0 {
			return time.Time{}, ErrInvalidTime
		}
		return now.Add(d), nil
	}

	hh, mm, found := strings.Cut(raw, ":")
	if !found {
		return time.Time{}, ErrInvalidTime
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, ErrInvalidTime
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, ErrInvalidTime
	}

	fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !fireAt.After(now) {
		fireAt = fireAt.Add(24 * time.Hour)
	}
	return fireAt, nil
}
