package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

// AttendanceService tracks per-user attendance and, when a schedule is
// configured, posts attendance polls for the day's timetable slots.
type AttendanceService struct {
	db        database.Database
	client    whatsapp.Client
	localizer *Localizer
	cfg       config.AttendanceConfig
	logger    logger.Logger
	cron      *cron.Cron
}

func NewAttendanceService(db database.Database, client whatsapp.Client, localizer *Localizer, cfg config.AttendanceConfig, log logger.Logger) *AttendanceService {
	return &AttendanceService{
		db:        db,
		client:    client,
		localizer: localizer,
		cfg:       cfg,
		logger:    log.WithField("component", "attendance"),
	}
}

func (s *AttendanceService) Record(chatJID, userJID, subject string, present bool) error {
	return s.db.SaveAttendanceRecord(database.AttendanceRecord{
		ChatJID: chatJID,
		UserJID: userJID,
		Subject: subject,
		Present: present,
		Date:    time.Now(),
	})
}

func (s *AttendanceService) Stats(chatJID, userJID string) (present, total int, err error) {
	return s.db.GetAttendanceStats(chatJID, userJID)
}

func (s *AttendanceService) History(chatJID string, limit int) ([]database.AttendanceRecord, error) {
	return s.db.GetAttendanceHistory(chatJID, limit)
}

func (s *AttendanceService) Timetable(chatJID string) ([]database.TimetableEntry, error) {
	return s.db.GetTimetable(chatJID)
}

func (s *AttendanceService) AddTimetableEntry(entry database.TimetableEntry) error {
	if entry.Weekday < 0 || entry.Weekday > 6 {
		return fmt.Errorf("weekday %d out of range", entry.Weekday)
	}
	if entry.Hour < 0 || entry.Hour > 23 || entry.Minute < 0 || entry.Minute > 59 {
		return fmt.Errorf("time %02d:%02d out of range", entry.Hour, entry.Minute)
	}
	return s.db.SaveTimetableEntry(entry)
}

// StartPolls arms the poll scheduler. A missing schedule disables it.
func (s *AttendanceService) StartPolls(ctx context.Context) error {
	if s.cfg.PollSchedule == "" {
		s.logger.Debug("Attendance polls disabled, no schedule configured")
		return nil
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.PollSchedule, func() { s.sendPolls(ctx) }); err != nil {
		return fmt.Errorf("invalid poll schedule %q: %w", s.cfg.PollSchedule, err)
	}
	s.cron.Start()
	s.logger.WithField("schedule", s.cfg.PollSchedule).Info("Attendance polls scheduled")

	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	return nil
}

// sendPolls posts one poll per timetable slot that falls on today.
func (s *AttendanceService) sendPolls(ctx context.Context) {
	entries, err := s.db.ListTimetableEntries()
	if err != nil {
		s.logger.WithError(err).Error("Failed to load timetables")
		return
	}

	today := int(time.Now().Weekday())
	for _, entry := range entries {
		if entry.Weekday != today {
			continue
		}
		question := s.localizer.Localize("attendance.poll_question", map[string]any{"Subject": entry.Subject})
		if err := s.client.SendPoll(ctx, entry.ChatJID, question, []string{"Present", "Absent"}, false); err != nil {
			s.logger.WithError(err).WithFields(logger.Fields{
				"chat":    entry.ChatJID,
				"subject": entry.Subject,
			}).Error("Failed to send attendance poll")
		}
	}
}
