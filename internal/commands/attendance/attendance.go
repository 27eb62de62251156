package attendance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ezhov-dev/zapguard/internal/app/di"
	"github.com/ezhov-dev/zapguard/internal/commands"
	"github.com/ezhov-dev/zapguard/internal/commands/base"
	"github.com/ezhov-dev/zapguard/internal/database"
	"github.com/ezhov-dev/zapguard/internal/service"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

const historyLimit = 20

type AttendanceCommand struct {
	*base.Command
	attendance *service.AttendanceService
}

func NewAttendanceCommand(c *di.Container) commands.Command {
	cmd := &AttendanceCommand{attendance: c.Attendance}
	cmd.Command = base.NewCommand(cmd, c)
	return cmd
}

func (c *AttendanceCommand) Name() string        { return "attendance" }
func (c *AttendanceCommand) Aliases() []string   { return []string{"att"} }
func (c *AttendanceCommand) Description() string { return "Track attendance and manage the timetable" }
func (c *AttendanceCommand) Usage() string {
	return "?attendance stats|add <subject>|manual <present|absent> <subject>|history|timetable"
}
func (c *AttendanceCommand) Category() string { return commands.CategoryAttendance }

func (c *AttendanceCommand) Constraints() commands.Constraints {
	return commands.Constraints{GroupOnly: true}
}

func (c *AttendanceCommand) Execute(ctx context.Context, msg *whatsapp.Message, args []string) error {
	sub := "stats"
	if len(args) > 0 {
		sub = strings.ToLower(args[0])
		args = args[1:]
	}

	switch sub {
	case "stats":
		return c.stats(ctx, msg)
	case "add":
		return c.record(ctx, msg, args, true)
	case "manual":
		return c.manual(ctx, msg, args)
	case "history":
		return c.history(ctx, msg)
	case "timetable":
		return c.timetable(ctx, msg, args)
	default:
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}
}

func (c *AttendanceCommand) stats(ctx context.Context, msg *whatsapp.Message) error {
	present, total, err := c.attendance.Stats(msg.ChatJID, msg.SenderJID)
	if err != nil {
		return err
	}
	if total == 0 {
		return c.Reply(ctx, msg, c.L("attendance.no_records", nil))
	}
	percent := present * 100 / total
	return c.Reply(ctx, msg, c.L("attendance.stats", map[string]any{
		"Present": present,
		"Total":   total,
		"Percent": percent,
	}))
}

func (c *AttendanceCommand) record(ctx context.Context, msg *whatsapp.Message, args []string, present bool) error {
	subject := strings.Join(args, " ")
	if subject == "" {
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}
	if err := c.attendance.Record(msg.ChatJID, msg.SenderJID, subject, present); err != nil {
		return err
	}
	return c.Reply(ctx, msg, c.L("attendance.recorded", map[string]any{"Subject": subject}))
}

func (c *AttendanceCommand) manual(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if len(args) < 2 {
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}
	var present bool
	switch strings.ToLower(args[0]) {
	case "present":
		present = true
	case "absent":
		present = false
	default:
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}
	return c.record(ctx, msg, args[1:], present)
}

func (c *AttendanceCommand) history(ctx context.Context, msg *whatsapp.Message) error {
	records, err := c.attendance.History(msg.ChatJID, historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return c.Reply(ctx, msg, c.L("attendance.no_records", nil))
	}

	var sb strings.Builder
	for _, rec := range records {
		mark := "✗"
		if rec.Present {
			mark = "✓"
		}
		fmt.Fprintf(&sb, "%s %s %s\n", rec.Date.Format("02.01"), mark, rec.Subject)
	}
	return c.Reply(ctx, msg, strings.TrimSpace(sb.String()))
}

// timetable with no further args lists the week, "timetable add <subject>
// <weekday 0-6> <HH:MM>" adds a slot.
func (c *AttendanceCommand) timetable(ctx context.Context, msg *whatsapp.Message, args []string) error {
	if len(args) == 0 {
		return c.listTimetable(ctx, msg)
	}
	if strings.ToLower(args[0]) != "add" || len(args) != 4 {
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}

	subject := args[1]
	weekday, err := strconv.Atoi(args[2])
	if err != nil {
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}
	slot, err := time.Parse("15:04", args[3])
	if err != nil {
		return c.Reply(ctx, msg, c.L("attendance.usage", nil))
	}

	entry := database.TimetableEntry{
		ChatJID: msg.ChatJID,
		Weekday: weekday,
		Hour:    slot.Hour(),
		Minute:  slot.Minute(),
		Subject: subject,
	}
	if err := c.attendance.AddTimetableEntry(entry); err != nil {
		return err
	}
	return c.Reply(ctx, msg, c.L("attendance.timetable_added", map[string]any{"Subject": subject}))
}

func (c *AttendanceCommand) listTimetable(ctx context.Context, msg *whatsapp.Message) error {
	entries, err := c.attendance.Timetable(msg.ChatJID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return c.Reply(ctx, msg, c.L("attendance.no_timetable", nil))
	}

	var sb strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&sb, "%s %02d:%02d %s\n",
			time.Weekday(entry.Weekday).String()[:3], entry.Hour, entry.Minute, entry.Subject)
	}
	return c.Reply(ctx, msg, strings.TrimSpace(sb.String()))
}
