package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

func TestParseWhen(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"duration hours", "2h", now.Add(2 * time.Hour), false},
		{"duration minutes", "45m", now.Add(45 * time.Minute), false},
		{"clock later today", "18:30", time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC), false},
		{"clock already passed rolls over", "09:00", time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), false},
		{"negative duration", "-1h", time.Time{}, true},
		{"hour out of range", "25:00", time.Time{}, true},
		{"minute out of range", "10:75", time.Time{}, true},
		{"garbage", "soonish", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fireAt, err := ParseWhen(tt.input, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, fireAt)
		})
	}
}

func newReminderService(t *testing.T, client *whatsapp.TestClient) *ReminderService {
	t.Helper()
	localizer, err := NewLocalizer("en")
	require.NoError(t, err)
	return NewReminderService(newTestDB(t), client, localizer, logger.NewTestLogger())
}

func TestCreateRejectsBadTime(t *testing.T) {
	svc := newReminderService(t, whatsapp.NewTestClient())

	_, err := svc.Create("120363000000000000@g.us", "4915200000000@s.whatsapp.net", "whenever", "stand-up")
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestFireDueDeliversAndMarks(t *testing.T) {
	client := whatsapp.NewTestClient()
	svc := newReminderService(t, client)

	_, err := svc.Create("120363000000000000@g.us", "4915200000000@s.whatsapp.net", "1ms", "stand-up")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	svc.fireDue(context.Background())

	require.Len(t, client.SentTexts, 1)
	assert.Contains(t, client.LastText().Text, "stand-up")
	assert.Equal(t, []string{"4915200000000@s.whatsapp.net"}, client.LastText().Mentions)

	pending, err := svc.db.ListPendingReminders()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFireDueLeavesFutureReminders(t *testing.T) {
	client := whatsapp.NewTestClient()
	svc := newReminderService(t, client)

	_, err := svc.Create("120363000000000000@g.us", "4915200000000@s.whatsapp.net", "1h", "later")
	require.NoError(t, err)

	svc.fireDue(context.Background())

	assert.Empty(t, client.SentTexts)
	pending, err := svc.db.ListPendingReminders()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
