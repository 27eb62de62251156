package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

func testConfig() config.HealthConfig {
	return config.HealthConfig{
		Timeout:              5 * time.Minute,
		CheckInterval:        time.Minute,
		KeepaliveInterval:    30 * time.Second,
		MaxReconnectAttempts: 3,
		BackoffBase:          10 * time.Second,
		BackoffCap:           5 * time.Minute,
	}
}

func newTestMonitor(client *whatsapp.TestClient) (*Monitor, *[]int) {
	m := NewMonitor(client, testConfig(), logger.NewTestLogger())
	var exits []int
	m.exit = func(code int) { exits = append(exits, code) }
	return m, &exits
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{5, 160 * time.Second},
		{6, 5 * time.Minute},
		{20, 5 * time.Minute},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Backoff(10*time.Second, 5*time.Minute, tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestStatusTransitions(t *testing.T) {
	m, _ := newTestMonitor(whatsapp.NewTestClient())
	assert.Equal(t, StatusHealthy, m.Status())

	m.mu.Lock()
	m.lastHeartbeat = time.Now().Add(-10 * time.Minute)
	m.mu.Unlock()
	assert.Equal(t, StatusUnhealthy, m.Status())

	m.RestartBot("test")
	assert.Equal(t, StatusRestarting, m.Status())
	m.mu.Lock()
	m.restartTimer.Stop()
	m.mu.Unlock()
}

func TestStaleCheckSchedulesRestart(t *testing.T) {
	m, exits := newTestMonitor(whatsapp.NewTestClient())
	m.mu.Lock()
	m.lastHeartbeat = time.Now().Add(-10 * time.Minute)
	m.mu.Unlock()

	m.check()

	assert.Equal(t, StatusRestarting, m.Status())
	assert.Empty(t, *exits, "restart is scheduled, not immediate")
	m.mu.Lock()
	require.NotNil(t, m.restartTimer)
	m.restartTimer.Stop()
	m.mu.Unlock()
}

func TestRestartBotCountsEveryFailureButSchedulesOnce(t *testing.T) {
	m, exits := newTestMonitor(whatsapp.NewTestClient())

	m.RestartBot("first")
	m.RestartBot("second")

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, 2, m.reconnectAttempts)
	assert.True(t, m.restarting)
	assert.Empty(t, *exits)
	m.restartTimer.Stop()
}

func TestRestartBotExitsPastCeiling(t *testing.T) {
	m, exits := newTestMonitor(whatsapp.NewTestClient())

	// ceiling is 3, the fourth consecutive failure must terminate
	for range 4 {
		m.RestartBot("disconnected")
	}

	require.Len(t, *exits, 1)
	assert.Equal(t, 1, (*exits)[0])
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, 4, m.reconnectAttempts)
	m.restartTimer.Stop()
}

func TestConfirmedReadyResetsAttempts(t *testing.T) {
	m, _ := newTestMonitor(whatsapp.NewTestClient())
	m.mu.Lock()
	m.reconnectAttempts = 2
	m.lastHeartbeat = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	m.ConfirmedReady()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Equal(t, 0, m.reconnectAttempts)
	assert.WithinDuration(t, time.Now(), m.lastHeartbeat, time.Second)
}

func TestKeepAliveTouchesOnSuccessOnly(t *testing.T) {
	client := whatsapp.NewTestClient()
	m, exits := newTestMonitor(client)
	stale := time.Now().Add(-time.Hour)
	m.mu.Lock()
	m.lastHeartbeat = stale
	m.mu.Unlock()

	m.keepAlive(context.Background())
	assert.Less(t, m.HeartbeatAge(), time.Second)

	// failure leaves heartbeat untouched and never restarts
	client.SendErr = errors.New("socket closed")
	m.mu.Lock()
	m.lastHeartbeat = stale
	m.mu.Unlock()

	m.keepAlive(context.Background())
	assert.Greater(t, m.HeartbeatAge(), time.Minute)
	assert.Empty(t, *exits)
	assert.Equal(t, StatusUnhealthy, m.Status())
}

func TestHandleLogoutExitsCleanly(t *testing.T) {
	client := whatsapp.NewTestClient()
	m, exits := newTestMonitor(client)
	m.RestartBot("pending restart gets cancelled")

	m.HandleLogout()

	require.Len(t, *exits, 1)
	assert.Equal(t, 0, (*exits)[0])
	assert.True(t, client.Disconnected)
}
