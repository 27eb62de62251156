package health

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type Status string

const (
	StatusHealthy    Status = "healthy"
	StatusUnhealthy  Status = "unhealthy"
	StatusRestarting Status = "restarting"
)

// Monitor watches connection liveness and restarts the process when the
// transport goes stale. Restarting is terminal for this process: the bot
// exits non-zero and an external supervisor brings up a fresh instance.
type Monitor struct {
	client whatsapp.Client
	cfg    config.HealthConfig
	logger logger.Logger

	mu                sync.Mutex
	lastHeartbeat     time.Time
	reconnectAttempts int
	restarting        bool
	restartTimer      *time.Timer

	// overridden in tests
	exit func(code int)
}

func NewMonitor(client whatsapp.Client, cfg config.HealthConfig, log logger.Logger) *Monitor {
	return &Monitor{
		client:        client,
		cfg:           cfg,
		logger:        log.WithField("component", "health"),
		lastHeartbeat: time.Now(),
		exit:          os.Exit,
	}
}

// Start runs the staleness check and keep-alive loops until the context is
// cancelled.
func (m *Monitor) Start(ctx context.Context) {
	go m.loop(ctx, m.cfg.CheckInterval, m.check)
	go m.loop(ctx, m.cfg.KeepaliveInterval, func() { m.keepAlive(ctx) })
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// Touch records inbound activity as proof of connection liveness.
func (m *Monitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHeartbeat = time.Now()
}

// ConfirmedReady marks a successful (re)connect: heartbeat is fresh and the
// reconnect budget resets.
func (m *Monitor) ConfirmedReady() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHeartbeat = time.Now()
	m.reconnectAttempts = 0
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.restarting:
		return StatusRestarting
	case time.Since(m.lastHeartbeat) > m.cfg.Timeout:
		return StatusUnhealthy
	default:
		return StatusHealthy
	}
}

func (m *Monitor) HeartbeatAge() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastHeartbeat)
}

// check is the only trigger for staleness-driven restarts. Keep-alive
// failures never restart directly, a single transient failure would cause
// spurious churn.
func (m *Monitor) check() {
	m.mu.Lock()
	stale := !m.restarting && time.Since(m.lastHeartbeat) > m.cfg.Timeout
	age := time.Since(m.lastHeartbeat)
	m.mu.Unlock()

	if stale {
		m.logger.WithField("heartbeat_age", age.String()).Warn("Heartbeat stale")
		m.RestartBot("heartbeat stale")
	}
}

func (m *Monitor) keepAlive(ctx context.Context) {
	if err := m.client.SendPresence(ctx); err != nil {
		m.logger.WithError(err).Debug("Keep-alive failed")
		return
	}
	m.Touch()
}

// RestartBot schedules a graceful shutdown after an exponential backoff, or
// exits immediately once the attempt ceiling is passed.
func (m *Monitor) RestartBot(reason string) {
	m.mu.Lock()
	m.reconnectAttempts++
	attempts := m.reconnectAttempts

	if attempts > m.cfg.MaxReconnectAttempts {
		m.mu.Unlock()
		m.logger.WithFields(logger.Fields{
			"reason":   reason,
			"attempts": attempts,
		}).Error("Reconnect attempts exhausted, giving up")
		m.exit(1)
		return
	}

	// a shutdown is already on the timer, the failure still counted above
	if m.restarting {
		m.mu.Unlock()
		return
	}

	m.restarting = true
	delay := Backoff(m.cfg.BackoffBase, m.cfg.BackoffCap, attempts)
	m.logger.WithFields(logger.Fields{
		"reason":  reason,
		"attempt": attempts,
		"delay":   delay.String(),
	}).Warn("Scheduling restart")
	m.restartTimer = time.AfterFunc(delay, m.shutdown)
	m.mu.Unlock()
}

// HandleLogout is the one terminal signal that is not a failure: the user
// unlinked the device, so the process exits cleanly with no restart.
func (m *Monitor) HandleLogout() {
	m.mu.Lock()
	if m.restartTimer != nil {
		m.restartTimer.Stop()
	}
	m.mu.Unlock()

	m.logger.Info("Logged out, shutting down cleanly")
	m.client.Disconnect()
	m.exit(0)
}

func (m *Monitor) shutdown() {
	m.logger.Info("Restarting: disconnecting and exiting for supervisor restart")
	m.client.Disconnect()
	m.exit(1)
}

// Backoff doubles the base delay per attempt, capped.
func Backoff(base, cap time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
