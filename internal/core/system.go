package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

// The system surface is a lightweight bang-prefixed set of liveness probes,
// deliberately outside the command registry: it must keep answering even
// when feature commands are wedged.
func (b *Bot) isSystem(text string) bool {
	prefix := b.cfg.Global().SystemPrefix
	return prefix != "" && strings.HasPrefix(text, prefix)
}

func (b *Bot) handleSystem(ctx context.Context, msg *whatsapp.Message, text string) {
	name := strings.ToLower(strings.TrimPrefix(text, b.cfg.Global().SystemPrefix))

	switch name {
	case "ping":
		b.reply(ctx, msg, b.localizer.Localize("system.pong", nil))
	case "status":
		b.reply(ctx, msg, b.statusText())
	case "uptime":
		b.reply(ctx, msg, formatDuration(time.Since(b.startedAt)))
	}
}

func (b *Bot) statusText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "status: %s\n", b.monitor.Status())
	fmt.Fprintf(&sb, "heartbeat: %s ago\n", b.monitor.HeartbeatAge().Round(time.Second))
	fmt.Fprintf(&sb, "model: %s (%d in rotation)\n", b.rotation.Current().Label, b.rotation.Count())
	fmt.Fprintf(&sb, "uptime: %s", formatDuration(time.Since(b.startedAt)))
	return sb.String()
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := d - minutes*time.Minute

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds/time.Second)
}
