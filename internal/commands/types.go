package commands

import (
	"context"
	"time"

	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Category() string
	Constraints() Constraints
	Handle(ctx context.Context, msg *whatsapp.Message, args []string) error
	Execute(ctx context.Context, msg *whatsapp.Message, args []string) error
	GetQueueConfig() QueueConfig
}

// Constraints describe who may run a command and where.
type Constraints struct {
	GroupOnly        bool
	AdminOnly        bool
	OwnerOnly        bool
	RequiresBotAdmin bool
	Hidden           bool
}

type ThrottleConfig struct {
	Period      time.Duration
	Requests    int
	Concurrency int
}

type QueueConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
	Throttle   ThrottleConfig
}
