package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/ezhov-dev/zapguard/internal/whatsapp"
)

const (
	CategoryAI         = "ai"
	CategoryAdmin      = "admin"
	CategoryDocs       = "docs"
	CategoryAttendance = "attendance"
	CategoryUtility    = "utility"
)

// categoryOrder fixes the display order of help sections.
var categoryOrder = []string{CategoryAI, CategoryAdmin, CategoryDocs, CategoryAttendance, CategoryUtility}

type ChatInfoProvider interface {
	Snapshot(ctx context.Context, msg *whatsapp.Message) (ChatSnapshot, error)
}

type Localizer interface {
	Localize(messageID string, data map[string]any) string
}

type Registry struct {
	commands  map[string]Command
	order     []string
	client    whatsapp.Client
	chat      ChatInfoProvider
	localizer Localizer
	cfg       *config.Config
	logger    logger.Logger
}

func NewRegistry(
	client whatsapp.Client,
	chat ChatInfoProvider,
	localizer Localizer,
	cfg *config.Config,
	log logger.Logger,
) *Registry {
	return &Registry{
		commands:  make(map[string]Command),
		client:    client,
		chat:      chat,
		localizer: localizer,
		cfg:       cfg,
		logger:    log,
	}
}

func (r *Registry) Register(cmd Command) {
	if cmd == nil {
		r.logger.Error("Attempting to register nil command")
		return
	}
	name := strings.ToLower(cmd.Name())
	if name == "" {
		r.logger.Error("Attempting to register command with empty name")
		return
	}

	r.logger.WithField("command", name).Debug("Registering command")
	r.commands[name] = cmd
	r.order = append(r.order, name)
}

// Get resolves a command by name or alias, case-insensitive.
func (r *Registry) Get(name string) Command {
	name = strings.ToLower(name)
	if cmd, exists := r.commands[name]; exists {
		return cmd
	}
	for _, cmd := range r.commands {
		for _, alias := range cmd.Aliases() {
			if strings.EqualFold(alias, name) {
				return cmd
			}
		}
	}
	return nil
}

func (r *Registry) All() []Command {
	result := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.commands[name])
	}
	return result
}

func (r *Registry) IsCommand(body string) bool {
	prefix := r.cfg.Global().CommandPrefix
	return prefix != "" && strings.HasPrefix(body, prefix)
}

// ExtractName returns the lower-cased command name and the remainder of the
// message after it.
func (r *Registry) ExtractName(body string) (string, string) {
	body = strings.TrimPrefix(body, r.cfg.Global().CommandPrefix)
	name, rest, _ := strings.Cut(body, " ")
	return strings.ToLower(name), strings.TrimSpace(rest)
}

// ParseArgs splits the argument string on whitespace. Runs delimited by
// matching double or single quotes form one token with the quotes stripped;
// an unterminated quote consumes the rest of the string.
func ParseArgs(rest string) []string {
	args := []string{}
	var current strings.Builder
	var quote byte
	inToken := false

	flush := func() {
		if inToken {
			args = append(args, current.String())
			current.Reset()
			inToken = false
		}
	}

	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inToken = true
		case c == ' ' || c == '\t' || c == '\n':
			flush()
		default:
			current.WriteByte(c)
			inToken = true
		}
	}
	flush()

	return args
}

// Dispatch resolves and runs the command a message names. Unknown names fail
// silently so incidental prefix-shaped text does not produce noise. Any
// command failure is answered with a generic apology and never propagates a
// panic to the event loop.
func (r *Registry) Dispatch(ctx context.Context, msg *whatsapp.Message) error {
	name, rest := r.ExtractName(msg.Text)
	return r.Execute(ctx, msg, name, rest)
}

// Execute runs a named command for a message. Permission checks are derived
// from the message author and chat on every call, regardless of how the
// invocation was triggered.
func (r *Registry) Execute(ctx context.Context, msg *whatsapp.Message, name, rest string) (err error) {
	cmd := r.Get(name)
	if cmd == nil {
		r.logger.WithField("command", name).Debug("Unknown command, ignoring")
		return fmt.Errorf("unknown command %q", name)
	}

	snapshot, snapErr := r.chat.Snapshot(ctx, msg)
	if snapErr != nil {
		// zero snapshot is the safe default: admin-gated commands deny
		r.logger.WithError(snapErr).WithField("chat", msg.ChatJID).Warn("Failed to build chat snapshot")
	}

	decision := CheckPermissions(cmd.Constraints(), r.cfg.Global().IsOwner(msg.SenderJID), snapshot)
	if !decision.Allowed {
		r.reply(ctx, msg, r.localizer.Localize("denied."+decision.Reason, nil))
		return fmt.Errorf("command %q denied: %s", name, decision.Reason)
	}

	args := ParseArgs(rest)

	r.logger.WithFields(logger.Fields{
		"command": name,
		"sender":  msg.SenderJID,
		"chat":    msg.ChatJID,
		"args":    args,
	}).Info("Handling command")

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithField("panic", rec).Error("Command panicked")
			r.reply(ctx, msg, r.localizer.Localize("error.generic", nil))
			err = fmt.Errorf("command %q panicked: %v", name, rec)
		}
	}()

	if execErr := cmd.Handle(ctx, msg, args); execErr != nil {
		r.logger.WithError(execErr).WithField("command", name).Error("Command failed")
		r.reply(ctx, msg, r.localizer.Localize("error.generic", nil))
		return fmt.Errorf("command %q failed: %w", name, execErr)
	}

	return nil
}

func (r *Registry) reply(ctx context.Context, msg *whatsapp.Message, text string) {
	if err := r.client.SendReply(ctx, msg.ChatJID, text, msg); err != nil {
		r.logger.WithError(err).Error("Failed to send reply")
	}
}

// HelpText lists visible commands grouped by category.
func (r *Registry) HelpText() string {
	byCategory := make(map[string][]Command)
	for _, name := range r.order {
		cmd := r.commands[name]
		if cmd.Constraints().Hidden {
			continue
		}
		byCategory[cmd.Category()] = append(byCategory[cmd.Category()], cmd)
	}

	prefix := r.cfg.Global().CommandPrefix
	var sb strings.Builder
	for _, category := range categoryOrder {
		cmds := byCategory[category]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "*%s*\n", strings.ToUpper(category[:1])+category[1:])
		for _, cmd := range cmds {
			usage := cmd.Usage()
			if usage == "" {
				usage = prefix + cmd.Name()
			}
			fmt.Fprintf(&sb, "%s — %s\n", usage, cmd.Description())
		}
		sb.WriteString("\n")
	}

	// categories someone forgot to list still show up at the end
	for category, cmds := range byCategory {
		if slices.Contains(categoryOrder, category) {
			continue
		}
		for _, cmd := range cmds {
			fmt.Fprintf(&sb, "%s — %s\n", prefix+cmd.Name(), cmd.Description())
		}
	}

	return strings.TrimSpace(sb.String())
}
