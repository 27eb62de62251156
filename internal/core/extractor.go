package core

import (
	"fmt"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/ai"
)

// Action is a natural-language command the model chose to emit instead of a
// plain answer, using the EXECUTE:<CMD>:<params> convention. The token is an
// internal protocol between the model and the bot, it never reaches users.
type Action struct {
	Command string
	Params  string
}

// Reply is the interpreted model output: exactly one of Action or Text is
// meaningful, and Invalid marks an EXECUTE token naming no known command.
type Reply struct {
	Text    string
	Action  *Action
	Invalid bool
}

const executeMarker = "EXECUTE:"

// actionCommands maps EXECUTE tokens to registered command names.
var actionCommands = map[string]string{
	"KICK":    "kick",
	"PURGE":   "purge",
	"POLL":    "poll",
	"WELCOME": "welcome",
	"AVATAR":  "avatar",
	"REMIND":  "remind",
}

// ParseReply scans model output for an EXECUTE token. Text around the token
// is discarded, a model that decided to act does not also get to speak.
func ParseReply(text string) Reply {
	idx := strings.Index(text, executeMarker)
	if idx < 0 {
		return Reply{Text: strings.TrimSpace(text)}
	}

	token := text[idx+len(executeMarker):]
	// The token runs to the end of its line
	if nl := strings.IndexByte(token, '\n'); nl >= 0 {
		token = token[:nl]
	}

	command, params, _ := strings.Cut(token, ":")
	command = strings.TrimSpace(strings.ToUpper(command))
	if _, known := actionCommands[command]; !known {
		return Reply{Invalid: true}
	}
	return Reply{Action: &Action{Command: command, Params: strings.TrimSpace(params)}}
}

// CommandName resolves the registry name an action dispatches to.
func (a *Action) CommandName() string {
	return actionCommands[a.Command]
}

// FormatSources renders the citation block appended to answers when the
// user asked for sources.
func FormatSources(header string, sources []ai.Source) string {
	var sb strings.Builder
	sb.WriteString(header)
	for i, src := range sources {
		title := src.Title
		if title == "" {
			title = src.URL
		}
		fmt.Fprintf(&sb, "\n%d. %s\n%s", i+1, title, src.URL)
	}
	return sb.String()
}
