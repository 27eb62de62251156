package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezhov-dev/zapguard/internal/ai"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Reply
	}{
		{
			"plain text",
			"The meeting is at noon.",
			Reply{Text: "The meeting is at noon."},
		},
		{
			"leading token",
			"EXECUTE:KICK:@4915200000000",
			Reply{Action: &Action{Command: "KICK", Params: "@4915200000000"}},
		},
		{
			"embedded token discards surrounding text",
			"Sure, I'll handle that.\nEXECUTE:PURGE:5\nDone!",
			Reply{Action: &Action{Command: "PURGE", Params: "5"}},
		},
		{
			"lowercase command normalized",
			"EXECUTE:remind:2h stand-up",
			Reply{Action: &Action{Command: "REMIND", Params: "2h stand-up"}},
		},
		{
			"params keep internal colons",
			"EXECUTE:REMIND:18:30 dinner",
			Reply{Action: &Action{Command: "REMIND", Params: "18:30 dinner"}},
		},
		{
			"unknown command",
			"EXECUTE:LAUNCH:missiles",
			Reply{Invalid: true},
		},
		{
			"token with no params",
			"EXECUTE:AVATAR:",
			Reply{Action: &Action{Command: "AVATAR", Params: ""}},
		},
		{
			"empty token",
			"EXECUTE:",
			Reply{Invalid: true},
		},
		{
			"whitespace trimmed from text",
			"  hello there \n",
			Reply{Text: "hello there"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseReply(tt.input))
		})
	}
}

func TestActionCommandName(t *testing.T) {
	reply := ParseReply("EXECUTE:WELCOME:on")
	require.NotNil(t, reply.Action)
	assert.Equal(t, "welcome", reply.Action.CommandName())
}

func TestFormatSources(t *testing.T) {
	out := FormatSources("Sources:", []ai.Source{
		{Title: "Go Blog", URL: "https://go.dev/blog"},
		{URL: "https://example.com"},
	})

	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "1. Go Blog\nhttps://go.dev/blog")
	assert.Contains(t, out, "2. https://example.com\nhttps://example.com")
}
