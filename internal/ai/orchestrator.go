package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
)

type ContextType string

const (
	ContextNone   ContextType = "none"
	ContextQuoted ContextType = "quoted"
	ContextRecent ContextType = "recent"
)

type Media struct {
	MimeType string
	Data     []byte
}

type Request struct {
	Text        string
	SenderName  string
	Context     string
	ContextType ContextType
	Media       *Media
}

type Source struct {
	Title string
	URL   string
}

type Response struct {
	Text         string
	Sources      []Source
	FunctionUsed string
}

type Provider interface {
	Ask(ctx context.Context, request CompletionRequest, apiKey string) (*MessageResponse, *ModelUsage, error)
}

type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) string
}

// Orchestrator produces one answer per call, rotating through all configured
// (model, key) entries before giving up. It never returns an error: when
// every entry fails, the caller gets the configured fallback text.
type Orchestrator struct {
	provider  Provider
	rotation  *Rotation
	executor  ToolExecutor
	tools     []Tool
	toolsText string
	cfg       config.AIConfig
	logger    logger.Logger
}

func NewOrchestrator(
	p Provider,
	rotation *Rotation,
	executor ToolExecutor,
	tools []Tool,
	toolsText string,
	cfg config.AIConfig,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		provider:  p,
		rotation:  rotation,
		executor:  executor,
		tools:     tools,
		toolsText: toolsText,
		cfg:       cfg,
		logger:    log,
	}
}

func (o *Orchestrator) GenerateResponse(ctx context.Context, req Request) Response {
	messages := o.buildMessages(req)

	attempts := o.rotation.Count()
	for attempt := range attempts {
		entry := o.rotation.Current()

		message, err := o.ask(ctx, entry, messages, o.tools)
		if err == nil && len(message.ToolCalls) > 0 {
			message, err = o.runToolRoundTrip(ctx, entry, messages, message)
		}

		if err != nil || message == nil || message.Content == "" {
			fields := logger.Fields{
				"attempt": attempt + 1,
				"of":      attempts,
				"model":   entry.Label,
				"error":   err,
			}
			if err != nil {
				fields["error_type"] = GetErrorType(err)
				fields["retryable"] = IsRetryableError(err)
			}
			o.logger.WithFields(fields).Warn("AI generation attempt failed")

			// a policy refusal follows the prompt, not the model, so the
			// rest of the rotation cannot help
			if GetErrorType(err) == ErrorTypeContentPolicy {
				break
			}
			o.rotation.SwitchToNext()
			continue
		}

		resp := Response{
			Text:    message.Content,
			Sources: extractSources(message.Annotations),
		}
		if len(message.ToolCalls) > 0 {
			resp.FunctionUsed = message.ToolCalls[0].Function.Name
		}
		return resp
	}

	o.logger.WithField("attempts", attempts).Error("All AI models failed, returning fallback")
	return Response{Text: o.cfg.FallbackMessage}
}

func (o *Orchestrator) ask(ctx context.Context, entry Entry, messages []Message, tools []Tool) (*MessageResponse, error) {
	request := CompletionRequest{
		Model:    entry.Model,
		Messages: messages,
		Tools:    tools,
	}
	if o.cfg.MaxTokens > 0 {
		maxTokens := o.cfg.MaxTokens
		request.MaxTokens = &maxTokens
	}
	if o.cfg.SearchGrounding {
		request.Plugins = []Plugin{{ID: "web", MaxResults: 2}}
	}

	message, _, err := o.provider.Ask(ctx, request, entry.APIKey)
	return message, err
}

// runToolRoundTrip executes the first requested tool call locally and asks
// the same model once more with the result. The follow-up request carries no
// tool declarations, so a second nested call cannot happen.
func (o *Orchestrator) runToolRoundTrip(ctx context.Context, entry Entry, messages []Message, message *MessageResponse) (*MessageResponse, error) {
	call := message.ToolCalls[0]
	result := o.executor.Execute(ctx, call)

	followUp := make([]Message, 0, len(messages)+2)
	followUp = append(followUp, messages...)
	followUp = append(followUp,
		Message{
			Role:      "assistant",
			Text:      message.Content,
			ToolCalls: []ToolCall{call},
		},
		Message{
			Role:       "tool",
			Name:       call.Function.Name,
			ToolCallID: call.ID,
			Text:       result,
		},
	)

	final, err := o.ask(ctx, entry, followUp, nil)
	if err != nil {
		return nil, err
	}
	// keep the executed call visible for FunctionUsed
	final.ToolCalls = []ToolCall{call}
	return final, nil
}

func (o *Orchestrator) buildMessages(req Request) []Message {
	system := Message{Role: "system", Text: o.systemPrompt()}

	var userText strings.Builder
	if req.SenderName != "" {
		fmt.Fprintf(&userText, "Message from %s", req.SenderName)
	} else {
		userText.WriteString("Message")
	}
	switch req.ContextType {
	case ContextQuoted:
		fmt.Fprintf(&userText, " (replying to: %q)", req.Context)
	case ContextRecent:
		fmt.Fprintf(&userText, "\nRecent chat context:\n%s\n", req.Context)
	}
	userText.WriteString(":\n")
	userText.WriteString(req.Text)

	if req.Media != nil {
		dataURL := fmt.Sprintf(
			"data:%s;base64,%s",
			req.Media.MimeType,
			base64.StdEncoding.EncodeToString(req.Media.Data),
		)
		switch {
		case strings.HasPrefix(req.Media.MimeType, "image/"):
			content := []Content{{Type: "text", Text: userText.String()}}
			imageContent := Content{Type: "image_url"}
			imageContent.ImageURL.URL = dataURL
			return []Message{system, {Role: "user", Content: append(content, imageContent)}}
		case req.Media.MimeType == "application/pdf":
			content := []Content{{Type: "text", Text: userText.String()}}
			fileContent := Content{Type: "file"}
			fileContent.File.Filename = "attachment.pdf"
			fileContent.File.FileData = dataURL
			return []Message{system, {Role: "user", Content: append(content, fileContent)}}
		}
	}

	return []Message{system, {Role: "user", Text: userText.String()}}
}

func (o *Orchestrator) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString(o.cfg.Persona)
	if o.toolsText != "" {
		sb.WriteString("\n\nYou can call these tools when they help answer:\n")
		sb.WriteString(o.toolsText)
	}
	sb.WriteString("\n\n")
	sb.WriteString(`When the user asks you to perform a group action, answer with a single line in the form EXECUTE:<COMMAND>:<params> and nothing else. Available commands:
EXECUTE:KICK:<mention> - remove a member
EXECUTE:PURGE:<count> - delete the last <count> messages
EXECUTE:POLL:<question>, <option1>, <option2>, ... - create a poll
EXECUTE:WELCOME:<on|off|text> - configure the welcome message
EXECUTE:AVATAR: - set the group icon from the quoted image
EXECUTE:REMIND:<time> <text> - schedule a reminder
For anything else answer normally in plain text.`)
	return sb.String()
}

func extractSources(annotations []Annotation) []Source {
	var sources []Source
	for _, a := range annotations {
		if a.Type != "url_citation" || a.URLCitation.URL == "" {
			continue
		}
		sources = append(sources, Source{
			Title: a.URLCitation.Title,
			URL:   a.URLCitation.URL,
		})
	}
	return sources
}
