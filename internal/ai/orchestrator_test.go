package ai

import (
	"context"
	"testing"

	"github.com/ezhov-dev/zapguard/internal/config"
	"github.com/ezhov-dev/zapguard/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	responses []fakeResponse
	requests  []CompletionRequest
	keys      []string
}

type fakeResponse struct {
	message *MessageResponse
	err     error
}

func (p *fakeProvider) Ask(ctx context.Context, request CompletionRequest, apiKey string) (*MessageResponse, *ModelUsage, error) {
	p.requests = append(p.requests, request)
	p.keys = append(p.keys, apiKey)
	if len(p.responses) == 0 {
		return nil, nil, &AIError{Message: "no scripted response"}
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	return next.message, &ModelUsage{}, next.err
}

type fakeExecutor struct {
	calls  []ToolCall
	result string
}

func (e *fakeExecutor) Execute(ctx context.Context, call ToolCall) string {
	e.calls = append(e.calls, call)
	return e.result
}

func newTestOrchestrator(p Provider, executor ToolExecutor, entries ...config.RotationEntry) *Orchestrator {
	if len(entries) == 0 {
		entries = []config.RotationEntry{{Model: "model-a", APIKey: "key-a"}}
	}
	cfg := config.AIConfig{
		Persona:         "You are a helpful group assistant.",
		FallbackMessage: "Sorry, I cannot answer right now.",
	}
	return NewOrchestrator(p, NewRotation(entries, logger.NewTestLogger()), executor, nil, "", cfg, logger.NewTestLogger())
}

func TestGenerateResponseSuccess(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{message: &MessageResponse{Content: "hello there"}},
	}}
	o := newTestOrchestrator(p, &fakeExecutor{})

	resp := o.GenerateResponse(context.Background(), Request{Text: "hi", SenderName: "Alice"})

	assert.Equal(t, "hello there", resp.Text)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, resp.FunctionUsed)
	require.Len(t, p.requests, 1)
	assert.Equal(t, "model-a", p.requests[0].Model)
	assert.Equal(t, "key-a", p.keys[0])
}

func TestGenerateResponseRotatesOnFailure(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &AIError{HTTPStatusCode: 429, Message: "rate limited"}},
		{message: &MessageResponse{Content: "second model answer"}},
	}}
	o := newTestOrchestrator(p, &fakeExecutor{},
		config.RotationEntry{Model: "model-a", APIKey: "key-a"},
		config.RotationEntry{Model: "model-b", APIKey: "key-b"},
	)

	resp := o.GenerateResponse(context.Background(), Request{Text: "hi"})

	assert.Equal(t, "second model answer", resp.Text)
	require.Len(t, p.requests, 2)
	assert.Equal(t, "model-a", p.requests[0].Model)
	assert.Equal(t, "model-b", p.requests[1].Model)
	assert.Equal(t, "key-b", p.keys[1])
}

func TestGenerateResponseFallbackAfterExhaustion(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &AIError{Message: "boom"}},
		{err: &AIError{Message: "boom"}},
	}}
	o := newTestOrchestrator(p, &fakeExecutor{},
		config.RotationEntry{Model: "model-a", APIKey: "key-a"},
		config.RotationEntry{Model: "model-b", APIKey: "key-b"},
	)

	resp := o.GenerateResponse(context.Background(), Request{Text: "hi"})

	assert.Equal(t, "Sorry, I cannot answer right now.", resp.Text)
	assert.Empty(t, resp.Sources)
	assert.Len(t, p.requests, 2)
}

func TestGenerateResponsePolicyRefusalStopsRotation(t *testing.T) {
	p := &fakeProvider{responses: []fakeResponse{
		{err: &AIError{HTTPStatusCode: 400, Message: "rejected by content policy"}},
	}}
	o := newTestOrchestrator(p, &fakeExecutor{},
		config.RotationEntry{Model: "model-a", APIKey: "key-a"},
		config.RotationEntry{Model: "model-b", APIKey: "key-b"},
	)

	resp := o.GenerateResponse(context.Background(), Request{Text: "hi"})

	// the refusal is about the prompt, trying other models is pointless
	assert.Equal(t, "Sorry, I cannot answer right now.", resp.Text)
	assert.Len(t, p.requests, 1)
}

func TestGenerateResponseFunctionCallRoundTrip(t *testing.T) {
	call := ToolCall{
		ID:   "call-1",
		Type: "function",
		Function: FunctionCall{
			Name:      "calculate",
			Arguments: `{"expression":"2+2"}`,
		},
	}
	p := &fakeProvider{responses: []fakeResponse{
		{message: &MessageResponse{ToolCalls: []ToolCall{call}}},
		{message: &MessageResponse{Content: "The answer is 4."}},
	}}
	executor := &fakeExecutor{result: "4"}
	o := newTestOrchestrator(p, executor)

	resp := o.GenerateResponse(context.Background(), Request{Text: "what is 2+2?"})

	assert.Equal(t, "The answer is 4.", resp.Text)
	assert.Equal(t, "calculate", resp.FunctionUsed)
	require.Len(t, executor.calls, 1)
	assert.Equal(t, "calculate", executor.calls[0].Function.Name)

	// follow-up request carries the tool result and no tool declarations
	require.Len(t, p.requests, 2)
	followUp := p.requests[1]
	assert.Empty(t, followUp.Tools)
	last := followUp.Messages[len(followUp.Messages)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
	assert.Equal(t, "4", last.Text)
}

func TestGenerateResponseFollowUpFailureRotates(t *testing.T) {
	call := ToolCall{ID: "call-1", Type: "function", Function: FunctionCall{Name: "search", Arguments: "{}"}}
	p := &fakeProvider{responses: []fakeResponse{
		{message: &MessageResponse{ToolCalls: []ToolCall{call}}},
		{err: &AIError{HTTPStatusCode: 500, Message: "server error"}},
		{message: &MessageResponse{Content: "plain answer"}},
	}}
	o := newTestOrchestrator(p, &fakeExecutor{result: "{}"},
		config.RotationEntry{Model: "model-a", APIKey: "key-a"},
		config.RotationEntry{Model: "model-b", APIKey: "key-b"},
	)

	resp := o.GenerateResponse(context.Background(), Request{Text: "hi"})

	assert.Equal(t, "plain answer", resp.Text)
	assert.Len(t, p.requests, 3)
}

func TestGenerateResponseExtractsSources(t *testing.T) {
	message := &MessageResponse{Content: "grounded answer"}
	message.Annotations = []Annotation{
		{Type: "url_citation", URLCitation: URLCitation{URL: "https://example.com/a", Title: "Example A"}},
		{Type: "other"},
	}
	p := &fakeProvider{responses: []fakeResponse{{message: message}}}
	o := newTestOrchestrator(p, &fakeExecutor{})

	resp := o.GenerateResponse(context.Background(), Request{Text: "hi"})

	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Example A", resp.Sources[0].Title)
	assert.Equal(t, "https://example.com/a", resp.Sources[0].URL)
}

func TestBuildMessagesMultimodal(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, &fakeExecutor{})

	messages := o.buildMessages(Request{
		Text:       "what is on this picture?",
		SenderName: "Bob",
		Media:      &Media{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}},
	})

	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	user := messages[1]
	require.Len(t, user.Content, 2)
	assert.Equal(t, "text", user.Content[0].Type)
	assert.Equal(t, "image_url", user.Content[1].Type)
	assert.Contains(t, user.Content[1].ImageURL.URL, "data:image/jpeg;base64,")
}

func TestSystemPromptListsTools(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, &fakeExecutor{})
	o.toolsText = "• calculate: Evaluate an arithmetic expression.\n"

	messages := o.buildMessages(Request{Text: "hi"})

	require.NotEmpty(t, messages)
	assert.Contains(t, messages[0].Text, "• calculate: Evaluate an arithmetic expression.")
}

func TestBuildMessagesQuotedContext(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, &fakeExecutor{})

	messages := o.buildMessages(Request{
		Text:        "and what about this?",
		SenderName:  "Bob",
		Context:     "earlier message",
		ContextType: ContextQuoted,
	})

	require.Len(t, messages, 2)
	assert.Contains(t, messages[1].Text, "earlier message")
}
