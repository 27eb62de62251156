package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Content struct {
	Type     string `json:"type"` // "text", "image_url", "file"
	Text     string `json:"text,omitempty"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url,omitzero"`
	File struct {
		Filename string `json:"filename"`
		FileData string `json:"file_data"`
	} `json:"file,omitzero"`
}

type Message struct {
	Role string `json:"role"`
	// for multimodal requests
	Content []Content `json:"-"`
	// for plain text requests
	Text string `json:"-"`

	Name       string     `json:"name,omitzero"`
	ToolCallID string     `json:"tool_call_id,omitzero"`
	ToolCalls  []ToolCall `json:"tool_calls,omitzero"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	type Alias Message
	aux := &struct {
		*Alias
		Content any `json:"content,omitzero"`
	}{
		Alias: (*Alias)(&m),
	}

	if len(m.Content) > 0 {
		aux.Content = m.Content
	} else {
		aux.Content = m.Text
	}

	return json.Marshal(aux)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type Alias Message
	aux := &struct {
		*Alias
		Content any `json:"content,omitzero"`
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch content := aux.Content.(type) {
	case string:
		m.Text = content
	case []any:
		var contents []Content
		raw, _ := json.Marshal(content)
		if err := json.Unmarshal(raw, &contents); err != nil {
			return err
		}
		m.Content = contents
	case nil:
	default:
		return fmt.Errorf("unexpected content type: %T", content)
	}

	return nil
}

type Plugin struct {
	ID           string `json:"id"`
	MaxResults   int    `json:"max_results,omitempty"`
	SearchPrompt string `json:"search_prompt,omitempty"`
}

type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Tools       []Tool    `json:"tools,omitzero"`
	Temperature *float32  `json:"temperature,omitzero"`
	MaxTokens   *int      `json:"max_tokens,omitzero"`
	Plugins     []Plugin  `json:"plugins,omitzero"`
}

type ModelUsage struct {
	CompletionTokens int64   `json:"completion_tokens"`
	PromptTokens     int64   `json:"prompt_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

type URLCitation struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type Annotation struct {
	Type        string      `json:"type"`
	URLCitation URLCitation `json:"url_citation,omitzero"`
}

type MessageResponse struct {
	Content     string       `json:"content"`
	Reasoning   string       `json:"reasoning,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type CompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message      MessageResponse `json:"message"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
	Usage ModelUsage     `json:"usage,omitzero"`
	Error *ProviderError `json:"error,omitzero"`
}

type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *ProviderError `json:"error,omitzero"`
}

type ProviderError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// AIError represents an enriched error from an AI provider
type AIError struct {
	// OriginalErr is the original error (if any)
	OriginalErr error `json:"-"`
	// ProviderName is the provider name (e.g. "openai-compatible")
	ProviderName string `json:"provider_name"`
	// ModelName is the model name where the error occurred
	ModelName string `json:"model_name"`
	// HTTPStatusCode is the HTTP response status code (if applicable)
	HTTPStatusCode int `json:"http_status_code"`
	// ErrorCode is the provider's error code (e.g. "insufficient_quota", "model_not_found")
	ErrorCode string `json:"error_code"`
	// Message is a human-readable error message
	Message string `json:"message"`
}

func (e *AIError) Error() string {
	msg := e.Message
	if msg == "" && e.OriginalErr != nil {
		msg = e.OriginalErr.Error()
	}
	if e.ProviderName != "" && e.ModelName != "" {
		msg = fmt.Sprintf("[%s:%s] %s", e.ProviderName, e.ModelName, msg)
	}
	if e.ErrorCode != "" {
		msg = fmt.Sprintf("%s (code: %s)", msg, e.ErrorCode)
	}
	if e.HTTPStatusCode != 0 {
		msg = fmt.Sprintf("%d %s", e.HTTPStatusCode, msg)
	}
	return msg
}

func (e *AIError) Unwrap() error {
	return e.OriginalErr
}

// ErrorType returns the error type based on HTTP status code and error code
func (e *AIError) ErrorType() ErrorType {
	switch {
	case e.HTTPStatusCode == 429:
		return ErrorTypeRateLimit
	case e.HTTPStatusCode >= 500:
		return ErrorTypeServer
	case e.HTTPStatusCode == 400 && strings.Contains(strings.ToLower(e.Message), "policy"):
		return ErrorTypeContentPolicy
	case e.HTTPStatusCode >= 400 && e.HTTPStatusCode < 500:
		return ErrorTypeClient
	case e.HTTPStatusCode == 0 && e.OriginalErr != nil:
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable determines if a request can be safely retried
func (e *AIError) IsRetryable() bool {
	switch e.ErrorType() {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServer:
		return true
	default:
		return false
	}
}

// ErrorType for errors classification
type ErrorType string

const (
	ErrorTypeNetwork       ErrorType = "network"        // Network error, timeout
	ErrorTypeRateLimit     ErrorType = "rate_limit"     // 429, provider limits
	ErrorTypeServer        ErrorType = "server"         // 5xx, provider-side error
	ErrorTypeClient        ErrorType = "client"         // 4xx (except 429), invalid request, API key, model not found
	ErrorTypeContentPolicy ErrorType = "content_policy" // 400/403, content policy violation
	ErrorTypeUnknown       ErrorType = "unknown"
)

func IsRetryableError(err error) bool {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.IsRetryable()
	}
	return false
}

func GetErrorType(err error) ErrorType {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.ErrorType()
	}
	return ErrorTypeUnknown
}
