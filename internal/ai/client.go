package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ezhov-dev/zapguard/internal/logger"
)

const providerName = "openai-compatible"

// Client talks to an OpenAI-compatible chat completions API. The API key is
// passed per call because rotation entries carry their own credentials.
type Client struct {
	baseURL    string
	chatURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(httpClient *http.Client, baseURL, chatURL string, log logger.Logger) *Client {
	if chatURL == "" {
		chatURL = "/chat/completions"
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		chatURL:    strings.TrimPrefix(chatURL, "/"),
		httpClient: httpClient,
		logger:     log,
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Ask(ctx context.Context, request CompletionRequest, apiKey string) (*MessageResponse, *ModelUsage, error) {
	body, aiErr := c.doRequest(ctx, c.chatURL, request, apiKey)
	if aiErr != nil {
		aiErr.ModelName = request.Model
		return nil, nil, aiErr
	}

	var result CompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			ModelName:    request.Model,
			Message:      "failed to unmarshal response",
		}
	}

	// some providers report errors inside a 200 OK body
	if result.Error != nil {
		return nil, nil, &AIError{
			ProviderName: c.Name(),
			ModelName:    request.Model,
			ErrorCode:    result.Error.Code,
			Message:      result.Error.Message,
		}
	}

	if len(result.Choices) == 0 {
		return nil, nil, &AIError{
			ProviderName: c.Name(),
			ModelName:    request.Model,
			Message:      "no choices in response",
		}
	}

	return &result.Choices[0].Message, &result.Usage, nil
}

func (c *Client) Embeddings(ctx context.Context, model, apiKey string, input []string) ([][]float64, error) {
	body, aiErr := c.doRequest(ctx, "embeddings", EmbeddingsRequest{Model: model, Input: input}, apiKey)
	if aiErr != nil {
		aiErr.ModelName = model
		return nil, aiErr
	}

	var result EmbeddingsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			ModelName:    model,
			Message:      "failed to unmarshal embeddings response",
		}
	}
	if result.Error != nil {
		return nil, &AIError{
			ProviderName: c.Name(),
			ModelName:    model,
			ErrorCode:    result.Error.Code,
			Message:      result.Error.Message,
		}
	}

	vectors := make([][]float64, len(result.Data))
	for _, item := range result.Data {
		if item.Index >= 0 && item.Index < len(vectors) {
			vectors[item.Index] = item.Embedding
		}
	}
	return vectors, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, payload any, apiKey string) ([]byte, *AIError) {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "marshal request failed",
		}
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "create request failed",
		}
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	c.logRequest(req, requestBody)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "network request failed",
		}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AIError{
			OriginalErr:  err,
			ProviderName: c.Name(),
			Message:      "failed to read response body",
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var providerError struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Code    string `json:"code"`
			} `json:"error"`
		}

		aiError := &AIError{
			ProviderName:   c.Name(),
			HTTPStatusCode: resp.StatusCode,
			Message:        fmt.Sprintf("HTTP request failed with status code: %d", resp.StatusCode),
		}

		if len(responseBody) > 0 {
			json.Unmarshal(responseBody, &providerError)
			if providerError.Error.Message != "" {
				aiError.Message = providerError.Error.Message
				aiError.ErrorCode = providerError.Error.Code
			}
		}

		return nil, aiError
	}

	return responseBody, nil
}

func (c *Client) logRequest(req *http.Request, body []byte) {
	var bodyData any
	if len(body) > 0 {
		if err := json.Unmarshal(body, &bodyData); err == nil {
			if m, ok := bodyData.(map[string]any); ok {
				truncateLargeFields(m)
			}
		}
	}

	c.logger.WithFields(logger.Fields{
		"url":    req.URL.String(),
		"method": req.Method,
		"body":   bodyData,
	}).Debug("HTTP request")
}

func truncateLargeFields(data map[string]any) {
	for k, v := range data {
		switch val := v.(type) {
		case string:
			if (k == "url" || k == "content" || k == "text" || k == "file_data") && len(val) > 1000 {
				data[k] = val[:1000] + "...[truncated]"
			}
		case map[string]any:
			truncateLargeFields(val)
		case []any:
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					truncateLargeFields(m)
				}
			}
		}
	}
}
