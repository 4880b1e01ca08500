package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// openaiProvider calls OpenAI-compatible chat completion endpoints.
type openaiProvider struct {
	model    string
	endpoint string
	apiKey   string
	http     *http.Client
}

// ChatRequest represents an OpenAI-compatible chat completion request.
type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []ChatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage represents a message in the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat specifies the expected response format.
type ResponseFormat struct {
	Type string `json:"type"`
}

// ChatResponse represents an OpenAI-compatible chat completion response.
type ChatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func newOpenAIProvider(model, endpoint, apiKey string, timeoutSecs int) *openaiProvider {
	return &openaiProvider{
		model:    model,
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second},
	}
}

func (p *openaiProvider) Name() string {
	return "openai/" + p.model
}

func (p *openaiProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	var messages []ChatMessage
	if opts.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: opts.System})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})

	req := ChatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.Format == "json" {
		req.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.endpoint, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProtocolError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", &ProtocolError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("invalid response JSON: %v", err)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &ProtocolError{StatusCode: resp.StatusCode, Message: "no choices in response"}
	}

	return chatResp.Choices[0].Message.Content, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
