package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ollamaProvider calls a local Ollama /api/generate endpoint.
type ollamaProvider struct {
	model    string
	endpoint string
	http     *http.Client
}

// GenerateRequest represents an Ollama generate request.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
	System string `json:"system,omitempty"`
}

// GenerateResponse represents an Ollama generate response.
type GenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func newOllamaProvider(model, endpoint string, timeoutSecs int) *ollamaProvider {
	return &ollamaProvider{
		model:    model,
		endpoint: endpoint,
		http:     &http.Client{Timeout: time.Duration(timeoutSecs) * time.Second},
	}
}

func (p *ollamaProvider) Name() string {
	return "ollama/" + p.model
}

func (p *ollamaProvider) Complete(ctx context.Context, prompt string, opts CompletionOpts) (string, error) {
	req := GenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		System: opts.System,
	}
	if opts.Format == "json" {
		req.Format = "json"
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

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", &ProtocolError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("invalid response JSON: %v", err)}
	}

	return genResp.Response, nil
}
