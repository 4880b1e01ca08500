package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newMockChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		resp := ChatResponse{
			Choices: []struct {
				Message ChatMessage `json:"message"`
			}{
				{Message: ChatMessage{Role: "assistant", Content: content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Complete(t *testing.T) {
	srv := newMockChatServer(t, `[{"word":"x","quote":"y"}]`)
	defer srv.Close()

	p := newOpenAIProvider("gpt-4o", srv.URL, "test-key", 5)
	out, err := p.Complete(context.Background(), "extract words", CompletionOpts{Temperature: 0.3})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `[{"word":"x","quote":"y"}]` {
		t.Errorf("unexpected content: %q", out)
	}
}

func TestOpenAIProvider_SendsAuthAndFormat(t *testing.T) {
	var gotAuth string
	var gotReq ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		resp := ChatResponse{
			Choices: []struct {
				Message ChatMessage `json:"message"`
			}{{Message: ChatMessage{Role: "assistant", Content: "{}"}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := newOpenAIProvider("gpt-4o", srv.URL, "secret", 5)
	_, err := p.Complete(context.Background(), "prompt", CompletionOpts{Format: "json", System: "be terse"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %#v", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("expected system+user messages, got %#v", gotReq.Messages)
	}
}

func TestOpenAIProvider_ProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	p := newOpenAIProvider("gpt-4o", srv.URL, "k", 5)
	_, err := p.Complete(context.Background(), "prompt", CompletionOpts{})

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if protoErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", protoErr.StatusCode)
	}
	if protoErr.RetryAfter.Seconds() != 7 {
		t.Errorf("expected Retry-After 7s, got %v", protoErr.RetryAfter)
	}
}

func TestOpenAIProvider_Unavailable(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := newOpenAIProvider("gpt-4o", url, "k", 1)
	_, err := p.Complete(context.Background(), "prompt", CompletionOpts{})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{})
	}))
	defer srv.Close()

	p := newOpenAIProvider("gpt-4o", srv.URL, "k", 5)
	_, err := p.Complete(context.Background(), "prompt", CompletionOpts{})
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError for empty choices, got %v", err)
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	var gotReq GenerateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(GenerateResponse{Response: `{"mc_questions":[]}`, Done: true})
	}))
	defer srv.Close()

	p := newOllamaProvider("deepseek-r1:8b", srv.URL, 5)
	out, err := p.Complete(context.Background(), "make questions", CompletionOpts{Format: "json"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"mc_questions":[]}` {
		t.Errorf("unexpected content: %q", out)
	}
	if gotReq.Stream {
		t.Error("stream must be false")
	}
	if gotReq.Format != "json" {
		t.Errorf("expected format json, got %q", gotReq.Format)
	}
	if gotReq.Model != "deepseek-r1:8b" {
		t.Errorf("unexpected model %q", gotReq.Model)
	}
}

func TestParseLLMFlag(t *testing.T) {
	tests := []struct {
		flag     string
		provider string
		model    string
		wantErr  bool
	}{
		{"", "openai", "gpt-4o", false},
		{"openai/gpt-4o", "openai", "gpt-4o", false},
		{"ollama/deepseek-r1:8b", "ollama", "deepseek-r1:8b", false},
		{"custom/org/model:tag", "custom", "org/model:tag", false},
		{"gpt-4o", "", "", true},
		{"unknown/model", "", "", true},
		{"/model", "", "", true},
		{"openai/", "", "", true},
	}
	for _, tt := range tests {
		cfg, err := ParseLLMFlag(tt.flag)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLLMFlag(%q): expected error", tt.flag)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLLMFlag(%q): %v", tt.flag, err)
			continue
		}
		if cfg.Provider != tt.provider || cfg.Model != tt.model {
			t.Errorf("ParseLLMFlag(%q) = %s/%s, want %s/%s", tt.flag, cfg.Provider, cfg.Model, tt.provider, tt.model)
		}
	}
}

func TestNewProvider_Ollama(t *testing.T) {
	p, err := NewProvider(Config{Provider: "ollama", Model: "llama3"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if p.Name() != "ollama/llama3" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "bogus"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
