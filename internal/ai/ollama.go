package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider talks to a local Ollama server. It has no web access, so it
// only serves the reasoning paths.
type OllamaProvider struct {
	BaseURL string
	Client  *http.Client
}

func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaProvider{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatReq struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaChatResp struct {
	Message Message `json:"message"`
	Error   string  `json:"error,omitempty"`
}

func (p *OllamaProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	if p.Client == nil {
		return "", errors.New("ollama: http client is nil")
	}
	if strings.TrimSpace(req.Model) == "" {
		return "", errors.New("ollama: model is required")
	}

	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	msgs = append(msgs, req.Messages...)

	body := ollamaChatReq{
		Model:    req.Model,
		Messages: msgs,
		Stream:   false,
		Format:   "json",
		Options:  &ollamaOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens},
	}

	url := fmt.Sprintf("%s/api/chat", strings.TrimRight(p.BaseURL, "/"))
	var decoded ollamaChatResp
	if err := postJSON(ctx, p.Client, url, nil, body, &decoded); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("ollama: %s", decoded.Error)
	}
	if strings.TrimSpace(decoded.Message.Content) == "" {
		return "", fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}
	return decoded.Message.Content, nil
}

func (p *OllamaProvider) CompleteWithSearch(ctx context.Context, req Request) (*Completion, error) {
	return nil, fmt.Errorf("ollama: %w", ErrSearchUnsupported)
}
