package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type OpenRouterProvider struct {
	BaseURL string
	APIKey  string
	SiteURL string
	AppName string
	Client  *http.Client
}

type openRouterFormat struct {
	Type string `json:"type"`
}

type openRouterPlugin struct {
	ID         string `json:"id"`
	MaxResults int    `json:"max_results,omitempty"`
}

type openRouterChatReq struct {
	Model          string             `json:"model"`
	Messages       []Message          `json:"messages"`
	Stream         bool               `json:"stream"`
	Temperature    float32            `json:"temperature,omitempty"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	ResponseFormat *openRouterFormat  `json:"response_format,omitempty"`
	Plugins        []openRouterPlugin `json:"plugins,omitempty"`
}

type openRouterChatResp struct {
	Choices []struct {
		Message struct {
			Role        string `json:"role"`
			Content     string `json:"content"`
			Annotations []struct {
				Type        string `json:"type"`
				URLCitation struct {
					URL   string `json:"url"`
					Title string `json:"title"`
				} `json:"url_citation"`
			} `json:"annotations"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewOpenRouterProvider(baseURL, apiKey, siteURL, appName string) (*OpenRouterProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openrouter: %w", ErrNotConfigured)
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	return &OpenRouterProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		SiteURL: siteURL,
		AppName: appName,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}, nil
}

func (p *OpenRouterProvider) chat(ctx context.Context, body openRouterChatReq) (*openRouterChatResp, error) {
	if p.Client == nil {
		return nil, errors.New("openrouter: http client is nil")
	}
	if strings.TrimSpace(body.Model) == "" {
		return nil, errors.New("openrouter: model is required")
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.BaseURL, "/"))
	headers := map[string]string{
		"Authorization": "Bearer " + p.APIKey,
		"HTTP-Referer":  p.SiteURL,
		"X-Title":       p.AppName,
	}
	var decoded openRouterChatResp
	if err := postJSON(ctx, p.Client, url, headers, body, &decoded); err != nil {
		return nil, fmt.Errorf("openrouter: %w", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, fmt.Errorf("openrouter: %s", decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return nil, fmt.Errorf("openrouter: %w", ErrEmptyResponse)
	}
	return &decoded, nil
}

func (p *OpenRouterProvider) messages(req Request) []Message {
	out := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, Message{Role: "system", Content: req.System})
	}
	return append(out, req.Messages...)
}

func (p *OpenRouterProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	resp, err := p.chat(ctx, openRouterChatReq{
		Model:          req.Model,
		Messages:       p.messages(req),
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: &openRouterFormat{Type: "json_object"},
	})
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Message.Content, nil
}

// CompleteWithSearch enables OpenRouter's web plugin for the call.
func (p *OpenRouterProvider) CompleteWithSearch(ctx context.Context, req Request) (*Completion, error) {
	resp, err := p.chat(ctx, openRouterChatReq{
		Model:       req.Model,
		Messages:    p.messages(req),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Plugins:     []openRouterPlugin{{ID: "web", MaxResults: 5}},
	})
	if err != nil {
		return nil, err
	}
	msg := resp.Choices[0].Message
	out := &Completion{Text: msg.Content}
	for _, a := range msg.Annotations {
		if a.Type == "url_citation" && a.URLCitation.URL != "" {
			out.Sources = append(out.Sources, Source{Title: a.URLCitation.Title, URL: a.URLCitation.URL})
		}
	}
	return out, nil
}
