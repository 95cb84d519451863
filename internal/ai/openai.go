package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider uses chat completions in JSON mode for reasoning calls and
// the Responses API with the web_search_preview tool for search calls. The
// SDK predates the Responses API, so that call goes over plain HTTP.
type OpenAIProvider struct {
	client  *openai.Client
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewOpenAIProvider(apiKey, baseURL string) (*OpenAIProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(cfg),
		http:    &http.Client{Timeout: 120 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

func (p *OpenAIProvider) CompleteJSON(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

type responsesTool struct {
	Type string `json:"type"`
}

type responsesReq struct {
	Model           string          `json:"model"`
	Input           string          `json:"input"`
	Instructions    string          `json:"instructions,omitempty"`
	Tools           []responsesTool `json:"tools"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
}

type responsesResp struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type        string `json:"type"`
			Text        string `json:"text"`
			Annotations []struct {
				Type  string `json:"type"`
				URL   string `json:"url"`
				Title string `json:"title"`
			} `json:"annotations"`
		} `json:"content"`
	} `json:"output"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) CompleteWithSearch(ctx context.Context, req Request) (*Completion, error) {
	if strings.TrimSpace(req.Model) == "" {
		return nil, errors.New("openai: model is required")
	}
	body := responsesReq{
		Model:           req.Model,
		Input:           joinPrompt(req),
		Instructions:    req.System,
		Tools:           []responsesTool{{Type: "web_search_preview"}},
		MaxOutputTokens: req.MaxTokens,
	}

	var decoded responsesResp
	headers := map[string]string{"Authorization": "Bearer " + p.apiKey}
	if err := postJSON(ctx, p.http, p.baseURL+"/responses", headers, body, &decoded); err != nil {
		return nil, fmt.Errorf("openai: responses: %w", err)
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, fmt.Errorf("openai: responses: %s", decoded.Error.Message)
	}

	var text strings.Builder
	out := &Completion{}
	for _, item := range decoded.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type != "output_text" {
				continue
			}
			text.WriteString(c.Text)
			for _, a := range c.Annotations {
				if a.Type == "url_citation" && a.URL != "" {
					out.Sources = append(out.Sources, Source{Title: a.Title, URL: a.URL})
				}
			}
		}
	}
	out.Text = text.String()
	if strings.TrimSpace(out.Text) == "" {
		return nil, fmt.Errorf("openai: responses: %w", ErrEmptyResponse)
	}
	return out, nil
}
