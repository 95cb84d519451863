package research

import (
	"context"
	"errors"
	"fmt"

	"github.com/suPer8Hu/tone-platform/internal/ai"
	"github.com/suPer8Hu/tone-platform/internal/tone"
)

// Status is the typed outcome of one strategy attempt.
type Status int

const (
	Success Status = iota
	// Retryable hands over to the next strategy in the list.
	Retryable
	// Fatal stops the list.
	Fatal
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

type Attempt struct {
	Status  Status
	Parser  string
	Sources []ai.Source
	Err     error

	draft *draft
}

// Strategy is one way of obtaining a research result from a provider.
type Strategy interface {
	Name() string
	Mode() tone.Mode
	Run(ctx context.Context, p ai.Provider, q tone.Query) Attempt
}

// classify turns a provider or parse error into an attempt. A done context
// is fatal: the next strategy would fail the same way.
func classify(ctx context.Context, err error) Attempt {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Attempt{Status: Fatal, Err: err}
	}
	return Attempt{Status: Retryable, Err: err}
}

func parsed(text string, q tone.Query, sources []ai.Source) Attempt {
	d, name, err := parse(text, q)
	if err != nil {
		return Attempt{Status: Retryable, Err: fmt.Errorf("parse: %w", err)}
	}
	return Attempt{Status: Success, Parser: name, Sources: sources, draft: d}
}

// WebSearch asks the provider to browse before answering. Results are
// authoritative.
type WebSearch struct {
	Model     string
	MaxTokens int
}

func (WebSearch) Name() string    { return "web-search" }
func (WebSearch) Mode() tone.Mode { return tone.ModeAuthoritative }

func (s WebSearch) Run(ctx context.Context, p ai.Provider, q tone.Query) Attempt {
	out, err := p.CompleteWithSearch(ctx, ai.Request{
		Model:     s.Model,
		Messages:  ai.UserPrompt(SearchPrompt(q)),
		MaxTokens: s.MaxTokens,
	})
	if err != nil {
		return classify(ctx, err)
	}
	return parsed(out.Text, q, out.Sources)
}

// Reasoning answers from model knowledge alone. Results are hypotheses.
type Reasoning struct {
	Model string
}

func (Reasoning) Name() string    { return "reasoning" }
func (Reasoning) Mode() tone.Mode { return tone.ModeHypothesis }

func (s Reasoning) Run(ctx context.Context, p ai.Provider, q tone.Query) Attempt {
	text, err := p.CompleteJSON(ctx, ai.Request{
		Model:       s.Model,
		System:      reasoningSystem,
		Messages:    ai.UserPrompt(ReasoningPrompt(q)),
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return classify(ctx, err)
	}
	return parsed(text, q, nil)
}
