// Package generator builds MCQ prompts and talks to the language-model
// collaborator.
package generator

import (
	"context"
	"errors"
	"strings"
)

// Agent performs one generation call: build the prompt, invoke the model,
// return the raw text. No retries are performed; a failure is surfaced
// once, immediately.
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Generate produces the MCQ text for the given topic, count, and level.
func (a *Agent) Generate(ctx context.Context, topic string, count int, level Level) (string, error) {
	prompt := BuildPrompt(topic, count, level)
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errors.New("model returned empty response")
	}
	return text, nil
}
