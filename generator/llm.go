package generator

import "context"

// LLMClient abstracts the language-model collaborator so implementations
// can be swapped or mocked. The prompt is a single opaque instruction
// string; the client performs no structural validation of the output.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// LLMSettings is the base configuration for concrete clients.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}
