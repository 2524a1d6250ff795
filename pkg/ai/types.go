package ai

import "context"

// Completion is the text a language model produced for one prompt.
type Completion struct {
	Text             string `json:"text"`
	Model            string `json:"model"`
	FinishReason     string `json:"finish_reason,omitempty"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

// Completer describes a language model that continues a rendered prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
	Model() string
}
