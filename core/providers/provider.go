package providers

import (
	"context"
	"encoding/json"
)

// Provider is the uniform contract every natural-language backend exposes.
// The router never talks to an SDK directly, only through this interface.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error)
	GenerateJSON(ctx context.Context, req *JSONRequest) (*JSONResult, error)
	ValidateConfig() error
	Close() error
}

// TextRequest describes a prose-generation call.
type TextRequest struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Model        string   `json:"model,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// TextResult carries the generated text plus the identity of the provider
// that produced it, for observability.
type TextResult struct {
	Text     string `json:"text"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// JSONRequest describes a structured-output call. Schema is a free-form
// description of the expected shape, appended to the system instruction.
type JSONRequest struct {
	Prompt       string   `json:"prompt"`
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Schema       string   `json:"schema,omitempty"`
	Model        string   `json:"model,omitempty"`
	MaxTokens    int      `json:"max_tokens,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// JSONResult carries the parsed JSON payload plus provider identity.
type JSONResult struct {
	Data     json.RawMessage `json:"data"`
	Provider string          `json:"provider"`
	Model    string          `json:"model,omitempty"`
}

// Type identifies a provider implementation.
type Type string

const (
	TypeAnthropic Type = "anthropic"
	TypeOpenAI    Type = "openai"
	TypeGoogle    Type = "google"
	TypeLocal     Type = "local"
)

const jsonSystemInstruction = "Respond with a single valid JSON object and nothing else. No markdown fences, no commentary."
