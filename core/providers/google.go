package providers

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GoogleProvider implements Provider for Google's Gemini models
type GoogleProvider struct {
	client *genai.Client
	config GoogleConfig
}

// NewGoogleProvider creates a new Google provider with the given configuration
func NewGoogleProvider(ctx context.Context, config GoogleConfig) (*GoogleProvider, error) {
	if config.Model == "" {
		config.Model = DefaultGoogleConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultGoogleConfig().MaxTokens
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("google client: %w", err)
	}

	return &GoogleProvider{
		client: client,
		config: config,
	}, nil
}

// Name returns the provider identifier
func (p *GoogleProvider) Name() string {
	return string(TypeGoogle)
}

// GenerateText performs a non-streaming completion request
func (p *GoogleProvider) GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error) {
	model, cfg := p.buildConfig(req.Model, req.MaxTokens, req.Temperature, req.SystemPrompt, "")

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("google generate: %w", err)
	}

	return &TextResult{
		Text:     resp.Text(),
		Provider: p.Name(),
		Model:    model,
	}, nil
}

// GenerateJSON performs a completion constrained to a single JSON object
func (p *GoogleProvider) GenerateJSON(ctx context.Context, req *JSONRequest) (*JSONResult, error) {
	system := joinSystem(req.SystemPrompt, jsonSystemInstruction, req.Schema)
	model, cfg := p.buildConfig(req.Model, req.MaxTokens, req.Temperature, system, "application/json")

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("google generate json: %w", err)
	}

	data, err := extractJSONObject(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("google generate json: %w", err)
	}

	return &JSONResult{
		Data:     data,
		Provider: p.Name(),
		Model:    model,
	}, nil
}

// ValidateConfig checks if the provider configuration is valid
func (p *GoogleProvider) ValidateConfig() error {
	return p.config.Validate()
}

// Close cleans up any resources
func (p *GoogleProvider) Close() error {
	return nil
}

func (p *GoogleProvider) buildConfig(model string, maxTokens int, temperature *float64, system, mimeType string) (string, *genai.GenerateContentConfig) {
	if model == "" {
		model = p.config.Model
	}
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if system == "" {
		system = p.config.SystemPrompt
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}

	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if temperature != nil {
		t := float32(*temperature)
		cfg.Temperature = &t
	} else if p.config.Temperature > 0 {
		t := float32(p.config.Temperature)
		cfg.Temperature = &t
	}

	if mimeType != "" {
		cfg.ResponseMIMEType = mimeType
	}

	return model, cfg
}
