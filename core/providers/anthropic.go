package providers

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for Anthropic's Claude models
type AnthropicProvider struct {
	client *anthropic.Client
	config AnthropicConfig
}

// NewAnthropicProvider creates a new Anthropic provider with the given configuration
func NewAnthropicProvider(config AnthropicConfig) (*AnthropicProvider, error) {
	if config.Model == "" {
		config.Model = DefaultAnthropicConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultAnthropicConfig().MaxTokens
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicProvider{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier
func (p *AnthropicProvider) Name() string {
	return string(TypeAnthropic)
}

// GenerateText performs a non-streaming completion request
func (p *AnthropicProvider) GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error) {
	params := p.buildParams(req.Model, req.MaxTokens, req.Temperature, req.SystemPrompt, req.Prompt)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate: %w", err)
	}

	return &TextResult{
		Text:     collectText(msg),
		Provider: p.Name(),
		Model:    string(msg.Model),
	}, nil
}

// GenerateJSON performs a completion constrained to a single JSON object
func (p *AnthropicProvider) GenerateJSON(ctx context.Context, req *JSONRequest) (*JSONResult, error) {
	system := joinSystem(req.SystemPrompt, jsonSystemInstruction, req.Schema)
	params := p.buildParams(req.Model, req.MaxTokens, req.Temperature, system, req.Prompt)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic generate json: %w", err)
	}

	data, err := extractJSONObject(collectText(msg))
	if err != nil {
		return nil, fmt.Errorf("anthropic generate json: %w", err)
	}

	return &JSONResult{
		Data:     data,
		Provider: p.Name(),
		Model:    string(msg.Model),
	}, nil
}

// ValidateConfig checks if the provider configuration is valid
func (p *AnthropicProvider) ValidateConfig() error {
	return p.config.Validate()
}

// Close cleans up any resources
func (p *AnthropicProvider) Close() error {
	return nil
}

// buildParams constructs Anthropic API parameters
func (p *AnthropicProvider) buildParams(model string, maxTokens int, temperature *float64, system, prompt string) anthropic.MessageNewParams {
	if model == "" {
		model = p.config.Model
	}
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if system == "" {
		system = p.config.SystemPrompt
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if temperature != nil {
		params.Temperature = anthropic.Float(*temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = anthropic.Float(p.config.Temperature)
	}

	return params
}

func collectText(msg *anthropic.Message) string {
	var content string
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += b.Text
		}
	}
	return content
}
