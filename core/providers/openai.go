package providers

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Provider for OpenAI's GPT models
type OpenAIProvider struct {
	client *openai.Client
	config OpenAIConfig
}

// NewOpenAIProvider creates a new OpenAI provider with the given configuration
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	if config.Model == "" {
		config.Model = DefaultOpenAIConfig().Model
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultOpenAIConfig().MaxTokens
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

	if config.Organization != "" {
		opts = append(opts, option.WithHeader("OpenAI-Organization", config.Organization))
	}

	client := openai.NewClient(opts...)

	return &OpenAIProvider{
		client: &client,
		config: config,
	}, nil
}

// Name returns the provider identifier
func (p *OpenAIProvider) Name() string {
	return string(TypeOpenAI)
}

// GenerateText performs a non-streaming completion request
func (p *OpenAIProvider) GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error) {
	params := p.buildResponseParams(req.Model, req.MaxTokens, req.Temperature, req.SystemPrompt, req.Prompt)

	result, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}

	return &TextResult{
		Text:     result.OutputText(),
		Provider: p.Name(),
		Model:    string(result.Model),
	}, nil
}

// GenerateJSON performs a completion constrained to a single JSON object
func (p *OpenAIProvider) GenerateJSON(ctx context.Context, req *JSONRequest) (*JSONResult, error) {
	system := joinSystem(req.SystemPrompt, jsonSystemInstruction, req.Schema)
	params := p.buildResponseParams(req.Model, req.MaxTokens, req.Temperature, system, req.Prompt)

	result, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai generate json: %w", err)
	}

	data, err := extractJSONObject(result.OutputText())
	if err != nil {
		return nil, fmt.Errorf("openai generate json: %w", err)
	}

	return &JSONResult{
		Data:     data,
		Provider: p.Name(),
		Model:    string(result.Model),
	}, nil
}

// ValidateConfig checks if the provider configuration is valid
func (p *OpenAIProvider) ValidateConfig() error {
	return p.config.Validate()
}

// Close cleans up any resources
func (p *OpenAIProvider) Close() error {
	return nil
}

// buildResponseParams constructs OpenAI API parameters
func (p *OpenAIProvider) buildResponseParams(model string, maxTokens int, temperature *float64, system, prompt string) responses.ResponseNewParams {
	if model == "" {
		model = p.config.Model
	}
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if system == "" {
		system = p.config.SystemPrompt
	}

	input := make(responses.ResponseInputParam, 0, 2)
	if system != "" {
		input = append(input, responses.ResponseInputItemParamOfMessage(system, responses.EasyInputMessageRoleSystem))
	}
	input = append(input, responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser))

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		MaxOutputTokens: openai.Int(int64(maxTokens)),
	}

	if temperature != nil {
		params.Temperature = openai.Float(*temperature)
	} else if p.config.Temperature > 0 {
		params.Temperature = openai.Float(p.config.Temperature)
	}

	return params
}
