package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/llm"
	"github.com/pulsehq/pulse/core/providers"
)

const (
	modelPriority      = 20
	modelMethodName    = "model"
	modelMinConfidence = 0.6
	historyWindow      = 6
)

// modelResponse is the structured JSON the model stage expects back.
type modelResponse struct {
	Intent           string   `json:"intent"`
	DataSources      []string `json:"dataSources"`
	Scope            string   `json:"scope"`
	Confidence       float64  `json:"confidence"`
	RequiresApproval bool     `json:"requiresApproval"`
	Suggestions      []string `json:"suggestions,omitempty"`
}

const modelSchema = `{"intent": "information|action|report", "dataSources": ["pto"|"employees"|"candidates"|"salary"|"policies"|"handbook"|"documents"|"tools"|"contracts"|"stats"], "scope": "self|team|department|company", "confidence": 0.0-1.0, "requiresApproval": true|false, "suggestions": ["optional follow-up prompts"]}`

// ModelStage classifies via a structured-JSON call through the LLM router.
type ModelStage struct {
	router *llm.Router
}

// NewModelStage creates the model-backed classification stage.
func NewModelStage(router *llm.Router) *ModelStage {
	return &ModelStage{router: router}
}

func (s *ModelStage) Name() string  { return modelMethodName }
func (s *ModelStage) Priority() int { return modelPriority }

// Classify asks the router for a structured classification. Failures and
// unparsable output are returned as classification errors so the cascade
// falls through to the heuristic stage.
func (s *ModelStage) Classify(ctx context.Context, message string, conv *conversation.Context) (*StageResult, error) {
	if s.router == nil {
		return nil, errors.New(errors.KindClassification, "model stage has no router")
	}

	task := llm.ClassificationTask(isPrivacySensitive(message))

	res, err := s.router.GenerateJSON(ctx, task, &providers.JSONRequest{
		Prompt:       s.buildPrompt(message, conv),
		SystemPrompt: "You classify HR assistant messages. Use only the listed values.",
		Schema:       modelSchema,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindClassification, "model classification call failed", err)
	}

	parsed, err := s.parse(res.Data)
	if err != nil {
		return nil, err
	}
	parsed.Method = modelMethodName

	return &StageResult{
		Intent:    parsed,
		Confident: parsed.Confidence >= modelMinConfidence,
		Method:    modelMethodName,
	}, nil
}

func (s *ModelStage) buildPrompt(message string, conv *conversation.Context) string {
	var b strings.Builder

	if conv != nil {
		fmt.Fprintf(&b, "Caller role: %s\n", conv.Role)
		if conv.Department != "" {
			fmt.Fprintf(&b, "Department: %s\n", conv.Department)
		}
		recent := conv.Recent(historyWindow)
		if len(recent) > 0 {
			b.WriteString("Recent conversation:\n")
			for _, m := range recent {
				fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
			}
		}
	}

	fmt.Fprintf(&b, "Message to classify: %s\n", message)
	return b.String()
}

func (s *ModelStage) parse(data json.RawMessage) (*Intent, error) {
	var resp modelResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(errors.KindClassification, "unparsable model output", err)
	}

	kind, ok := ParseKind(resp.Intent)
	if !ok {
		return nil, errors.New(errors.KindClassification, "model returned unknown intent kind")
	}

	scope, ok := ParseScope(resp.Scope)
	if !ok {
		return nil, errors.New(errors.KindClassification, "model returned unknown scope")
	}

	if resp.Confidence < 0 || resp.Confidence > 1 {
		return nil, errors.New(errors.KindClassification, "model confidence out of range")
	}

	sources := make([]string, 0, len(resp.DataSources))
	for _, src := range resp.DataSources {
		if KnownSource(src) {
			sources = append(sources, src)
		}
	}

	return &Intent{
		Kind:             kind,
		DataSources:      sources,
		Scope:            scope,
		Confidence:       resp.Confidence,
		RequiresApproval: resp.RequiresApproval || kind == KindAction,
		Suggestions:      resp.Suggestions,
	}, nil
}
