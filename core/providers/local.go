package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LocalProvider is the last-resort backend. It runs no model: text requests
// get a terse template answer built from the prompt, JSON requests get a
// minimal low-confidence object. It exists so the router's fallback chain
// always terminates at something that cannot fail over the network, and it
// is privacy-approved by construction since nothing leaves the process.
type LocalProvider struct {
	maxEcho int
}

// NewLocalProvider creates the local template provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{maxEcho: 240}
}

// Name returns the provider identifier
func (p *LocalProvider) Name() string {
	return string(TypeLocal)
}

// GenerateText produces a template reply from whatever facts the caller
// embedded in the prompt.
func (p *LocalProvider) GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	facts := extractFacts(req.Prompt)
	text := "Here is what I found."
	if facts != "" {
		text = fmt.Sprintf("Here is what I found: %s", facts)
	}

	if len(text) > p.maxEcho {
		text = text[:p.maxEcho]
	}

	return &TextResult{Text: text, Provider: p.Name()}, nil
}

// GenerateJSON returns a minimal object so structured callers can apply
// their own fallback heuristics.
func (p *LocalProvider) GenerateJSON(ctx context.Context, req *JSONRequest) (*JSONResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _ := json.Marshal(map[string]any{"confidence": 0.0})
	return &JSONResult{Data: data, Provider: p.Name()}, nil
}

// ValidateConfig always succeeds; there is nothing to configure.
func (p *LocalProvider) ValidateConfig() error {
	return nil
}

// Close cleans up any resources
func (p *LocalProvider) Close() error {
	return nil
}

// extractFacts keeps only lines that look like data ("key: value"), which
// is how callers embed aggregated records in prompts.
func extractFacts(prompt string) string {
	var facts []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, ":") && !strings.HasSuffix(line, ":") {
			facts = append(facts, line)
		}
	}
	return strings.Join(facts, "; ")
}
