// Package synthesis turns aggregated data into a conversational reply. It
// degrades to a deterministic summary when no language model is reachable,
// so the orchestrator always has something to say.
package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/pulsehq/pulse/core/aggregate"
	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/intent"
	"github.com/pulsehq/pulse/core/llm"
	"github.com/pulsehq/pulse/core/providers"
)

const systemPrompt = `You are an HR assistant. Answer the user's question using only the
provided data. Be concise and friendly. Do not invent records or numbers
that are not in the data. If the data is empty, say you could not find
anything relevant.`

// FallbackNotice prefixes degraded replies so the user knows prose
// generation was skipped.
const FallbackNotice = "I'm having trouble reaching my language services right now, so here is the raw summary:"

// Response is a synthesized reply.
type Response struct {
	Text     string
	Provider string // Empty when degraded
	Degraded bool
}

// Synthesizer produces prose from aggregation results.
type Synthesizer struct {
	router *llm.Router
	logger *slog.Logger
}

// Config holds synthesizer construction options.
type Config struct {
	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// NewSynthesizer wires a synthesizer to the model router.
func NewSynthesizer(router *llm.Router, cfg Config) *Synthesizer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Synthesizer{router: router, logger: cfg.Logger}
}

// Synthesize answers the user's message from the collected data. Provider
// exhaustion is absorbed: the caller always gets a response, possibly
// degraded, never an availability error.
func (s *Synthesizer) Synthesize(ctx context.Context, message string, it *intent.Intent, res *aggregate.Result, conv *conversation.Context) (*Response, error) {
	prompt, err := buildPrompt(message, it, res)
	if err != nil {
		return nil, err
	}

	task := llm.GenerationTask(it.PrivacySensitive())
	result, err := s.router.GenerateText(ctx, task, &providers.TextRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		if !errors.IsKind(err, errors.KindProviderUnavailable) {
			return nil, err
		}
		s.logger.Warn("all providers exhausted, using static fallback")
		return &Response{Text: staticSummary(res), Degraded: true}, nil
	}

	return &Response{Text: result.Text, Provider: result.Provider}, nil
}

func buildPrompt(message string, it *intent.Intent, res *aggregate.Result) (string, error) {
	payload, err := json.MarshalIndent(res.Data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode aggregation data: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\n", message)
	fmt.Fprintf(&b, "Request kind: %s, scope: %s\n\n", it.Kind, it.Scope)
	fmt.Fprintf(&b, "Data:\n%s\n", payload)
	if len(res.Failed) > 0 {
		b.WriteString("\nSome sources were unavailable: ")
		b.WriteString(strings.Join(failedNames(res), ", "))
		b.WriteString(". Mention this briefly if it matters to the answer.\n")
	}
	return b.String(), nil
}

// staticSummary renders the data without a model: one line per source with
// a compact JSON payload. Ugly but honest.
func staticSummary(res *aggregate.Result) string {
	if len(res.Data) == 0 {
		return FallbackNotice + "\n\nNo matching records were found."
	}

	sources := res.Sources()
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString(FallbackNotice)
	b.WriteString("\n")
	for _, source := range sources {
		payload, err := json.Marshal(res.Data[source])
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s: %s", source, payload)
	}
	return b.String()
}

func failedNames(res *aggregate.Result) []string {
	out := make([]string, 0, len(res.Failed))
	for name := range res.Failed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
