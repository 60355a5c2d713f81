package providers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) GenerateText(ctx context.Context, req *TextRequest) (*TextResult, error) {
	return &TextResult{Text: "ok", Provider: s.name}, nil
}

func (s *stubProvider) GenerateJSON(ctx context.Context, req *JSONRequest) (*JSONResult, error) {
	return &JSONResult{Data: json.RawMessage(`{}`), Provider: s.name}, nil
}

func (s *stubProvider) ValidateConfig() error { return nil }
func (s *stubProvider) Close() error          { return nil }

func TestRegistryOrdersByPriority(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&stubProvider{name: "slow"}, 30, false))
	require.NoError(t, r.Register(&stubProvider{name: "fast"}, 10, true))
	require.NoError(t, r.Register(&stubProvider{name: "mid"}, 20, true))

	assert.Equal(t, []string{"fast", "mid", "slow"}, r.Names())
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&stubProvider{name: "a"}, 1, false))
	err := r.Register(&stubProvider{name: "a"}, 2, false)
	assert.Error(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryGetCarriesPrivacyFlag(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubProvider{name: "a"}, 1, true))
	require.NoError(t, r.Register(&stubProvider{name: "b"}, 2, false))

	a, ok := r.Get("a")
	require.True(t, ok)
	assert.True(t, a.PrivacyApproved)

	b, ok := r.Get("b")
	require.True(t, ok)
	assert.False(t, b.PrivacyApproved)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "bare object",
			input: `{"intent":"information"}`,
			want:  `{"intent":"information"}`,
		},
		{
			name:  "fenced object",
			input: "```json\n{\"scope\":\"self\"}\n```",
			want:  `{"scope":"self"}`,
		},
		{
			name:  "prose around object",
			input: `Sure! Here you go: {"a":{"b":1}} hope that helps`,
			want:  `{"a":{"b":1}}`,
		},
		{
			name:  "braces inside strings",
			input: `{"msg":"use { and } carefully"}`,
			want:  `{"msg":"use { and } carefully"}`,
		},
		{
			name:    "no object",
			input:   "I could not classify that.",
			wantErr: true,
		},
		{
			name:    "unterminated",
			input:   `{"a": 1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSONObject(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestLocalProviderEchoesFacts(t *testing.T) {
	p := NewLocalProvider()

	res, err := p.GenerateText(context.Background(), &TextRequest{
		Prompt: "Summarize for the user.\nbalance: 12 days\nused: 3 days\n",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "balance: 12 days")
	assert.Equal(t, string(TypeLocal), res.Provider)
}

func TestLocalProviderJSONIsValid(t *testing.T) {
	p := NewLocalProvider()

	res, err := p.GenerateJSON(context.Background(), &JSONRequest{Prompt: "classify"})
	require.NoError(t, err)
	assert.True(t, json.Valid(res.Data))
}
