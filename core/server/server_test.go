package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/pulse/core/actions"
	"github.com/pulsehq/pulse/core/aggregate"
	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/intent"
	"github.com/pulsehq/pulse/core/llm"
	"github.com/pulsehq/pulse/core/notify"
	"github.com/pulsehq/pulse/core/orchestrator"
	"github.com/pulsehq/pulse/core/providers"
	"github.com/pulsehq/pulse/core/store"
	"github.com/pulsehq/pulse/core/synthesis"
)

type cannedProvider struct{}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) GenerateText(ctx context.Context, req *providers.TextRequest) (*providers.TextResult, error) {
	return &providers.TextResult{Text: "Here is your answer.", Provider: p.Name()}, nil
}

func (p *cannedProvider) GenerateJSON(ctx context.Context, req *providers.JSONRequest) (*providers.JSONResult, error) {
	return nil, fmt.Errorf("unused")
}

func (p *cannedProvider) ValidateConfig() error { return nil }
func (p *cannedProvider) Close() error          { return nil }

func testServer(t *testing.T) (*Server, store.DataStore) {
	t.Helper()

	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Employees().Create(ctx, &store.Employee{
		ID: "e-1", UserID: "u-1", Name: "Avery Quinn", Email: "avery@example.com", Department: "Engineering",
	}))
	require.NoError(t, s.Employees().Create(ctx, &store.Employee{
		ID: "e-mgr", UserID: "u-mgr", Name: "Blake Morgan", Email: "blake@example.com", Department: "Engineering",
	}))
	require.NoError(t, s.PTO().Create(ctx, &store.PTORequest{
		ID: "123", EmployeeID: "e-1", Days: 2,
		StartDate: time.Now(), EndDate: time.Now().Add(48 * time.Hour),
	}))

	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(&cannedProvider{}, 1, true))
	router := llm.NewRouter(registry, llm.Config{})

	sessions, err := conversation.NewManager(conversation.ManagerConfig{})
	require.NoError(t, err)

	orch := orchestrator.New(orchestrator.Config{
		Classifier:  intent.NewClassifierWithStages(nil, intent.NewRulesStage(), intent.NewHeuristicStage()),
		Aggregator:  aggregate.NewAggregator(s, aggregate.Config{}),
		Synthesizer: synthesis.NewSynthesizer(router, synthesis.Config{}),
		Proposer:    actions.NewProposer(s),
		Gate:        actions.NewGate(),
		Executor:    actions.NewExecutor(s, notify.NewRecorder(), actions.ExecutorConfig{}),
	})

	return New(orch, sessions, s, router, Config{}), s
}

func doJSON(t *testing.T, h http.Handler, method, path string, headers map[string]string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func employeeHeaders() map[string]string {
	return map[string]string{headerUserID: "u-1", headerRole: "EMPLOYEE"}
}

func managerHeaders() map[string]string {
	return map[string]string{headerUserID: "u-mgr", headerRole: "MANAGER"}
}

func TestChatRequiresIdentity(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", nil,
		map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatRejectsUnknownIdentity(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat",
		map[string]string{headerUserID: "u-ghost"},
		map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatAnswersAndIssuesSession(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", employeeHeaders(),
		map[string]string{"message": "What's my PTO balance?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string         `json:"sessionId"`
		Message   string         `json:"message"`
		Data      map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Here is your answer.", resp.Message)
	assert.Contains(t, resp.Data, "pto")
}

func TestChatRequiresMessage(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", employeeHeaders(),
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmFlowOverHTTP(t *testing.T) {
	srv, s := testServer(t)
	ctx := context.Background()

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", managerHeaders(),
		map[string]string{"message": "approve PTO request #123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var chat struct {
		SessionID           string         `json:"sessionId"`
		RequiresConfirm     bool           `json:"requiresConfirmation"`
		ConfirmationType    string         `json:"confirmationType"`
		ConfirmationData    map[string]any `json:"confirmationData"`
		ConfirmationMessage string         `json:"confirmationMessage"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))
	require.True(t, chat.RequiresConfirm)
	require.Equal(t, "approve_pto", chat.ConfirmationType)
	proposalID := chat.ConfirmationData["proposalId"].(string)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/chat/confirm", managerHeaders(),
		map[string]any{
			"sessionId":        chat.SessionID,
			"confirmationType": "approve_pto",
			"confirmationData": map[string]string{"proposalId": proposalID},
		})
	require.Equal(t, http.StatusOK, rec.Code)

	var confirm struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirm))
	assert.True(t, confirm.Success)

	req, err := s.PTO().Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, store.PTOStatusApproved, req.Status)
}

func TestConfirmRejectsForeignSession(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/chat", managerHeaders(),
		map[string]string{"message": "approve PTO request #123"})
	require.Equal(t, http.StatusOK, rec.Code)

	var chat struct {
		SessionID        string         `json:"sessionId"`
		ConfirmationData map[string]any `json:"confirmationData"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chat))

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/chat/confirm", employeeHeaders(),
		map[string]any{
			"sessionId":        chat.SessionID,
			"confirmationType": "approve_pto",
			"confirmationData": map[string]string{"proposalId": chat.ConfirmationData["proposalId"].(string)},
		})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
}
