package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/notify"
	"github.com/pulsehq/pulse/core/store"
)

// Handler executes one action type against the store. Handlers validate
// before mutating: a validation failure must leave no partial writes.
type Handler interface {
	Type() string
	Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error)
}

// Executor dispatches confirmed proposals to their handlers and appends
// every outcome to the audit trail.
type Executor struct {
	handlers map[string]Handler
	store    store.DataStore
	logger   *slog.Logger
}

// ExecutorConfig holds executor construction options.
type ExecutorConfig struct {
	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// NewExecutor builds an executor with the standard handler set installed.
func NewExecutor(ds store.DataStore, notifier notify.Notifier, cfg ExecutorConfig) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(cfg.Logger)
	}

	e := &Executor{
		handlers: make(map[string]Handler),
		store:    ds,
		logger:   cfg.Logger,
	}

	h := &handlerSet{store: ds, notifier: notifier, logger: cfg.Logger}
	for _, handler := range h.all() {
		e.Register(handler)
	}
	return e
}

// Register installs a handler, replacing any previous handler for the same
// action type.
func (e *Executor) Register(h Handler) {
	e.handlers[h.Type()] = h
}

// Execute runs a confirmed proposal. Validation failures come back as a
// failed Result with a user-safe message; infrastructure failures come back
// as an error. Both are audited.
func (e *Executor) Execute(ctx context.Context, p *Proposal, conv *conversation.Context) (*Result, error) {
	handler, ok := e.handlers[p.Type]
	if !ok {
		return nil, errors.New(errors.KindUnknownAction,
			fmt.Sprintf("no handler for action %q", p.Type))
	}

	result, err := handler.Execute(ctx, p, conv)
	switch {
	case err == nil:
		e.audit(ctx, p, conv, result.Status)
		return result, nil
	case errors.IsKind(err, errors.KindActionValidation):
		e.audit(ctx, p, conv, StatusFailed)
		return &Result{Type: p.Type, Status: StatusFailed, Message: err.Error()}, nil
	default:
		e.audit(ctx, p, conv, StatusFailed)
		e.logger.Error("action execution failed",
			"action", p.Type,
			"proposal", p.ID,
			"error", err)
		return nil, errors.Wrap(errors.KindActionExecution, "action execution failed", err)
	}
}

func (e *Executor) audit(ctx context.Context, p *Proposal, conv *conversation.Context, status string) {
	payload, err := json.Marshal(p.Params)
	if err != nil {
		payload = []byte("{}")
	}

	record := &store.AuditRecord{
		ID:         uuid.New().String(),
		SessionID:  p.SessionID,
		ActorID:    conv.UserID,
		ActionType: p.Type,
		Payload:    string(payload),
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.store.Audit().Append(ctx, record); err != nil {
		e.logger.Error("audit append failed",
			"action", p.Type,
			"error", err)
	}
}

func stringParam(p *Proposal, key string) string {
	v, _ := p.Params[key].(string)
	return v
}
