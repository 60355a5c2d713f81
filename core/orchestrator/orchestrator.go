// Package orchestrator ties the pipeline together: classify the message,
// check permissions, then either aggregate and synthesize an answer or
// propose an action for confirmation. Confirmed actions execute only from
// the server-held proposal.
package orchestrator

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/pulsehq/pulse/core/actions"
	"github.com/pulsehq/pulse/core/aggregate"
	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/errors"
	"github.com/pulsehq/pulse/core/intent"
	"github.com/pulsehq/pulse/core/permissions"
	"github.com/pulsehq/pulse/core/synthesis"
)

// BusyMessage is returned when a session already has a turn in flight.
const BusyMessage = "I'm still working on your previous message. Give me a moment."

// StaleConfirmMessage asks the user to restate after a stale or mismatched
// confirmation. Nothing was executed.
const StaleConfirmMessage = "That action is no longer pending, so nothing was changed. Please restate the request if you still want it."

// CancelledMessage acknowledges a declined proposal.
const CancelledMessage = "Okay, I've cancelled that. Nothing was changed."

// cancelPattern recognizes a decline while a proposal awaits confirmation.
// It is only consulted when the session has a pending action.
var cancelPattern = regexp.MustCompile(`(?i)^\s*(?:cancel|never\s?mind|forget\s+it|stop|no\b|don'?t|do\s+not)`)

// ChatReply is the outcome of one chat turn.
type ChatReply struct {
	Message             string         `json:"message"`
	Actions             []string       `json:"actions,omitempty"`
	Suggestions         []string       `json:"suggestions,omitempty"`
	Data                map[string]any `json:"data,omitempty"`
	Confidence          float64        `json:"confidence"`
	Provider            string         `json:"provider,omitempty"`
	RequiresConfirm     bool           `json:"requiresConfirmation,omitempty"`
	ConfirmationType    string         `json:"confirmationType,omitempty"`
	ConfirmationData    map[string]any `json:"confirmationData,omitempty"`
	ConfirmationMessage string         `json:"confirmationMessage,omitempty"`
}

// ConfirmReply is the outcome of one confirmation.
type ConfirmReply struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Orchestrator runs the conversational pipeline.
type Orchestrator struct {
	classifier  *intent.Classifier
	aggregator  *aggregate.Aggregator
	synthesizer *synthesis.Synthesizer
	proposer    *actions.Proposer
	gate        *actions.Gate
	executor    *actions.Executor
	logger      *slog.Logger
}

// Config wires the orchestrator's collaborators. All fields except Logger
// are required.
type Config struct {
	Classifier  *intent.Classifier
	Aggregator  *aggregate.Aggregator
	Synthesizer *synthesis.Synthesizer
	Proposer    *actions.Proposer
	Gate        *actions.Gate
	Executor    *actions.Executor
	Logger      *slog.Logger // Optional, uses slog.Default() if nil
}

// New builds an orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Orchestrator{
		classifier:  cfg.Classifier,
		aggregator:  cfg.Aggregator,
		synthesizer: cfg.Synthesizer,
		proposer:    cfg.Proposer,
		gate:        cfg.Gate,
		executor:    cfg.Executor,
		logger:      cfg.Logger,
	}
}

// HandleMessage runs one chat turn for the session.
func (o *Orchestrator) HandleMessage(ctx context.Context, sess *conversation.Session, message string) (*ChatReply, error) {
	if !sess.BeginTurn() {
		return &ChatReply{Message: BusyMessage}, nil
	}
	defer sess.EndTurn()

	conv := sess.Ctx
	conv.Append(conversation.Message{Role: conversation.MessageRoleUser, Content: message})

	if p := o.gate.Pending(sess.ID); p != nil && cancelPattern.MatchString(message) {
		o.gate.Clear(sess.ID)
		o.logger.Info("proposal cancelled",
			"session", sess.ID,
			"type", p.Type,
			"proposal", p.ID)
		conv.Append(conversation.Message{
			Role:    conversation.MessageRoleAssistant,
			Content: CancelledMessage,
		})
		return &ChatReply{Message: CancelledMessage}, nil
	}

	it, err := o.classifier.Classify(ctx, message, conv)
	if err != nil {
		return nil, err
	}

	o.logger.Info("message classified",
		"session", sess.ID,
		"kind", string(it.Kind),
		"scope", string(it.Scope),
		"sources", it.DataSources,
		"method", it.Method,
		"confidence", it.Confidence)

	// Authorization comes strictly before any data read or proposal build.
	decision := permissions.Evaluate(conv.Role, it)
	if decision.Allowed && it.Kind == intent.KindAction {
		decision = permissions.EvaluateAction(conv.Role, it.ActionType)
	}
	if !decision.Allowed {
		o.logger.Info("request denied",
			"session", sess.ID,
			"role", string(conv.Role),
			"reason", decision.Reason)
		return o.reply(conv, it, &ChatReply{
			Message:    permissions.RefusalMessage,
			Confidence: it.Confidence,
		}), nil
	}

	if it.Kind == intent.KindAction {
		return o.handleAction(ctx, sess, it, message)
	}
	return o.handleQuery(ctx, sess, it, message)
}

func (o *Orchestrator) handleAction(ctx context.Context, sess *conversation.Session, it *intent.Intent, message string) (*ChatReply, error) {
	proposal, err := o.proposer.Propose(ctx, sess.ID, it.ActionType, message, sess.Ctx)
	if err != nil {
		if errors.IsKind(err, errors.KindActionValidation) {
			// The validation message is written for the user.
			return o.reply(sess.Ctx, it, &ChatReply{
				Message:    err.Error(),
				Confidence: it.Confidence,
			}), nil
		}
		return nil, err
	}

	o.gate.Put(proposal)

	return o.reply(sess.Ctx, it, &ChatReply{
		Message:             proposal.Message,
		Actions:             []string{proposal.Type},
		Confidence:          it.Confidence,
		RequiresConfirm:     true,
		ConfirmationType:    proposal.Type,
		ConfirmationData:    map[string]any{"proposalId": proposal.ID},
		ConfirmationMessage: proposal.Message,
	}), nil
}

func (o *Orchestrator) handleQuery(ctx context.Context, sess *conversation.Session, it *intent.Intent, message string) (*ChatReply, error) {
	res, err := o.aggregator.Collect(ctx, it, sess.Ctx)
	if err != nil {
		return nil, err
	}

	response, err := o.synthesizer.Synthesize(ctx, message, it, res, sess.Ctx)
	if err != nil {
		return nil, err
	}

	return o.reply(sess.Ctx, it, &ChatReply{
		Message:     response.Text,
		Suggestions: it.Suggestions,
		Data:        res.Data,
		Confidence:  it.Confidence,
		Provider:    response.Provider,
	}), nil
}

// HandleConfirm executes the session's pending proposal if the supplied
// identifiers match it. Anything stale is a no-op.
func (o *Orchestrator) HandleConfirm(ctx context.Context, sess *conversation.Session, confirmationType, proposalID string) (*ConfirmReply, error) {
	proposal, err := o.gate.Take(sess.ID, confirmationType, proposalID)
	if err != nil {
		o.logger.Info("stale confirmation ignored",
			"session", sess.ID,
			"type", confirmationType,
			"proposal", proposalID)
		return &ConfirmReply{Success: false, Message: StaleConfirmMessage}, nil
	}

	result, err := o.executor.Execute(ctx, proposal, sess.Ctx)
	if err != nil {
		sess.Ctx.Append(conversation.Message{
			Role:    conversation.MessageRoleAssistant,
			Content: "The action could not be completed.",
		})
		kind, _ := errors.KindOf(err)
		return &ConfirmReply{
			Success: false,
			Message: "The action could not be completed. Nothing further was changed.",
			Error:   kind.String(),
		}, nil
	}

	sess.Ctx.Append(conversation.Message{
		Role:    conversation.MessageRoleAssistant,
		Content: result.Message,
		Metadata: &conversation.Metadata{
			Actions: []string{result.Type},
		},
	})

	return &ConfirmReply{
		Success: result.Status == actions.StatusSuccess,
		Message: result.Message,
		Data:    result.Details,
	}, nil
}

// reply appends the assistant message to the history and returns it.
func (o *Orchestrator) reply(conv *conversation.Context, it *intent.Intent, r *ChatReply) *ChatReply {
	conv.Append(conversation.Message{
		Role:    conversation.MessageRoleAssistant,
		Content: r.Message,
		Metadata: &conversation.Metadata{
			Actions:     r.Actions,
			DataSources: it.DataSources,
			Confidence:  it.Confidence,
		},
	})
	return r
}
