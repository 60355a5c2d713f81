package server

import (
	"encoding/json"
	"net/http"

	"github.com/pulsehq/pulse/core/conversation"
	"github.com/pulsehq/pulse/core/orchestrator"
)

type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"sessionId"`
	*orchestrator.ChatReply
}

type confirmRequest struct {
	SessionID        string           `json:"sessionId"`
	ConfirmationType string           `json:"confirmationType"`
	ConfirmationData confirmationData `json:"confirmationData"`
}

// confirmationData carries only the proposal id. Everything else about the
// action lives server-side in the held proposal.
type confirmationData struct {
	ProposalID string `json:"proposalId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, conv *conversation.Context) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	sess, err := s.resolveSession(req.SessionID, conv)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	reply, err := s.orch.HandleMessage(r.Context(), sess, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "session", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong handling that message")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{SessionID: sess.ID, ChatReply: reply})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, conv *conversation.Context) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" || req.ConfirmationType == "" || req.ConfirmationData.ProposalID == "" {
		writeError(w, http.StatusBadRequest, "sessionId, confirmationType, and confirmationData.proposalId are required")
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return
	}
	if sess.Ctx.UserID != conv.UserID {
		writeError(w, http.StatusForbidden, "session does not belong to caller")
		return
	}

	reply, err := s.orch.HandleConfirm(r.Context(), sess, req.ConfirmationType, req.ConfirmationData.ProposalID)
	if err != nil {
		s.logger.Error("confirm failed", "session", sess.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "something went wrong executing that action")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

type healthResponse struct {
	Status    string `json:"status"`
	Sessions  int    `json:"sessions"`
	Providers any    `json:"providers"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Sessions:  s.sessions.Len(),
		Providers: s.router.Health().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
