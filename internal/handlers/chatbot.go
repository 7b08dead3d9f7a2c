package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"disaster-bot/internal/models"
	"disaster-bot/internal/services"
)

const (
	maxChatText    = 2000
	maxChatHistory = 20
)

type chatReplier interface {
	Reply(ctx context.Context, req models.ChatRequest) (*models.ChatReply, error)
}

type ChatbotHandler struct {
	chat chatReplier
}

func NewChatbotHandler(chat chatReplier) *ChatbotHandler {
	return &ChatbotHandler{chat: chat}
}

// Message handles POST /bot/v1/message.
func (h *ChatbotHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, []models.ValidationIssue{decodeIssue(err)})
		return
	}

	v := &validator{}
	v.stringLen("text", req.Text, 1, maxChatText)
	if len(req.History) > maxChatHistory {
		v.add("history", "Array must contain at most %d element(s)", maxChatHistory)
	}
	if len(req.ConversationHistory) > maxChatHistory {
		v.add("conversation_history", "Array must contain at most %d element(s)", maxChatHistory)
	}
	if !v.ok() {
		writeInvalidRequest(w, v.issues)
		return
	}

	reply, err := h.chat.Reply(r.Context(), req)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Fields["text"])
			return
		}
		log.Printf("[Chat] Error in message handler: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func writeInvalidRequest(w http.ResponseWriter, issues []models.ValidationIssue) {
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request",
		Details: issues,
	})
}
