// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/pkg/logger"
)

// MessageHandler handles the message send endpoint.
type MessageHandler struct {
	messageService *service.MessageService
	logger         *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(msgSvc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: msgSvc,
		logger:         log,
	}
}

// Send handles POST /api/chat/message
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := middleware.GetSession(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrKindAuth, "authentication required")
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, "invalid request body")
		return
	}

	// Same guard the client applies before showing placeholders; the server
	// does not trust it.
	if err := middleware.ValidateSubmission(req.Message, len(req.Files)); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
		return
	}
	if req.ChatID != "" {
		if err := middleware.ValidateChatID(req.ChatID); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
			return
		}
	}

	resp, err := h.messageService.Send(ctx, sess, &req)
	if err != nil {
		h.logger.Error("send failed",
			zap.Error(err),
			zap.String("chat_id", req.ChatID),
			zap.String("user_id", sess.UserID),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
