package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/pkg/logger"
)

// ChatHandler handles chat CRUD endpoints.
type ChatHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chatSvc *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// Create handles POST /api/chat
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := middleware.GetSession(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrKindAuth, "authentication required")
		return
	}

	var req model.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, "invalid request body")
		return
	}
	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
		return
	}

	chat, err := h.chatService.Create(ctx, sess, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, chat)
}

// List handles GET /api/chat
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	resp, err := h.chatService.List(ctx, userID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Messages handles GET /api/chat/{id}/messages
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.GetSession(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
		return
	}

	resp, err := h.chatService.ChatWithMessages(ctx, sess, chatID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api/chat/{id}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	if err := middleware.ValidateChatID(chatID); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
		return
	}

	if err := h.chatService.Delete(ctx, userID, chatID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
