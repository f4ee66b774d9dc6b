package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/pkg/logger"
)

// HistoryHandler serves the sidebar history read surface.
type HistoryHandler struct {
	chatService *service.ChatService
	logger      *logger.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(chatSvc *service.ChatService, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{
		chatService: chatSvc,
		logger:      log,
	}
}

// List handles GET /api/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	summaries, err := h.chatService.History(ctx, userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chats": summaries,
	})
}

// Details handles GET /api/history/{id}
func (h *HistoryHandler) Details(w http.ResponseWriter, r *http.Request) {
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
