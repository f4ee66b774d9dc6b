package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/pkg/logger"
)

// ActionHandler handles message reaction endpoints.
type ActionHandler struct {
	actionService *service.ActionService
	logger        *logger.Logger
}

// NewActionHandler creates a new action handler.
func NewActionHandler(actionSvc *service.ActionService, log *logger.Logger) *ActionHandler {
	return &ActionHandler{
		actionService: actionSvc,
		logger:        log,
	}
}

// Add handles POST /api/message-actions/{messageID}
func (h *ActionHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	messageID := chi.URLParam(r, "messageID")

	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
		return
	}

	var req model.MessageActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, "invalid request body")
		return
	}

	action, err := h.actionService.Add(ctx, userID, messageID, req.Action)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, action)
}

// Remove handles DELETE /api/message-actions/{messageID}/{action}
func (h *ActionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	messageID := chi.URLParam(r, "messageID")
	actionType := model.ActionType(chi.URLParam(r, "action"))

	if err := middleware.ValidateMessageID(messageID); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
		return
	}

	action, err := h.actionService.Remove(ctx, userID, messageID, actionType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, action)
}

// listFlag maps the route suffix of the list endpoints to an action type.
var listFlag = map[string]model.ActionType{
	"liked":      model.ActionLike,
	"disliked":   model.ActionDislike,
	"starred":    model.ActionStar,
	"bookmarked": model.ActionBookmark,
}

// List handles GET /api/message-actions/{flag} for the four flag lists.
func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	flag, ok := listFlag[chi.URLParam(r, "flag")]
	if !ok {
		writeError(w, http.StatusNotFound, model.ErrKindNotFound, "unknown action list")
		return
	}

	messages, err := h.actionService.ListByFlag(ctx, userID, flag)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ActionedMessagesResponse{Messages: messages})
}
