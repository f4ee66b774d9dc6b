package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/pkg/logger"
)

const maxMultipartMemory = 32 << 20 // 32 MiB

// FileHandler handles file upload and download endpoints.
type FileHandler struct {
	fileService *service.FileService
	logger      *logger.Logger
}

// NewFileHandler creates a new file handler.
func NewFileHandler(fileSvc *service.FileService, log *logger.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileSvc,
		logger:      log,
	}
}

// Upload handles POST /api/files/upload with multipart/form-data.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := middleware.GetSession(ctx)
	if !ok {
		writeError(w, http.StatusUnauthorized, model.ErrKindAuth, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, "file field required")
		return
	}
	defer file.Close()

	chatID := r.FormValue("chatId")
	if chatID != "" {
		if err := middleware.ValidateChatID(chatID); err != nil {
			writeError(w, http.StatusBadRequest, model.ErrKindValidation, err.Error())
			return
		}
	}

	ref, err := h.fileService.Upload(ctx, sess, header.Filename, header.Header.Get("Content-Type"), chatID, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"file": ref,
	})
}

// Download handles GET /api/files/{id}
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	fileID := chi.URLParam(r, "id")

	if err := middleware.ValidateMessageID(fileID); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrKindValidation, "invalid file ID format")
		return
	}

	file, rc, err := h.fileService.Get(ctx, userID, fileID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.OriginalName+`"`)
	io.Copy(w, rc)
}

// List handles GET /api/files
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	files, err := h.fileService.List(ctx, userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
	})
}
