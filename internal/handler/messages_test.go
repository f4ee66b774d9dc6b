package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aiva-platform/chat/internal/llm"
	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/service"
	"github.com/aiva-platform/chat/internal/store"
	"github.com/aiva-platform/chat/pkg/logger"
)

type memChatStore struct {
	chats map[string]*model.Chat
}

func (m *memChatStore) Create(ctx context.Context, chat *model.Chat) error {
	cp := *chat
	m.chats[chat.ID] = &cp
	return nil
}

func (m *memChatStore) Get(ctx context.Context, ownerID, chatID string) (*model.Chat, error) {
	chat, ok := m.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

func (m *memChatStore) List(ctx context.Context, ownerID string, limit, offset int) ([]model.Chat, int64, error) {
	return nil, 0, nil
}

func (m *memChatStore) ListSummaries(ctx context.Context, ownerID string, limit int) ([]model.ChatSummary, error) {
	return nil, nil
}

func (m *memChatStore) Delete(ctx context.Context, ownerID, chatID string) error {
	if _, ok := m.chats[chatID]; !ok {
		return store.ErrNotFound
	}
	delete(m.chats, chatID)
	return nil
}

type memMessageStore struct {
	messages []*model.Message
}

func (m *memMessageStore) Append(ctx context.Context, msg *model.Message) error {
	cp := *msg
	m.messages = append(m.messages, &cp)
	return nil
}

func (m *memMessageStore) Get(ctx context.Context, messageID string) (*model.Message, error) {
	for _, msg := range m.messages {
		if msg.ID == messageID {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memMessageStore) ListByChat(ctx context.Context, chatID string) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (m *memMessageStore) ListLatestByChat(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	return m.ListByChat(ctx, chatID)
}

type stubLLM struct {
	reply string
	err   error
}

func (s *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.reply, Model: "stub"}, nil
}

func (s *stubLLM) Name() string     { return "stub" }
func (s *stubLLM) Models() []string { return nil }

func newSendHandler(t *testing.T, llmClient llm.Client) (*MessageHandler, *memMessageStore) {
	t.Helper()
	log := logger.NewNop()
	chats := &memChatStore{chats: make(map[string]*model.Chat)}
	messages := &memMessageStore{}
	chatSvc := service.NewChatService(chats, messages, nil, log)
	msgSvc := service.NewMessageService(chatSvc, messages, llmClient, nil, nil, "stub", 0, log)
	return NewMessageHandler(msgSvc, log), messages
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	sess := model.Session{UserID: "user-1", DefaultWorkspaceID: "ws-default"}
	return req.WithContext(context.WithValue(req.Context(), middleware.SessionKey, sess))
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) model.APIError {
	t.Helper()
	var apiErr model.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("error body not decodable: %v (raw: %s)", err, rec.Body.String())
	}
	return apiErr
}

func TestSendRequiresAuth(t *testing.T) {
	h, _ := newSendHandler(t, &stubLLM{reply: "ok"})

	req := httptest.NewRequest(http.MethodPost, "/api/chat/message", strings.NewReader(`{"message":"hi"}`))
	rec := httptest.NewRecorder()
	h.Send(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if apiErr := decodeErrorBody(t, rec); apiErr.Kind != model.ErrKindAuth {
		t.Errorf("kind = %s, want auth", apiErr.Kind)
	}
}

func TestSendRejectsMalformedBody(t *testing.T) {
	h, _ := newSendHandler(t, &stubLLM{reply: "ok"})

	rec := httptest.NewRecorder()
	h.Send(rec, authedRequest(http.MethodPost, "/api/chat/message", "{not json"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSendRejectsEmptySubmission(t *testing.T) {
	h, messages := newSendHandler(t, &stubLLM{reply: "ok"})

	for _, body := range []string{`{"message":""}`, `{"message":"   \n\t "}`} {
		rec := httptest.NewRecorder()
		h.Send(rec, authedRequest(http.MethodPost, "/api/chat/message", body))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
		if apiErr := decodeErrorBody(t, rec); apiErr.Kind != model.ErrKindValidation {
			t.Errorf("body %s: kind = %s, want validation", body, apiErr.Kind)
		}
	}
	if len(messages.messages) != 0 {
		t.Errorf("empty submissions persisted %d messages", len(messages.messages))
	}
}

func TestSendAcceptsFilesWithoutText(t *testing.T) {
	h, messages := newSendHandler(t, &stubLLM{reply: "I see the file"})

	body := `{"message":"","files":[{"id":"f1","originalName":"pic.png","url":"/api/files/f1","mimeType":"image/png"}]}`
	rec := httptest.NewRecorder()
	h.Send(rec, authedRequest(http.MethodPost, "/api/chat/message", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if len(messages.messages) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(messages.messages))
	}
	if atts := messages.messages[0].Attachments; len(atts) != 1 || atts[0].FileID != "f1" {
		t.Errorf("user message attachments: %+v", atts)
	}
}

func TestSendSuccessShape(t *testing.T) {
	h, _ := newSendHandler(t, &stubLLM{reply: "Paris"})

	rec := httptest.NewRecorder()
	h.Send(rec, authedRequest(http.MethodPost, "/api/chat/message", `{"message":"Capital of France?"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var resp model.SendMessageResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("response not decodable: %v", err)
	}
	if resp.ChatID == "" {
		t.Error("response missing chatId")
	}
	if resp.UserMessage.ID == "" || resp.UserMessage.Timestamp.IsZero() {
		t.Errorf("user receipt incomplete: %+v", resp.UserMessage)
	}
	if resp.AIResponse.ID == "" || resp.AIResponse.Content != "Paris" {
		t.Errorf("reply receipt incomplete: %+v", resp.AIResponse)
	}
	if resp.UserMessage.ID == resp.AIResponse.ID {
		t.Error("receipts share an id")
	}
}

func TestSendReplyTimeoutSurfacesKind(t *testing.T) {
	h, messages := newSendHandler(t, &stubLLM{err: context.DeadlineExceeded})

	rec := httptest.NewRecorder()
	h.Send(rec, authedRequest(http.MethodPost, "/api/chat/message", `{"message":"hi"}`))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	apiErr := decodeErrorBody(t, rec)
	if apiErr.Kind != model.ErrKindTimeout {
		t.Errorf("kind = %s, want timeout", apiErr.Kind)
	}
	if !strings.Contains(apiErr.Message, "timed out") {
		t.Errorf("message %q should contain %q", apiErr.Message, "timed out")
	}

	// The user turn stays persisted despite the failed reply.
	if len(messages.messages) != 1 || messages.messages[0].Role != model.RoleUser {
		t.Errorf("persisted %d messages after reply failure", len(messages.messages))
	}
}

func TestSendUnknownChat(t *testing.T) {
	h, _ := newSendHandler(t, &stubLLM{reply: "ok"})

	body := `{"message":"hi","chatId":"0191b2f3-1234-7abc-8def-0123456789ab"}`
	rec := httptest.NewRecorder()
	h.Send(rec, authedRequest(http.MethodPost, "/api/chat/message", body))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body: %s)", rec.Code, rec.Body.String())
	}
	if apiErr := decodeErrorBody(t, rec); apiErr.Kind != model.ErrKindNotFound {
		t.Errorf("kind = %s, want not_found", apiErr.Kind)
	}
}
