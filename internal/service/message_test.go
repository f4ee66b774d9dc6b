package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/pkg/logger"
)

func testSession() model.Session {
	return model.Session{
		UserID:             "user-1",
		DisplayName:        "Test User",
		Email:              "test@example.com",
		Role:               "user",
		Provider:           "local",
		DefaultWorkspaceID: "default-ws",
	}
}

func TestSendCreatesChatAndPersistsBothTurns(t *testing.T) {
	chats := newFakeChatStore()
	messages := &fakeMessageStore{}
	llmClient := &fakeLLM{reply: "Hi, how can I help?"}
	svc := newMessageServiceForTest(chats, messages, llmClient)

	resp, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{Message: "Hello"})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if resp.ChatID == "" {
		t.Fatal("response carries no chat id")
	}
	if _, ok := chats.chats[resp.ChatID]; !ok {
		t.Fatalf("chat %s not created", resp.ChatID)
	}

	if len(messages.appended) != 2 {
		t.Fatalf("persisted %d messages, want 2", len(messages.appended))
	}
	user, assistant := messages.appended[0], messages.appended[1]
	if user.Role != model.RoleUser || user.Content != "Hello" {
		t.Errorf("user turn: %+v", user)
	}
	if assistant.Role != model.RoleAssistant || assistant.Content != "Hi, how can I help?" {
		t.Errorf("assistant turn: %+v", assistant)
	}

	if resp.UserMessage.ID != user.ID {
		t.Errorf("user receipt id = %s, want %s", resp.UserMessage.ID, user.ID)
	}
	if resp.AIResponse.ID != assistant.ID || resp.AIResponse.Content != assistant.Content {
		t.Errorf("reply receipt: %+v", resp.AIResponse)
	}
	if user.ID == assistant.ID {
		t.Error("both turns share an id")
	}
}

func TestSendUsesExistingChat(t *testing.T) {
	chats := newFakeChatStore()
	chats.chats["chat-9"] = &model.Chat{ID: "chat-9", OwnerID: "user-1", Title: "existing"}
	messages := &fakeMessageStore{}
	svc := newMessageServiceForTest(chats, messages, &fakeLLM{reply: "ok"})

	resp, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{
		Message: "follow-up",
		ChatID:  "chat-9",
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp.ChatID != "chat-9" {
		t.Errorf("response chat id = %s, want chat-9", resp.ChatID)
	}
	if len(chats.chats) != 1 {
		t.Errorf("a new chat was created: %d chats", len(chats.chats))
	}
}

func TestSendRejectsForeignChat(t *testing.T) {
	chats := newFakeChatStore()
	chats.chats["chat-9"] = &model.Chat{ID: "chat-9", OwnerID: "someone-else"}
	svc := newMessageServiceForTest(chats, &fakeMessageStore{}, &fakeLLM{reply: "ok"})

	_, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{
		Message: "hi",
		ChatID:  "chat-9",
	})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("err = %v, want 404 not_found", err)
	}
}

func TestSendReplyFailureKeepsUserTurn(t *testing.T) {
	chats := newFakeChatStore()
	messages := &fakeMessageStore{}
	svc := newMessageServiceForTest(chats, messages, &fakeLLM{err: context.DeadlineExceeded})

	_, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{Message: "slow one"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *model.APIError", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Kind != model.ErrKindTimeout {
		t.Errorf("got %d/%s, want 502/timeout", apiErr.Status, apiErr.Kind)
	}
	if !strings.Contains(apiErr.Message, "timed out") {
		t.Errorf("message %q should mention the timeout", apiErr.Message)
	}

	// The user turn stays persisted; the chat shows a dangling user message.
	if len(messages.appended) != 1 || messages.appended[0].Role != model.RoleUser {
		t.Errorf("persisted messages after reply failure: %d", len(messages.appended))
	}
}

func TestSendWithoutModelConfigured(t *testing.T) {
	svc := newMessageServiceForTest(newFakeChatStore(), &fakeMessageStore{}, nil)

	_, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{Message: "hi"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != model.ErrKindConfig {
		t.Fatalf("err = %v, want config kind", err)
	}
}

func TestSendAssistantPersistFailure(t *testing.T) {
	messages := &fakeMessageStore{failOn: 2}
	svc := newMessageServiceForTest(newFakeChatStore(), messages, &fakeLLM{reply: "ok"})

	_, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{Message: "hi"})
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError || apiErr.Kind != model.ErrKindPersistence {
		t.Fatalf("err = %v, want 500 persistence", err)
	}
}

func TestSendPersistsAttachments(t *testing.T) {
	messages := &fakeMessageStore{}
	svc := newMessageServiceForTest(newFakeChatStore(), messages, &fakeLLM{reply: "got it"})

	files := []model.FileRef{
		{ID: "f1", OriginalName: "report.pdf", URL: "/api/files/f1", MimeType: "application/pdf"},
	}
	_, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{
		Message: "see attachment",
		Files:   files,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	atts := messages.appended[0].Attachments
	if len(atts) != 1 {
		t.Fatalf("persisted %d attachments, want 1", len(atts))
	}
	if atts[0].FileID != "f1" || atts[0].OriginalName != "report.pdf" {
		t.Errorf("attachment: %+v", atts[0])
	}
}

func TestSendWorkspaceResolution(t *testing.T) {
	canonical := strings.Repeat("0123456789ab", 3) // 36 chars, but not a uuid
	tests := []struct {
		name        string
		workspaceID string
		want        string
	}{
		{"absent uses session default", "", "default-ws"},
		{"wrong length uses session default", "short", "default-ws"},
		{"non-uuid 36 chars uses session default", canonical, "default-ws"},
		{"canonical id wins", "0191b2f3-1234-7abc-8def-0123456789ab", "0191b2f3-1234-7abc-8def-0123456789ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chats := newFakeChatStore()
			svc := newMessageServiceForTest(chats, &fakeMessageStore{}, &fakeLLM{reply: "ok"})

			resp, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{
				Message:     "hi",
				WorkspaceID: tt.workspaceID,
			})
			if err != nil {
				t.Fatalf("Send returned error: %v", err)
			}
			if got := chats.chats[resp.ChatID].WorkspaceID; got != tt.want {
				t.Errorf("chat workspace = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSendDataAgentPrompt(t *testing.T) {
	llmClient := &fakeLLM{reply: "grounded answer"}
	svc := newMessageServiceForTest(newFakeChatStore(), &fakeMessageStore{}, llmClient)

	_, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{
		Message:      "query my data",
		UseDataAgent: true,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	if llmClient.last == nil || len(llmClient.last.Messages) == 0 {
		t.Fatal("no completion request issued")
	}
	system := llmClient.last.Messages[0]
	if system.Role != "system" || !strings.Contains(system.Content, "workspace data") {
		t.Errorf("system prompt without data-agent wording: %q", system.Content)
	}
}

func TestSendPublishesBothTurns(t *testing.T) {
	chats := newFakeChatStore()
	messages := &fakeMessageStore{}
	pub := &fakePublisher{}
	log := logger.NewNop()
	chatSvc := NewChatService(chats, messages, nil, log)
	svc := NewMessageService(chatSvc, messages, &fakeLLM{reply: "ok"}, pub, nil, "test-model", time.Second, log)

	if _, err := svc.Send(context.Background(), testSession(), &model.SendMessageRequest{Message: "hi"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(pub.messages) != 2 {
		t.Errorf("published %d message events, want 2", len(pub.messages))
	}
}

// newMessageServiceForTest builds a service around fakes. A nil llmClient
// models a deployment with no provider configured.
func newMessageServiceForTest(chats *fakeChatStore, messages *fakeMessageStore, llmClient *fakeLLM) *MessageService {
	log := logger.NewNop()
	chatSvc := NewChatService(chats, messages, nil, log)
	if llmClient == nil {
		return NewMessageService(chatSvc, messages, nil, nil, nil, "test-model", 0, log)
	}
	return NewMessageService(chatSvc, messages, llmClient, nil, nil, "test-model", 0, log)
}
