package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiva-platform/chat/internal/llm"
	"github.com/aiva-platform/chat/internal/middleware"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/pkg/logger"
	"github.com/aiva-platform/chat/pkg/metrics"
)

const (
	// replyContextMessages caps how much history goes to the model.
	replyContextMessages = 50

	assistantPrompt = "You are AIVA, a helpful assistant. Answer clearly and concisely."
	dataAgentPrompt = assistantPrompt + " You have access to the user's workspace data; prefer grounded answers over speculation."
)

// MessageService handles the send pipeline.
type MessageService struct {
	chatService *ChatService
	messages    MessageStore
	llmClient   llm.Client
	publisher   Publisher
	history     HistoryCache
	replyModel  string
	replyWait   time.Duration
	logger      *logger.Logger
}

// NewMessageService creates a new message service. Publisher and history
// cache may be nil.
func NewMessageService(
	chatService *ChatService,
	messages MessageStore,
	llmClient llm.Client,
	publisher Publisher,
	history HistoryCache,
	replyModel string,
	replyWait time.Duration,
	log *logger.Logger,
) *MessageService {
	return &MessageService{
		chatService: chatService,
		messages:    messages,
		llmClient:   llmClient,
		publisher:   publisher,
		history:     history,
		replyModel:  replyModel,
		replyWait:   replyWait,
		logger:      log,
	}
}

// Send runs one send cycle: resolve the target chat, persist the user
// message, generate the assistant reply, persist it, and return both
// receipts. A reply failure after the user message was persisted is not
// rolled back; the chat keeps the dangling user turn.
func (s *MessageService) Send(ctx context.Context, sess model.Session, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	trimmed := strings.TrimSpace(req.Message)

	workspaceID := sess.DefaultWorkspaceID
	if middleware.ValidWorkspaceID(req.WorkspaceID) {
		workspaceID = req.WorkspaceID
	}

	chat, err := s.chatService.EnsureChat(ctx, sess, req.ChatID, workspaceID, trimmed)
	if err != nil {
		return nil, err
	}

	userMsg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ChatID:    chat.ID,
		Role:      model.RoleUser,
		Content:   trimmed,
		CreatedAt: time.Now().UTC(),
	}
	for _, ref := range req.Files {
		userMsg.Attachments = append(userMsg.Attachments, model.Attachment{
			ID:           uuid.Must(uuid.NewV7()).String(),
			MessageID:    userMsg.ID,
			FileID:       ref.ID,
			OriginalName: ref.OriginalName,
			URL:          ref.URL,
			MimeType:     ref.MimeType,
		})
	}

	if err := s.messages.Append(ctx, userMsg); err != nil {
		s.logger.Error("failed to persist user message", zap.Error(err), zap.String("chat_id", chat.ID))
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to store message")
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	s.publish(ctx, chat, userMsg)

	reply, err := s.generateReply(ctx, chat.ID, req.UseDataAgent)
	if err != nil {
		kind := llm.Classify(err)
		s.logger.Error("reply generation failed",
			zap.Error(err),
			zap.String("chat_id", chat.ID),
			zap.String("kind", string(kind)),
		)
		metrics.ReplyDuration.WithLabelValues(s.replyModel, "error").Observe(0)
		s.invalidateHistory(ctx, sess.UserID)
		return nil, model.NewAPIError(http.StatusBadGateway, kind, llm.StatusMessage(kind))
	}
	metrics.RecordReply(reply.Model, "success", float64(reply.LatencyMs)/1000.0, reply.TokensIn, reply.TokensOut)

	assistantMsg := &model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ChatID:    chat.ID,
		Role:      model.RoleAssistant,
		Content:   reply.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Append(ctx, assistantMsg); err != nil {
		s.logger.Error("failed to persist assistant message", zap.Error(err), zap.String("chat_id", chat.ID))
		s.invalidateHistory(ctx, sess.UserID)
		return nil, model.NewAPIError(http.StatusInternalServerError, model.ErrKindPersistence, "failed to store response")
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	s.publish(ctx, chat, assistantMsg)
	s.invalidateHistory(ctx, sess.UserID)

	return &model.SendMessageResponse{
		ChatID: chat.ID,
		UserMessage: model.MessageReceipt{
			ID:        userMsg.ID,
			Timestamp: userMsg.CreatedAt,
		},
		AIResponse: model.ReplyReceipt{
			ID:        assistantMsg.ID,
			Content:   assistantMsg.Content,
			Timestamp: assistantMsg.CreatedAt,
		},
	}, nil
}

// generateReply asks the LLM for the assistant turn using recent chat
// history, the just-persisted user message included.
func (s *MessageService) generateReply(ctx context.Context, chatID string, useDataAgent bool) (*llm.CompletionResponse, error) {
	if s.llmClient == nil {
		return nil, fmt.Errorf("no AI model configuration available")
	}

	history, err := s.messages.ListLatestByChat(ctx, chatID, replyContextMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to load reply context: %w", err)
	}

	prompt := assistantPrompt
	if useDataAgent {
		prompt = dataAgentPrompt
	}

	chatMessages := make([]llm.ChatMessage, 0, len(history)+1)
	chatMessages = append(chatMessages, llm.ChatMessage{Role: "system", Content: prompt})
	for _, msg := range history {
		content := msg.Content
		if len(msg.Attachments) > 0 {
			names := make([]string, len(msg.Attachments))
			for i, a := range msg.Attachments {
				names[i] = a.OriginalName
			}
			content += "\n[attached: " + strings.Join(names, ", ") + "]"
		}
		chatMessages = append(chatMessages, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: content,
		})
	}

	replyCtx := ctx
	if s.replyWait > 0 {
		var cancel context.CancelFunc
		replyCtx, cancel = context.WithTimeout(ctx, s.replyWait)
		defer cancel()
	}

	return s.llmClient.Complete(replyCtx, &llm.CompletionRequest{
		Model:    s.replyModel,
		Messages: chatMessages,
	})
}

func (s *MessageService) publish(ctx context.Context, chat *model.Chat, msg *model.Message) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMessage(ctx, chat.ID, chat.OwnerID, msg); err != nil {
		s.logger.Warn("failed to publish message event", zap.Error(err), zap.String("message_id", msg.ID))
	}
}

func (s *MessageService) invalidateHistory(ctx context.Context, userID string) {
	if s.history == nil {
		return
	}
	if err := s.history.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("history cache invalidation failed", zap.Error(err))
	}
}
