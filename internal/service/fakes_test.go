package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aiva-platform/chat/internal/cache"
	"github.com/aiva-platform/chat/internal/events"
	"github.com/aiva-platform/chat/internal/llm"
	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/internal/store"
)

type fakeChatStore struct {
	chats     map[string]*model.Chat
	createErr error
	summaries []model.ChatSummary
	listCalls int
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: make(map[string]*model.Chat)}
}

func (f *fakeChatStore) Create(ctx context.Context, chat *model.Chat) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *chat
	f.chats[chat.ID] = &cp
	return nil
}

func (f *fakeChatStore) Get(ctx context.Context, ownerID, chatID string) (*model.Chat, error) {
	chat, ok := f.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	cp := *chat
	return &cp, nil
}

func (f *fakeChatStore) List(ctx context.Context, ownerID string, limit, offset int) ([]model.Chat, int64, error) {
	var out []model.Chat
	for _, chat := range f.chats {
		if chat.OwnerID == ownerID {
			out = append(out, *chat)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeChatStore) ListSummaries(ctx context.Context, ownerID string, limit int) ([]model.ChatSummary, error) {
	f.listCalls++
	if len(f.summaries) > limit {
		return f.summaries[:limit], nil
	}
	return f.summaries, nil
}

func (f *fakeChatStore) Delete(ctx context.Context, ownerID, chatID string) error {
	chat, ok := f.chats[chatID]
	if !ok || chat.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(f.chats, chatID)
	return nil
}

type fakeMessageStore struct {
	appended  []*model.Message
	failOn    int // 1-based append call index to fail at, 0 = never
	appendErr error
	calls     int
}

func (f *fakeMessageStore) Append(ctx context.Context, msg *model.Message) error {
	f.calls++
	if f.failOn != 0 && f.calls == f.failOn {
		if f.appendErr != nil {
			return f.appendErr
		}
		return errors.New("append failed")
	}
	cp := *msg
	f.appended = append(f.appended, &cp)
	return nil
}

func (f *fakeMessageStore) Get(ctx context.Context, messageID string) (*model.Message, error) {
	for _, msg := range f.appended {
		if msg.ID == messageID {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeMessageStore) ListByChat(ctx context.Context, chatID string) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range f.appended {
		if msg.ChatID == chatID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) ListLatestByChat(ctx context.Context, chatID string, limit int) ([]model.Message, error) {
	out, _ := f.ListByChat(ctx, chatID)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeActionStore struct {
	rows    map[string]*model.MessageAction
	upserts int
}

func newFakeActionStore() *fakeActionStore {
	return &fakeActionStore{rows: make(map[string]*model.MessageAction)}
}

func actionKey(userID, messageID string) string {
	return userID + "/" + messageID
}

func (f *fakeActionStore) Get(ctx context.Context, userID, messageID string) (*model.MessageAction, error) {
	if row, ok := f.rows[actionKey(userID, messageID)]; ok {
		cp := *row
		return &cp, nil
	}
	return &model.MessageAction{MessageID: messageID, UserID: userID}, nil
}

func (f *fakeActionStore) Upsert(ctx context.Context, action *model.MessageAction) error {
	f.upserts++
	cp := *action
	f.rows[actionKey(action.UserID, action.MessageID)] = &cp
	return nil
}

func (f *fakeActionStore) ListMessagesByFlag(ctx context.Context, userID string, flag model.ActionType) ([]model.Message, error) {
	return nil, nil
}

type fakeLLM struct {
	reply string
	err   error
	last  *llm.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "test-model"}, nil
}

func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return []string{"test-model"} }

type fakeHistoryCache struct {
	data        map[string][]model.ChatSummary
	invalidated int
	gets, sets  int
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{data: make(map[string][]model.ChatSummary)}
}

func historyKey(userID string, limit int) string {
	return fmt.Sprintf("%s:%d", userID, limit)
}

func (f *fakeHistoryCache) GetSummaries(ctx context.Context, userID string, limit int) ([]model.ChatSummary, error) {
	f.gets++
	if summaries, ok := f.data[historyKey(userID, limit)]; ok {
		return summaries, nil
	}
	return nil, cache.ErrMiss
}

func (f *fakeHistoryCache) SetSummaries(ctx context.Context, userID string, limit int, summaries []model.ChatSummary) error {
	f.sets++
	f.data[historyKey(userID, limit)] = summaries
	return nil
}

func (f *fakeHistoryCache) Invalidate(ctx context.Context, userID string) error {
	f.invalidated++
	f.data = make(map[string][]model.ChatSummary)
	return nil
}

type fakePublisher struct {
	messages  []*model.Message
	reactions []*events.ReactionEvent
	err       error
}

func (f *fakePublisher) PublishMessage(ctx context.Context, chatID, ownerID string, msg *model.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) PublishReaction(ctx context.Context, chatID string, event *events.ReactionEvent) error {
	if f.err != nil {
		return f.err
	}
	f.reactions = append(f.reactions, event)
	return nil
}
