package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/pkg/logger"
)

func newActionServiceForTest(messages *fakeMessageStore) (*ActionService, *fakeActionStore) {
	actions := newFakeActionStore()
	return NewActionService(actions, messages, nil, logger.NewNop()), actions
}

func seedMessage(messages *fakeMessageStore, id string) {
	messages.appended = append(messages.appended, &model.Message{
		ID: id, ChatID: "chat-1", Role: model.RoleAssistant, Content: "answer",
	})
}

func TestAddActionCreatesRow(t *testing.T) {
	messages := &fakeMessageStore{}
	seedMessage(messages, "m1")
	svc, actions := newActionServiceForTest(messages)

	act, err := svc.Add(context.Background(), "user-1", "m1", model.ActionStar)
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if !act.Starred || act.Liked || act.Disliked || act.Bookmarked {
		t.Errorf("flags after star: %+v", act)
	}
	if actions.upserts != 1 {
		t.Errorf("upserts = %d, want 1", actions.upserts)
	}
}

func TestLikeDislikeExclusive(t *testing.T) {
	messages := &fakeMessageStore{}
	seedMessage(messages, "m1")
	svc, _ := newActionServiceForTest(messages)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "user-1", "m1", model.ActionLike); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	act, err := svc.Add(ctx, "user-1", "m1", model.ActionDislike)
	if err != nil {
		t.Fatalf("dislike failed: %v", err)
	}
	if act.Liked || !act.Disliked {
		t.Errorf("after like then dislike: liked=%v disliked=%v, want false/true", act.Liked, act.Disliked)
	}
	if act.Starred || act.Bookmarked {
		t.Errorf("unrelated flags touched: %+v", act)
	}
}

func TestRemoveTogglesFlagOff(t *testing.T) {
	messages := &fakeMessageStore{}
	seedMessage(messages, "m1")
	svc, actions := newActionServiceForTest(messages)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "user-1", "m1", model.ActionBookmark); err != nil {
		t.Fatalf("bookmark failed: %v", err)
	}
	act, err := svc.Remove(ctx, "user-1", "m1", model.ActionBookmark)
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if act.Bookmarked {
		t.Error("bookmark still set after remove")
	}
	// The row survives a full toggle-off.
	if _, ok := actions.rows[actionKey("user-1", "m1")]; !ok {
		t.Error("action row deleted instead of toggled off")
	}
}

func TestActionsAreScopedPerUser(t *testing.T) {
	messages := &fakeMessageStore{}
	seedMessage(messages, "m1")
	svc, _ := newActionServiceForTest(messages)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "user-1", "m1", model.ActionLike); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	act, err := svc.Add(ctx, "user-2", "m1", model.ActionDislike)
	if err != nil {
		t.Fatalf("dislike failed: %v", err)
	}
	if act.Liked {
		t.Error("second user inherited first user's like")
	}
}

func TestActionUnknownType(t *testing.T) {
	svc, _ := newActionServiceForTest(&fakeMessageStore{})

	_, err := svc.Add(context.Background(), "user-1", "m1", "applaud")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Kind != model.ErrKindValidation {
		t.Fatalf("err = %v, want 400 validation", err)
	}
}

func TestActionMessageNotFound(t *testing.T) {
	svc, _ := newActionServiceForTest(&fakeMessageStore{})

	_, err := svc.Add(context.Background(), "user-1", "missing", model.ActionLike)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Kind != model.ErrKindNotFound {
		t.Fatalf("err = %v, want 404 not_found", err)
	}
}

func TestReactionEventsPublished(t *testing.T) {
	messages := &fakeMessageStore{}
	seedMessage(messages, "m1")
	pub := &fakePublisher{}
	svc := NewActionService(newFakeActionStore(), messages, pub, logger.NewNop())

	if _, err := svc.Add(context.Background(), "user-1", "m1", model.ActionLike); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if len(pub.reactions) != 1 {
		t.Fatalf("published %d reaction events, want 1", len(pub.reactions))
	}
	ev := pub.reactions[0]
	if ev.MessageID != "m1" || ev.Action != model.ActionLike || !ev.Active {
		t.Errorf("reaction event: %+v", ev)
	}
}
