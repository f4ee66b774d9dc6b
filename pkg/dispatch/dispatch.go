// Package dispatch turns a user's compose action into a server round trip and
// reconciles the result into visible conversation state. The conversation is
// updated optimistically: both the user's entry and a loading assistant entry
// appear before any network call, then a successful response replaces them
// with the server-confirmed records, or a failure replaces them with a single
// classified error entry.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aiva-platform/chat/internal/model"
	"github.com/aiva-platform/chat/pkg/logger"
)

// workspaceIDLength is the exact length of a canonical workspace identifier.
// Anything else is dropped from the outgoing request so the server falls back
// to the caller's default workspace.
const workspaceIDLength = 36

const defaultHistoryLimit = 20

// API is the server surface the dispatcher drives. *client.Client satisfies
// it; tests substitute a fake.
type API interface {
	SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error)
	UploadFile(ctx context.Context, name string, r io.Reader, chatID string) (*model.FileRef, error)
	History(ctx context.Context, limit int) ([]model.ChatSummary, error)
	ChatMessages(ctx context.Context, chatID string) (*model.ChatHistoryResponse, error)
	AddMessageAction(ctx context.Context, messageID string, action model.ActionType) error
	RemoveMessageAction(ctx context.Context, messageID string, action model.ActionType) error
}

// Dispatcher owns the conversation state and serializes every transition
// through its reducer. One send cycle may be outstanding at a time; a second
// Submit while one is in flight returns ErrSendInFlight.
type Dispatcher struct {
	api API
	log *logger.Logger
	now func() time.Time

	historyLimit int
	seq          atomic.Uint64

	mu    sync.Mutex
	state State
}

// Option customizes a Dispatcher.
type Option func(*Dispatcher)

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

// WithHistoryLimit caps how many chat summaries a history refresh requests.
func WithHistoryLimit(limit int) Option {
	return func(d *Dispatcher) { d.historyLimit = limit }
}

// New creates a dispatcher over the given API surface.
func New(api API, log *logger.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		api:          api,
		log:          log,
		now:          time.Now,
		historyLimit: defaultHistoryLimit,
		state:        State{Actions: make(map[string]ActionFlags)},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Snapshot returns a copy of the current state. Mutating the copy does not
// affect the dispatcher.
func (d *Dispatcher) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.state
	out.Entries = append([]Entry(nil), d.state.Entries...)
	out.PendingFiles = append([]PendingFile(nil), d.state.PendingFiles...)
	out.History = append([]model.ChatSummary(nil), d.state.History...)
	out.Actions = make(map[string]ActionFlags, len(d.state.Actions))
	for id, flags := range d.state.Actions {
		out.Actions[id] = flags
	}
	return out
}

// AttachFile stages a file for the next send.
func (d *Dispatcher) AttachFile(f PendingFile) {
	d.apply(AttachFile{File: f})
}

// RemoveFile unstages a file by name.
func (d *Dispatcher) RemoveFile(name string) {
	d.apply(RemoveFile{Name: name})
}

// SelectWorkspace switches the active workspace for subsequent sends.
func (d *Dispatcher) SelectWorkspace(id string) {
	d.apply(SelectWorkspace{WorkspaceID: id})
}

// SetUseDataAgent toggles the data-agent flag for subsequent sends.
func (d *Dispatcher) SetUseDataAgent(enabled bool) {
	d.apply(SetDataAgent{Enabled: enabled})
}

func (d *Dispatcher) apply(ev Event) {
	d.mu.Lock()
	d.state.Apply(ev)
	d.mu.Unlock()
}

// Submit runs one send cycle. Empty text with no staged files is a no-op.
// The cycle always terminates in exactly one of two outcomes: two confirmed
// entries, or one error entry; Submit returns a non-nil error only for the
// in-flight guard — send failures are rendered into the conversation instead.
func (d *Dispatcher) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	d.mu.Lock()
	if d.state.InFlight {
		d.mu.Unlock()
		return ErrSendInFlight
	}
	if text == "" && len(d.state.PendingFiles) == 0 {
		d.mu.Unlock()
		return nil
	}

	// The millisecond timestamp alone can collide when two cycles start
	// or fail within the same millisecond, so local ids carry a
	// per-dispatcher sequence number as well.
	now := d.now()
	seq := d.seq.Add(1)
	userTempID := fmt.Sprintf("temp-%d-%d", now.UnixMilli(), seq)
	assistantTempID := fmt.Sprintf("temp-ai-%d-%d", now.UnixMilli(), seq)
	staged := append([]PendingFile(nil), d.state.PendingFiles...)
	chatID := d.state.CurrentChatID
	workspaceID := d.state.WorkspaceID
	useDataAgent := d.state.UseDataAgent

	d.state.Apply(SubmitMessage{
		Text:            text,
		UserTempID:      userTempID,
		AssistantTempID: assistantTempID,
		Attachments:     stagedRefs(staged),
		Time:            now,
	})
	d.mu.Unlock()

	files, err := d.resolveFiles(ctx, staged, chatID)
	if err == nil {
		req := &model.SendMessageRequest{
			Message:      text,
			ChatID:       chatID,
			UseDataAgent: useDataAgent,
			Files:        files,
		}
		if len(workspaceID) == workspaceIDLength {
			req.WorkspaceID = workspaceID
		}

		var resp *model.SendMessageResponse
		resp, err = d.api.SendMessage(ctx, req)
		if err == nil {
			d.apply(SendSucceeded{
				UserTempID:      userTempID,
				AssistantTempID: assistantTempID,
				ChatID:          resp.ChatID,
				UserMessage: Entry{
					ID:          resp.UserMessage.ID,
					Role:        model.RoleUser,
					Content:     text,
					CreatedAt:   resp.UserMessage.Timestamp,
					Attachments: files,
				},
				Reply: Entry{
					ID:        resp.AIResponse.ID,
					Role:      model.RoleAssistant,
					Content:   resp.AIResponse.Content,
					CreatedAt: resp.AIResponse.Timestamp,
				},
			})
			if herr := d.RefreshHistory(ctx); herr != nil {
				d.log.Warn("history refresh after send failed", zap.Error(herr))
			}
			return nil
		}
	}

	d.log.Warn("send failed", zap.String("chat_id", chatID), zap.Error(err))
	failedAt := d.now()
	d.apply(SendFailed{
		UserTempID:      userTempID,
		AssistantTempID: assistantTempID,
		ErrorID:         fmt.Sprintf("error-%d-%d", failedAt.UnixMilli(), d.seq.Add(1)),
		Message:         friendlyMessage(err),
		Time:            failedAt,
	})
	return nil
}

// stagedRefs builds the descriptors shown on the optimistic entry. Workspace
// references are already resolved; uploads only have a name this early.
func stagedRefs(staged []PendingFile) []model.FileRef {
	if len(staged) == 0 {
		return nil
	}
	refs := make([]model.FileRef, 0, len(staged))
	for _, f := range staged {
		if f.Kind == KindWorkspace && f.Ref != nil {
			refs = append(refs, *f.Ref)
			continue
		}
		refs = append(refs, model.FileRef{OriginalName: f.Name})
	}
	return refs
}

// resolveFiles uploads every staged file except workspace references, which
// carry a pre-resolved descriptor. Uploads run in parallel; the first failure
// aborts the send. The returned slice preserves staging order.
func (d *Dispatcher) resolveFiles(ctx context.Context, staged []PendingFile, chatID string) ([]model.FileRef, error) {
	if len(staged) == 0 {
		return nil, nil
	}

	refs := make([]model.FileRef, len(staged))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range staged {
		if f.Kind == KindWorkspace {
			if f.Ref == nil {
				return nil, fmt.Errorf("workspace attachment %q has no resolved reference", f.Name)
			}
			refs[i] = *f.Ref
			continue
		}

		i, f := i, f
		g.Go(func() error {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("opening %s: %w", f.Name, err)
			}
			defer rc.Close()

			ref, err := d.api.UploadFile(ctx, f.Name, rc, chatID)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", f.Name, err)
			}
			refs[i] = *ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// ToggleAction flips one reaction flag on a confirmed message, syncing the
// server first. Calls against placeholder or error entries are dropped.
func (d *Dispatcher) ToggleAction(ctx context.Context, messageID string, action model.ActionType) error {
	if strings.HasPrefix(messageID, "temp-") || strings.HasPrefix(messageID, "error-") {
		d.log.Debug("ignoring action on unconfirmed message", zap.String("message_id", messageID))
		return nil
	}
	if !model.ValidAction(action) {
		return fmt.Errorf("unknown action %q", action)
	}

	d.mu.Lock()
	active := !d.state.Actions[messageID].Has(action)
	d.mu.Unlock()

	var err error
	if active {
		err = d.api.AddMessageAction(ctx, messageID, action)
	} else {
		err = d.api.RemoveMessageAction(ctx, messageID, action)
	}
	if err != nil {
		return err
	}

	d.apply(ToggleAction{MessageID: messageID, Action: action, Active: active})
	return nil
}

// RefreshHistory re-fetches the recent-chats list.
func (d *Dispatcher) RefreshHistory(ctx context.Context) error {
	chats, err := d.api.History(ctx, d.historyLimit)
	if err != nil {
		return err
	}
	d.apply(HistoryRefreshed{Chats: chats})
	return nil
}

// OpenChat fetches an existing chat and replaces the visible conversation
// with its messages.
func (d *Dispatcher) OpenChat(ctx context.Context, chatID string) error {
	resp, err := d.api.ChatMessages(ctx, chatID)
	if err != nil {
		return err
	}

	entries := make([]Entry, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		entry := Entry{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		for _, a := range m.Attachments {
			entry.Attachments = append(entry.Attachments, model.FileRef{
				ID:           a.FileID,
				OriginalName: a.OriginalName,
				URL:          a.URL,
				MimeType:     a.MimeType,
			})
		}
		entries = append(entries, entry)
	}
	d.apply(ChatLoaded{ChatID: resp.Chat.ID, Entries: entries})
	return nil
}
