package dispatch

import (
	"io"
	"time"

	"github.com/aiva-platform/chat/internal/model"
)

// Entry is one row of the visible conversation. Confirmed entries carry
// server-issued ids; placeholders and error entries carry locally generated
// ids with the temp-, temp-ai- or error- prefix.
type Entry struct {
	ID          string
	Role        model.Role
	Content     string
	CreatedAt   time.Time
	Attachments []model.FileRef
	Loading     bool
	IsError     bool
}

// ActionFlags mirrors the server-side reaction record for one message.
type ActionFlags struct {
	Liked      bool
	Disliked   bool
	Starred    bool
	Bookmarked bool
}

// Set applies one flag, keeping liked and disliked mutually exclusive.
func (f *ActionFlags) Set(t model.ActionType, active bool) {
	switch t {
	case model.ActionLike:
		f.Liked = active
		if active {
			f.Disliked = false
		}
	case model.ActionDislike:
		f.Disliked = active
		if active {
			f.Liked = false
		}
	case model.ActionStar:
		f.Starred = active
	case model.ActionBookmark:
		f.Bookmarked = active
	}
}

// Has reports whether the flag for t is set.
func (f ActionFlags) Has(t model.ActionType) bool {
	switch t {
	case model.ActionLike:
		return f.Liked
	case model.ActionDislike:
		return f.Disliked
	case model.ActionStar:
		return f.Starred
	case model.ActionBookmark:
		return f.Bookmarked
	}
	return false
}

// AttachmentKind classifies a staged file before it is sent.
type AttachmentKind string

const (
	KindImage     AttachmentKind = "image"
	KindFile      AttachmentKind = "file"
	KindDocument  AttachmentKind = "document"
	KindWorkspace AttachmentKind = "workspace-reference"
)

// PendingFile is a staged attachment awaiting the next send. Workspace
// references carry an already-resolved Ref and are never uploaded; everything
// else is uploaded through Open when the send fires.
type PendingFile struct {
	Name string
	Kind AttachmentKind
	Ref  *model.FileRef
	Open func() (io.ReadCloser, error)
}

// State is the dispatcher's whole world: the visible conversation, staged
// files, per-message reaction flags and the chat/workspace selection. It only
// changes by applying events, so every transition is testable in isolation.
type State struct {
	Entries       []Entry
	PendingFiles  []PendingFile
	Actions       map[string]ActionFlags
	History       []model.ChatSummary
	CurrentChatID string
	WorkspaceID   string
	UseDataAgent  bool
	InFlight      bool
}

// Event is one dispatcher state transition.
type Event interface {
	isEvent()
}

// SubmitMessage starts a send cycle: both placeholders appear before any
// network traffic.
type SubmitMessage struct {
	Text            string
	UserTempID      string
	AssistantTempID string
	Attachments     []model.FileRef
	Time            time.Time
}

// SendSucceeded reconciles a cycle with the server's receipts.
type SendSucceeded struct {
	UserTempID      string
	AssistantTempID string
	ChatID          string
	UserMessage     Entry
	Reply           Entry
}

// SendFailed reconciles a cycle with a single classified error entry.
type SendFailed struct {
	UserTempID      string
	AssistantTempID string
	ErrorID         string
	Message         string
	Time            time.Time
}

// ToggleAction flips one reaction flag on a confirmed message.
type ToggleAction struct {
	MessageID string
	Action    model.ActionType
	Active    bool
}

// AttachFile stages a file for the next send.
type AttachFile struct {
	File PendingFile
}

// RemoveFile unstages a file by name.
type RemoveFile struct {
	Name string
}

// SelectChat switches the active chat.
type SelectChat struct {
	ChatID string
}

// SelectWorkspace switches the active workspace.
type SelectWorkspace struct {
	WorkspaceID string
}

// SetDataAgent toggles the data-agent flag for subsequent sends.
type SetDataAgent struct {
	Enabled bool
}

// HistoryRefreshed replaces the chat-history sidebar contents.
type HistoryRefreshed struct {
	Chats []model.ChatSummary
}

// ChatLoaded replaces the visible conversation with a fetched chat.
type ChatLoaded struct {
	ChatID  string
	Entries []Entry
}

func (SubmitMessage) isEvent()    {}
func (SendSucceeded) isEvent()    {}
func (SendFailed) isEvent()       {}
func (ToggleAction) isEvent()     {}
func (AttachFile) isEvent()       {}
func (RemoveFile) isEvent()       {}
func (SelectChat) isEvent()       {}
func (SelectWorkspace) isEvent()  {}
func (SetDataAgent) isEvent()     {}
func (HistoryRefreshed) isEvent() {}
func (ChatLoaded) isEvent()       {}

// Apply transitions the state by one event.
func (s *State) Apply(ev Event) {
	if s.Actions == nil {
		s.Actions = make(map[string]ActionFlags)
	}

	switch e := ev.(type) {
	case SubmitMessage:
		s.InFlight = true
		s.Entries = append(s.Entries,
			Entry{
				ID:          e.UserTempID,
				Role:        model.RoleUser,
				Content:     e.Text,
				CreatedAt:   e.Time,
				Attachments: e.Attachments,
			},
			Entry{
				ID:        e.AssistantTempID,
				Role:      model.RoleAssistant,
				CreatedAt: e.Time,
				Loading:   true,
			},
		)

	case SendSucceeded:
		s.removeEntries(e.UserTempID, e.AssistantTempID)
		s.Entries = append(s.Entries, e.UserMessage, e.Reply)
		s.Actions[e.UserMessage.ID] = ActionFlags{}
		s.Actions[e.Reply.ID] = ActionFlags{}
		if e.ChatID != "" {
			s.CurrentChatID = e.ChatID
		}
		s.PendingFiles = nil
		s.InFlight = false

	case SendFailed:
		s.removeEntries(e.UserTempID, e.AssistantTempID)
		s.Entries = append(s.Entries, Entry{
			ID:        e.ErrorID,
			Role:      model.RoleAssistant,
			Content:   e.Message,
			CreatedAt: e.Time,
			IsError:   true,
		})
		s.Actions[e.ErrorID] = ActionFlags{}
		s.PendingFiles = nil
		s.InFlight = false

	case ToggleAction:
		flags := s.Actions[e.MessageID]
		flags.Set(e.Action, e.Active)
		s.Actions[e.MessageID] = flags

	case AttachFile:
		s.PendingFiles = append(s.PendingFiles, e.File)

	case RemoveFile:
		kept := s.PendingFiles[:0]
		for _, f := range s.PendingFiles {
			if f.Name != e.Name {
				kept = append(kept, f)
			}
		}
		s.PendingFiles = kept

	case SelectChat:
		s.CurrentChatID = e.ChatID

	case SelectWorkspace:
		s.WorkspaceID = e.WorkspaceID

	case SetDataAgent:
		s.UseDataAgent = e.Enabled

	case HistoryRefreshed:
		s.History = e.Chats

	case ChatLoaded:
		s.CurrentChatID = e.ChatID
		s.Entries = e.Entries
		for _, entry := range e.Entries {
			if _, ok := s.Actions[entry.ID]; !ok {
				s.Actions[entry.ID] = ActionFlags{}
			}
		}
	}
}

func (s *State) removeEntries(ids ...string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := s.Entries[:0]
	for _, entry := range s.Entries {
		if !drop[entry.ID] {
			kept = append(kept, entry)
		}
	}
	s.Entries = kept
}
