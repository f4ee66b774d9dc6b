package model

import (
	"time"
)

// ActionType is one user reaction on a message.
type ActionType string

const (
	ActionLike     ActionType = "like"
	ActionDislike  ActionType = "dislike"
	ActionStar     ActionType = "star"
	ActionBookmark ActionType = "bookmark"
)

// ValidAction reports whether t is a known action type.
func ValidAction(t ActionType) bool {
	switch t {
	case ActionLike, ActionDislike, ActionStar, ActionBookmark:
		return true
	}
	return false
}

// MessageAction holds the per-(message, user) reaction flags. Rows are created
// on first action and toggled afterwards, never hard-deleted. Liked and
// disliked are mutually exclusive; setting one clears the other.
type MessageAction struct {
	MessageID  string    `gorm:"primaryKey;size:36" json:"messageId"`
	UserID     string    `gorm:"primaryKey;size:36" json:"userId"`
	Liked      bool      `json:"liked"`
	Disliked   bool      `json:"disliked"`
	Starred    bool      `json:"starred"`
	Bookmarked bool      `json:"bookmarked"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"-"`
}

// TableName sets the table name for gorm.
func (MessageAction) TableName() string {
	return "message_actions"
}

// Set applies one action flag, enforcing like/dislike exclusivity.
func (a *MessageAction) Set(t ActionType, active bool) {
	switch t {
	case ActionLike:
		a.Liked = active
		if active {
			a.Disliked = false
		}
	case ActionDislike:
		a.Disliked = active
		if active {
			a.Liked = false
		}
	case ActionStar:
		a.Starred = active
	case ActionBookmark:
		a.Bookmarked = active
	}
}

// Has reports whether the flag for t is currently set.
func (a *MessageAction) Has(t ActionType) bool {
	switch t {
	case ActionLike:
		return a.Liked
	case ActionDislike:
		return a.Disliked
	case ActionStar:
		return a.Starred
	case ActionBookmark:
		return a.Bookmarked
	}
	return false
}

// MessageActionRequest is the body of POST /api/message-actions/{messageId}.
type MessageActionRequest struct {
	Action ActionType `json:"action"`
}

// ActionedMessagesResponse lists messages carrying a given flag for the caller.
type ActionedMessagesResponse struct {
	Messages []Message `json:"messages"`
}
