package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// workspaceIDLength is the canonical UUID string length. Anything else is
// treated as "no workspace given" rather than an error.
const workspaceIDLength = 36

// ValidateSubmission validates a send submission. Empty trimmed text with no
// files is rejected; the server does not trust the client-side guard.
func ValidateSubmission(content string, fileCount int) error {
	if strings.TrimSpace(content) == "" && fileCount == 0 {
		return errors.New("message cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidWorkspaceID reports whether id is usable as an explicit workspace
// scope. Invalid ids fall back to the caller's default workspace.
func ValidWorkspaceID(id string) bool {
	if len(id) != workspaceIDLength {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// ValidateChatID validates a chat ID.
func ValidateChatID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid chat ID format")
	}
	return nil
}

// ValidateMessageID validates a message ID.
func ValidateMessageID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid message ID format")
	}
	return nil
}

// ValidateTitle validates a chat title.
func ValidateTitle(title string) error {
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}
