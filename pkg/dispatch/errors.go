package dispatch

import (
	"errors"
	"strings"

	"github.com/aiva-platform/chat/internal/model"
)

// ErrSendInFlight is returned by Submit while a previous send cycle is still
// outstanding.
var ErrSendInFlight = errors.New("a send is already in flight")

const genericErrorText = "Sorry, there was an error processing your message. Please try again."

// friendlyMessage rewords a send failure for display. Classified errors are
// switched on their kind; anything else falls back to substring matching on
// the raw message, then to the message verbatim.
func friendlyMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case model.ErrKindTimeout:
			return "The AI service is taking too long to respond. Please try again later."
		case model.ErrKindOverload:
			return "The AI service is currently overloaded. Please wait a moment and try again."
		case model.ErrKindAuth, model.ErrKindUpstreamAuth:
			return "Authentication failed. Please refresh the page and try again."
		case model.ErrKindConfig:
			return "There is an issue with the AI model configuration. Please contact support."
		case model.ErrKindWorkspace:
			return "Workspace configuration error. Please refresh the page and try again."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return genericErrorText
	}

	msg := err.Error()
	if msg == "" {
		return genericErrorText
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return "The AI service is taking too long to respond. Please try again later."
	case strings.Contains(lower, "overloaded") || strings.Contains(lower, "rate limit"):
		return "The AI service is currently overloaded. Please wait a moment and try again."
	case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized"):
		return "Authentication failed. Please refresh the page and try again."
	case strings.Contains(lower, "model") || strings.Contains(lower, "configuration"):
		return "There is an issue with the AI model configuration. Please contact support."
	case strings.Contains(lower, "workspace"):
		return "Workspace configuration error. Please refresh the page and try again."
	}
	return msg
}
