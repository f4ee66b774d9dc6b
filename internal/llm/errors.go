package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/aiva-platform/chat/internal/model"
)

// Classify maps a provider error to the error-kind taxonomy the send contract
// carries back to clients.
func Classify(err error) model.ErrorKind {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrKindTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			return model.ErrKindOverload
		case http.StatusUnauthorized, http.StatusForbidden:
			return model.ErrKindUpstreamAuth
		case http.StatusNotFound:
			return model.ErrKindConfig
		}
		if apiErr.HTTPStatusCode >= 500 {
			return model.ErrKindOverload
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "deadline exceeded"):
		return model.ErrKindTimeout
	case strings.Contains(msg, "overloaded") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429"):
		return model.ErrKindOverload
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "authentication") ||
		strings.Contains(msg, "api key"):
		return model.ErrKindUpstreamAuth
	case strings.Contains(msg, "model") || strings.Contains(msg, "configuration"):
		return model.ErrKindConfig
	case strings.Contains(msg, "workspace"):
		return model.ErrKindWorkspace
	}
	return model.ErrKindInternal
}

// StatusMessage returns the server-side message text for a classified reply
// failure. The wording is stable: existing clients pattern-match it.
func StatusMessage(kind model.ErrorKind) string {
	switch kind {
	case model.ErrKindTimeout:
		return "AI service request timed out"
	case model.ErrKindOverload:
		return "AI service is overloaded, rate limit reached"
	case model.ErrKindUpstreamAuth:
		return "AI service authentication failed"
	case model.ErrKindConfig:
		return "AI model configuration error"
	case model.ErrKindWorkspace:
		return "workspace configuration error"
	default:
		return "failed to generate a response"
	}
}
