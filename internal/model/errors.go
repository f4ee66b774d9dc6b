package model

// ErrorKind is the machine-readable error classification carried alongside
// the human message in every non-2xx response. Clients switch on the kind;
// the message text stays compatible with clients that still pattern-match it.
type ErrorKind string

const (
	ErrKindValidation   ErrorKind = "validation"
	ErrKindAuth         ErrorKind = "auth"
	ErrKindNotFound     ErrorKind = "not_found"
	ErrKindTimeout      ErrorKind = "timeout"
	ErrKindOverload     ErrorKind = "overload"
	ErrKindUpstreamAuth ErrorKind = "upstream_auth"
	ErrKindConfig       ErrorKind = "config"
	ErrKindWorkspace    ErrorKind = "workspace"
	ErrKindPersistence  ErrorKind = "persistence"
	ErrKindUpload       ErrorKind = "upload"
	ErrKindInternal     ErrorKind = "internal"
)

// APIError is a classified, client-facing error.
type APIError struct {
	Status  int       `json:"-"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError builds a classified error with an HTTP status.
func NewAPIError(status int, kind ErrorKind, message string) *APIError {
	return &APIError{Status: status, Kind: kind, Message: message}
}
