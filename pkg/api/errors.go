package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// NewProblem creates a generic Problem
func NewProblem(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank",
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// WithType sets the RFC "type" URI
func WithType(uri string) ProblemOption {
	return func(p *Problem) {
		p.Type = uri
	}
}

// ValidationError creates a rich validation error
func ValidationError(validationErrors map[string]string) *Problem {
	return NewProblem(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithType("https://unillm.dev/probs/validation"),
		WithExtension("errors", validationErrors),
	)
}

// Error is the typed error surfaced by per-request operations.
// Info is safe to show to the caller; Cause is kept for logging and errors.Is.
type Error struct {
	// HTTP status the caller should map this to (400, 404, 500...)
	Code int
	// Short user facing message
	Info string
	// Underlying error
	Cause error
}

// Error implements standard error interface
func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Info
	}
	return fmt.Sprintf("%s: %v", e.Info, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ConfigurationError is returned when a required input (pricing, schema) was not supplied.
func ConfigurationError(info string, cause error) *Error {
	return &Error{Code: http.StatusInternalServerError, Info: info, Cause: cause}
}

// InvalidRequestError is returned when the caller sent something we cannot accept.
func InvalidRequestError(info string, cause error) *Error {
	return &Error{Code: http.StatusBadRequest, Info: info, Cause: cause}
}

// NotFoundError creates a standard 404 error
func NotFoundError(info string, cause error) *Error {
	return &Error{Code: http.StatusNotFound, Info: info, Cause: cause}
}

// InternalError creates a standard error for any internal server error
func InternalError(info string, cause error) *Error {
	return &Error{Code: http.StatusInternalServerError, Info: info, Cause: cause}
}
