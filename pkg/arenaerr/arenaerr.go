// Package arenaerr declares the error taxonomy shared by the round
// orchestration and scoring pipeline, and the HTTP status codes each
// kind maps to at the handler boundary.
package arenaerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for HTTP mapping and operator triage. Kinds are
// not Go types in the usual sense; a single Error wraps a Kind plus a cause.
type Kind string

const (
	Validation        Kind = "validation"
	Conflict          Kind = "conflict"
	NotFound          Kind = "not_found"
	UpstreamTransient Kind = "upstream_transient"
	UpstreamPermanent Kind = "upstream_permanent"
	Invariant         Kind = "invariant"
	Fatal             Kind = "fatal"
)

// Error is the taxonomy-tagged error carried across package boundaries.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a tagged error.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap tags an existing error with a kind and code.
func Wrap(kind Kind, code string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: code, Message: err.Error(), Err: err}
}

// As extracts an *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HTTPStatus maps a Kind to the status code the handler layer should write.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Conflict:
		return http.StatusConflict
	case NotFound:
		return http.StatusNotFound
	case UpstreamTransient, UpstreamPermanent:
		// absorbed before reaching HTTP in the normal path; surfaced as
		// 502 only if a handler calls through without recovering.
		return http.StatusBadGateway
	case Invariant:
		return http.StatusOK // exposed via the verify endpoint, not an error response
	case Fatal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Envelope is the wire shape for an error response, matching spec.md §6.
type Envelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// ToEnvelope renders err (tagged or not) as a response envelope and status.
func ToEnvelope(err error) (Envelope, int) {
	if e, ok := As(err); ok {
		return Envelope{Error: e.Message, Code: e.Code}, e.Kind.HTTPStatus()
	}
	return Envelope{Error: err.Error(), Code: "internal"}, http.StatusInternalServerError
}
