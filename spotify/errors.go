package spotify

import (
	"errors"
	"fmt"
	"net/http"

	spotifyclient "github.com/zmb3/spotify/v2"
)

// Kind classifies gateway failures.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindNotFound
	KindAuthFailure
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindNotFound:
		return "not found"
	case KindAuthFailure:
		return "auth failure"
	case KindUpstream:
		return "upstream error"
	default:
		return "unknown"
	}
}

// Error is returned by every Gateway operation.
//
// errors.Is matches on Kind, so callers compare against the sentinel values
// below rather than inspecting fields.
type Error struct {
	Kind   Kind
	Op     string // gateway operation, e.g. "search album"
	Status int    // upstream HTTP status, when there was one
	Err    error
}

func (e *Error) Error() string {
	msg := "spotify: " + e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrAuthFailure  = &Error{Kind: KindAuthFailure}
	ErrUpstream     = &Error{Kind: KindUpstream}
)

// upstreamStatus extracts the HTTP status from an error returned by the
// catalog client. Returns 0 for transport errors.
func upstreamStatus(err error) int {
	var e spotifyclient.Error
	if errors.As(err, &e) {
		return e.Status
	}
	var pe *spotifyclient.Error
	if errors.As(err, &pe) && pe != nil {
		return pe.Status
	}
	return 0
}

func isUnauthorized(err error) bool {
	return upstreamStatus(err) == http.StatusUnauthorized
}

func upstreamError(op string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Status: upstreamStatus(err), Err: err}
}
