package controller

import (
	"errors"
	"net/http"

	"vinylogue/card"
	"vinylogue/spotify"
)

// ErrorKind is the caller-visible classification of a failure.
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindNotFound        ErrorKind = "not_found"
	KindAuthFailure     ErrorKind = "auth_failure"
	KindUpstream        ErrorKind = "upstream_error"
	KindRender          ErrorKind = "render_error"
	KindHistoryDisabled ErrorKind = "history_disabled"
	KindInternal        ErrorKind = "internal"
)

var ErrHistoryDisabled = errors.New("render history is disabled")

// KindOf classifies err. Gateway kinds map one to one.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, spotify.ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, spotify.ErrNotFound):
		return KindNotFound
	case errors.Is(err, spotify.ErrAuthFailure):
		return KindAuthFailure
	case errors.Is(err, spotify.ErrUpstream):
		return KindUpstream
	case errors.Is(err, card.ErrRender):
		return KindRender
	case errors.Is(err, ErrHistoryDisabled):
		return KindHistoryDisabled
	default:
		return KindInternal
	}
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound, KindHistoryDisabled:
		return http.StatusNotFound
	case KindAuthFailure, KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message is a fixed description safe to show callers. It never carries
// upstream payloads or credentials.
func (k ErrorKind) Message() string {
	switch k {
	case KindInvalidInput:
		return "query must contain letters or numbers"
	case KindNotFound:
		return "no matching album or artist found"
	case KindAuthFailure:
		return "could not authenticate with the music catalog"
	case KindUpstream:
		return "the music catalog returned an error"
	case KindRender:
		return "failed to render card"
	case KindHistoryDisabled:
		return "render history is disabled"
	default:
		return "internal error"
	}
}

// Reportable reports whether the failure is on our side and should go to Sentry.
func (k ErrorKind) Reportable() bool {
	return k.HTTPStatus() >= http.StatusInternalServerError
}
