// Package services defines the application use-cases: sending a message
// through the assistant, reading the conversation and the action audit log,
// and storing client preferences.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"

	"github.com/tbourn/wp-category-assistant/internal/session"
)

var (
	// ErrSessionNotFound indicates that the session does not exist, has been
	// evicted, or belongs to another user.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotConnected is returned when a message is sent on a session whose
	// WordPress or LLM validation did not succeed.
	ErrNotConnected = session.ErrNotConnected

	// ErrSendInFlight is returned when the session is still processing a
	// previous message.
	ErrSendInFlight = session.ErrSendInFlight

	// ErrEmptyPrompt is returned when a message is empty after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a message exceeds the configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrInvalidTheme is returned for a theme other than light or dark.
	ErrInvalidTheme = errors.New("theme must be light or dark")
)
