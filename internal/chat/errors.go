package chat

import "errors"

var (
	// ErrAuthenticationRequired means no bearer credential was available.
	// Callers redirect to login instead of showing an inline error.
	ErrAuthenticationRequired = errors.New("chat: authentication required to use support chat")
	// ErrTransportExhausted means every attempt to reach the backend failed.
	ErrTransportExhausted = errors.New("chat: failed to connect to the support service after multiple retries")
	ErrEmptyMessage       = errors.New("chat: message is empty")
	// ErrBusy rejects input while an exchange is in flight.
	ErrBusy              = errors.New("chat: a reply is already pending")
	ErrConversationEnded = errors.New("chat: conversation has ended")
	ErrInvalidTransition = errors.New("chat: invalid state transition")
	ErrUnknownOption     = errors.New("chat: option is not in the current menu")
)
