package domain

import "errors"

// ErrSessionNotFound is returned when a user has no active session in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrItemNotFound is returned by partition lookups when the domain is not listed.
var ErrItemNotFound = errors.New("item not found")

// ErrUnknownStep is returned when a session carries a step the bot cannot handle,
// or a step whose payload is missing.
var ErrUnknownStep = errors.New("unknown session step")
