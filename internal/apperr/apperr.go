// Package apperr defines the stable machine-readable error codes surfaced by
// the HTTP API.
package apperr

import "fmt"

// Client input error codes (HTTP 400).
const (
	CodeMissingUserMessage      = "MISSING_USER_MESSAGE"
	CodeMissingRelationshipCard = "MISSING_RELATIONSHIP_CARD"
	CodeInvalidRelationshipCard = "INVALID_RELATIONSHIP_CARD"
	CodeMissingPrompt           = "MISSING_PROMPT"
	CodeInvalidBody             = "INVALID_BODY"
	CodeEmptyContent            = "EMPTY_CONTENT"
	CodeEmptyPraise             = "EMPTY_PRAISE"
	CodeInvalidEnergyTag        = "INVALID_ENERGY_TAG"
	CodeInvalidToneMode         = "INVALID_TONE_MODE"
	CodeInvalidUnlockAt         = "INVALID_UNLOCK_AT"
	CodeInvalidRelationType     = "INVALID_RELATION_TYPE"
	CodeInvalidRole             = "INVALID_ROLE"
)

// Resource and state error codes.
const (
	CodeNotFound      = "NOT_FOUND"      // 404
	CodeCapsuleLocked = "CAPSULE_LOCKED" // 409
	CodeNotOpened     = "CAPSULE_NOT_OPENED"
)

// CodeUnknown is the fallback for unclassified failures (HTTP 500).
const CodeUnknown = "UNKNOWN_ERROR"

// Error is a structured application error with a stable code for the UI to
// pattern-match on.
type Error struct {
	Code    string
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// BadRequest creates a 400 error with the given code.
func BadRequest(code, message string) *Error {
	return &Error{Code: code, Status: 400, Message: message}
}

// NotFound creates a 404 error for a missing record.
func NotFound(kind, id string) *Error {
	return &Error{Code: CodeNotFound, Status: 404, Message: fmt.Sprintf("%s not found: %s", kind, id)}
}

// Conflict creates a 409 error with the given code.
func Conflict(code, message string) *Error {
	return &Error{Code: code, Status: 409, Message: message}
}

// Internal creates a 500 error with the given code.
func Internal(code, message string) *Error {
	return &Error{Code: code, Status: 500, Message: message}
}
