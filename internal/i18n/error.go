package i18n

import (
	"errors"
	"maps"
	"net/http"
)

// ErrorCode represents an HTTP status code
type ErrorCode int

const (
	ErrorBadRequest     ErrorCode = http.StatusBadRequest
	ErrorUnauthorized   ErrorCode = http.StatusUnauthorized
	ErrorForbidden      ErrorCode = http.StatusForbidden
	ErrorNotFound       ErrorCode = http.StatusNotFound
	ErrorConflict       ErrorCode = http.StatusConflict
	ErrorInternalServer ErrorCode = http.StatusInternalServerError
)

// ErrorWithCode is a translatable error carrying the HTTP status to answer with.
// Package-level values are templates; WithParam returns a copy so they are never mutated.
type ErrorWithCode struct {
	MessageID string
	Data      map[string]any
	Code      ErrorCode
}

// NewErrorWithCode creates a new error with a code
func NewErrorWithCode(messageID string, code ErrorCode) *ErrorWithCode {
	return &ErrorWithCode{MessageID: messageID, Code: code}
}

// WithParam returns a copy of e with one more template parameter
func (e *ErrorWithCode) WithParam(key string, value any) *ErrorWithCode {
	cp := &ErrorWithCode{MessageID: e.MessageID, Code: e.Code, Data: make(map[string]any, len(e.Data)+1)}
	maps.Copy(cp.Data, e.Data)
	cp.Data[key] = value
	return cp
}

// Error renders the message in the default language
func (e *ErrorWithCode) Error() string {
	if t := GetTranslator(); t != nil {
		return t.Translate(e.MessageID, "", e.Data)
	}
	return e.MessageID
}

// Is matches errors sharing the same message ID, so errors.Is works across WithParam copies
func (e *ErrorWithCode) Is(target error) bool {
	var other *ErrorWithCode
	if errors.As(target, &other) {
		return other.MessageID == e.MessageID
	}
	return false
}

// AsErrorWithCode unwraps err to an *ErrorWithCode, or returns nil
func AsErrorWithCode(err error) *ErrorWithCode {
	var ec *ErrorWithCode
	if errors.As(err, &ec) {
		return ec
	}
	return nil
}
