package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the shell.
type ErrorKind string

const (
	KindParse               ErrorKind = "ParseError"
	KindUnknownCommand      ErrorKind = "UnknownCommand"
	KindMissingArgument     ErrorKind = "MissingRequiredArgument"
	KindResourceUnavailable ErrorKind = "ResourceUnavailable"
	KindDispatchTimeout     ErrorKind = "DispatchTimeout"
	KindDispatchCanceled    ErrorKind = "DispatchCanceled"
	KindCommandFailed       ErrorKind = "CommandFailed"
)

// Error is a classified failure. Details carries backend-supplied structured
// data (codes, argument names) and is only used for display.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError classifies err under kind, keeping it for errors.Is/As.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, or CommandFailed for
// unclassified errors.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindCommandFailed
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

// Translation is an error rendered for display.
type Translation struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
}
