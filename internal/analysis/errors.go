package analysis

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why an analysis was refused
type Kind string

const (
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindStrategyMismatch Kind = "STRATEGY_MISMATCH"
	KindUnbounded        Kind = "UNBOUNDED"
)

// Sentinels for errors.Is; an *Error matches the sentinel of its kind.
var (
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrStrategyMismatch = &Error{Kind: KindStrategyMismatch}
	ErrUnbounded        = &Error{Kind: KindUnbounded}
)

// Error reports a rejected analysis together with the offending fields
type Error struct {
	Kind    Kind
	Fields  []string
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if len(e.Fields) == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %s", msg, strings.Join(e.Fields, ", "))
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, message string, fields ...string) *Error {
	return &Error{Kind: kind, Fields: fields, Message: message}
}

// MissingFields reports required inputs the caller did not supply
func MissingFields(fields ...string) error {
	return newError(KindInvalidInput, "missing required fields", fields...)
}

// ScenarioError ties a failed analysis to the scenario it came from
type ScenarioError struct {
	ScenarioID uint
	Name       string
	Err        error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario %d (%s): %v", e.ScenarioID, e.Name, e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}

// Fields returns the offending field names carried by err, if any
func Fields(err error) []string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// KindOf returns the analysis error kind carried by err, or "" when err is not
// an analysis error
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// fieldCheck accumulates field violations so a caller sees all of them at once
type fieldCheck struct {
	fields []string
}

func (c *fieldCheck) fail(field string) {
	c.fields = append(c.fields, field)
}

func (c *fieldCheck) err(kind Kind, message string) error {
	if len(c.fields) == 0 {
		return nil
	}
	return newError(kind, message, c.fields...)
}
