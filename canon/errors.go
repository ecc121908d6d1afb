package canon

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind (or use errors.Is with the Err* sentinels)
// rather than matching error strings.
type Kind string

const (
	// KindCyclic reports a value that references one of its own ancestors.
	KindCyclic Kind = "Cyclic"
	// KindUnsupported reports a value no built-in rule or extension can render.
	KindUnsupported Kind = "Unsupported"
	// KindConfiguration reports an invalid option; raised before any traversal.
	KindConfiguration Kind = "Configuration"
	// KindExtension reports a failing extension callback.
	KindExtension Kind = "Extension"
	// KindState reports use of a component after it was finalized.
	KindState Kind = "State"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g. HASHIT-CYCLE-001) naming the violated
// rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches a bare sentinel of the same Kind, so errors.Is(err, ErrCyclicStructure)
// holds for every cyclic-structure failure regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.RuleID == "" && t.Message == "" && t.Kind == e.Kind
}

var (
	ErrCyclicStructure  = &Error{Kind: KindCyclic}
	ErrUnsupportedValue = &Error{Kind: KindUnsupported}
	ErrConfiguration    = &Error{Kind: KindConfiguration}
)

// NewError returns a structured error without a cause.
func NewError(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// WrapError returns a structured error wrapping cause.
func WrapError(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return NewError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// Errorf is NewError with a formatted message.
func Errorf(kind Kind, ruleID, format string, args ...any) error {
	return NewError(kind, ruleID, fmt.Sprintf(format, args...))
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
