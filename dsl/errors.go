package dsl

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrExpectationNotMet marks a failed expectation. A Match base that returns an
// error wrapping it is treated as having returned false.
var ErrExpectationNotMet = errors.New("expectation not met")

// ErrDeclaration is the sentinel wrapped by every DeclarationError.
var ErrDeclaration = errors.New("matcher declaration failed")

// DeclarationError is returned when a declaration procedure fails while a
// matcher instance is being built.
type DeclarationError struct {
	// Matcher is the name of the matcher being built
	Matcher string
	// Cause is the underlying failure (a recovered panic or an invalid registration)
	Cause error
}

// Error implements the error interface for DeclarationError.
func (e *DeclarationError) Error() string {
	return fmt.Sprintf("declaring matcher '%s': %v", e.Matcher, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *DeclarationError) Unwrap() []error {
	return []error{ErrDeclaration, e.Cause}
}

// MethodNotUnderstoodError is returned by the delegation fallback when neither
// the matcher nor its execution context can service a call.
type MethodNotUnderstoodError struct {
	// Matcher is the name of the matcher that received the call
	Matcher string
	// Method is the unresolved method name
	Method string
}

// Error implements the error interface for MethodNotUnderstoodError.
func (e *MethodNotUnderstoodError) Error() string {
	return fmt.Sprintf("undefined method '%s' for matcher '%s'", e.Method, e.Matcher)
}

// Is matches another MethodNotUnderstoodError with the same matcher and method.
// Empty fields on the target act as wildcards.
func (e *MethodNotUnderstoodError) Is(target error) bool {
	t, ok := target.(*MethodNotUnderstoodError)
	if !ok {
		return false
	}
	return (t.Matcher == "" || t.Matcher == e.Matcher) && (t.Method == "" || t.Method == e.Method)
}

// ArgumentError reports a call whose arguments do not fit the callable's
// declared parameters.
type ArgumentError struct {
	// Method is the protocol or chain method being invoked
	Method string
	// Reason describes the mismatch
	Reason string
}

// Error implements the error interface for ArgumentError.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("wrong arguments for '%s': %s", e.Method, e.Reason)
}

// ErrorKind selects the errors a MatchUnlessRaises wrapper rescues.
type ErrorKind interface {
	// Matches reports whether err belongs to the kind.
	Matches(err error) bool
	// String names the kind for descriptions and diagnostics.
	String() string
}

type sentinelKind struct {
	target error
}

func (k sentinelKind) Matches(err error) bool { return errors.Is(err, k.target) }
func (k sentinelKind) String() string         { return k.target.Error() }

// KindOf returns an ErrorKind matching any error for which errors.Is(err, target) holds.
func KindOf(target error) ErrorKind {
	if target == nil {
		return AnyError
	}
	return sentinelKind{target: target}
}

type typedKind[T error] struct{}

func (typedKind[T]) Matches(err error) bool {
	var target T
	return errors.As(err, &target)
}

func (typedKind[T]) String() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// KindOfType returns an ErrorKind matching any error assignable to T somewhere
// in its chain, as decided by errors.As.
func KindOfType[T error]() ErrorKind {
	return typedKind[T]{}
}

type anyKind struct{}

func (anyKind) Matches(err error) bool { return err != nil }
func (anyKind) String() string         { return "error" }

// AnyError matches every non-nil error.
var AnyError ErrorKind = anyKind{}
