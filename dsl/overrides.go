package dsl

import (
	"errors"
	"fmt"
)

// MatchOption tunes a Match registration.
type MatchOption func(*matchOptions)

type matchOptions struct {
	notifyExpectationFailures bool
}

// NotifyExpectationFailures keeps expectation-not-met errors raised by the
// block instead of converting them to a false result.
func NotifyExpectationFailures() MatchOption {
	return func(o *matchOptions) { o.notifyExpectationFailures = true }
}

// Scope is the evaluation scope of a declaration procedure. It exposes the
// registration operations and, through the embedded *Matcher, the instance's
// own state (expected values, attributes, the execution context).
type Scope struct {
	*Matcher
}

// install stores an override for method, replacing any earlier one on this instance.
func (m *Matcher) install(method Method, base *callable, wrapper implementation) {
	m.overrides[method] = &override{base: base, wrapper: wrapper}
}

// reject records an invalid registration. During declaration the error fails
// construction; afterwards it is a programming error and panics.
func (m *Matcher) reject(err error) {
	if m.declaring {
		m.declErrs = append(m.declErrs, err)
		return
	}
	panic(&DeclarationError{Matcher: m.name, Cause: err})
}

// Match declares the positive predicate. fn is a func returning bool or
// (bool, error), taking either no parameters or the actual value.
//
// The wrapper records actual before invoking fn. An error wrapping
// ErrExpectationNotMet yields false unless NotifyExpectationFailures is given;
// any other error propagates.
func (s *Scope) Match(fn any, opts ...MatchOption) {
	m := s.Matcher
	var o matchOptions
	for _, opt := range opts {
		opt(&o)
	}

	base, err := compile(string(MethodMatches), fn, boolResult, true)
	if err != nil {
		m.reject(err)
		return
	}

	m.install(MethodMatches, base, func(args []any) (any, error) {
		actual := args[0]
		m.recordActual(actual)

		out, err := base.callWithActual(actual)
		if err != nil {
			if !o.notifyExpectationFailures && errors.Is(err, ErrExpectationNotMet) {
				return false, nil
			}
			return nil, err
		}
		return out, nil
	})
}

// MatchWhenNegated declares the negative predicate used by DoesNotMatch. The
// block has the same shape as a Match block; errors are never converted.
func (s *Scope) MatchWhenNegated(fn any) {
	m := s.Matcher
	base, err := compile(string(MethodDoesNotMatch), fn, boolResult, true)
	if err != nil {
		m.reject(err)
		return
	}

	m.install(MethodDoesNotMatch, base, func(args []any) (any, error) {
		actual := args[0]
		m.recordActual(actual)
		return base.callWithActual(actual)
	})
}

// MatchUnlessRaises declares a positive predicate that passes when fn completes
// without raising an error of kind. fn may return an error (any other results
// are ignored) or panic with one. A matching error is kept as the rescued
// exception and yields false; errors of other kinds propagate and panics of
// other kinds are re-raised. A nil kind rescues every error.
func (s *Scope) MatchUnlessRaises(kind ErrorKind, fn any) {
	m := s.Matcher
	if kind == nil {
		kind = AnyError
	}

	base, err := compile(string(MethodMatches), fn, anyResult, true)
	if err != nil {
		m.reject(err)
		return
	}

	m.install(MethodMatches, base, func(args []any) (any, error) {
		actual := args[0]
		m.recordActual(actual)
		m.rescued = nil

		err := callRescuing(kind, func() error {
			_, err := base.callWithActual(actual)
			return err
		})
		if err == nil {
			return true, nil
		}
		if kind.Matches(err) {
			m.rescued = err
			return false, nil
		}
		return nil, err
	})
}

// callRescuing runs fn, turning a panic whose value is an error of kind into a
// returned error.
func callRescuing(kind ErrorKind, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(error); ok && kind.Matches(perr) {
				err = perr
				return
			}
			panic(r)
		}
	}()
	return fn()
}

// FailureMessage overrides the positive failure message. fn returns string or
// (string, error) and may take the actual value.
func (s *Scope) FailureMessage(fn any) {
	s.installMessage(MethodFailureMessage, fn)
}

// FailureMessageWhenNegated overrides the negative failure message.
func (s *Scope) FailureMessageWhenNegated(fn any) {
	s.installMessage(MethodFailureMessageWhenNegated, fn)
}

// Description overrides the description. A block that takes a parameter is
// given the actual value, which is nil before evaluation.
func (s *Scope) Description(fn any) {
	s.installMessage(MethodDescription, fn)
}

func (m *Matcher) installMessage(method Method, fn any) {
	base, err := compile(string(method), fn, stringResult, true)
	if err != nil {
		m.reject(err)
		return
	}

	m.install(method, base, func([]any) (any, error) {
		return base.callWithActual(m.actual)
	})
}

// Diffable marks the matcher as one whose failures should include a diff.
func (s *Scope) Diffable() {
	s.install(MethodDiffable, nil, constant(true))
}

// SupportsBlockExpectations marks the matcher as accepting funcs as actual values.
func (s *Scope) SupportsBlockExpectations() {
	s.install(MethodSupportsBlock, nil, constant(true))
}

// Chain declares a fluent method called through Call or Invoke. fn receives the
// call's arguments unchanged, including a trailing func; its results other than
// a trailing error are discarded and the call yields the matcher itself.
func (s *Scope) Chain(name string, fn any) {
	m := s.Matcher
	if err := m.checkChainName(name); err != nil {
		m.reject(err)
		return
	}

	base, err := compile(name, fn, anyResult, false)
	if err != nil {
		m.reject(err)
		return
	}

	m.chains[name] = &override{base: base, wrapper: func(args []any) (any, error) {
		if _, err := base.callWithArgs(args); err != nil {
			return nil, err
		}
		m.clauses = append(m.clauses, chainClause{name: name, args: args})
		return m, nil
	}}
}

// ChainAttr declares a fluent method that stores its arguments, in order, under
// the given attribute names. Missing arguments store nil; extra arguments fail
// with an ArgumentError.
func (s *Scope) ChainAttr(name string, attrs ...string) {
	m := s.Matcher
	if err := m.checkChainName(name); err != nil {
		m.reject(err)
		return
	}

	m.chains[name] = &override{wrapper: func(args []any) (any, error) {
		if len(args) > len(attrs) {
			return nil, &ArgumentError{
				Method: name,
				Reason: fmt.Sprintf("given %d, expected at most %d", len(args), len(attrs)),
			}
		}
		m.clauses = append(m.clauses, chainClause{name: name, args: args})
		for i, attr := range attrs {
			var v any
			if i < len(args) {
				v = args[i]
			}
			m.attrs[attr] = v
		}
		return m, nil
	}}
}

func (m *Matcher) checkChainName(name string) error {
	if name == "" {
		return errors.New("chain: empty method name")
	}
	if isProtocolName(name) {
		return fmt.Errorf("chain: '%s' is a protocol method and cannot be chained", name)
	}
	return nil
}
