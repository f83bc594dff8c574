package dsl

import (
	"fmt"
	"reflect"
	"sort"
)

// ExecutionContext is the environment a matcher was built in. Calls the matcher
// cannot answer itself are forwarded here.
type ExecutionContext interface {
	// RespondsTo reports whether the context implements name.
	RespondsTo(name string) bool
	// Invoke calls name with args and an optional trailing block (nil when absent).
	Invoke(name string, args []any, block any) (any, error)
}

type noContext struct{}

func (noContext) RespondsTo(string) bool { return false }

func (noContext) Invoke(name string, _ []any, _ any) (any, error) {
	return nil, &MethodNotUnderstoodError{Method: name}
}

// NoContext is an execution context that implements nothing.
var NoContext ExecutionContext = noContext{}

// ContextFunc is one method of a MethodSet.
type ContextFunc func(args []any, block any) (any, error)

// MethodSet is a map-backed execution context.
type MethodSet map[string]ContextFunc

// RespondsTo reports whether the set has a method named name.
func (s MethodSet) RespondsTo(name string) bool {
	_, ok := s[name]
	return ok
}

// Invoke calls the named method.
func (s MethodSet) Invoke(name string, args []any, block any) (any, error) {
	fn, ok := s[name]
	if !ok {
		return nil, &MethodNotUnderstoodError{Method: name}
	}
	return fn(args, block)
}

// Names returns the method names in sorted order.
func (s MethodSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RespondsTo reports whether a call to name would be answered by the matcher's
// protocol, one of its chain methods, or its execution context.
func (m *Matcher) RespondsTo(name string) bool {
	if _, ok := m.chains[name]; ok {
		return true
	}
	return isProtocolName(name) || m.ctx.RespondsTo(name)
}

// Call invokes the chain method name and returns the matcher for further
// chaining. Names that are not chain methods fail with MethodNotUnderstoodError.
func (m *Matcher) Call(name string, args ...any) (*Matcher, error) {
	chain, ok := m.chains[name]
	if !ok {
		return nil, &MethodNotUnderstoodError{Matcher: m.name, Method: name}
	}
	if _, err := chain.wrapper(args); err != nil {
		return nil, err
	}
	return m, nil
}

// Invoke dispatches a call by name: chain methods first, then the protocol
// surface, then the execution context. A trailing func argument is passed to
// the context as its block.
func (m *Matcher) Invoke(name string, args ...any) (any, error) {
	if chain, ok := m.chains[name]; ok {
		return chain.wrapper(args)
	}
	if isProtocolName(name) {
		return m.invokeProtocol(name, args)
	}

	positional, block := splitBlock(args)
	return m.fallback(name, positional, block)
}

func (m *Matcher) invokeProtocol(name string, args []any) (any, error) {
	switch name {
	case string(MethodMatches), string(MethodDoesNotMatch):
		if len(args) != 1 {
			return nil, &ArgumentError{Method: name, Reason: fmt.Sprintf("given %d, expected 1", len(args))}
		}
		return m.evaluate(Method(name), args[0])
	case string(MethodDescription), string(MethodFailureMessage), string(MethodFailureMessageWhenNegated):
		return m.message(Method(name))
	case string(MethodDiffable), string(MethodSupportsBlock), string(MethodSupportsValue):
		return m.flag(Method(name)), nil
	case readerExpected:
		return m.Expected(), nil
	case readerExpectedAsArray:
		return m.ExpectedAsArray(), nil
	case readerActual:
		return m.actual, nil
	case readerRescuedException:
		return m.rescued, nil
	case readerName:
		return m.name, nil
	}
	return nil, &MethodNotUnderstoodError{Matcher: m.name, Method: name}
}

// fallback forwards a call the matcher does not implement to its execution
// context. Results and errors from the context are returned verbatim.
func (m *Matcher) fallback(name string, args []any, block any) (any, error) {
	if !m.ctx.RespondsTo(name) {
		return nil, &MethodNotUnderstoodError{Matcher: m.name, Method: name}
	}
	m.logger.Debugw("Delegating call to execution context",
		"matcher", m.name,
		"method", name,
		"args", len(args))
	return m.ctx.Invoke(name, args, block)
}

// splitBlock separates a trailing func from the positional arguments.
func splitBlock(args []any) ([]any, any) {
	if len(args) == 0 {
		return args, nil
	}
	last := args[len(args)-1]
	if last != nil && reflect.TypeOf(last).Kind() == reflect.Func {
		return args[:len(args)-1], last
	}
	return args, nil
}
