package dsl

import (
	"strings"

	"matchkit/pretty"
)

// Phraser renders names and values into English for default descriptions and
// failure messages.
type Phraser interface {
	// NameToSentence turns a matcher name such as "be_even" into "be even".
	NameToSentence(name string) string
	// ToSentence renders expected values as a trailing clause (" 1, 2, and 3").
	ToSentence(items []any) string
	// Inspect renders a single value.
	Inspect(v any) string
}

var defaultPhraser Phraser = pretty.Default

// defaultImplementation returns the baseline behavior used for a method that
// has no declared override.
func (m *Matcher) defaultImplementation(method Method) implementation {
	switch method {
	case MethodMatches:
		return m.defaultMatches
	case MethodDoesNotMatch:
		return m.defaultDoesNotMatch
	case MethodDescription:
		return m.defaultDescription
	case MethodFailureMessage:
		return m.defaultFailureMessage
	case MethodFailureMessageWhenNegated:
		return m.defaultFailureMessageWhenNegated
	case MethodDiffable, MethodSupportsBlock:
		return constant(false)
	case MethodSupportsValue:
		return constant(true)
	}
	return func(args []any) (any, error) {
		return m.fallback(string(method), args, nil)
	}
}

func constant(v any) implementation {
	return func([]any) (any, error) { return v, nil }
}

// defaultMatches has no rule of its own: it records actual and asks the
// execution context, which usually fails with MethodNotUnderstoodError.
func (m *Matcher) defaultMatches(args []any) (any, error) {
	m.recordActual(args[0])
	return m.fallback(string(MethodMatches), args, nil)
}

// defaultDoesNotMatch negates whatever layer answers matches?.
func (m *Matcher) defaultDoesNotMatch(args []any) (any, error) {
	out, err := m.resolve(MethodMatches)(args)
	if err != nil {
		return nil, err
	}
	ok, isBool := out.(bool)
	if !isBool {
		return out, nil
	}
	return !ok, nil
}

func (m *Matcher) defaultDescription([]any) (any, error) {
	var b strings.Builder
	b.WriteString(m.phraser.NameToSentence(m.name))
	b.WriteString(m.phraser.ToSentence(m.expected))
	if m.includeChainClauses {
		for _, clause := range m.clauses {
			b.WriteString(" ")
			b.WriteString(m.phraser.NameToSentence(clause.name))
			b.WriteString(m.phraser.ToSentence(clause.args))
		}
	}
	return b.String(), nil
}

func (m *Matcher) defaultFailureMessage([]any) (any, error) {
	return m.failureMessage("to")
}

func (m *Matcher) defaultFailureMessageWhenNegated([]any) (any, error) {
	return m.failureMessage("not to")
}

func (m *Matcher) failureMessage(verb string) (string, error) {
	description, err := m.Description()
	if err != nil {
		return "", err
	}
	return "expected " + m.phraser.Inspect(m.actual) + " " + verb + " " + description, nil
}
