package dsl

import (
	"fmt"

	"go.uber.org/zap"
)

// Method names a protocol method of the matcher surface.
type Method string

// Protocol methods consumed by an expectation engine.
const (
	MethodMatches                   Method = "matches?"
	MethodDoesNotMatch              Method = "does_not_match?"
	MethodDescription               Method = "description"
	MethodFailureMessage            Method = "failure_message"
	MethodFailureMessageWhenNegated Method = "failure_message_when_negated"
	MethodDiffable                  Method = "diffable?"
	MethodSupportsBlock             Method = "supports_block_expectations?"
	MethodSupportsValue             Method = "supports_value_expectations?"
)

// readers are the state accessors exposed under their protocol names.
const (
	readerExpected         = "expected"
	readerExpectedAsArray  = "expected_as_array"
	readerActual           = "actual"
	readerRescuedException = "rescued_exception"
	readerName             = "name"
)

// isProtocolName reports whether name belongs to the fixed protocol surface.
// Chain methods may not shadow these names.
func isProtocolName(name string) bool {
	switch Method(name) {
	case MethodMatches, MethodDoesNotMatch, MethodDescription, MethodFailureMessage,
		MethodFailureMessageWhenNegated, MethodDiffable, MethodSupportsBlock, MethodSupportsValue:
		return true
	}
	switch name {
	case readerExpected, readerExpectedAsArray, readerActual, readerRescuedException, readerName:
		return true
	}
	return false
}

// State is the lifecycle position of a matcher instance.
type State int

const (
	// StateDeclared means construction finished and no evaluation has run
	StateDeclared State = iota
	// StateEvaluated means a match predicate ran to completion
	StateEvaluated
	// StateErrored means an evaluation surfaced an uncaught error
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDeclared:
		return "declared"
	case StateEvaluated:
		return "evaluated"
	case StateErrored:
		return "errored"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// implementation is the uniform shape of every layer in an override chain.
type implementation func(args []any) (any, error)

// override is the two-layer entry for one method: the user's raw block and the
// wrapper that adds cross-cutting behavior before reaching it.
type override struct {
	base    *callable // nil for constant overrides such as diffable
	wrapper implementation
}

// chainClause records one chain call for descriptions.
type chainClause struct {
	name string
	args []any
}

// Matcher is one instance of a declared matcher, built for a single use site.
// It is not safe for concurrent use.
type Matcher struct {
	name     string
	expected []any

	actual    any
	actualSet bool
	rescued   error
	state     State

	overrides map[Method]*override
	chains    map[string]*override
	clauses   []chainClause
	attrs     map[string]any

	ctx                 ExecutionContext
	phraser             Phraser
	includeChainClauses bool
	logger              *zap.SugaredLogger

	declaring bool
	declErrs  []error
}

func newMatcher(name string, expected []any, ctx ExecutionContext, opts buildOptions) *Matcher {
	if ctx == nil {
		ctx = NoContext
	}
	phraser := opts.phraser
	if phraser == nil {
		phraser = defaultPhraser
	}
	logger := opts.logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Matcher{
		name:                name,
		expected:            append([]any(nil), expected...),
		overrides:           make(map[Method]*override),
		chains:              make(map[string]*override),
		attrs:               make(map[string]any),
		ctx:                 ctx,
		phraser:             phraser,
		includeChainClauses: opts.includeChainClauses,
		logger:              logger,
	}
}

// Name returns the name the matcher was registered under.
func (m *Matcher) Name() string { return m.name }

// Expected returns the single expected value when one was given, otherwise the
// full list (nil when there are none).
func (m *Matcher) Expected() any {
	switch len(m.expected) {
	case 0:
		return nil
	case 1:
		return m.expected[0]
	}
	return m.ExpectedAsArray()
}

// ExpectedAsArray returns a copy of the expected values.
func (m *Matcher) ExpectedAsArray() []any {
	return append([]any(nil), m.expected...)
}

// Arg returns the i-th expected value, or nil when out of range.
func (m *Matcher) Arg(i int) any {
	if i < 0 || i >= len(m.expected) {
		return nil
	}
	return m.expected[i]
}

// Actual returns the value under evaluation and whether one has been recorded.
func (m *Matcher) Actual() (any, bool) { return m.actual, m.actualSet }

// RescuedException returns the error captured by a MatchUnlessRaises wrapper.
func (m *Matcher) RescuedException() error { return m.rescued }

// State returns the lifecycle state of the instance.
func (m *Matcher) State() State { return m.state }

// Context returns the execution context unhandled calls are delegated to.
func (m *Matcher) Context() ExecutionContext { return m.ctx }

// Attr returns a value stored by a ChainAttr method.
func (m *Matcher) Attr(name string) any { return m.attrs[name] }

// SetAttr stores a per-instance value readable through Attr.
func (m *Matcher) SetAttr(name string, value any) { m.attrs[name] = value }

func (m *Matcher) String() string {
	return fmt.Sprintf("#<matcher %s>", m.name)
}

func (m *Matcher) recordActual(actual any) {
	m.actual = actual
	m.actualSet = true
}

// resolve returns the layer that answers method: the wrapper when an override
// was declared, otherwise the default implementation.
func (m *Matcher) resolve(method Method) implementation {
	if o, ok := m.overrides[method]; ok {
		return o.wrapper
	}
	return m.defaultImplementation(method)
}

// Matches evaluates the positive predicate against actual.
func (m *Matcher) Matches(actual any) (bool, error) {
	return m.evaluate(MethodMatches, actual)
}

// DoesNotMatch evaluates the negative predicate against actual.
func (m *Matcher) DoesNotMatch(actual any) (bool, error) {
	return m.evaluate(MethodDoesNotMatch, actual)
}

// evaluate runs a predicate. A panic escaping the predicate leaves the
// instance errored before it propagates.
func (m *Matcher) evaluate(method Method, actual any) (bool, error) {
	defer func() {
		if r := recover(); r != nil {
			m.state = StateErrored
			panic(r)
		}
	}()

	out, err := m.resolve(method)([]any{actual})
	if err != nil {
		m.state = StateErrored
		return false, err
	}
	m.state = StateEvaluated

	ok, isBool := out.(bool)
	if !isBool {
		m.state = StateErrored
		return false, fmt.Errorf("%s for matcher '%s' returned %T, want bool", method, m.name, out)
	}
	return ok, nil
}

// Description returns the human-readable description of the matcher.
func (m *Matcher) Description() (string, error) {
	return m.message(MethodDescription)
}

// FailureMessage returns the message shown when a positive expectation fails.
func (m *Matcher) FailureMessage() (string, error) {
	return m.message(MethodFailureMessage)
}

// FailureMessageWhenNegated returns the message shown when a negative expectation fails.
func (m *Matcher) FailureMessageWhenNegated() (string, error) {
	return m.message(MethodFailureMessageWhenNegated)
}

func (m *Matcher) message(method Method) (string, error) {
	out, err := m.resolve(method)(nil)
	if err != nil {
		return "", err
	}
	s, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("%s for matcher '%s' returned %T, want string", method, m.name, out)
	}
	return s, nil
}

// Diffable reports whether an expectation engine should render a diff between
// expected and actual on failure.
func (m *Matcher) Diffable() bool {
	return m.flag(MethodDiffable)
}

// SupportsBlockExpectations reports whether the matcher accepts a func as the
// actual value.
func (m *Matcher) SupportsBlockExpectations() bool {
	return m.flag(MethodSupportsBlock)
}

// SupportsValueExpectations reports whether the matcher accepts plain values.
func (m *Matcher) SupportsValueExpectations() bool {
	return m.flag(MethodSupportsValue)
}

func (m *Matcher) flag(method Method) bool {
	out, err := m.resolve(method)(nil)
	if err != nil {
		return false
	}
	b, _ := out.(bool)
	return b
}
