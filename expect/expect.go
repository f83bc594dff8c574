// Package expect evaluates matchers against actual values and turns failed
// matches into errors carrying the matcher's failure message.
package expect

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"matchkit/dsl"
	"matchkit/metrics"
	"matchkit/pretty"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// Matcher is the protocol the engine needs for positive expectations.
type Matcher interface {
	Matches(actual any) (bool, error)
	FailureMessage() (string, error)
}

// NegativeMatcher is implemented by matchers with a dedicated negative predicate.
type NegativeMatcher interface {
	DoesNotMatch(actual any) (bool, error)
}

// NegatedMessenger is implemented by matchers with a negative failure message.
type NegatedMessenger interface {
	FailureMessageWhenNegated() (string, error)
}

// Describer is implemented by matchers that describe themselves.
type Describer interface {
	Description() (string, error)
}

// DiffableMatcher is implemented by matchers whose failures can show a diff
// between expected and actual.
type DiffableMatcher interface {
	Diffable() bool
	Expected() any
}

type named interface {
	Name() string
}

type rescuer interface {
	RescuedException() error
}

// FailureError is returned when an expectation is not met. It wraps
// dsl.ErrExpectationNotMet, so a failed expectation inside a dsl Match block
// makes that block return false.
type FailureError struct {
	// Matcher is the name of the matcher that failed
	Matcher string
	// Message is the matcher's failure message
	Message string
	// Diff is the expected/actual diff for diffable matchers, empty otherwise
	Diff string
	// Negated is set for failed negative expectations
	Negated bool
}

// Error implements the error interface for FailureError.
func (e *FailureError) Error() string {
	if e.Diff == "" {
		return e.Message
	}
	return e.Message + "\nDiff (-expected +actual):\n" + e.Diff
}

// Unwrap returns dsl.ErrExpectationNotMet.
func (e *FailureError) Unwrap() error {
	return dsl.ErrExpectationNotMet
}

// Result is the outcome of one evaluated expectation.
type Result struct {
	Matcher     string        `json:"matcher"`
	Description string        `json:"description,omitempty"`
	Negated     bool          `json:"negated"`
	Passed      bool          `json:"passed"`
	Message     string        `json:"message,omitempty"`
	Diff        string        `json:"diff,omitempty"`
	Rescued     string        `json:"rescued,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Engine evaluates expectations.
type Engine struct {
	logger  *zap.SugaredLogger
	metrics bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Evaluations are logged at debug level.
func WithLogger(logger *zap.SugaredLogger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation of evaluations.
func WithMetrics(enabled bool) EngineOption {
	return func(e *Engine) { e.metrics = enabled }
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{logger: zap.NewNop().Sugar()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Default is the engine used by the package-level helpers.
var Default = NewEngine()

// Evaluate runs m against actual and renders the failure message when the
// expectation is not met. Errors raised by the matcher are returned as is.
//
// Parameters:
//   - actual: the value under test
//   - m: the matcher
//   - negate: evaluate the negative expectation
//
// Returns:
//   - Result: the outcome; Message and Diff are set only on failure
//   - error: any error raised by the matcher's predicate or messages
func (e *Engine) Evaluate(actual any, m Matcher, negate bool) (Result, error) {
	start := time.Now()
	res := Result{Matcher: matcherName(m), Negated: negate}

	passed, err := e.predicate(actual, m, negate)
	if err != nil {
		e.observe(res.Matcher, metrics.OutcomeError, start)
		e.logger.Debugw("Expectation errored",
			"matcher", res.Matcher,
			"negated", negate,
			"error", err)
		return res, err
	}
	res.Passed = passed

	if d, ok := m.(Describer); ok {
		if res.Description, err = d.Description(); err != nil {
			e.observe(res.Matcher, metrics.OutcomeError, start)
			return res, err
		}
	}
	if r, ok := m.(rescuer); ok && r.RescuedException() != nil {
		res.Rescued = r.RescuedException().Error()
		if e.metrics {
			metrics.RescuedErrors.WithLabelValues(res.Matcher).Inc()
		}
	}

	if !passed {
		if res.Message, err = failureMessage(m, actual, negate); err != nil {
			e.observe(res.Matcher, metrics.OutcomeError, start)
			return res, err
		}
		if !negate {
			res.Diff = diff(m, actual)
		}
	}

	outcome := metrics.OutcomePass
	if !passed {
		outcome = metrics.OutcomeFail
	}
	res.Duration = e.observe(res.Matcher, outcome, start)

	e.logger.Debugw("Expectation evaluated",
		"matcher", res.Matcher,
		"negated", negate,
		"passed", passed,
		"duration", res.Duration)
	return res, nil
}

func (e *Engine) predicate(actual any, m Matcher, negate bool) (bool, error) {
	if !negate {
		return m.Matches(actual)
	}
	if nm, ok := m.(NegativeMatcher); ok {
		return nm.DoesNotMatch(actual)
	}
	ok, err := m.Matches(actual)
	return !ok, err
}

func (e *Engine) observe(matcher, outcome string, start time.Time) time.Duration {
	elapsed := time.Since(start)
	if e.metrics {
		metrics.ExpectationsEvaluated.WithLabelValues(matcher, outcome).Inc()
		metrics.EvaluationDuration.WithLabelValues(matcher).Observe(elapsed.Seconds())
	}
	return elapsed
}

func failureMessage(m Matcher, actual any, negate bool) (string, error) {
	if !negate {
		return m.FailureMessage()
	}
	if nm, ok := m.(NegatedMessenger); ok {
		return nm.FailureMessageWhenNegated()
	}
	description := "match"
	if d, ok := m.(Describer); ok {
		desc, err := d.Description()
		if err != nil {
			return "", err
		}
		description = desc
	}
	return fmt.Sprintf("expected %s not to %s", pretty.Default.Inspect(actual), description), nil
}

// diff renders expected against actual for diffable matchers. Unexported
// fields are compared too.
func diff(m Matcher, actual any) string {
	dm, ok := m.(DiffableMatcher)
	if !ok || !dm.Diffable() {
		return ""
	}
	expected := dm.Expected()
	if expected == nil || actual == nil {
		return ""
	}
	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return ""
	}
	return strings.TrimSpace(cmp.Diff(expected, actual, cmp.Exporter(func(reflect.Type) bool { return true })))
}

func matcherName(m Matcher) string {
	if n, ok := m.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}

// To returns a *FailureError when m does not match actual.
func (e *Engine) To(actual any, m Matcher) error {
	return e.check(actual, m, false)
}

// NotTo returns a *FailureError when m matches actual.
func (e *Engine) NotTo(actual any, m Matcher) error {
	return e.check(actual, m, true)
}

func (e *Engine) check(actual any, m Matcher, negate bool) error {
	res, err := e.Evaluate(actual, m, negate)
	if err != nil {
		return err
	}
	if res.Passed {
		return nil
	}
	return &FailureError{Matcher: res.Matcher, Message: res.Message, Diff: res.Diff, Negated: negate}
}

// Expectation binds an actual value to an engine.
type Expectation struct {
	engine *Engine
	actual any
}

// That starts an expectation on the engine.
func (e *Engine) That(actual any) *Expectation {
	return &Expectation{engine: e, actual: actual}
}

// That starts an expectation on the Default engine.
func That(actual any) *Expectation {
	return Default.That(actual)
}

// To evaluates a positive expectation.
func (x *Expectation) To(m Matcher) error {
	return x.engine.To(x.actual, m)
}

// NotTo evaluates a negative expectation.
func (x *Expectation) NotTo(m Matcher) error {
	return x.engine.NotTo(x.actual, m)
}

// Require stops the test when m does not match actual.
func Require(t testing.TB, actual any, m Matcher) {
	t.Helper()
	if err := That(actual).To(m); err != nil {
		t.Fatal(err)
	}
}

// Refute stops the test when m matches actual.
func Refute(t testing.TB, actual any, m Matcher) {
	t.Helper()
	if err := That(actual).NotTo(m); err != nil {
		t.Fatal(err)
	}
}

// Build constructs a matcher from a constructor and stops the test on a
// declaration error.
func Build(t testing.TB, ctor dsl.Constructor, expected ...any) *dsl.Matcher {
	t.Helper()
	m, err := ctor(nil, expected...)
	if err != nil {
		t.Fatalf("building matcher: %v", err)
	}
	return m
}
