package dsl

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func beEvenDefinition() Definition {
	return Definition{Name: "be_even", Declare: func(s *Scope) {
		s.Match(func(n int) bool { return n%2 == 0 })
	}}
}

func TestBeEven_MatchesEvenNumbers(t *testing.T) {
	def := beEvenDefinition()

	m, err := Build(def, nil)
	require.NoError(t, err)
	ok, err := m.Matches(4)
	require.NoError(t, err)
	assert.True(t, ok)

	fresh, err := Build(def, nil)
	require.NoError(t, err)
	ok, err = fresh.Matches(3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBeEven_DefaultMessages(t *testing.T) {
	m, err := Build(beEvenDefinition(), nil)
	require.NoError(t, err)

	description, err := m.Description()
	require.NoError(t, err)
	assert.Equal(t, "be even", description)

	_, err = m.Matches(3)
	require.NoError(t, err)

	msg, err := m.FailureMessage()
	require.NoError(t, err)
	assert.Equal(t, "expected 3 to be even", msg)

	negated, err := m.FailureMessageWhenNegated()
	require.NoError(t, err)
	assert.Equal(t, "expected 3 not to be even", negated)
}

func TestDefaultDescription_IncludesExpectedValues(t *testing.T) {
	def := Definition{Name: "be_between", Declare: func(s *Scope) {
		s.Match(func(n int) bool {
			return n >= s.Arg(0).(int) && n <= s.Arg(1).(int)
		})
	}}

	m, err := Build(def, nil, 1, 10)
	require.NoError(t, err)

	description, err := m.Description()
	require.NoError(t, err)
	assert.Equal(t, "be between 1 and 10", description)

	ok, err := m.Matches(11)
	require.NoError(t, err)
	assert.False(t, ok)

	msg, err := m.FailureMessage()
	require.NoError(t, err)
	assert.Equal(t, "expected 11 to be between 1 and 10", msg)
}

func TestInstances_HaveIndependentState(t *testing.T) {
	def := Definition{Name: "accept", Declare: func(s *Scope) {
		s.MatchUnlessRaises(AnyError, func(err error) error { return err })
	}}

	first, err := Build(def, nil)
	require.NoError(t, err)
	second, err := Build(def, nil)
	require.NoError(t, err)

	boom := errors.New("boom")
	ok, err := first.Matches(boom)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = second.Matches(nil)
	require.NoError(t, err)
	assert.True(t, ok)

	firstActual, _ := first.Actual()
	secondActual, secondSet := second.Actual()
	assert.Equal(t, boom, firstActual)
	assert.Nil(t, secondActual)
	assert.True(t, secondSet)
	assert.Equal(t, boom, first.RescuedException())
	assert.Nil(t, second.RescuedException())
}

func TestState_Transitions(t *testing.T) {
	fail := errors.New("database down")
	def := Definition{Name: "probe", Declare: func(s *Scope) {
		s.Match(func(v any) (bool, error) {
			if v == "error" {
				return false, fail
			}
			return true, nil
		})
	}}

	m, err := Build(def, nil)
	require.NoError(t, err)
	assert.Equal(t, StateDeclared, m.State())
	_, set := m.Actual()
	assert.False(t, set, "actual is unset before evaluation")

	_, err = m.Matches("ok")
	require.NoError(t, err)
	assert.Equal(t, StateEvaluated, m.State())

	errored, err := Build(def, nil)
	require.NoError(t, err)
	_, err = errored.Matches("error")
	assert.ErrorIs(t, err, fail)
	assert.Equal(t, StateErrored, errored.State())
	assert.Equal(t, "errored", errored.State().String())
}

func TestExpected(t *testing.T) {
	none, err := Build(Definition{Name: "n"}, nil)
	require.NoError(t, err)
	assert.Nil(t, none.Expected())
	assert.Empty(t, none.ExpectedAsArray())

	one, err := Build(Definition{Name: "n"}, nil, "age")
	require.NoError(t, err)
	assert.Equal(t, "age", one.Expected())
	assert.Equal(t, []any{"age"}, one.ExpectedAsArray())

	many, err := Build(Definition{Name: "n"}, nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, many.Expected())
	assert.Nil(t, many.Arg(5))

	arr := many.ExpectedAsArray()
	arr[0] = 99
	assert.Equal(t, 1, many.Arg(0), "ExpectedAsArray returns a copy")
}

func TestBuild_DeclarationPanicFailsConstruction(t *testing.T) {
	def := Definition{Name: "broken", Declare: func(s *Scope) {
		panic("declaration exploded")
	}}

	m, err := Build(def, nil)

	assert.Nil(t, m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeclaration)

	var declErr *DeclarationError
	require.True(t, errors.As(err, &declErr))
	assert.Equal(t, "broken", declErr.Matcher)
	assert.Contains(t, err.Error(), "declaration exploded")
}

func TestBuild_InvalidRegistrationFailsConstruction(t *testing.T) {
	tests := []struct {
		name    string
		declare DeclareFunc
		wantMsg string
	}{
		{
			name:    "match block returning string",
			declare: func(s *Scope) { s.Match(func() string { return "" }) },
			wantMsg: "must return bool",
		},
		{
			name:    "match block with two parameters",
			declare: func(s *Scope) { s.Match(func(a, b int) bool { return a == b }) },
			wantMsg: "at most one",
		},
		{
			name:    "not a func",
			declare: func(s *Scope) { s.Match(42) },
			wantMsg: "expected a func",
		},
		{
			name:    "nil block",
			declare: func(s *Scope) { s.FailureMessage(nil) },
			wantMsg: "no block given",
		},
		{
			name:    "chain shadowing protocol",
			declare: func(s *Scope) { s.Chain("description", func() {}) },
			wantMsg: "protocol method",
		},
		{
			name:    "empty chain name",
			declare: func(s *Scope) { s.ChainAttr("", "x") },
			wantMsg: "empty method name",
		},
		{
			name:    "description returning bool",
			declare: func(s *Scope) { s.Description(func() bool { return true }) },
			wantMsg: "must return string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Build(Definition{Name: "invalid", Declare: tt.declare}, nil)

			assert.Nil(t, m)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDeclaration)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRegistrationAfterConstruction_Panics(t *testing.T) {
	var scope *Scope
	m, err := Build(Definition{Name: "late", Declare: func(s *Scope) { scope = s }}, nil)
	require.NoError(t, err)
	require.NotNil(t, m)

	assert.Panics(t, func() { scope.Match("not a func") })

	// valid registrations still apply to the instance
	scope.Match(func() bool { return true })
	ok, err := m.Matches(nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestString(t *testing.T) {
	m, err := Build(beEvenDefinition(), nil)
	require.NoError(t, err)

	assert.Equal(t, "#<matcher be_even>", m.String())
	assert.Equal(t, "#<matcher be_even>", fmt.Sprint(m))
	assert.True(t, strings.HasPrefix(m.Name(), "be_"))
}
