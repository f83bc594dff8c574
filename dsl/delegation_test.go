package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helperContext(calls *[]string) MethodSet {
	return MethodSet{
		"double": func(args []any, block any) (any, error) {
			*calls = append(*calls, "double")
			return args[0].(int) * 2, nil
		},
		"each": func(args []any, block any) (any, error) {
			*calls = append(*calls, "each")
			fn := block.(func(int))
			for _, a := range args {
				fn(a.(int))
			}
			return len(args), nil
		},
		"explode": func(args []any, block any) (any, error) {
			return nil, errors.New("context error")
		},
	}
}

func TestInvoke_ForwardsToContext(t *testing.T) {
	var calls []string
	m, err := Build(Definition{Name: "helpers"}, helperContext(&calls))
	require.NoError(t, err)

	out, err := m.Invoke("double", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, []string{"double"}, calls)
}

func TestInvoke_ForwardsTrailingBlock(t *testing.T) {
	var calls []string
	m, err := Build(Definition{Name: "helpers"}, helperContext(&calls))
	require.NoError(t, err)

	var seen []int
	out, err := m.Invoke("each", 1, 2, 3, func(n int) { seen = append(seen, n) })
	require.NoError(t, err)
	assert.Equal(t, 3, out)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestInvoke_ContextErrorsReturnedVerbatim(t *testing.T) {
	var calls []string
	m, err := Build(Definition{Name: "helpers"}, helperContext(&calls))
	require.NoError(t, err)

	_, err = m.Invoke("explode")
	assert.EqualError(t, err, "context error")
}

func TestInvoke_MethodNotUnderstood(t *testing.T) {
	var calls []string
	m, err := Build(Definition{Name: "be_even"}, helperContext(&calls))
	require.NoError(t, err)

	_, err = m.Invoke("triple", 1)
	require.Error(t, err)

	var mnu *MethodNotUnderstoodError
	require.True(t, errors.As(err, &mnu))
	assert.Equal(t, "be_even", mnu.Matcher)
	assert.Equal(t, "triple", mnu.Method)
	assert.Contains(t, err.Error(), "be_even")
	assert.Contains(t, err.Error(), "triple")
	assert.ErrorIs(t, err, &MethodNotUnderstoodError{Method: "triple"})
	assert.Empty(t, calls, "context is not invoked for names it does not support")
}

func TestInvoke_NilContext(t *testing.T) {
	m, err := Build(Definition{Name: "lonely"}, nil)
	require.NoError(t, err)

	assert.Equal(t, NoContext, m.Context())
	_, err = m.Invoke("anything")
	assert.ErrorIs(t, err, &MethodNotUnderstoodError{Matcher: "lonely"})
}

func TestInvoke_ProtocolSurface(t *testing.T) {
	m, err := Build(beEvenDefinition(), nil, 2)
	require.NoError(t, err)

	out, err := m.Invoke("matches?", 4)
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = m.Invoke("description")
	require.NoError(t, err)
	assert.Equal(t, "be even 2", out)

	out, err = m.Invoke("diffable?")
	require.NoError(t, err)
	assert.Equal(t, false, out)

	out, err = m.Invoke("expected")
	require.NoError(t, err)
	assert.Equal(t, 2, out)

	out, err = m.Invoke("actual")
	require.NoError(t, err)
	assert.Equal(t, 4, out)

	_, err = m.Invoke("matches?")
	var argErr *ArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestInvoke_FromInsideBlocks(t *testing.T) {
	ctx := MethodSet{
		"valid_ages": func(args []any, block any) (any, error) {
			return []int{18, 21}, nil
		},
	}
	def := Definition{Name: "be_valid_age", Declare: func(s *Scope) {
		s.Match(func(n int) (bool, error) {
			out, err := s.Invoke("valid_ages")
			if err != nil {
				return false, err
			}
			for _, age := range out.([]int) {
				if age == n {
					return true, nil
				}
			}
			return false, nil
		})
	}}

	m, err := Build(def, ctx)
	require.NoError(t, err)

	ok, err := m.Matches(21)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatches_WithoutOverrideFallsBack(t *testing.T) {
	m, err := Build(Definition{Name: "undeclared"}, nil)
	require.NoError(t, err)

	_, err = m.Matches(1)
	assert.ErrorIs(t, err, &MethodNotUnderstoodError{Matcher: "undeclared", Method: "matches?"})
	actual, set := m.Actual()
	assert.True(t, set)
	assert.Equal(t, 1, actual)

	ctx := MethodSet{
		"matches?": func(args []any, block any) (any, error) { return args[0] == "yes", nil },
	}
	m, err = Build(Definition{Name: "delegated"}, ctx)
	require.NoError(t, err)
	ok, err := m.Matches("yes")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRespondsTo(t *testing.T) {
	var calls []string
	m, err := Build(haveErrorsOn(), helperContext(&calls), "age")
	require.NoError(t, err)

	assert.True(t, m.RespondsTo("with"))
	assert.True(t, m.RespondsTo("matches?"))
	assert.True(t, m.RespondsTo("failure_message"))
	assert.True(t, m.RespondsTo("double"))
	assert.False(t, m.RespondsTo("triple"))
}

func TestCall_RejectsNonChainNames(t *testing.T) {
	var calls []string
	m, err := Build(Definition{Name: "helpers"}, helperContext(&calls))
	require.NoError(t, err)

	_, err = m.Call("double", 1)
	assert.ErrorIs(t, err, &MethodNotUnderstoodError{Method: "double"})
	assert.Empty(t, calls)
}

func TestMethodSet_Names(t *testing.T) {
	var calls []string
	assert.Equal(t, []string{"double", "each", "explode"}, helperContext(&calls).Names())
}
