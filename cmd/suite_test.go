package cmd

import (
	"testing"

	"matchkit/dsl"
	"matchkit/expect"
	"matchkit/matchers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuite(t *testing.T) {
	suite, err := ParseSuite([]byte(`
name: args
cases:
  - matcher: be_within
    expected: [0.5]
    chain:
      - method: of
        args: 10
  - name: single mapping
    matcher: conform_to_schema
    expected: {type: object}
  - name: nested list
    matcher: equal_yaml
    expected: [[1, 2]]
`))
	require.NoError(t, err)
	require.Len(t, suite.Cases, 3)

	first := suite.Cases[0]
	assert.Equal(t, "case 1", first.Name)
	assert.Equal(t, ArgList{0.5}, first.Expected)
	assert.Equal(t, ArgList{10}, first.Chain[0].Args)

	assert.Equal(t, ArgList{map[string]any{"type": "object"}}, suite.Cases[1].Expected)
	assert.Equal(t, ArgList{[]any{1, 2}}, suite.Cases[2].Expected)
}

func TestParseSuite_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{name: "not yaml", doc: "cases: [", wantErr: "failed to parse suite"},
		{name: "no cases", doc: "name: empty", wantErr: "no cases"},
		{name: "missing matcher", doc: "cases:\n  - actual: 1", wantErr: "matcher is required"},
		{name: "missing chain method", doc: "cases:\n  - matcher: be_even\n    chain:\n      - args: [1]", wantErr: "method is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSuite([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunSuite(t *testing.T) {
	reg := dsl.NewRegistry()
	require.NoError(t, matchers.RegisterAll(reg, matchers.Options{}))

	suite := &Suite{Name: "direct", Cases: []Case{
		{Name: "uuid", Matcher: matchers.BeUUID, Actual: "6ba7b810-9dad-11d1-80b4-00c04fd430c8",
			Chain: []ChainCall{{Method: "of_version", Args: ArgList{1}}}},
		{Name: "bad chain", Matcher: matchers.BeUUID, Actual: "x",
			Chain: []ChainCall{{Method: "of_flavour", Args: ArgList{1}}}},
		{Name: "pattern", Matcher: matchers.MatchPattern, Expected: ArgList{"^b"}, Actual: "abc"},
	}}

	report := RunSuite(reg, expect.NewEngine(), suite)

	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Errored)
	assert.False(t, report.OK())

	assert.Equal(t, StatusPass, report.Cases[0].Status)
	assert.Equal(t, "be a UUID of version 1", report.Cases[0].Result.Description)

	assert.Equal(t, StatusError, report.Cases[1].Status)
	assert.Contains(t, report.Cases[1].Error, "of_flavour")

	assert.Equal(t, StatusFail, report.Cases[2].Status)
	assert.Equal(t, `expected "abc" to match pattern "^b"`, report.Cases[2].Result.Message)
}

func TestRunSuite_MissingActualErrors(t *testing.T) {
	reg := dsl.NewRegistry()
	require.NoError(t, matchers.RegisterAll(reg, matchers.Options{}))

	suite, err := ParseSuite([]byte(`
cases:
  - name: no actual
    matcher: be_even
  - name: fractional
    matcher: be_even
    actual: 4.5
`))
	require.NoError(t, err)

	report := RunSuite(reg, expect.NewEngine(), suite)
	assert.Equal(t, 2, report.Errored)
	assert.Contains(t, report.Cases[0].Error, "cannot use nil as int64")
	assert.Contains(t, report.Cases[1].Error, "does not fit in int64")
}
