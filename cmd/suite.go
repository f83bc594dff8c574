package cmd

import (
	"fmt"
	"os"

	"matchkit/dsl"
	"matchkit/expect"

	"gopkg.in/yaml.v3"
)

const maxSuiteFileSize = 10 * 1024 * 1024 // 10MB

// Suite is a YAML document of expectations evaluated by the check command.
//
//	name: users
//	cases:
//	  - name: age is even
//	    matcher: be_even
//	    actual: 42
//	  - name: close enough
//	    matcher: be_within
//	    expected: 0.5
//	    chain:
//	      - method: of
//	        args: [10]
//	    actual: 10.2
type Suite struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// Case is one expectation: a matcher built with the expected arguments, the
// chain calls applied to it, and the actual value it is evaluated against.
type Case struct {
	Name     string      `yaml:"name"`
	Matcher  string      `yaml:"matcher"`
	Expected ArgList     `yaml:"expected"`
	Chain    []ChainCall `yaml:"chain"`
	Actual   any         `yaml:"actual"`
	Negate   bool        `yaml:"negate"`
}

// ChainCall is a fluent call made on the matcher before evaluation.
type ChainCall struct {
	Method string  `yaml:"method"`
	Args   ArgList `yaml:"args"`
}

// ArgList decodes either a sequence of arguments or a single scalar or
// mapping argument. A single sequence argument must be wrapped in another
// sequence.
type ArgList []any

// UnmarshalYAML implements yaml.Unmarshaler.
func (a *ArgList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var items []any
		if err := node.Decode(&items); err != nil {
			return err
		}
		*a = items
		return nil
	}

	var item any
	if err := node.Decode(&item); err != nil {
		return err
	}
	*a = ArgList{item}
	return nil
}

// LoadSuite reads and validates a suite file.
func LoadSuite(path string) (*Suite, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}
	if info.Size() > maxSuiteFileSize {
		return nil, fmt.Errorf("suite file too large: %d bytes (max %d)", info.Size(), maxSuiteFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes and validates a suite document.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse suite: %w", err)
	}

	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("suite has no cases")
	}
	for i := range suite.Cases {
		c := &suite.Cases[i]
		if c.Matcher == "" {
			return nil, fmt.Errorf("case %d: matcher is required", i+1)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("case %d", i+1)
		}
		for j, call := range c.Chain {
			if call.Method == "" {
				return nil, fmt.Errorf("case %q: chain call %d: method is required", c.Name, j+1)
			}
		}
	}
	return &suite, nil
}

// Case statuses.
const (
	StatusPass  = "pass"
	StatusFail  = "fail"
	StatusError = "error"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name   string        `json:"name"`
	Status string        `json:"status"`
	Result expect.Result `json:"result"`
	Error  string        `json:"error,omitempty"`
}

// Report aggregates the outcome of a suite run.
type Report struct {
	Suite   string       `json:"suite"`
	Passed  int          `json:"passed"`
	Failed  int          `json:"failed"`
	Errored int          `json:"errored"`
	Cases   []CaseResult `json:"cases"`
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

// RunSuite evaluates every case in order. Errors raised while building or
// evaluating a case are recorded on that case; the run continues.
func RunSuite(reg *dsl.Registry, engine *expect.Engine, suite *Suite) *Report {
	report := &Report{Suite: suite.Name}
	for _, c := range suite.Cases {
		res := runCase(reg, engine, c)
		switch res.Status {
		case StatusPass:
			report.Passed++
		case StatusFail:
			report.Failed++
		default:
			report.Errored++
		}
		report.Cases = append(report.Cases, res)
	}
	return report
}

func runCase(reg *dsl.Registry, engine *expect.Engine, c Case) CaseResult {
	out := CaseResult{Name: c.Name, Status: StatusError}

	m, err := reg.New(c.Matcher, nil, c.Expected...)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	for _, call := range c.Chain {
		if _, err := m.Call(call.Method, call.Args...); err != nil {
			out.Error = err.Error()
			return out
		}
	}

	res, err := engine.Evaluate(c.Actual, m, c.Negate)
	out.Result = res
	if err != nil {
		out.Error = err.Error()
		return out
	}

	out.Status = StatusFail
	if res.Passed {
		out.Status = StatusPass
	}
	return out
}
