package matchers

import (
	"fmt"

	"matchkit/dsl"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// equalYAML compares documents structurally, so key order and formatting do not
// matter. Go values are marshaled before comparison.
func equalYAML(s *dsl.Scope) {
	s.Match(func(actual any) (bool, error) {
		want, err := decodeYAML(s.Arg(0))
		if err != nil {
			return false, fmt.Errorf("equal_yaml: expected document: %w", err)
		}
		got, err := decodeYAML(actual)
		if err != nil {
			return false, fmt.Errorf("equal_yaml: actual document: %w", err)
		}
		return cmp.Equal(want, got), nil
	})
	s.Diffable()
}

func decodeYAML(v any) (any, error) {
	var data []byte
	switch doc := v.(type) {
	case string:
		data = []byte(doc)
	case []byte:
		data = doc
	default:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, err
		}
		data = out
	}

	var decoded any
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
