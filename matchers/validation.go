package matchers

import (
	"errors"
	"fmt"
	"strings"

	"matchkit/dsl"
	"matchkit/pretty"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

// haveErrorsOn matches a field-errors map carrying errors for the expected key.
// with(msg) requires one of them to equal msg.
//
//	have_errors_on("age").with("must be positive")
func haveErrorsOn(s *dsl.Scope) {
	s.ChainAttr("with", "message")

	s.Match(func(errs any) (bool, error) {
		messages, err := fieldErrors(errs, fmt.Sprint(s.Arg(0)))
		if err != nil {
			return false, err
		}
		want := s.Attr("message")
		if want == nil {
			return len(messages) > 0, nil
		}
		for _, msg := range messages {
			if msg == fmt.Sprint(want) {
				return true, nil
			}
		}
		return false, nil
	})
}

// fieldErrors extracts the messages recorded for key. Decoded documents carry
// []any values, so those are accepted alongside typed maps.
func fieldErrors(errs any, key string) ([]string, error) {
	switch m := errs.(type) {
	case nil:
		return nil, nil
	case map[string][]string:
		return m[key], nil
	case map[string]string:
		if msg, ok := m[key]; ok {
			return []string{msg}, nil
		}
		return nil, nil
	case map[string]any:
		switch v := m[key].(type) {
		case nil:
			return nil, nil
		case string:
			return []string{v}, nil
		case []string:
			return v, nil
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				out = append(out, fmt.Sprint(item))
			}
			return out, nil
		default:
			return nil, fmt.Errorf("have_errors_on: unsupported messages for %q: %T", key, v)
		}
	}
	return nil, fmt.Errorf("have_errors_on: expected a map of field errors, got %T", errs)
}

// beValid runs struct validation and passes when no validation errors are
// raised. Other errors (such as validating a non-struct) propagate.
func beValid(validate *validator.Validate, f *pretty.Formatter) dsl.DeclareFunc {
	return func(s *dsl.Scope) {
		s.MatchUnlessRaises(dsl.KindOfType[validator.ValidationErrors](), func(v any) error {
			return validate.Struct(v)
		})

		s.FailureMessage(func(v any) string {
			return fmt.Sprintf("expected %s to be valid, but %s", f.Inspect(v), describeViolations(s.RescuedException()))
		})
	}
}

func describeViolations(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprint(err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}

// conformToSchema validates a document against a JSON schema. Both the schema
// and the document may be JSON text, raw bytes or decoded Go values.
func conformToSchema(f *pretty.Formatter) dsl.DeclareFunc {
	return func(s *dsl.Scope) {
		s.Match(func(doc any) (bool, error) {
			schema, err := gojsonschema.NewSchema(jsonLoader(s.Arg(0)))
			if err != nil {
				return false, fmt.Errorf("conform_to_schema: invalid schema: %w", err)
			}
			result, err := schema.Validate(jsonLoader(doc))
			if err != nil {
				return false, fmt.Errorf("conform_to_schema: %w", err)
			}

			violations := make([]string, 0, len(result.Errors()))
			for _, re := range result.Errors() {
				violations = append(violations, re.String())
			}
			s.SetAttr("violations", violations)
			return result.Valid(), nil
		})

		s.Description(func() string { return "conform to schema" })

		s.FailureMessage(func(doc any) string {
			var b strings.Builder
			fmt.Fprintf(&b, "expected %s to conform to schema", f.Inspect(doc))
			if violations, _ := s.Attr("violations").([]string); len(violations) > 0 {
				b.WriteString(", but:")
				for _, v := range violations {
					b.WriteString("\n  - ")
					b.WriteString(v)
				}
			}
			return b.String()
		})
	}
}

func jsonLoader(v any) gojsonschema.JSONLoader {
	switch doc := v.(type) {
	case string:
		return gojsonschema.NewStringLoader(doc)
	case []byte:
		return gojsonschema.NewBytesLoader(doc)
	default:
		return gojsonschema.NewGoLoader(doc)
	}
}
