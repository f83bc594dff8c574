// Package matchers declares the stock matchers shipped with matchkit. Every
// matcher is built through the dsl package, so they double as worked examples
// of the declaration API.
package matchers

import (
	"fmt"
	"reflect"
	"time"

	"matchkit/dsl"
	"matchkit/pretty"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Stock matcher names.
const (
	BeEven          = "be_even"
	BeWithin        = "be_within"
	HaveErrorsOn    = "have_errors_on"
	MatchPattern    = "match_pattern"
	BeUUID          = "be_uuid"
	BeValid         = "be_valid"
	ConformToSchema = "conform_to_schema"
	EqualYAML       = "equal_yaml"
)

const (
	// DefaultPatternTimeout bounds a single match_pattern evaluation
	DefaultPatternTimeout = 100 * time.Millisecond
	// DefaultPatternCacheSize is the number of compiled patterns kept
	DefaultPatternCacheSize = 256
)

// Options configures the stock matchers.
type Options struct {
	PatternTimeout   time.Duration
	PatternCacheSize int
	Formatter        *pretty.Formatter
	Logger           *zap.SugaredLogger
	Metrics          bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		PatternTimeout:   DefaultPatternTimeout,
		PatternCacheSize: DefaultPatternCacheSize,
		Formatter:        pretty.Default,
		Logger:           zap.NewNop().Sugar(),
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PatternTimeout <= 0 {
		o.PatternTimeout = d.PatternTimeout
	}
	if o.PatternCacheSize <= 0 {
		o.PatternCacheSize = d.PatternCacheSize
	}
	if o.Formatter == nil {
		o.Formatter = d.Formatter
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	return o
}

// RegisterAll registers every stock matcher on reg. Registering twice replaces
// the earlier definitions.
func RegisterAll(reg *dsl.Registry, opts Options) error {
	opts = opts.withDefaults()

	patterns, err := newPatternCache(opts.PatternCacheSize, opts.PatternTimeout, opts.Metrics, opts.Logger)
	if err != nil {
		return fmt.Errorf("failed to create pattern cache: %w", err)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())

	stock := []dsl.Definition{
		{Name: BeEven, Declare: beEven},
		{Name: BeWithin, Declare: beWithin},
		{Name: HaveErrorsOn, Declare: haveErrorsOn},
		{Name: MatchPattern, Declare: matchPattern(patterns)},
		{Name: BeUUID, Declare: beUUID},
		{Name: BeValid, Declare: beValid(validate, opts.Formatter)},
		{Name: ConformToSchema, Declare: conformToSchema(opts.Formatter)},
		{Name: EqualYAML, Declare: equalYAML},
	}
	for _, def := range stock {
		reg.Register(def.Name, def.Declare)
	}

	opts.Logger.Debugw("Stock matchers registered", "count", len(stock))
	return nil
}

// toFloat converts any numeric value to float64.
func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
