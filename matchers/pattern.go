package matchers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"matchkit/dsl"
	"matchkit/metrics"

	"github.com/dlclark/regexp2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// ErrPatternTimeout is returned when a pattern match exceeds its timeout.
var ErrPatternTimeout = errors.New("pattern match timeout")

// patternCache holds compiled patterns. Compiled regexp2 patterns are safe for
// concurrent use, so one cache serves every match_pattern instance of a registry.
type patternCache struct {
	cache   *lru.Cache[string, *regexp2.Regexp]
	timeout time.Duration
	metrics bool
	logger  *zap.SugaredLogger
}

func newPatternCache(size int, timeout time.Duration, withMetrics bool, logger *zap.SugaredLogger) (*patternCache, error) {
	cache, err := lru.New[string, *regexp2.Regexp](size)
	if err != nil {
		return nil, err
	}
	return &patternCache{cache: cache, timeout: timeout, metrics: withMetrics, logger: logger}, nil
}

func (c *patternCache) compile(pattern string) (*regexp2.Regexp, error) {
	if re, ok := c.cache.Get(pattern); ok {
		c.record("hit")
		return re, nil
	}
	c.record("miss")

	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", pattern, err)
	}
	re.MatchTimeout = c.timeout
	c.cache.Add(pattern, re)
	return re, nil
}

func (c *patternCache) record(result string) {
	if c.metrics {
		metrics.PatternCacheLookups.WithLabelValues(result).Inc()
	}
}

// match reports whether input matches pattern within the configured timeout.
func (c *patternCache) match(pattern, input string) (bool, error) {
	if pattern == "" {
		return false, fmt.Errorf("pattern cannot be empty")
	}
	re, err := c.compile(pattern)
	if err != nil {
		return false, err
	}

	ok, err := re.MatchString(input)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "timeout") {
			if c.metrics {
				metrics.PatternTimeouts.Inc()
			}
			c.logger.Warnw("Pattern match timed out",
				"pattern", pattern,
				"timeout", c.timeout,
				"input_length", len(input))
			return false, fmt.Errorf("%w after %v", ErrPatternTimeout, c.timeout)
		}
		return false, fmt.Errorf("pattern matching error: %w", err)
	}
	return ok, nil
}

// matchPattern matches strings against the expected pattern. Invalid patterns
// and timeouts are errors, not failed matches.
func matchPattern(patterns *patternCache) dsl.DeclareFunc {
	return func(s *dsl.Scope) {
		s.Match(func(input string) (bool, error) {
			pattern, ok := s.Arg(0).(string)
			if !ok {
				return false, fmt.Errorf("match_pattern: pattern must be a string, got %T", s.Arg(0))
			}
			return patterns.match(pattern, input)
		})
	}
}
