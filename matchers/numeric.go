package matchers

import (
	"fmt"
	"math"

	"matchkit/dsl"
)

func beEven(s *dsl.Scope) {
	s.Match(func(n int64) bool { return n%2 == 0 })
}

// beWithin checks |actual - target| <= delta. The target is given through the
// of chain: be_within(0.5).of(10).
func beWithin(s *dsl.Scope) {
	s.Chain("of", func(target float64) {
		s.SetAttr("target", target)
	})

	s.Match(func(actual float64) (bool, error) {
		delta, ok := toFloat(s.Arg(0))
		if !ok {
			return false, fmt.Errorf("be_within: delta must be numeric, got %T", s.Arg(0))
		}
		target, ok := s.Attr("target").(float64)
		if !ok {
			return false, fmt.Errorf("be_within: no target given, call of(x)")
		}
		return math.Abs(actual-target) <= delta, nil
	})

	s.Description(func() string {
		if target := s.Attr("target"); target != nil {
			return fmt.Sprintf("be within %v of %v", s.Arg(0), target)
		}
		return fmt.Sprintf("be within %v", s.Arg(0))
	})
}
