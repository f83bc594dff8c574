package matchers

import (
	"fmt"

	"matchkit/dsl"

	"github.com/google/uuid"
)

// beUUID matches canonical and URN-form UUID strings. The of_version chain
// narrows the match to one UUID version.
func beUUID(s *dsl.Scope) {
	s.ChainAttr("of_version", "version")

	s.Match(func(v string) (bool, error) {
		id, err := uuid.Parse(v)
		if err != nil {
			return false, nil
		}
		want := s.Attr("version")
		if want == nil {
			return true, nil
		}
		version, ok := toFloat(want)
		if !ok {
			return false, fmt.Errorf("be_uuid: version must be numeric, got %T", want)
		}
		return int(id.Version()) == int(version), nil
	})

	s.Description(func() string {
		if v := s.Attr("version"); v != nil {
			return fmt.Sprintf("be a UUID of version %v", v)
		}
		return "be a UUID"
	})
}
