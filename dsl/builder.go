package dsl

import (
	"errors"

	"matchkit/util/recovery"

	"go.uber.org/zap"
)

// DeclareFunc is a declaration procedure. It runs once per instance, during
// construction, and configures the instance through the Scope.
type DeclareFunc func(s *Scope)

// Definition is a registered matcher name and its declaration procedure.
type Definition struct {
	Name    string
	Declare DeclareFunc
}

type buildOptions struct {
	phraser             Phraser
	includeChainClauses bool
	logger              *zap.SugaredLogger
}

// Build constructs one matcher instance from def. The declaration procedure
// runs synchronously against the new instance before Build returns; no
// protocol method is evaluated.
//
// Parameters:
//   - def: the definition to instantiate
//   - ctx: the execution context for delegated calls (nil means NoContext)
//   - expected: the expected values bound to the instance
//
// Returns:
//   - *Matcher: the configured instance
//   - error: a *DeclarationError when the procedure panics or registers
//     something invalid
func Build(def Definition, ctx ExecutionContext, expected ...any) (*Matcher, error) {
	return build(def, ctx, expected, buildOptions{})
}

func build(def Definition, ctx ExecutionContext, expected []any, opts buildOptions) (*Matcher, error) {
	m := newMatcher(def.Name, expected, ctx, opts)
	if def.Declare == nil {
		return m, nil
	}

	m.declaring = true
	err := recovery.Call("matcher "+def.Name, func() { def.Declare(&Scope{Matcher: m}) }, m.logger)
	m.declaring = false

	if err != nil {
		return nil, &DeclarationError{Matcher: def.Name, Cause: err}
	}
	if len(m.declErrs) > 0 {
		return nil, &DeclarationError{Matcher: def.Name, Cause: errors.Join(m.declErrs...)}
	}
	return m, nil
}
