package dsl

import (
	"fmt"
	"math"
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// signatureCacheSize bounds the number of distinct func types whose shape is
// remembered. Declarations are usually written as a handful of literals, so
// the working set is small.
const signatureCacheSize = 512

// signatureCache memoizes the analysis of a func type. Every instance built
// from a definition re-registers the same closure types, so after the first
// build the parameter-count decision is a cache hit.
var signatureCache = mustSignatureCache()

func mustSignatureCache() *lru.Cache[reflect.Type, *signature] {
	cache, err := lru.New[reflect.Type, *signature](signatureCacheSize)
	if err != nil {
		panic(fmt.Sprintf("dsl: signature cache: %v", err))
	}
	return cache
}

// signature is the cached shape of a user-supplied func.
type signature struct {
	numIn    int
	variadic bool
	in       []reflect.Type

	// value is the type of the first non-error result, nil when there is none
	value reflect.Type
	// returnsErr is set when the last result is an error
	returnsErr bool
}

// wantsActual reports whether the func takes at least one parameter and so
// must receive the actual value.
func (s *signature) wantsActual() bool {
	return s.numIn > 0
}

func analyze(fnType reflect.Type) *signature {
	if sig, ok := signatureCache.Get(fnType); ok {
		return sig
	}

	sig := &signature{
		numIn:    fnType.NumIn(),
		variadic: fnType.IsVariadic(),
	}
	for i := 0; i < sig.numIn; i++ {
		sig.in = append(sig.in, fnType.In(i))
	}

	numOut := fnType.NumOut()
	if numOut > 0 && fnType.Out(numOut-1) == errorType {
		sig.returnsErr = true
		numOut--
	}
	if numOut > 0 {
		sig.value = fnType.Out(0)
	}

	signatureCache.Add(fnType, sig)
	return sig
}

// callable is a user func compiled once at registration.
type callable struct {
	method string
	fn     reflect.Value
	sig    *signature
}

// resultShape constrains the value result a callable may produce.
type resultShape int

const (
	// anyResult accepts any result list
	anyResult resultShape = iota
	// boolResult requires a bool value result
	boolResult
	// stringResult requires a string value result
	stringResult
)

// compile validates fn against the method's expectations and caches its shape.
//
// Parameters:
//   - method: the protocol or chain method the func is registered for
//   - fn: the user-supplied func
//   - shape: the required value result
//   - takesActual: whether the func is invoked under the parameter-count rule
//     (at most one positional parameter, filled with the actual value)
//
// Returns:
//   - *callable: the compiled callable
//   - error: a description of why fn cannot serve the method
func compile(method string, fn any, shape resultShape, takesActual bool) (*callable, error) {
	if fn == nil {
		return nil, fmt.Errorf("%s: no block given", method)
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s: expected a func, got %T", method, fn)
	}
	if rv.IsNil() {
		return nil, fmt.Errorf("%s: nil func", method)
	}

	sig := analyze(rv.Type())

	if takesActual {
		switch {
		case sig.numIn <= 1:
		case sig.numIn == 2 && sig.variadic:
		default:
			return nil, fmt.Errorf("%s: block takes %d parameters, at most one (the actual value) is supported", method, sig.numIn)
		}
	}

	switch shape {
	case boolResult:
		if sig.value == nil || sig.value.Kind() != reflect.Bool {
			return nil, fmt.Errorf("%s: block must return bool or (bool, error), got %s", method, rv.Type())
		}
	case stringResult:
		if sig.value == nil || sig.value.Kind() != reflect.String {
			return nil, fmt.Errorf("%s: block must return string or (string, error), got %s", method, rv.Type())
		}
	}

	return &callable{method: method, fn: rv, sig: sig}, nil
}

// callWithActual invokes the callable under the parameter-count rule: a func
// with no parameters is called without arguments, otherwise actual is passed as
// the sole positional argument.
func (c *callable) callWithActual(actual any) (any, error) {
	if !c.sig.wantsActual() {
		return c.call(nil)
	}

	paramType := c.sig.in[0]
	if c.sig.variadic && c.sig.numIn == 1 {
		paramType = paramType.Elem()
	}
	arg, err := convertArg(c.method, actual, paramType)
	if err != nil {
		return nil, err
	}
	return c.call([]reflect.Value{arg})
}

// callWithArgs invokes the callable with explicit arguments, checking arity the
// way a direct call would.
func (c *callable) callWithArgs(args []any) (any, error) {
	sig := c.sig
	if sig.variadic {
		if len(args) < sig.numIn-1 {
			return nil, &ArgumentError{
				Method: c.method,
				Reason: fmt.Sprintf("given %d, expected %d+", len(args), sig.numIn-1),
			}
		}
	} else if len(args) != sig.numIn {
		return nil, &ArgumentError{
			Method: c.method,
			Reason: fmt.Sprintf("given %d, expected %d", len(args), sig.numIn),
		}
	}

	in := make([]reflect.Value, 0, len(args))
	for i, a := range args {
		var paramType reflect.Type
		if sig.variadic && i >= sig.numIn-1 {
			paramType = sig.in[sig.numIn-1].Elem()
		} else {
			paramType = sig.in[i]
		}
		v, err := convertArg(c.method, a, paramType)
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	return c.call(in)
}

func (c *callable) call(in []reflect.Value) (any, error) {
	out := c.fn.Call(in)

	var err error
	if c.sig.returnsErr {
		last := out[len(out)-1]
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		out = out[:len(out)-1]
	}

	var value any
	if len(out) > 0 {
		value = out[0].Interface()
	}
	return value, err
}

// convertArg adapts v to a parameter of type t. A nil v becomes the zero value
// only for kinds that can hold nil. Numeric values convert between numeric
// kinds when no information is lost, so decoded documents (where every integer
// may be an int or a float64) still reach typed blocks.
func convertArg(method string, v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		if nillable(t.Kind()) {
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, &ArgumentError{
			Method: method,
			Reason: fmt.Sprintf("cannot use nil as %s", t),
		}
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		if out, ok := convertNumeric(rv, t); ok {
			return out, nil
		}
		return reflect.Value{}, &ArgumentError{
			Method: method,
			Reason: fmt.Sprintf("%T %v does not fit in %s", v, v, t),
		}
	}

	return reflect.Value{}, &ArgumentError{
		Method: method,
		Reason: fmt.Sprintf("cannot use %T as %s", v, t),
	}
}

const (
	twoTo63 = float64(1 << 63)
	twoTo64 = 2 * twoTo63
)

// convertNumeric converts rv to t, reporting false when the value overflows t,
// has a fractional part that t cannot hold, or changes sign. Float to float
// conversions only check range; rounding to float32 precision is accepted.
func convertNumeric(rv reflect.Value, t reflect.Type) (reflect.Value, bool) {
	out := reflect.New(t).Elem()

	switch {
	case rv.CanInt():
		i := rv.Int()
		switch {
		case out.CanInt():
			if out.OverflowInt(i) {
				return reflect.Value{}, false
			}
			out.SetInt(i)
		case out.CanUint():
			if i < 0 || out.OverflowUint(uint64(i)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(i))
		default:
			f := float64(i)
			if f >= twoTo63 || int64(f) != i {
				return reflect.Value{}, false
			}
			out.SetFloat(f)
			if out.Float() != f {
				return reflect.Value{}, false
			}
		}

	case rv.CanUint():
		u := rv.Uint()
		switch {
		case out.CanInt():
			if u > math.MaxInt64 || out.OverflowInt(int64(u)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(u))
		case out.CanUint():
			if out.OverflowUint(u) {
				return reflect.Value{}, false
			}
			out.SetUint(u)
		default:
			f := float64(u)
			if f >= twoTo64 || uint64(f) != u {
				return reflect.Value{}, false
			}
			out.SetFloat(f)
			if out.Float() != f {
				return reflect.Value{}, false
			}
		}

	default:
		f := rv.Float()
		switch {
		case out.CanFloat():
			if out.OverflowFloat(f) {
				return reflect.Value{}, false
			}
			out.SetFloat(f)
		case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
			return reflect.Value{}, false
		case out.CanInt():
			if f < -twoTo63 || f >= twoTo63 || out.OverflowInt(int64(f)) {
				return reflect.Value{}, false
			}
			out.SetInt(int64(f))
		default:
			if f < 0 || f >= twoTo64 || out.OverflowUint(uint64(f)) {
				return reflect.Value{}, false
			}
			out.SetUint(uint64(f))
		}
	}
	return out, true
}

func nillable(k reflect.Kind) bool {
	switch k {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
