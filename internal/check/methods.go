package check

import "github.com/virdant-lang/virdant/internal/vtypes"

// methodSig describes one entry in the fixed method-dispatch table:
// arity is either 0 or 1, and the result is either the subject's own
// width or a fixed one-bit word.
type methodSig struct {
	arity       int
	resultWord1 bool
}

// wordMethods is the complete, closed method table for Word(n)
// subjects. No other type family has methods.
var wordMethods = map[string]methodSig{
	"add": {arity: 1},
	"sub": {arity: 1},
	"and": {arity: 1},
	"or":  {arity: 1},
	"not": {arity: 0},
	"neg": {arity: 0},

	"eq":  {arity: 1, resultWord1: true},
	"neq": {arity: 1, resultWord1: true},
	"lt":  {arity: 1, resultWord1: true},
	"lte": {arity: 1, resultWord1: true},
	"gt":  {arity: 1, resultWord1: true},
	"gte": {arity: 1, resultWord1: true},
}

// lookupMethod returns the parameter type (nil if arity 0), result
// type, and arity of calling name on a value of type t. ok is false if
// t's type family has no such method.
func lookupMethod(t vtypes.Type, name string) (paramType, resultType vtypes.Type, arity int, ok bool) {
	w, isWord := t.(vtypes.Word)
	if !isWord {
		return nil, nil, 0, false
	}
	sig, found := wordMethods[name]
	if !found {
		return nil, nil, 0, false
	}
	result := vtypes.Type(w)
	if sig.resultWord1 {
		result = vtypes.Word{Width: 1}
	}
	if sig.arity == 1 {
		return w, result, 1, true
	}
	return nil, result, 0, true
}
