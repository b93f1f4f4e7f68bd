package parser

import (
	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/lexer"
)

// ParsePackage normalizes and parses one package's source text, the
// contract internal/registry relies on to turn a (package, path) pair
// into a parse tree.
func ParsePackage(filename, source string) (*ast.Node, *errors.Diagnostics) {
	normalized := lexer.Normalize([]byte(source))
	l := lexer.New(string(normalized), filename)
	p := New(l, filename)
	file := p.Parse()
	return file, p.Diagnostics()
}
