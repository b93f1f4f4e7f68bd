// Package parser turns Virdant source text into the internal/ast.Node
// shape the semantic core consumes. It is a plain recursive-descent
// parser over a cur/peek token pair; there is no precedence machinery
// because the language has no infix operators. Arithmetic and
// comparison are spelled as method calls, e.g. `a.add(b)`.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/errors"
	"github.com/virdant-lang/virdant/internal/lexer"
)

// Parser parses Virdant source into an ast.Node tree.
type Parser struct {
	l    *lexer.Lexer
	file string

	cur  lexer.Token
	peek lexer.Token

	// noStructLit suppresses the "path { field: ... }" struct-literal
	// form while parsing a match subject, where the arm block's opening
	// brace would otherwise be swallowed as a literal body. Parenthesized
	// subexpressions restore it, as Go does for composite literals in an
	// if/for header.
	noStructLit bool

	diags *errors.Diagnostics
}

// New creates a Parser over l. Errors are accumulated, not thrown;
// inspect Diagnostics() after Parse().
func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file, diags: errors.NewDiagnostics()}
	p.advance()
	p.advance()
	return p
}

// Diagnostics returns the accumulated parse errors.
func (p *Parser) Diagnostics() *errors.Diagnostics { return p.diags }

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.TokenType) bool  { return p.cur.Type == t }
func (p *Parser) peekIs(t lexer.TokenType) bool { return p.peek.Type == t }

func (p *Parser) span() errors.Span {
	return errors.Span{File: p.file, StartLine: p.cur.Line, StartCol: p.cur.Column, EndLine: p.cur.Line, EndCol: p.cur.Column}
}

// expect consumes the current token if it has type t, else records a
// Parse diagnostic and returns the token unconsumed-in-effect (callers
// should still advance() to avoid infinite loops, which they do via the
// caller's surrounding loop making progress regardless).
func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.cur
	if !p.curIs(t) {
		p.errorf("expected %v, found %v (%q)", t, p.cur.Type, p.cur.Literal)
		return tok
	}
	p.advance()
	return tok
}

func (p *Parser) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.diags.Add(errors.Parse(msg).WithSpan(p.span()))
}

// Parse parses a full package source file into a KFile node.
func (p *Parser) Parse() *ast.Node {
	file := ast.New(ast.KFile, p.span())

	for p.curIs(lexer.IMPORT) {
		file.AddChild(p.parseImport())
	}
	for !p.curIs(lexer.EOF) {
		item := p.parseItem()
		if item != nil {
			file.AddChild(item)
		} else {
			// Avoid infinite loop on unrecoverable garbage.
			p.advance()
		}
	}
	return file
}

func (p *Parser) parseImport() *ast.Node {
	start := p.span()
	p.expect(lexer.IMPORT)
	name := p.expect(lexer.IDENT).Literal
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
	return ast.New(ast.KImport, start).WithName(name)
}

func (p *Parser) parseItem() *ast.Node {
	switch p.cur.Type {
	case lexer.MOD:
		return p.parseModDef()
	case lexer.UNION:
		return p.parseUnionDef()
	case lexer.STRUCT:
		return p.parseStructDef()
	case lexer.PORT:
		return p.parsePortDef()
	case lexer.BUILTIN:
		return p.parseBuiltinDef()
	default:
		p.errorf("expected item declaration, found %v (%q)", p.cur.Type, p.cur.Literal)
		return nil
	}
}

func (p *Parser) parseStructDef() *ast.Node {
	start := p.span()
	p.expect(lexer.STRUCT)
	name := p.expect(lexer.IDENT).Literal
	n := ast.New(ast.KStructDef, start).WithName(name)
	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.span()
		fname := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLON)
		ftyp := p.parseType()
		p.expect(lexer.SEMI)
		n.AddChild(ast.New(ast.KFieldDecl, fstart).WithName(fname).WithTyp(ftyp))
	}
	p.expect(lexer.RBRACE)
	return n
}

func (p *Parser) parseUnionDef() *ast.Node {
	start := p.span()
	p.expect(lexer.UNION)
	name := p.expect(lexer.IDENT).Literal
	n := ast.New(ast.KUnionDef, start).WithName(name)
	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		cstart := p.span()
		p.expect(lexer.AT)
		cname := p.expect(lexer.IDENT).Literal
		ctor := ast.New(ast.KCtorDecl, cstart).WithName(cname)
		p.expect(lexer.LPAREN)
		for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
			pstart := p.span()
			pname := p.expect(lexer.IDENT).Literal
			p.expect(lexer.COLON)
			ptyp := p.parseType()
			ctor.AddChild(ast.New(ast.KParamDecl, pstart).WithName(pname).WithTyp(ptyp))
			if p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RPAREN)
		p.expect(lexer.SEMI)
		n.AddChild(ctor)
	}
	p.expect(lexer.RBRACE)
	return n
}

func (p *Parser) parsePortDef() *ast.Node {
	start := p.span()
	p.expect(lexer.PORT)
	name := p.expect(lexer.IDENT).Literal
	n := ast.New(ast.KPortDef, start).WithName(name)
	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		n.AddChild(p.parseModuleMember())
	}
	p.expect(lexer.RBRACE)
	return n
}

func (p *Parser) parseBuiltinDef() *ast.Node {
	start := p.span()
	p.expect(lexer.BUILTIN)
	ext := false
	if p.curIs(lexer.EXT) {
		ext = true
		p.advance()
	}
	p.expect(lexer.TYPE)
	var name string
	if p.curIs(lexer.WORD) || p.curIs(lexer.CLOCK) {
		name = p.cur.Literal
		p.advance()
	} else {
		name = p.expect(lexer.IDENT).Literal
	}
	n := ast.New(ast.KBuiltinDef, start).WithName(name).WithExt(ext)
	if p.curIs(lexer.LBRACKET) {
		p.advance()
		// generic parameter list (e.g. builtin type Word[n]); parameter
		// names carried as plain identifiers in Args for documentation.
		for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
			pstart := p.span()
			pname := p.expect(lexer.IDENT).Literal
			n.AddArg(ast.New(ast.KParamDecl, pstart).WithName(pname))
			if p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACKET)
	}
	if p.curIs(lexer.SEMI) {
		p.advance()
	}
	return n
}

func (p *Parser) parseModDef() *ast.Node {
	start := p.span()
	p.expect(lexer.MOD)
	name := p.expect(lexer.IDENT).Literal
	n := ast.New(ast.KModDef, start).WithName(name)
	p.expect(lexer.LBRACE)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		n.AddChild(p.parseModuleMember())
	}
	p.expect(lexer.RBRACE)
	return n
}

// parseModuleMember parses one of: a component decl (incoming/outgoing/
// node/reg), a submodule instantiation, or a wire statement.
func (p *Parser) parseModuleMember() *ast.Node {
	switch p.cur.Type {
	case lexer.INCOMING, lexer.OUTGOING, lexer.NODE, lexer.REG:
		return p.parseComponentDecl()
	case lexer.MOD:
		return p.parseSubmodule()
	case lexer.IDENT:
		return p.parseWire()
	default:
		p.errorf("expected component, submodule, or wire statement, found %v", p.cur.Type)
		p.advance()
		return nil
	}
}

func (p *Parser) parseComponentDecl() *ast.Node {
	start := p.span()
	var kind ast.Kind
	switch p.cur.Type {
	case lexer.INCOMING:
		kind = ast.KIncoming
	case lexer.OUTGOING:
		kind = ast.KOutgoing
	case lexer.NODE:
		kind = ast.KNodeDecl
	case lexer.REG:
		kind = ast.KRegDecl
	}
	p.advance()
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.COLON)
	typ := p.parseType()
	n := ast.New(kind, start).WithName(name).WithTyp(typ)

	if kind == ast.KRegDecl && p.curIs(lexer.ON) {
		p.advance()
		n = n.WithExpr(p.parseExpr())
	}
	// Driver coalescing: a driver may appear inline with its decl.
	if p.curIs(lexer.ASSIGN) || p.curIs(lexer.LATCH) {
		op := p.cur.Literal
		p.advance()
		driver := p.parseExpr()
		n = n.WithOf(ast.New(ast.KWire, start).WithOp(op).WithExpr(driver))
	}
	p.expect(lexer.SEMI)
	return n
}

func (p *Parser) parseSubmodule() *ast.Node {
	start := p.span()
	p.expect(lexer.MOD)
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.OF)
	target := p.parseQualIdentText()
	p.expect(lexer.SEMI)
	return ast.New(ast.KSubmodule, start).WithName(name).WithOf(ast.New(ast.KExprPath, start).WithName(target))
}

// parseWire parses "path := expr;" or "path <= expr;" as a free-standing
// wire statement targeting a previously declared element.
func (p *Parser) parseWire() *ast.Node {
	start := p.span()
	target := p.parseDottedPathText()
	var op string
	switch p.cur.Type {
	case lexer.ASSIGN, lexer.LATCH:
		op = p.cur.Literal
		p.advance()
	default:
		p.errorf("expected := or <= in wire statement, found %v", p.cur.Type)
	}
	value := p.parseExpr()
	p.expect(lexer.SEMI)
	return ast.New(ast.KWire, start).WithName(target).WithOp(op).WithExpr(value)
}

func (p *Parser) parseDottedPathText() string {
	parts := []string{p.expect(lexer.IDENT).Literal}
	for p.curIs(lexer.DOT) {
		p.advance()
		parts = append(parts, p.expect(lexer.IDENT).Literal)
	}
	return strings.Join(parts, ".")
}

// parseQualIdentText parses "Name" or "pkg::Name".
func (p *Parser) parseQualIdentText() string {
	name := p.expect(lexer.IDENT).Literal
	if p.curIs(lexer.DCOLON) {
		p.advance()
		rest := p.expect(lexer.IDENT).Literal
		return name + "::" + rest
	}
	return name
}

// ---- types ----

func (p *Parser) parseType() *ast.Node {
	start := p.span()
	switch p.cur.Type {
	case lexer.WORD:
		p.advance()
		p.expect(lexer.LBRACKET)
		widthTok := p.expect(lexer.INT)
		p.expect(lexer.RBRACKET)
		n := ast.New(ast.KTypeWord, start)
		if w, err := strconv.Atoi(widthTok.Literal); err == nil {
			n.AddArg(ast.New(ast.KExprWordLit, start).WithStr(fmt.Sprintf("%d", w)))
		} else {
			p.errorf("invalid width literal %q", widthTok.Literal)
		}
		return n
	case lexer.CLOCK:
		p.advance()
		return ast.New(ast.KTypeClock, start)
	case lexer.IDENT:
		name := p.parseQualIdentText()
		n := ast.New(ast.KTypeName, start).WithName(name)
		if p.curIs(lexer.LBRACKET) {
			p.advance()
			arg := p.expect(lexer.INT).Literal
			n.AddArg(ast.New(ast.KExprWordLit, start).WithStr(arg))
			p.expect(lexer.RBRACKET)
		}
		return n
	default:
		p.errorf("expected a type, found %v", p.cur.Type)
		return ast.New(ast.KTypeName, start).WithName("<error>")
	}
}
