package parser

import (
	"github.com/virdant-lang/virdant/internal/ast"
	"github.com/virdant-lang/virdant/internal/lexer"
)

// parseExpr parses one expression: a primary form followed by zero or
// more postfix suffixes (`.method(args)`/path-join via `.`, `as T`,
// `[i]`, `[hi..lo]`). There is no infix operator grammar to layer on
// top of it; arithmetic and comparison are method calls.
func (p *Parser) parseExpr() *ast.Node {
	e := p.parsePrimary()
	return p.parsePostfix(e)
}

func (p *Parser) parsePostfix(e *ast.Node) *ast.Node {
	for {
		switch p.cur.Type {
		case lexer.DOT:
			start := p.span()
			p.advance()
			name := p.expect(lexer.IDENT).Literal
			if p.curIs(lexer.LPAREN) {
				args := p.parseArgList()
				e = ast.New(ast.KExprMethodCall, start).WithOf(e).WithName(name).SetArgs(args)
				continue
			}
			// Path join: only legal when e is itself a bare path.
			if e.Kind() == ast.KExprPath {
				e = ast.New(ast.KExprPath, e.Span()).WithName(e.Name() + "." + name)
				continue
			}
			p.errorf("cannot join %q onto a non-path expression", name)
			continue
		case lexer.AS:
			p.advance()
			typ := p.parseType()
			e = ast.New(ast.KExprAs, e.Span()).WithOf(e).WithTyp(typ)
		case lexer.LBRACKET:
			start := p.span()
			p.advance()
			first := p.parseExpr()
			if p.curIs(lexer.DOTDOT) {
				p.advance()
				second := p.parseExpr()
				p.expect(lexer.RBRACKET)
				e = ast.New(ast.KExprIdxRange, start).WithOf(e).SetArgs([]*ast.Node{first, second})
				continue
			}
			p.expect(lexer.RBRACKET)
			e = ast.New(ast.KExprIdx, start).WithOf(e).SetArgs([]*ast.Node{first})
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimary() *ast.Node {
	start := p.span()
	switch p.cur.Type {
	case lexer.INT:
		lit := p.cur.Literal
		p.advance()
		n := ast.New(ast.KExprWordLit, start).WithStr(lit)
		return n
	case lexer.IDENT:
		// Only the head segment is consumed here; parsePostfix turns a
		// following ".name" into a path join or, with an argument list, a
		// method call. The head may be package-qualified ("pkg::Name"),
		// the form a struct literal's type name takes when the struct
		// lives in an imported package.
		name := p.parseQualIdentText()
		node := ast.New(ast.KExprPath, start).WithName(name)
		if p.curIs(lexer.LBRACE) && !p.noStructLit {
			return p.parseStructLitWithType(node)
		}
		return node
	case lexer.AT:
		p.advance()
		name := p.expect(lexer.IDENT).Literal
		args := p.parseArgList()
		return ast.New(ast.KExprCtor, start).WithName(name).SetArgs(args)
	case lexer.CAT:
		p.advance()
		args := p.parseArgList()
		return ast.New(ast.KExprCat, start).SetArgs(args)
	case lexer.LBRACKET:
		p.advance()
		var elems []*ast.Node
		for !p.curIs(lexer.RBRACKET) && !p.curIs(lexer.EOF) {
			elems = append(elems, p.parseExpr())
			if p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACKET)
		return ast.New(ast.KExprVec, start).SetArgs(elems)
	case lexer.IF:
		p.advance()
		cond := p.parseExpr()
		p.expect(lexer.THEN)
		then := p.parseExpr()
		p.expect(lexer.ELSE)
		els := p.parseExpr()
		return ast.New(ast.KExprIf, start).SetArgs([]*ast.Node{cond, then, els})
	case lexer.LET:
		p.advance()
		name := p.expect(lexer.IDENT).Literal
		n := ast.New(ast.KExprLet, start).WithName(name)
		if p.curIs(lexer.COLON) {
			p.advance()
			n = n.WithTyp(p.parseType())
		}
		p.expect(lexer.EQ)
		value := p.parseExpr()
		// `in` lexes as an ordinary identifier so it can also name a port.
		if p.curIs(lexer.IDENT) && p.cur.Literal == "in" {
			p.advance()
		} else {
			p.errorf("expected in, found %v (%q)", p.cur.Type, p.cur.Literal)
		}
		body := p.parseExpr()
		return n.WithExpr(value).SetArgs([]*ast.Node{body})
	case lexer.MATCH:
		p.advance()
		saved := p.noStructLit
		p.noStructLit = true
		subject := p.parseExpr()
		p.noStructLit = saved
		p.expect(lexer.LBRACE)
		var arms []*ast.Node
		for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
			arms = append(arms, p.parseMatchArm())
			if p.curIs(lexer.COMMA) {
				p.advance()
			}
		}
		p.expect(lexer.RBRACE)
		return ast.New(ast.KExprMatch, start).WithOf(subject).SetArgs(arms)
	case lexer.LPAREN:
		p.advance()
		saved := p.noStructLit
		p.noStructLit = false
		e := p.parseExpr()
		p.noStructLit = saved
		p.expect(lexer.RPAREN)
		return e
	default:
		p.errorf("expected an expression, found %v (%q)", p.cur.Type, p.cur.Literal)
		p.advance()
		return ast.New(ast.KExprPath, start).WithName("<error>")
	}
}

// parseStructLitWithType parses "{ field: expr, ... }" given the already
// parsed type-name path node.
func (p *Parser) parseStructLitWithType(typeNode *ast.Node) *ast.Node {
	start := typeNode.Span()
	p.expect(lexer.LBRACE)
	n := ast.New(ast.KExprStruct, start).WithOf(typeNode)
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		fstart := p.span()
		fname := p.expect(lexer.IDENT).Literal
		p.expect(lexer.COLON)
		fval := p.parseExpr()
		n.AddArg(ast.New(ast.KFieldInit, fstart).WithName(fname).WithExpr(fval))
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RBRACE)
	return n
}

func (p *Parser) parseArgList() []*ast.Node {
	p.expect(lexer.LPAREN)
	var args []*ast.Node
	for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
		args = append(args, p.parseExpr())
		if p.curIs(lexer.COMMA) {
			p.advance()
		}
	}
	p.expect(lexer.RPAREN)
	return args
}

func (p *Parser) parseMatchArm() *ast.Node {
	start := p.span()
	pat := p.parsePattern()
	var guard *ast.Node
	if p.curIs(lexer.IF) {
		p.advance()
		guard = p.parseExpr()
	}
	p.expect(lexer.FARROW)
	body := p.parseExpr()
	return ast.New(ast.KMatchArm, start).WithGuard(guard).SetArgs([]*ast.Node{pat}).WithExpr(body)
}

func (p *Parser) parsePattern() *ast.Node {
	start := p.span()
	switch p.cur.Type {
	case lexer.UNDERSCORE:
		p.advance()
		return ast.New(ast.KPatternWild, start)
	case lexer.AT:
		p.advance()
		name := p.expect(lexer.IDENT).Literal
		n := ast.New(ast.KPatternCtor, start).WithName(name)
		if p.curIs(lexer.LPAREN) {
			p.advance()
			for !p.curIs(lexer.RPAREN) && !p.curIs(lexer.EOF) {
				n.AddArg(p.parsePattern())
				if p.curIs(lexer.COMMA) {
					p.advance()
				}
			}
			p.expect(lexer.RPAREN)
		}
		return n
	case lexer.IDENT:
		name := p.expect(lexer.IDENT).Literal
		return ast.New(ast.KPatternBind, start).WithName(name)
	default:
		p.errorf("expected a pattern, found %v", p.cur.Type)
		p.advance()
		return ast.New(ast.KPatternWild, start)
	}
}
