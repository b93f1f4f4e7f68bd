package lexer

import "testing"

func TestNextTokenBasics(t *testing.T) {
	input := `mod Top { incoming clk : Clock; outgoing out : Word[8]; out := in; }`
	l := New(input, "top.vir")

	want := []TokenType{
		MOD, IDENT, LBRACE,
		INCOMING, IDENT, COLON, CLOCK, SEMI,
		OUTGOING, IDENT, COLON, WORD, LBRACKET, INT, RBRACKET, SEMI,
		IDENT, ASSIGN, IDENT, SEMI,
		RBRACE, EOF,
	}

	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: expected type %v, got %v (%q)", i, wt, tok.Type, tok.Literal)
		}
	}
}

func TestNextTokenOperators(t *testing.T) {
	l := New("r <= in; a::B x.y..z", "t.vir")
	want := []TokenType{IDENT, LATCH, IDENT, SEMI, IDENT, DCOLON, IDENT, IDENT, DOT, IDENT, DOTDOT, IDENT}
	for i, wt := range want {
		tok := l.NextToken()
		if tok.Type != wt {
			t.Fatalf("token %d: expected %v got %v (%q)", i, wt, tok.Type, tok.Literal)
		}
	}
}

func TestNormalizeStripsBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("mod Top {}")...)
	out := Normalize(src)
	if string(out) != "mod Top {}" {
		t.Fatalf("expected BOM stripped, got %q", out)
	}
}
