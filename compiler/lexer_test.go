package compiler

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestLexer_Keywords(t *testing.T) {
	tokens, diags := NewLexer([]byte("class extends is end var method this if then else while loop return true false")).Lex()
	assert.Empty(t, diags)
	want := []TokenKind{ClassKW, ExtendsKW, IsKW, EndKW, VarKW, MethodKW, ThisKW, IfKW, ThenKW, ElseKW, WhileKW, LoopKW, ReturnKW, TrueKW, FalseKW, EOF}
	got := kinds(tokens)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("token kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestLexer_Numbers(t *testing.T) {
	cases := []struct {
		src  string
		kind TokenKind
	}{
		{"42", IntegerLit},
		{"-7", IntegerLit},
		{"3.14", RealLit},
		{"-0.5", RealLit},
	}
	for _, c := range cases {
		tokens, diags := NewLexer([]byte(c.src)).Lex()
		assert.Empty(t, diags, c.src)
		assert.Equal(t, c.kind, tokens[0].Kind, c.src)
		assert.Equal(t, c.src, tokens[0].Lexeme, c.src)
	}
}

func TestLexer_InvalidNumericLiteral(t *testing.T) {
	_, diags := NewLexer([]byte("1.2.3")).Lex()
	assert.NotEmpty(t, diags)
	assert.Equal(t, LexicalError, diags[0].Kind)
}

func TestLexer_Comments(t *testing.T) {
	src := "class // line comment\n/* block\ncomment */ Foo"
	tokens, diags := NewLexer([]byte(src)).Lex()
	assert.Empty(t, diags)
	assert.Equal(t, []TokenKind{ClassKW, Identifier, EOF}, kinds(tokens))
}

func TestLexer_UnterminatedBlockComment(t *testing.T) {
	_, diags := NewLexer([]byte("class /* never closes")).Lex()
	assert.NotEmpty(t, diags)
}

func TestLexer_Punctuation(t *testing.T) {
	tokens, diags := NewLexer([]byte("( ) [ ] { } , . : := =>")).Lex()
	assert.Empty(t, diags)
	assert.Equal(t, []TokenKind{LParen, RParen, LBracket, RBracket, LBrace, RBrace, Comma, Dot, Colon, Assign, Arrow, EOF}, kinds(tokens))
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	_, diags := NewLexer([]byte("@")).Lex()
	assert.NotEmpty(t, diags)
	assert.Equal(t, LexicalError, diags[0].Kind)
}

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}
