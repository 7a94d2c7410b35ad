package lexer_test

import (
	"testing"

	"umberlang.dev/umberc/pkg/lexer"
	"umberlang.dev/umberc/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, t := range toks {
		if t.Kind == token.Newline {
			continue
		}
		out = append(out, t.Kind)
	}
	return out
}

func assertKinds(t *testing.T, got []token.Kind, want ...token.Kind) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestIntegerAndFloatLiterals(t *testing.T) {
	toks, err := lexer.New("42 3.14", "test.umb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	assertKinds(t, kinds(toks), token.U64, token.F64, token.Eof)
}

func TestKeywordsAreReclassified(t *testing.T) {
	toks, err := lexer.New("let mut counter", "test.umb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got := kinds(toks)
	assertKinds(t, got, token.Keyword, token.Keyword, token.Identifier, token.Eof)
}

func TestCompoundAssignOperatorsCarryFlag(t *testing.T) {
	toks, err := lexer.New("x += 1", "test.umb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var plusAssign token.Token
	for _, tok := range toks {
		if tok.Kind == token.Plus {
			plusAssign = tok
		}
	}
	if !plusAssign.HasFlag(token.FlagIsAssign) {
		t.Fatalf("'+=' should lex as Plus carrying FlagIsAssign, got flags=%v", plusAssign.Flags)
	}
}

func TestReadBytesSuffixVsFieldAccessDot(t *testing.T) {
	t.Run("ReadBytes suffix", func(t *testing.T) {
		toks, err := lexer.New("x.4b", "test.umb").Tokenize()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		assertKinds(t, kinds(toks), token.Identifier, token.ReadBytes, token.Eof)
	})

	t.Run("plain field access dot", func(t *testing.T) {
		toks, err := lexer.New("x.field", "test.umb").Tokenize()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		assertKinds(t, kinds(toks), token.Identifier, token.Dot, token.Identifier, token.Eof)
	})
}

func TestStringAndCharEscapes(t *testing.T) {
	toks, err := lexer.New(`"a\nb" '\t'`, "test.umb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	assertKinds(t, kinds(toks), token.String, token.Char, token.Eof)
}

func TestBadEscapeIsAnError(t *testing.T) {
	_, err := lexer.New(`"\q"`, "test.umb").Tokenize()
	if err == nil {
		t.Fatal("expected an error for an unsupported escape sequence")
	}
}

func TestLineCommentsAndBlockCommentsAreSkipped(t *testing.T) {
	src := "let x = 1 # trailing comment\n/* block\n comment */ let y = 2"
	toks, err := lexer.New(src, "test.umb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got := kinds(toks)
	assertKinds(t, got,
		token.Keyword, token.Identifier, token.Eq, token.U64,
		token.Keyword, token.Identifier, token.Eq, token.U64,
		token.Eof)
}

func TestMultiCharOperators(t *testing.T) {
	toks, err := lexer.New("a << b >>= c && d || e == f != g", "test.umb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got := kinds(toks)
	// Compound right-shift-assign is represented as BitShr carrying
	// FlagIsAssign, not a dedicated kind — see TestCompoundAssignOperatorsCarryFlag.
	assertKinds(t, got,
		token.Identifier, token.BitShl, token.Identifier, token.BitShr, token.Identifier,
		token.And, token.Identifier, token.Or, token.Identifier, token.Ee, token.Identifier,
		token.Ne, token.Identifier, token.Eof)
}
