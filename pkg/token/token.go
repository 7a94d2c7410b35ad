// Package token defines the Umber token family, consolidated from the
// richer of the two parallel token trees found in the original sources
// (the flag-carrying variant, not the older plain-kind duplicate).
package token

import (
	"fmt"

	"umberlang.dev/umberc/pkg/position"
)

// Kind discriminates every lexeme the lexer can produce.
type Kind int

const (
	Invalid Kind = iota

	// Literals
	U64
	F64
	String
	Char

	// Names
	Identifier
	Keyword

	// Arithmetic
	Plus
	Minus
	Mul
	Div
	Modulo

	// Compound-assign forms of the arithmetic/bitwise operators carry
	// the same Kind as their base operator plus FlagIsAssign set. The
	// PlusAssign etc. Kinds below are declared but the lexer never
	// produces them. PlusPlus/MinusMinus are distinct Kinds with no
	// flag.
	PlusAssign
	MinusAssign
	MulAssign
	DivAssign
	ModuloAssign
	PlusPlus
	MinusMinus

	// Comparison
	Eq
	Ee
	Ne
	Lt
	Gt
	Lte
	Gte

	// Logical
	And
	Or
	Not

	// Bitwise
	BitAnd
	BitAndAssign
	BitOr
	BitOrAssign
	BitXor
	BitXorAssign
	BitNot
	BitNotAssign
	BitShl
	BitShlAssign
	BitShr
	BitShrAssign

	// Punctuation
	Colon
	Comma
	Dot
	Arrow
	Lparen
	Rparen
	Lsquare
	Rsquare
	Lcurly
	Rcurly

	// Pointer / memory
	Dereference
	AddressOf
	Offset
	ReadBytes
	PointerAssign

	// Structural
	Newline // statement terminator ';'
	Bof
	Eof
)

// Flag is a bitset of modifiers that ride along with a Kind.
type Flag uint8

const (
	FlagNone     Flag = 0
	FlagIsAssign Flag = 1 << iota
)

// Keywords is the fixed reserved set: language keywords, intrinsic type
// names, and the struct type-constructor keyword.
var Keywords = map[string]bool{
	"let": true, "mut": true, "const": true, "if": true, "else": true,
	"for": true, "while": true, "fun": true, "return": true,
	"continue": true, "break": true, "extern": true, "asm": true,
	"sizeof": true, "syscall": true, "as": true, "static": true,
	"struct": true, "import": true, "macro": true,

	"u8": true, "u16": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"f64": true, "bool": true, "char": true, "string": true, "void": true,
}

// Token is the immutable unit the lexer produces and the parser consumes.
type Token struct {
	Kind  Kind
	Text  string // optional: literal text / identifier / keyword spelling
	Start position.Position
	End   position.Position
	Flags Flag
}

// New builds a Token with no associated text (pure punctuation/operator).
func New(kind Kind, start, end position.Position) Token {
	return Token{Kind: kind, Start: start, End: end}
}

// NewText builds a Token carrying a literal or identifier value.
func NewText(kind Kind, text string, start, end position.Position) Token {
	return Token{Kind: kind, Text: text, Start: start, End: end}
}

// WithFlag returns a copy of t with flag set, used by the lexer when it
// recognizes a compound-assign suffix on an otherwise-plain operator.
func (t Token) WithFlag(flag Flag) Token {
	t.Flags |= flag
	return t
}

// HasFlag reports whether flag is set on t.
func (t Token) HasFlag(flag Flag) bool {
	return t.Flags&flag != 0
}

// Matches reports whether t is of the given kind and, when text is
// non-empty, also carries that exact text (used for keyword matching).
func (t Token) Matches(kind Kind, text string) bool {
	if t.Kind != kind {
		return false
	}
	return text == "" || t.Text == text
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (t Token) String() string {
	if t.Text != "" {
		return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
	}
	return t.Kind.String()
}

var kindNames = map[Kind]string{
	Invalid: "Invalid", U64: "U64", F64: "F64", String: "String", Char: "Char",
	Identifier: "Identifier", Keyword: "Keyword",
	Plus: "Plus", Minus: "Minus", Mul: "Mul", Div: "Div", Modulo: "Modulo",
	PlusAssign: "PlusAssign", MinusAssign: "MinusAssign", MulAssign: "MulAssign",
	DivAssign: "DivAssign", ModuloAssign: "ModuloAssign",
	PlusPlus: "PlusPlus", MinusMinus: "MinusMinus",
	Eq: "Eq", Ee: "Ee", Ne: "Ne", Lt: "Lt", Gt: "Gt", Lte: "Lte", Gte: "Gte",
	And: "And", Or: "Or", Not: "Not",
	BitAnd: "BitAnd", BitAndAssign: "BitAndAssign", BitOr: "BitOr", BitOrAssign: "BitOrAssign",
	BitXor: "BitXor", BitXorAssign: "BitXorAssign", BitNot: "BitNot", BitNotAssign: "BitNotAssign",
	BitShl: "BitShl", BitShlAssign: "BitShlAssign", BitShr: "BitShr", BitShrAssign: "BitShrAssign",
	Colon: "Colon", Comma: "Comma", Dot: "Dot", Arrow: "Arrow",
	Lparen: "Lparen", Rparen: "Rparen", Lsquare: "Lsquare", Rsquare: "Rsquare",
	Lcurly: "Lcurly", Rcurly: "Rcurly",
	Dereference: "Dereference", AddressOf: "AddressOf", Offset: "Offset",
	ReadBytes: "ReadBytes", PointerAssign: "PointerAssign",
	Newline: "Newline", Bof: "Bof", Eof: "Eof",
}
