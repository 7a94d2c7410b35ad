// Package parser implements Umber's recursive-descent parser: a fixed
// precedence ladder, transparent import inlining, scopeless macro
// expansion, and an advance/reverse-count speculative-lookahead
// protocol. The outward Parser/New/ParseProgram shape
// follows its.hmny-nand2tetris's pkg/asm.Parser staging; the shared
// mutable state threaded explicitly through recursive invocations
// (rather than kept as package globals) follows the "explicit tables
// passed as arguments" shape of gmofishsauce-wut4's yparse.SymbolTable
// and FuncScope constructors.
package parser

import (
	"io/fs"
	"os"
	"path/filepath"

	"umberlang.dev/umberc/pkg/ast"
	"umberlang.dev/umberc/pkg/cerr"
	"umberlang.dev/umberc/pkg/lexer"
	"umberlang.dev/umberc/pkg/position"
	"umberlang.dev/umberc/pkg/token"
	"umberlang.dev/umberc/pkg/types"
)

// fileIdentity is the filesystem-identity key used by the shared
// already-included set: device + inode (on platforms without them,
// modification time + size; see identity_other.go), not the string path,
// so that symlinks and `..`-normalized paths collapse onto the same entry.
type fileIdentity struct {
	Dev int64
	Ino uint64
}

// SharedState is the mutable state every recursively-spawned Parser
// shares by reference: the macro table and the already-included set.
// Passed explicitly into New rather than read off a package
// global so that independent compilations never leak state between
// each other.
type SharedState struct {
	Macros          map[string]ast.Node
	AlreadyIncluded map[fileIdentity]bool
	IncludeDirs     []string
}

// NewSharedState returns a fresh, empty state bundle — the only
// legitimate way to start a new, independent compilation.
func NewSharedState(includeDirs []string) *SharedState {
	return &SharedState{
		Macros:          make(map[string]ast.Node),
		AlreadyIncluded: make(map[fileIdentity]bool),
		IncludeDirs:     includeDirs,
	}
}

// Parser walks one token stream. Nested parsers created for `import`
// share the same *SharedState but own their own token cursor.
type Parser struct {
	tokens  []token.Token
	idx     int
	state   *SharedState
	file    string
	advance int // monotone count of tokens consumed over the parser's lifetime
	reverse int // total count of tokens unwound by rewind
}

// New builds a parser over an already-lexed token stream.
func New(tokens []token.Token, file string, state *SharedState) *Parser {
	return &Parser{tokens: tokens, file: file, state: state}
}

// ParseSource lexes and parses source in one step, the entry point used
// both by the top-level compiler and recursively by import resolution.
//
// It registers file's own filesystem identity in state.AlreadyIncluded
// before parsing its body. Without this, only nested imports ever get
// marked — the entry file itself stays unregistered, so a file that
// mutually imports one of its own (transitive) importers would recurse
// forever instead of being caught by the cycle check in parseImport.
func ParseSource(source, file string, state *SharedState) (ast.Node, error) {
	if id, err := identityOf(file); err == nil {
		state.AlreadyIncluded[id] = true
	}

	toks, err := lexer.New(source, file).Tokenize()
	if err != nil {
		return nil, err
	}
	p := New(toks, file, state)
	return p.ParseProgram()
}

// --- token cursor -----------------------------------------------------

func (p *Parser) cur() token.Token {
	if p.idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // Eof
	}
	return p.tokens[p.idx]
}

func (p *Parser) advanceTok() token.Token {
	t := p.cur()
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	p.advance++
	return t
}

// checkpoint returns the cursor index to later restore with rewind,
// implementing the monotone advance/reverse-count protocol: rewind
// unwinds exactly the advances consumed since checkpoint, never more.
func (p *Parser) checkpoint() int { return p.idx }

func (p *Parser) rewind(to int) {
	p.reverse += p.idx - to
	p.idx = to
}

func (p *Parser) at(kind token.Kind) bool  { return p.cur().Kind == kind }
func (p *Parser) atText(kind token.Kind, text string) bool {
	return p.cur().Matches(kind, text)
}

func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	if !p.at(kind) {
		return token.Token{}, cerr.New(cerr.InvalidSyntaxError, p.cur().Start, p.cur().End,
			"expected "+kind.String()+", found "+p.cur().String())
	}
	return p.advanceTok(), nil
}

func (p *Parser) expectKeyword(kw string) (token.Token, error) {
	if !p.atText(token.Keyword, kw) {
		return token.Token{}, cerr.New(cerr.InvalidSyntaxError, p.cur().Start, p.cur().End,
			"expected keyword '"+kw+"', found "+p.cur().String())
	}
	return p.advanceTok(), nil
}

func (p *Parser) skipNewlines() {
	for p.at(token.Newline) {
		p.advanceTok()
	}
}

// --- top level ----------------------------------------------------------

// ParseProgram parses a whole file's top-level item sequence into a
// Statements node, the shape used both for the main file and for every
// recursively imported file.
func (p *Parser) ParseProgram() (ast.Node, error) {
	start := p.cur().Start
	var children []ast.Node
	p.skipNewlines()
	for !p.at(token.Eof) {
		item, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		children = append(children, item)
		p.skipNewlines()
	}
	return ast.Statements{NodeBase: ast.NewBase(start, p.cur().End), Children: children}, nil
}

func (p *Parser) parseTopLevel() (ast.Node, error) {
	t := p.cur()
	if t.Kind == token.Keyword {
		switch t.Text {
		case "fun":
			return p.parseFunction()
		case "const":
			return p.parseConst()
		case "struct":
			return p.parseStructDef()
		case "import":
			return p.parseImport()
		case "macro":
			return p.parseMacro()
		case "static":
			return p.parseStatic()
		case "extern":
			return p.parseExtern()
		}
	}
	return nil, cerr.New(cerr.InvalidSyntaxError, t.Start, t.End,
		"expected a top-level item (fun, const, struct, import, macro, static, extern), found "+t.String())
}

func (p *Parser) parseExtern() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // extern
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.Extern{NodeBase: ast.NewBase(start, nameTok.End), Name: nameTok.Text}, nil
}

func (p *Parser) parseImport() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // import
	pathTok, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}

	resolved, err := p.resolveImportPath(pathTok.Text)
	if err != nil {
		return nil, cerr.Wrap(cerr.InvalidSyntaxError, pathTok.Start, pathTok.End,
			"cannot resolve import \""+pathTok.Text+"\"", err)
	}

	id, err := identityOf(resolved)
	if err != nil {
		return nil, cerr.Wrap(cerr.IOError, pathTok.Start, pathTok.End,
			"cannot stat import \""+pathTok.Text+"\"", err)
	}
	if p.state.AlreadyIncluded[id] {
		return ast.Ignored{NodeBase: ast.NewBase(start, pathTok.End)}, nil
	}

	contents, err := os.ReadFile(resolved)
	if err != nil {
		return nil, cerr.Wrap(cerr.IOError, pathTok.Start, pathTok.End,
			"cannot read import \""+pathTok.Text+"\"", err)
	}

	child, err := ParseSource(string(contents), resolved, p.state)
	if err != nil {
		return nil, cerr.Wrap(cerr.InvalidSyntaxError, pathTok.Start, pathTok.End,
			"error while parsing imported file \""+pathTok.Text+"\"", err)
	}
	p.state.AlreadyIncluded[id] = true

	return ast.Import{NodeBase: ast.NewBase(start, pathTok.End), Child: child}, nil
}

// resolveImportPath tries, in order, the directory of the currently
// parsed file then each configured include directory.
func (p *Parser) resolveImportPath(path string) (string, error) {
	candidates := []string{filepath.Join(filepath.Dir(p.file), path)}
	for _, dir := range p.state.IncludeDirs {
		candidates = append(candidates, filepath.Join(dir, path))
	}
	var lastErr error
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		} else {
			lastErr = err
		}
	}
	return "", lastErr
}

func (p *Parser) parseMacro() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // macro
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	// Macros are scopeless; a later definition simply replaces the prior
	// body.
	p.state.Macros[nameTok.Text] = body.Clone()
	return ast.MacroDef{NodeBase: ast.NewBase(start, body.PosEnd()), Name: nameTok.Text, Body: body}, nil
}

func (p *Parser) parseConst() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // const
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Eq); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.ConstDefinition{NodeBase: ast.NewBase(start, value.PosEnd()), Name: nameTok.Text, Value: value, Type: ty}, nil
}

func (p *Parser) parseStatic() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // static
	isMutable := false
	if p.atText(token.Keyword, "mut") {
		p.advanceTok()
		isMutable = true
	}
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.at(token.Eq) {
		p.advanceTok()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Newline); err != nil {
			return nil, err
		}
		return ast.StaticDefinition{NodeBase: ast.NewBase(start, value.PosEnd()), Name: nameTok.Text, Type: ty, Value: value, IsMutable: isMutable}, nil
	}
	end := p.cur().End
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.StaticDeclaration{NodeBase: ast.NewBase(start, end), Name: nameTok.Text, Type: ty, IsMutable: isMutable}, nil
}

func (p *Parser) parseStructDef() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // struct
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Lcurly); err != nil {
		return nil, err
	}
	var fields []ast.Field
	p.skipNewlines()
	for !p.at(token.Rcurly) {
		fieldName, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		fieldType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.Field{Name: fieldName.Text, Type: fieldType})
		if p.at(token.Comma) {
			p.advanceTok()
		}
		p.skipNewlines()
	}
	endTok, err := p.expect(token.Rcurly)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.StructDefinition{NodeBase: ast.NewBase(start, endTok.End), Name: nameTok.Text, Fields: fields}, nil
}

func (p *Parser) parseFunction() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // fun
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Lparen); err != nil {
		return nil, err
	}
	var args []ast.Arg
	for !p.at(token.Rparen) {
		argName, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		argType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Arg{Name: argName.Text, Type: argType})
		if p.at(token.Comma) {
			p.advanceTok()
		}
	}
	if _, err := p.expect(token.Rparen); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	retType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.FunctionDef{
		NodeBase: ast.NewBase(start, body.PosEnd()), Name: nameTok.Text,
		Args: args, ReturnType: retType, Body: body,
	}, nil
}

// --- types --------------------------------------------------------------

// parseType parses an intrinsic type lexeme followed by zero or more `*`
// pointer suffixes, each optionally followed by `mut`, returning the
// ValueType directly (the TypeCarrier wrapper is used only where a type
// must flow through the expression result plumbing; top-level callers
// that already know they're parsing a type skip straight to the value).
func (p *Parser) parseType() (types.ValueType, error) {
	t := p.cur()
	var base types.ValueType
	switch {
	case t.Matches(token.Keyword, "struct"):
		p.advanceTok()
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		base = types.StructType{Name: nameTok.Text}
	case t.Kind == token.Keyword:
		bt, ok := intrinsicTypes[t.Text]
		if !ok {
			return nil, cerr.New(cerr.InvalidSyntaxError, t.Start, t.End, "expected a type, found "+t.String())
		}
		p.advanceTok()
		base = bt
	default:
		return nil, cerr.New(cerr.InvalidSyntaxError, t.Start, t.End, "expected a type, found "+t.String())
	}

	for p.at(token.Mul) {
		p.advanceTok()
		mutable := false
		if p.atText(token.Keyword, "mut") {
			p.advanceTok()
			mutable = true
		}
		base = types.PointerType{Pointee: base, Mutable: mutable}
	}
	return base, nil
}

var intrinsicTypes = map[string]types.ValueType{
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64,
	"i8": types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64,
	"f64": types.F64Type{}, "bool": types.BoolType{}, "char": types.CharType{},
	"string": types.StringType{}, "void": types.VoidType{},
}

// parseTypeAsCarrier wraps parseType's result in a TypeCarrier, used by
// parseAtom when an intrinsic type name appears where an expression is
// expected, so the type flows through the same result slot as
// expression nodes. The `as` cast and `sizeof` call parseType directly.
func (p *Parser) parseTypeAsCarrier() (ast.Node, error) {
	start := p.cur().Start
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return ast.TypeCarrier{NodeBase: ast.NewBase(start, p.tokens[p.idx-1].End), Type: ty}, nil
}

// --- statements -----------------------------------------------------------

func (p *Parser) parseBlock() (ast.Node, error) {
	start := p.cur().Start
	if _, err := p.expect(token.Lcurly); err != nil {
		return nil, err
	}
	var children []ast.Node
	p.skipNewlines()
	for !p.at(token.Rcurly) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		children = append(children, stmt)
		p.skipNewlines()
	}
	endTok, err := p.expect(token.Rcurly)
	if err != nil {
		return nil, err
	}
	return ast.Statements{NodeBase: ast.NewBase(start, endTok.End), Children: children}, nil
}

func (p *Parser) parseStatement() (ast.Node, error) {
	t := p.cur()
	if t.Kind == token.Lcurly {
		return p.parseBlock()
	}
	if t.Kind == token.Keyword {
		switch t.Text {
		case "let":
			return p.parseLet()
		case "return":
			return p.parseReturn()
		case "continue":
			start := t.Start
			p.advanceTok()
			end := t.End
			if _, err := p.expect(token.Newline); err != nil {
				return nil, err
			}
			return ast.Continue{NodeBase: ast.NewBase(start, end)}, nil
		case "break":
			start := t.Start
			p.advanceTok()
			end := t.End
			if _, err := p.expect(token.Newline); err != nil {
				return nil, err
			}
			return ast.Break{NodeBase: ast.NewBase(start, end)}, nil
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "asm":
			return p.parseAsm()
		}
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseLet() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // let
	isMutable := false
	if p.atText(token.Keyword, "mut") {
		p.advanceTok()
		isMutable = true
	}
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Eq); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.VarDeclaration{
		NodeBase: ast.NewBase(start, value.PosEnd()), Name: nameTok.Text,
		VarType: ty, Value: value, IsMutable: isMutable,
	}, nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // return

	// Optional return value: a `;` right after `return` is a bare
	// `return;`. Otherwise an expression is parsed; if that fails, the
	// cursor is rewound to the checkpoint before the error is returned.
	checkpoint := p.checkpoint()
	if p.at(token.Newline) {
		end := p.cur().End
		p.advanceTok()
		return ast.Return{NodeBase: ast.NewBase(start, end)}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		p.rewind(checkpoint)
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.Return{NodeBase: ast.NewBase(start, value.PosEnd()), Value: value}, nil
}

func (p *Parser) parseIf() (ast.Node, error) {
	start := p.cur().Start
	var cases []ast.IfCase
	p.advanceTok() // if
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	cases = append(cases, ast.IfCase{Cond: cond, Body: body})
	end := body.PosEnd()

	var elseBranch ast.Node
	for p.atText(token.Keyword, "else") {
		p.advanceTok()
		if p.atText(token.Keyword, "if") {
			p.advanceTok()
			cond, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			body, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			cases = append(cases, ast.IfCase{Cond: cond, Body: body})
			end = body.PosEnd()
			continue
		}
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		elseBranch = elseBody
		end = elseBody.PosEnd()
		break
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.If{NodeBase: ast.NewBase(start, end), Cases: cases, Else: elseBranch}, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // while
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.While{NodeBase: ast.NewBase(start, body.PosEnd()), Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // for
	init, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	next, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.For{NodeBase: ast.NewBase(start, body.PosEnd()), Init: init, Cond: cond, Next: next, Body: body}, nil
}

func (p *Parser) parseAsm() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // asm
	if _, err := p.expect(token.Lsquare); err != nil {
		return nil, err
	}
	raw, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expect(token.Rsquare)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Newline); err != nil {
		return nil, err
	}
	return ast.Assembly{NodeBase: ast.NewBase(start, endTok.End), RawText: raw.Text}, nil
}

// --- expressions: precedence ladder --------------------------------------
//
// expression  := comp ( (&& | ||) comp )*               [with optional ReadBytes suffix]
// comp        := arith ( (== != > < >= <= :=) arith )*
// arith       := term  ( (+ -) term )*
// term        := factor( (* / %) factor )*
// factor      := (+|-|!|~) factor | * factor
//              | call ( (& | ^ | << | >>) call )*
// call        := atom ( '(' args ')' )? ( '[' expr ']' | '.' ident )* ( 'as' type )?

func (p *Parser) parseExpression() (ast.Node, error) {
	left, err := p.parseComp()
	if err != nil {
		return nil, err
	}
	for p.at(token.And) || p.at(token.Or) {
		op := p.advanceTok()
		right, err := p.parseComp()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{NodeBase: ast.NewBase(left.PosStart(), right.PosEnd()), Left: left, Op: op, Right: right}
	}
	if p.at(token.ReadBytes) {
		sizeTok := p.advanceTok()
		n := readBytesValue(sizeTok.Text)
		left = ast.ReadBytes{NodeBase: ast.NewBase(left.PosStart(), sizeTok.End), Value: left, Size: n}
	}
	return left, nil
}

func readBytesValue(text string) int {
	switch text {
	case "1":
		return 1
	case "2":
		return 2
	case "4":
		return 4
	default:
		return 8
	}
}

var compOps = []token.Kind{token.Ee, token.Ne, token.Gt, token.Lt, token.Gte, token.Lte, token.PointerAssign}

func (p *Parser) parseComp() (ast.Node, error) {
	left, err := p.parseArith()
	if err != nil {
		return nil, err
	}
	for containsKind(compOps, p.cur().Kind) {
		op := p.advanceTok()
		right, err := p.parseArith()
		if err != nil {
			return nil, err
		}
		left = ast.BinOp{NodeBase: ast.NewBase(left.PosStart(), right.PosEnd()), Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseArith() (ast.Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.at(token.Plus) || p.at(token.Minus) {
		op := p.advanceTok()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = combineBinOp(left, op, right)
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.at(token.Mul) || p.at(token.Div) || p.at(token.Modulo) {
		op := p.advanceTok()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = combineBinOp(left, op, right)
	}
	return left, nil
}

// combineBinOp always builds a BinOp: at parse time operand types are
// unknown, and the validator is the single place that replaces a BinOp
// whose left operand is f64 with a FloatingBinOp during its walk.
func combineBinOp(left ast.Node, op token.Token, right ast.Node) ast.Node {
	return ast.BinOp{NodeBase: ast.NewBase(left.PosStart(), right.PosEnd()), Left: left, Op: op, Right: right}
}

func (p *Parser) parseFactor() (ast.Node, error) {
	t := p.cur()
	switch {
	case t.Kind == token.Plus || t.Kind == token.Minus || t.Kind == token.Not || t.Kind == token.BitNot:
		p.advanceTok()
		value, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.UnaryOp{NodeBase: ast.NewBase(t.Start, value.PosEnd()), Op: t, Value: value}, nil
	case t.Kind == token.Mul:
		p.advanceTok()
		value, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.Dereference{NodeBase: ast.NewBase(t.Start, value.PosEnd()), Value: value}, nil
	}

	left, err := p.parseCall()
	if err != nil {
		return nil, err
	}
	for p.at(token.BitAnd) || p.at(token.BitXor) || p.at(token.BitShl) || p.at(token.BitShr) {
		op := p.advanceTok()
		right, err := p.parseCall()
		if err != nil {
			return nil, err
		}
		left = combineBinOp(left, op, right)
	}
	return left, nil
}

func (p *Parser) parseCall() (ast.Node, error) {
	node, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	if p.at(token.Lparen) {
		if access, ok := node.(ast.VarAccess); ok {
			p.advanceTok()
			var args []ast.Node
			for !p.at(token.Rparen) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.at(token.Comma) {
					p.advanceTok()
				}
			}
			endTok, err := p.expect(token.Rparen)
			if err != nil {
				return nil, err
			}
			node = ast.Call{NodeBase: ast.NewBase(node.PosStart(), endTok.End), Name: access.Name, Args: args}
		}
	}

loop:
	for {
		switch {
		case p.at(token.Lsquare):
			p.advanceTok()
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			endTok, err := p.expect(token.Rsquare)
			if err != nil {
				return nil, err
			}
			node = ast.Offset{NodeBase: ast.NewBase(node.PosStart(), endTok.End), Value: node, OffsetNode: idx}
		case p.at(token.Dot):
			p.advanceTok()
			field, err := p.expect(token.Identifier)
			if err != nil {
				return nil, err
			}
			node = ast.Accessor{NodeBase: ast.NewBase(node.PosStart(), field.End), Value: node, FieldName: field.Text}
		default:
			break loop
		}
	}

	if p.atText(token.Keyword, "as") {
		p.advanceTok()
		target, err := p.parseType()
		if err != nil {
			return nil, err
		}
		node = ast.Cast{NodeBase: ast.NewBase(node.PosStart(), p.tokens[p.idx-1].End), Value: node, TargetType: target}
	}
	return node, nil
}

func (p *Parser) parseAtom() (ast.Node, error) {
	t := p.cur()
	switch {
	case t.Kind == token.U64:
		p.advanceTok()
		return ast.Number{NodeBase: ast.NewBase(t.Start, t.End), Token: t, Size: types.Qword}, nil
	case t.Kind == token.F64:
		p.advanceTok()
		return ast.FloatingPoint{NodeBase: ast.NewBase(t.Start, t.End), Token: t, Size: types.Qword}, nil
	case t.Kind == token.String:
		p.advanceTok()
		return ast.String{NodeBase: ast.NewBase(t.Start, t.End), Token: t}, nil
	case t.Kind == token.Char:
		p.advanceTok()
		return ast.Char{NodeBase: ast.NewBase(t.Start, t.End), Value: t.Text[0]}, nil
	case t.Kind == token.BitAnd:
		p.advanceTok()
		nameTok, err := p.expect(token.Identifier)
		if err != nil {
			return nil, err
		}
		return ast.AddressOf{NodeBase: ast.NewBase(t.Start, nameTok.End), Name: nameTok.Text}, nil
	case t.Kind == token.Lparen:
		p.advanceTok()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Rparen); err != nil {
			return nil, err
		}
		return inner, nil
	case t.Kind == token.Lsquare:
		return p.parseListLiteral()
	case t.Kind == token.Keyword:
		switch t.Text {
		case "sizeof":
			return p.parseSizeOf()
		case "syscall":
			return p.parseSyscall()
		case "struct":
			return p.parseStructInit()
		default:
			if _, ok := intrinsicTypes[t.Text]; ok {
				return p.parseTypeAsCarrier()
			}
		}
	case t.Kind == token.Identifier:
		return p.parseIdentifierAtom()
	}
	return nil, cerr.New(cerr.InvalidSyntaxError, t.Start, t.End, "unexpected token "+t.String())
}

// parseIdentifierAtom covers VarAccess, VarAssign (plain or compound via
// IS_ASSIGN), macro substitution, and ++/-- desugaring.
func (p *Parser) parseIdentifierAtom() (ast.Node, error) {
	nameTok := p.advanceTok()

	if body, ok := p.state.Macros[nameTok.Text]; ok {
		return body.Clone(), nil
	}

	switch {
	case p.at(token.Eq):
		p.advanceTok()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return ast.VarAssign{NodeBase: ast.NewBase(nameTok.Start, rhs.PosEnd()), Name: nameTok.Text, Value: rhs}, nil
	case p.cur().HasFlag(token.FlagIsAssign):
		op := p.advanceTok()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		baseOp := op
		baseOp.Flags = 0
		desugared := ast.BinOp{
			NodeBase: ast.NewBase(nameTok.Start, rhs.PosEnd()),
			Left:     ast.VarAccess{NodeBase: ast.NewBase(nameTok.Start, nameTok.End), Name: nameTok.Text},
			Op:       baseOp, Right: rhs,
		}
		return ast.VarAssign{NodeBase: ast.NewBase(nameTok.Start, rhs.PosEnd()), Name: nameTok.Text, Value: desugared}, nil
	case p.at(token.PlusPlus), p.at(token.MinusMinus):
		op := p.advanceTok()
		base := token.Plus
		if op.Kind == token.MinusMinus {
			base = token.Minus
		}
		one := token.NewText(token.U64, "1", op.Start, op.End)
		desugared := ast.BinOp{
			NodeBase: ast.NewBase(nameTok.Start, op.End),
			Left:     ast.VarAccess{NodeBase: ast.NewBase(nameTok.Start, nameTok.End), Name: nameTok.Text},
			Op:       token.New(base, op.Start, op.End),
			Right:    ast.Number{NodeBase: ast.NewBase(op.Start, op.End), Token: one, Size: types.Qword},
		}
		return ast.VarAssign{NodeBase: ast.NewBase(nameTok.Start, op.End), Name: nameTok.Text, Value: desugared}, nil
	default:
		return ast.VarAccess{NodeBase: ast.NewBase(nameTok.Start, nameTok.End), Name: nameTok.Text}, nil
	}
}

func (p *Parser) parseListLiteral() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // '['
	elemType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Colon); err != nil {
		return nil, err
	}
	countTok, err := p.expect(token.U64)
	if err != nil {
		return nil, err
	}
	endTok, err := p.expect(token.Rsquare)
	if err != nil {
		return nil, err
	}
	return ast.List{
		NodeBase: ast.NewBase(start, endTok.End), Count: atoiSafe(countTok.Text),
		ElementType: elemType, IsInitialized: false,
	}, nil
}

func (p *Parser) parseSizeOf() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // sizeof
	if _, err := p.expect(token.Lsquare); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	endTok, err := p.expect(token.Rsquare)
	if err != nil {
		return nil, err
	}
	return ast.SizeOf{NodeBase: ast.NewBase(start, endTok.End), Type: ty}, nil
}

func (p *Parser) parseSyscall() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // syscall
	if _, err := p.expect(token.Lsquare); err != nil {
		return nil, err
	}
	var args [4]ast.Node
	for i := 0; i < 4; i++ {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args[i] = arg
		if i < 3 {
			if _, err := p.expect(token.Comma); err != nil {
				return nil, err
			}
		}
	}
	endTok, err := p.expect(token.Rsquare)
	if err != nil {
		return nil, err
	}
	return ast.Syscall{NodeBase: ast.NewBase(start, endTok.End), Args: args}, nil
}

func (p *Parser) parseStructInit() (ast.Node, error) {
	start := p.cur().Start
	p.advanceTok() // struct
	nameTok, err := p.expect(token.Identifier)
	if err != nil {
		return nil, err
	}
	return ast.StructInit{NodeBase: ast.NewBase(start, nameTok.End), Name: nameTok.Text}, nil
}

// --- helpers --------------------------------------------------------------

func containsKind(ks []token.Kind, k token.Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

func atoiSafe(s string) int {
	n := 0
	for _, ch := range s {
		n = n*10 + int(ch-'0')
	}
	return n
}

func identityOf(path string) (fileIdentity, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileIdentity{}, err
	}
	return identityFromFileInfo(info)
}

// identityFromFileInfo extracts the platform device+inode pair. Kept as
// its own function so a non-Unix build could swap the implementation
// without touching the resolution logic above.
func identityFromFileInfo(info fs.FileInfo) (fileIdentity, error) {
	return statIdentity(info)
}
