package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"umberlang.dev/umberc/pkg/ast"
	"umberlang.dev/umberc/pkg/parser"
	"umberlang.dev/umberc/pkg/token"
)

func mustParse(t *testing.T, source string) ast.Node {
	t.Helper()
	state := parser.NewSharedState(nil)
	root, err := parser.ParseSource(source, "test.umb", state)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	return root
}

func TestParseEmptyProgram(t *testing.T) {
	root := mustParse(t, "")
	stmts, ok := root.(ast.Statements)
	if !ok {
		t.Fatalf("expected ast.Statements, got %T", root)
	}
	if len(stmts.Children) != 0 {
		t.Fatalf("expected no top-level items, got %d", len(stmts.Children))
	}
}

func TestParseFunctionWithReturn(t *testing.T) {
	root := mustParse(t, "fun add(a: u64, b: u64): u64 { return a + b; };")
	stmts := root.(ast.Statements)
	if len(stmts.Children) != 1 {
		t.Fatalf("expected one top-level item, got %d", len(stmts.Children))
	}
	fn, ok := stmts.Children[0].(ast.FunctionDef)
	if !ok {
		t.Fatalf("expected ast.FunctionDef, got %T", stmts.Children[0])
	}
	if fn.Name != "add" || len(fn.Args) != 2 {
		t.Fatalf("unexpected function shape: %+v", fn)
	}

	body := fn.Body.(ast.Statements)
	if len(body.Children) != 1 {
		t.Fatalf("expected one statement in body, got %d", len(body.Children))
	}
	ret, ok := body.Children[0].(ast.Return)
	if !ok {
		t.Fatalf("expected ast.Return, got %T", body.Children[0])
	}
	binop, ok := ret.Value.(ast.BinOp)
	if !ok {
		t.Fatalf("expected ast.BinOp return value, got %T", ret.Value)
	}
	if binop.Op.Kind != token.Plus {
		t.Fatalf("expected '+' operator, got %s", binop.Op.Kind)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	// 1 + 2 * 3 should parse as 1 + (2 * 3): the '*' binds tighter,
	// so the top node's Right operand is the multiplication.
	root := mustParse(t, "fun f(): u64 { return 1 + 2 * 3; };")
	fn := root.(ast.Statements).Children[0].(ast.FunctionDef)
	ret := fn.Body.(ast.Statements).Children[0].(ast.Return)
	top := ret.Value.(ast.BinOp)
	if top.Op.Kind != token.Plus {
		t.Fatalf("expected top-level '+', got %s", top.Op.Kind)
	}
	if _, ok := top.Left.(ast.Number); !ok {
		t.Fatalf("expected left operand to be a plain number, got %T", top.Left)
	}
	mul, ok := top.Right.(ast.BinOp)
	if !ok || mul.Op.Kind != token.Mul {
		t.Fatalf("expected right operand to be a '*' BinOp, got %#v", top.Right)
	}
}

func TestCompoundAssignDesugarsToVarAssignOfBinOp(t *testing.T) {
	root := mustParse(t, "fun f(): void { x += 1; };")
	fn := root.(ast.Statements).Children[0].(ast.FunctionDef)
	stmt := fn.Body.(ast.Statements).Children[0]
	assign, ok := stmt.(ast.VarAssign)
	if !ok {
		t.Fatalf("expected ast.VarAssign, got %T", stmt)
	}
	if assign.Name != "x" {
		t.Fatalf("expected assign target 'x', got %q", assign.Name)
	}
	binop, ok := assign.Value.(ast.BinOp)
	if !ok {
		t.Fatalf("expected desugared value to be a BinOp, got %T", assign.Value)
	}
	if binop.Op.Kind != token.Plus {
		t.Fatalf("expected desugared '+', got %s (flags should be cleared)", binop.Op.Kind)
	}
	if binop.Op.HasFlag(token.FlagIsAssign) {
		t.Fatal("desugared operator token should not retain FlagIsAssign")
	}
}

func TestMacroSubstitution(t *testing.T) {
	root := mustParse(t, "macro ANSWER 42;\nfun f(): u64 { return ANSWER; };")
	fn := root.(ast.Statements).Children[1].(ast.FunctionDef)
	ret := fn.Body.(ast.Statements).Children[0].(ast.Return)
	if _, ok := ret.Value.(ast.Number); !ok {
		t.Fatalf("expected macro to substitute to a Number literal, got %T", ret.Value)
	}
}

func TestImportCycleIsResolvedOnce(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.umb")
	b := filepath.Join(dir, "b.umb")
	if err := os.WriteFile(a, []byte("import \"b.umb\";\nconst A: u64 = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("import \"a.umb\";\nconst B: u64 = 2;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	state := parser.NewSharedState(nil)
	source, err := os.ReadFile(a)
	if err != nil {
		t.Fatal(err)
	}
	root, err := parser.ParseSource(string(source), a, state)
	if err != nil {
		t.Fatalf("unexpected error resolving a mutually-importing pair: %s", err)
	}
	if root == nil {
		t.Fatal("expected a non-nil AST for the cyclic import")
	}
}

func TestBadEscapeSequenceSurfacesAsParseError(t *testing.T) {
	state := parser.NewSharedState(nil)
	_, err := parser.ParseSource(`const BAD: string = "\q";`, "test.umb", state)
	if err == nil {
		t.Fatal("expected an error for the unsupported escape sequence")
	}
}
