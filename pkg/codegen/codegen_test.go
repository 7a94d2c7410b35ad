package codegen_test

import (
	"strings"
	"testing"

	"umberlang.dev/umberc/pkg/ast"
	"umberlang.dev/umberc/pkg/codegen"
	"umberlang.dev/umberc/pkg/position"
	"umberlang.dev/umberc/pkg/token"
)

func number(text string) ast.Number {
	pos := position.Empty()
	return ast.Number{
		NodeBase: ast.NewBase(pos, pos),
		Token:    token.NewText(token.U64, text, pos, pos),
	}
}

func binOp(left ast.Node, kind token.Kind, right ast.Node) ast.BinOp {
	pos := position.Empty()
	return ast.BinOp{
		NodeBase: ast.NewBase(left.PosStart(), right.PosEnd()),
		Left:     left,
		Op:       token.New(kind, pos, pos),
		Right:    right,
	}
}

func TestGenerateNumberEmitsMovq(t *testing.T) {
	cg := codegen.New()
	out, err := cg.Generate(ast.Statements{Children: []ast.Node{number("7")}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(out, "MOVQ $7,") {
		t.Fatalf("expected a MOVQ of the literal 7, got:\n%s", out)
	}
}

func TestGenerateAdditionAndSubtraction(t *testing.T) {
	cg := codegen.New()
	sum := binOp(number("1"), token.Plus, number("2"))
	diff := binOp(number("5"), token.Minus, number("3"))
	out, err := cg.Generate(ast.Statements{Children: []ast.Node{sum, diff}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(out, "ADDQ") {
		t.Fatalf("expected an ADDQ instruction, got:\n%s", out)
	}
	if !strings.Contains(out, "SUBQ") {
		t.Fatalf("expected a SUBQ instruction, got:\n%s", out)
	}
}

func TestGenerateMultiplicationUsesRax(t *testing.T) {
	cg := codegen.New()
	prod := binOp(number("6"), token.Mul, number("7"))
	out, err := cg.Generate(ast.Statements{Children: []ast.Node{prod}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(out, "IMULQ") || !strings.Contains(out, "%rax") {
		t.Fatalf("expected an IMULQ through %%rax, got:\n%s", out)
	}
}

func TestUnhandledOperatorIsAFatalInternalError(t *testing.T) {
	cg := codegen.New()
	div := binOp(number("6"), token.Div, number("2"))
	_, err := cg.Generate(ast.Statements{Children: []ast.Node{div}})
	if err == nil {
		t.Fatal("expected an error: '/' is not one of the lowered operators")
	}
}

func TestUnhandledNodeKindIsAFatalInternalError(t *testing.T) {
	cg := codegen.New()
	pos := position.Empty()
	_, err := cg.Generate(ast.Statements{Children: []ast.Node{
		ast.Break{NodeBase: ast.NewBase(pos, pos)},
	}})
	if err == nil {
		t.Fatal("expected an error: Break is not lowered by this core")
	}
}

func TestRegisterAllocatorBalancesAcrossAStatement(t *testing.T) {
	cg := codegen.New()
	sum := binOp(number("1"), token.Plus, number("2"))
	if _, err := cg.Generate(ast.Statements{Children: []ast.Node{sum}}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for i, inUse := range cg.RegistersInUse() {
		if inUse {
			t.Fatalf("register %d still marked in-use after Statements fully lowered", i)
		}
	}
}

func TestRegisterAllocatorExhaustion(t *testing.T) {
	var alloc codegen.RegisterAllocator
	for i := 0; i < 7; i++ {
		if _, err := alloc.Reserve(); err != nil {
			t.Fatalf("unexpected exhaustion at register %d: %s", i, err)
		}
	}
	if _, err := alloc.Reserve(); err == nil {
		t.Fatal("expected an error reserving an 8th scratch register")
	}
}

func TestLabelAllocatorIsMonotonic(t *testing.T) {
	var labels codegen.LabelAllocator
	first := labels.Next()
	second := labels.Next()
	if first == second {
		t.Fatalf("expected distinct labels, got %q twice", first)
	}
	if first != ".L1" || second != ".L2" {
		t.Fatalf("expected .L1 then .L2, got %q then %q", first, second)
	}
}

func TestGenerateFunctionDefEmitsLabel(t *testing.T) {
	cg := codegen.New()
	pos := position.Empty()
	fn := ast.FunctionDef{
		NodeBase: ast.NewBase(pos, pos),
		Name:     "main",
		Body:     ast.Statements{Children: []ast.Node{number("0")}},
	}
	out, err := cg.Generate(ast.Statements{Children: []ast.Node{fn}})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(out, ".L1:") {
		t.Fatalf("expected a .L1 label for the function, got:\n%s", out)
	}
}
