package compiler_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"umberlang.dev/umberc/pkg/compiler"
)

func TestCompileEmptyProgram(t *testing.T) {
	result, err := compiler.Compile("", "test.umb", nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if result.Assembly != "" {
		t.Fatalf("expected no assembly output for an empty program, got %q", result.Assembly)
	}
}

func TestCompileSimpleBinaryOpFunction(t *testing.T) {
	// The code generator only lowers Statements, Number, BinOp(+/-/*),
	// and FunctionDef (every other node kind is a deliberate fatal
	// internal error, see pkg/codegen) — so a function body that reaches
	// codegen successfully can only contain a bare arithmetic statement,
	// not a `return` (Return is not one of the lowered kinds).
	result, err := compiler.Compile("fun f(): void { 1 + 2; };", "test.umb", nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !strings.Contains(result.Assembly, ".L1:") {
		t.Fatalf("expected a function label in the generated assembly:\n%s", result.Assembly)
	}
	if !strings.Contains(result.Assembly, "ADDQ") {
		t.Fatalf("expected the '+' to lower to ADDQ:\n%s", result.Assembly)
	}
}

func TestCompileFunctionBodyWithReturnFailsCodegen(t *testing.T) {
	// return/if/while/call/... are validated successfully but are not
	// among the node kinds this code generator core implements; that is a
	// fatal internal error rather than silently wrong assembly.
	_, err := compiler.Compile("fun add(a: u64, b: u64): u64 { return a + b; };", "test.umb", nil)
	if err == nil {
		t.Fatal("expected codegen to reject a Return node it does not lower")
	}
}

func TestCompileRejectsShadowedDeclaration(t *testing.T) {
	src := `
fun f(): void {
	let x: u64 = 1;
	if 1 == 1 {
		let x: u64 = 2;
	};
};`
	_, err := compiler.Compile(src, "test.umb", nil)
	if err == nil {
		t.Fatal("expected a semantic error for the shadowed declaration")
	}
	if !strings.Contains(compiler.FormatError(err, src), "SemanticError") {
		t.Fatalf("expected the formatted error to name SemanticError, got:\n%s", compiler.FormatError(err, src))
	}
}

func TestCompileRejectsImmutableAssignment(t *testing.T) {
	src := `
fun f(): void {
	let x: u64 = 1;
	x = 2;
};`
	_, err := compiler.Compile(src, "test.umb", nil)
	if err == nil {
		t.Fatal("expected a semantic error assigning to an immutable variable")
	}
}

func TestCompileResolvesImportsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "lib.umb")
	mainPath := filepath.Join(dir, "main.umb")

	if err := os.WriteFile(libPath, []byte("fun helper(): void { 1 + 1; };"), 0o644); err != nil {
		t.Fatal(err)
	}
	mainSrc := "import \"lib.umb\";\nfun main(): void { 2 + 2; };"
	if err := os.WriteFile(mainPath, []byte(mainSrc), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := compiler.CompileFile(mainPath, nil)
	if err != nil {
		t.Fatalf("unexpected error compiling a file with an import: %s", err)
	}
	if result.Assembly == "" {
		t.Fatal("expected non-empty assembly output")
	}
}

func TestCompileCycleSafeMutualImports(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.umb")
	b := filepath.Join(dir, "b.umb")
	if err := os.WriteFile(a, []byte("import \"b.umb\";\nfun fromA(): void { 1 + 1; };"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("import \"a.umb\";\nfun fromB(): void { 2 + 2; };"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := compiler.CompileFile(a, nil); err != nil {
		t.Fatalf("expected mutually-importing files to compile without recursing forever: %s", err)
	}
}

func TestCompileBadEscapeSurfacesAsIllegalCharacterOrExpectedCharacter(t *testing.T) {
	src := `const BAD: string = "\q";`
	_, err := compiler.Compile(src, "test.umb", nil)
	if err == nil {
		t.Fatal("expected an error for the unsupported escape sequence")
	}
	if msg := compiler.FormatError(err, src); !strings.Contains(msg, "IllegalCharacterError") && !strings.Contains(msg, "ExpectedCharacterError") {
		t.Fatalf("expected IllegalCharacterError or ExpectedCharacterError, got:\n%s", msg)
	}
}

func TestOutputPathComputesBuildDirSibling(t *testing.T) {
	got := compiler.OutputPath("/srv/project/main.umb")
	want := filepath.Join("/srv/project", "build", "main.asm")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
