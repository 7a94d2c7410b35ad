package validator_test

import (
	"testing"

	"umberlang.dev/umberc/pkg/parser"
	"umberlang.dev/umberc/pkg/validator"
)

func validateSource(t *testing.T, source string) error {
	t.Helper()
	state := parser.NewSharedState(nil)
	root, err := parser.ParseSource(source, "test.umb", state)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	_, _, err = validator.New().Validate(root)
	return err
}

func TestValidFunctionPasses(t *testing.T) {
	err := validateSource(t, "fun add(a: u64, b: u64): u64 { return a + b; };")
	if err != nil {
		t.Fatalf("expected no error, got %s", err)
	}
}

func TestEmptyProgramPasses(t *testing.T) {
	if err := validateSource(t, ""); err != nil {
		t.Fatalf("expected no error for an empty program, got %s", err)
	}
}

func TestShadowingIsDisallowed(t *testing.T) {
	src := `
fun f(): void {
	let x: u64 = 1;
	if 1 == 1 {
		let x: u64 = 2;
	};
};`
	err := validateSource(t, src)
	if err == nil {
		t.Fatal("expected an error re-declaring 'x' in a nested scope")
	}
}

func TestImmutableAssignIsRejected(t *testing.T) {
	src := `
fun f(): void {
	let x: u64 = 1;
	x = 2;
};`
	err := validateSource(t, src)
	if err == nil {
		t.Fatal("expected an error assigning to an immutable variable")
	}
}

func TestMutableAssignWithMatchingTypePasses(t *testing.T) {
	src := `
fun f(): void {
	let mut x: u64 = 1;
	x = 2;
};`
	if err := validateSource(t, src); err != nil {
		t.Fatalf("expected no error, got %s", err)
	}
}

func TestAssignTypeMismatchIsRejected(t *testing.T) {
	// Per the corrected (non-inverted) VarAssign equality check: a
	// mutable u64 assigned an f64 value must be rejected since the
	// types do not match.
	src := `
fun f(): void {
	let mut x: u64 = 1;
	x = 3.14;
};`
	err := validateSource(t, src)
	if err == nil {
		t.Fatal("expected an error assigning a mismatched type to a mutable variable")
	}
}

func TestUndeclaredVariableAccessIsRejected(t *testing.T) {
	src := `
fun f(): u64 {
	return y;
};`
	err := validateSource(t, src)
	if err == nil {
		t.Fatal("expected an error referencing an undeclared variable")
	}
}

func TestFunctionMustReturnDeclaredType(t *testing.T) {
	err := validateSource(t, "fun f(): u64 { let x: u64 = 1; };")
	if err == nil {
		t.Fatal("expected an error for a non-void function missing a return")
	}
}

func TestCallArityMismatchIsRejected(t *testing.T) {
	src := `
fun add(a: u64, b: u64): u64 { return a + b; };
fun f(): u64 { return add(1); };`
	err := validateSource(t, src)
	if err == nil {
		t.Fatal("expected an error calling add/2 with only one argument")
	}
}
