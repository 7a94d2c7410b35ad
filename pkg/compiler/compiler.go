// Package compiler wires the Lexer, Parser, Validator, and CodeGenerator
// passes into a single entry point, following code/main.go's and
// cmd/hack_assembler/main.go's sequential "parse, lower, generate" shape
// (there: Parser → Lowerer → CodeGenerator; here: Lexer+Parser →
// Validator → CodeGenerator), each stage returning early on error.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"umberlang.dev/umberc/pkg/cerr"
	"umberlang.dev/umberc/pkg/codegen"
	"umberlang.dev/umberc/pkg/parser"
	"umberlang.dev/umberc/pkg/validator"
)

// Result carries the generated assembly text alongside the diagnostics
// a caller may want to present even on success (currently none, but the
// shape leaves room for future warnings without breaking Compile's
// signature).
type Result struct {
	Assembly string
}

// Compile runs the full pipeline over source, attributing positions to
// path, and resolving `import` directives against includeDirs (searched
// in order, after the importing file's own directory).
//
// Each stage's error is returned as-is: lexer, parser and validator
// errors are a *cerr.Error, and so are codegen's internal-error cases;
// codegen's register-exhaustion error is a plain error. FormatError
// renders either kind.
func Compile(source, path string, includeDirs []string) (*Result, error) {
	state := parser.NewSharedState(includeDirs)
	root, err := parser.ParseSource(source, path, state)
	if err != nil {
		return nil, err
	}

	v := validator.New()
	validated, _, err := v.Validate(root)
	if err != nil {
		return nil, err
	}

	cg := codegen.New()
	asm, err := cg.Generate(validated)
	if err != nil {
		return nil, err
	}

	return &Result{Assembly: asm}, nil
}

// CompileFile reads path off disk and runs Compile over its contents.
// cmd/umberc's Handler does not use it: it reads the file itself, since
// it also needs the source text for FormatError.
func CompileFile(path string, includeDirs []string) (*Result, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compiler: unable to read %s: %w", path, err)
	}
	return Compile(string(source), path, includeDirs)
}

// FormatError renders err with source-line context via cerr.Error.Format,
// falling back to err.Error() for anything that isn't a *cerr.Error
// (I/O failures surfaced via fmt.Errorf, for instance).
func FormatError(err error, source string) string {
	var ce *cerr.Error
	if as, ok := err.(*cerr.Error); ok {
		ce = as
	}
	if ce == nil {
		return err.Error()
	}
	return ce.Format(source)
}

// OutputPath computes the default output location for a compiled
// source file: <dir of path>/build/<stem>.asm.
func OutputPath(path string) string {
	dir := filepath.Dir(path)
	stem := filepath.Base(path)
	if ext := filepath.Ext(stem); ext != "" {
		stem = stem[:len(stem)-len(ext)]
	}
	return filepath.Join(dir, "build", stem+".asm")
}
