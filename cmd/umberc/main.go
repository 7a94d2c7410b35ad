// Command umberc is the Umber compiler's command-line front end,
// following cmd/hack_assembler/main.go's teris-io/cli wiring: a single
// cli.New(...).WithArg(...).WithAction(...) command whose Handler does
// the I/O and calls straight into the library passes.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teris-io/cli"

	"umberlang.dev/umberc/pkg/compiler"
)

var description = strings.ReplaceAll(`
The Umber compiler reads a single .umb source file, resolves its
imports, validates it, and emits x86-64 assembly text into a build
directory beside the source file. It does not itself invoke an
assembler or linker.
`, "\n", " ")

var Umberc = cli.New(description).
	WithArg(cli.NewArg("input", "The Umber (.umb) source file to compile")).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	input := args[0]

	// Additional import search directories beyond input's own directory
	// can be supplied via UMBERC_INCLUDE (colon-separated), since
	// teris-io/cli's option surface beyond WithArg isn't exercised
	// anywhere in the reference pack to imitate confidently.
	includeDirs := []string{filepath.Dir(input)}
	if raw := os.Getenv("UMBERC_INCLUDE"); raw != "" {
		includeDirs = append(includeDirs, strings.Split(raw, string(os.PathListSeparator))...)
	}

	source, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("ERROR: Unable to open input file: %s\n", err)
		return -1
	}

	result, err := compiler.Compile(string(source), input, includeDirs)
	if err != nil {
		fmt.Print(compiler.FormatError(err, string(source)))
		return -1
	}

	outputPath := compiler.OutputPath(input)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		fmt.Printf("ERROR: Unable to create build directory: %s\n", err)
		return -1
	}

	if err := os.WriteFile(outputPath, []byte(result.Assembly), 0o644); err != nil {
		fmt.Printf("ERROR: Unable to write output file: %s\n", err)
		return -1
	}

	fmt.Printf("Compiled %s -> %s\n", input, outputPath)
	return 0
}

func main() { os.Exit(Umberc.Run(os.Args, os.Stdout)) }
