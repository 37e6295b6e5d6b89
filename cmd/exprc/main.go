package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/xplshn/exprc/pkg/cli"
	"github.com/xplshn/exprc/pkg/codegen"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/driver"
	"github.com/xplshn/exprc/pkg/ir"
	"github.com/xplshn/exprc/pkg/parser"
	"github.com/xplshn/exprc/pkg/symtab"
	"github.com/xplshn/exprc/pkg/util"
	"github.com/xplshn/exprc/pkg/vm"
	"golang.org/x/term"
)

type options struct {
	outFile     string
	backend     string
	target      string
	std         string
	dumpIR      bool
	run         bool
	dumpAST     bool
	symbols     bool
	diagnostics bool
	wall        bool
}

func main() {
	app := cli.NewApp("exprc")
	app.Synopsis = "[options] [input ...]"
	app.Description = "Compiles line-oriented arithmetic statements over integer variables into code for an eight-register load/store machine. Reads standard input when no files are given."
	app.Notes = []string{"Extra -W and -F flags are read from the EXPRCFLAGS environment variable."}
	app.Repository = "<https://github.com/xplshn/exprc>"

	var opts options
	fs := app.FlagSet
	fs.String(&opts.outFile, "output", "o", "", "Place the output into <file>.", "file")
	fs.String(&opts.backend, "backend", "b", "text", "Select the backend (text, qbe).", "backend")
	fs.String(&opts.target, "target", "t", "", "Set the QBE target ABI.", "target")
	fs.String(&opts.std, "std", "", "classic", "Specify the language profile (classic, strict).", "std")
	fs.Bool(&opts.dumpIR, "dump-ir", "", false, "With the qbe backend, print the QBE IL instead of assembly.")
	fs.Bool(&opts.run, "run", "r", false, "Simulate the program and print the final x, y and z.")
	fs.Bool(&opts.dumpAST, "dump-ast", "a", false, "Print each statement's tree.")
	fs.Bool(&opts.symbols, "symbols", "s", false, "Print the symbol table at the end of the session.")
	fs.Bool(&opts.diagnostics, "diagnostics", "d", false, "Print error and warning messages.")
	fs.Bool(&opts.wall, "Wall", "", false, "Enable all warnings except pedantic.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		// Pedantic affects the standard, so it goes first
		if e := warningFlags[config.WarnPedantic].Enabled; e != nil && *e {
			cfg.SetWarning(config.WarnPedantic, true)
		}
		if err := cfg.ApplyStd(opts.std); err != nil {
			return report(err)
		}
		if opts.wall {
			cfg.ProcessFlags([]string{"-Wall"})
		}
		cfg.ProcessFlags(strings.Fields(os.Getenv("EXPRCFLAGS")))
		cfg.ApplyFlagGroups(warningFlags, featureFlags)

		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, opts.backend, opts.target); err != nil {
			return report(err)
		}
		return report(compile(cfg, opts, inputFiles))
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

func report(err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "exprc: %v\n", err)
	}
	return err
}

func compile(cfg *config.Config, opts options, inputFiles []string) error {
	in, name, closeInputs, err := openInputs(inputFiles)
	if err != nil {
		return err
	}
	defer closeInputs()

	var out io.Writer = os.Stdout
	if opts.outFile != "" {
		f, err := os.Create(opts.outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	var diag *util.Diagnostics
	if opts.diagnostics {
		diag = util.NewDiagnostics(os.Stderr, cfg, name, term.IsTerminal(int(os.Stderr.Fd())))
	}

	// The text listing is streamed as it is produced; other backends render
	// the finished program.
	listing := out
	if cfg.BackendName != "text" {
		listing = io.Discard
	}
	sess := driver.NewSession(in, listing, cfg, diag)
	if opts.dumpAST {
		sess.OnStatement = func(stmt *parser.Statement) {
			fmt.Fprintf(os.Stderr, "%d: %s\n", stmt.Tok.Line, stmt.Expr)
		}
	}

	// A compile error is part of the output (EXIT 1), not a tool failure.
	if _, err := sess.Run(); err != nil {
		if _, isCompileErr := util.KindOf(err); !isCompileErr {
			return err
		}
	}
	prog := sess.Program()

	if opts.symbols {
		dumpSymbols(os.Stderr, sess.Context().Symbols())
	}
	if opts.run {
		if err := simulate(os.Stderr, prog, cfg); err != nil {
			return err
		}
	}
	if cfg.BackendName != "text" {
		return emitBackend(out, prog, cfg, opts.dumpIR)
	}
	return nil
}

// openInputs concatenates the named files, or returns stdin when there are none.
func openInputs(paths []string) (io.Reader, string, func(), error) {
	if len(paths) == 0 {
		return os.Stdin, "<stdin>", func() {}, nil
	}
	var readers []io.Reader
	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, "", nil, fmt.Errorf("could not read file '%s': %w", path, err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	name := paths[0]
	if len(paths) > 1 {
		name = strings.Join(paths, "+")
	}
	return io.MultiReader(readers...), name, closeAll, nil
}

func emitBackend(out io.Writer, prog *ir.Program, cfg *config.Config, dumpIR bool) error {
	backend, err := codegen.SelectBackend(cfg)
	if err != nil {
		return err
	}
	if dumpIR {
		qbe, ok := backend.(interface {
			GenerateIR(*ir.Program, *config.Config) (string, error)
		})
		if !ok {
			return fmt.Errorf("backend '%s' has no IR to dump", cfg.BackendName)
		}
		il, err := qbe.GenerateIR(prog, cfg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, il)
		return err
	}
	buf, err := backend.Generate(prog, cfg)
	if err != nil {
		return fmt.Errorf("backend code generation failed: %w", err)
	}
	_, err = buf.WriteTo(out)
	return err
}

func simulate(w io.Writer, prog *ir.Program, cfg *config.Config) error {
	m := vm.ForProgram(prog)
	code, err := m.Run(prog)
	if err != nil {
		return err
	}
	var parts []string
	for i, name := range cfg.Reserved {
		parts = append(parts, fmt.Sprintf("%s=%d", name, m.Regs[i]))
	}
	fmt.Fprintf(w, "%s exit=%d\n", strings.Join(parts, " "), code)
	return nil
}

func dumpSymbols(w io.Writer, syms *symtab.Table) {
	fmt.Fprintf(w, "%-12s %6s %s\n", "NAME", "SLOT", "VALUE")
	for i, e := range syms.Entries() {
		value := "?"
		if e.Known {
			value = fmt.Sprint(e.Value)
		}
		fmt.Fprintf(w, "%-12s %6s %s\n", e.Name, fmt.Sprintf("[%d]", syms.Slot(i)), value)
	}
}
