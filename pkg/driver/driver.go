package driver

import (
	"fmt"
	"io"

	"github.com/xplshn/exprc/pkg/codegen"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/ir"
	"github.com/xplshn/exprc/pkg/lexer"
	"github.com/xplshn/exprc/pkg/parser"
	"github.com/xplshn/exprc/pkg/util"
)

// Session compiles one input stream statement by statement. Newly emitted
// instructions are written to the output after every statement, so the
// listing produced before a fatal error is never lost.
type Session struct {
	lex     *lexer.Lexer
	parser  *parser.Parser
	ctx     *codegen.Context
	prog    *ir.Program
	out     io.Writer
	diag    *util.Diagnostics
	flushed int

	// OnStatement, if set, sees every statement that reaches the generator.
	OnStatement func(stmt *parser.Statement)
}

func NewSession(in io.Reader, out io.Writer, cfg *config.Config, diag *util.Diagnostics) *Session {
	lex := lexer.NewLexer(in, cfg, diag)
	prog := ir.NewProgram(cfg.WordSize, cfg.NumRegs, cfg.MemorySize())
	return &Session{
		lex:    lex,
		parser: parser.NewParser(lex, cfg, diag),
		ctx:    codegen.NewContext(cfg, prog, diag),
		prog:   prog,
		out:    out,
		diag:   diag,
	}
}

func (s *Session) Program() *ir.Program      { return s.prog }
func (s *Session) Context() *codegen.Context { return s.ctx }

// Step parses and generates one statement. done is true once the end of
// the input has been reached.
func (s *Session) Step() (done bool, err error) {
	stmt, err := s.parser.ParseStatement()
	if err != nil {
		return true, err
	}
	switch stmt.Kind {
	case parser.StmtEOF:
		return true, s.lex.Err()
	case parser.StmtEmpty:
		return false, nil
	}
	if s.OnStatement != nil {
		s.OnStatement(stmt)
	}
	if err := s.ctx.GenerateStatement(stmt.Expr); err != nil {
		return true, err
	}
	return false, nil
}

// Run compiles statements until the end of input or the first fatal error
// and terminates the listing with EXIT 0 or EXIT 1 respectively. The
// returned error is the one that stopped compilation, already reported to
// the diagnostics sink.
func (s *Session) Run() (int, error) {
	if s.prog.Terminated() {
		return 0, fmt.Errorf("driver: session already finished")
	}
	for {
		done, err := s.Step()
		if err != nil {
			s.diag.Error(err)
			s.prog.Exit(1)
			if ferr := s.flush(); ferr != nil {
				return 1, ferr
			}
			return 1, err
		}
		if done {
			s.prog.Exit(0)
		}
		if ferr := s.flush(); ferr != nil {
			return 1, ferr
		}
		if done {
			return 0, nil
		}
	}
}

func (s *Session) flush() error {
	for _, line := range s.prog.Lines(s.flushed) {
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			return fmt.Errorf("driver: writing output: %w", err)
		}
	}
	s.flushed = len(s.prog.Instructions)
	return nil
}
