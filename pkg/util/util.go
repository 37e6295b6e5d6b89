package util

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/token"
)

type ErrorKind int

const (
	ErrUndefined ErrorKind = iota
	ErrMisParen
	ErrNotNumID
	ErrNotFound
	ErrTableFull
	ErrRegExhausted
	ErrDivZero
	ErrSyntax
)

var errorKindNames = map[ErrorKind]string{
	ErrUndefined:    "undefined node kind",
	ErrMisParen:     "mismatched parenthesis",
	ErrNotNumID:     "number or identifier expected",
	ErrNotFound:     "variable not defined",
	ErrTableFull:    "symbol table full",
	ErrRegExhausted: "out of registers",
	ErrDivZero:      "divide by constant zero",
	ErrSyntax:       "syntax error",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return "undefined error"
}

// CompileError is a fatal error raised while translating a statement.
type CompileError struct {
	Kind ErrorKind
	Tok  token.Token
	Msg  string
}

func (e *CompileError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// NewError builds a CompileError anchored at tok.
func NewError(kind ErrorKind, tok token.Token, format string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Tok: tok, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of a CompileError anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return ErrUndefined, false
}

// LineSource gives access to the text of lines already read from the input.
type LineSource interface {
	Line(n int) (string, bool)
}

// Diagnostics writes errors and warnings to a secondary channel. A nil
// *Diagnostics discards everything, so callers never need to check.
type Diagnostics struct {
	w        io.Writer
	cfg      *config.Config
	filename string
	color    bool
	source   LineSource
}

func NewDiagnostics(w io.Writer, cfg *config.Config, filename string, color bool) *Diagnostics {
	return &Diagnostics{w: w, cfg: cfg, filename: filename, color: color}
}

// SetSource attaches the input so reports can quote the offending line.
func (d *Diagnostics) SetSource(src LineSource) {
	if d != nil {
		d.source = src
	}
}

func (d *Diagnostics) paint(code, s string) string {
	if !d.color {
		return s
	}
	return code + s + "\033[0m"
}

func (d *Diagnostics) location(tok token.Token) string {
	if tok.Line == 0 {
		return d.filename
	}
	return fmt.Sprintf("%s:%d:%d", d.filename, tok.Line, tok.Column)
}

// printErrorLine prints the source line and a caret indicating the position
func (d *Diagnostics) printErrorLine(tok token.Token) {
	if d.source == nil || tok.Line == 0 {
		return
	}
	line, ok := d.source.Line(tok.Line)
	if !ok {
		return
	}
	fmt.Fprintf(d.w, "  %s\n", line)

	col := tok.Column - 1
	if col < 0 {
		col = 0
	}
	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(d.w, "  %s%s\n", strings.Repeat(" ", col), d.paint("\033[32m", caret))
}

// Error reports err. Compile errors get a source location and a caret line.
func (d *Diagnostics) Error(err error) {
	if d == nil || err == nil {
		return
	}
	var ce *CompileError
	if !errors.As(err, &ce) {
		fmt.Fprintf(d.w, "%s: %s %v\n", d.filename, d.paint("\033[31m", "error:"), err)
		return
	}
	fmt.Fprintf(d.w, "%s: %s %s\n", d.location(ce.Tok), d.paint("\033[31m", "error:"), ce.Error())
	d.printErrorLine(ce.Tok)
}

// Warn prints a warning if wt is enabled in the configuration.
func (d *Diagnostics) Warn(wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if d == nil || !d.cfg.IsWarningEnabled(wt) {
		return
	}
	fmt.Fprintf(d.w, "%s: %s ", d.location(tok), d.paint("\033[33m", "warning:"))
	fmt.Fprintf(d.w, format, args...)
	fmt.Fprintf(d.w, " [-W%s]\n", d.cfg.Warnings[wt].Name)
	d.printErrorLine(tok)
}
