package util

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/token"
)

type lines []string

func (l lines) Line(n int) (string, bool) {
	if n < 1 || n > len(l) {
		return "", false
	}
	return l[n-1], true
}

func TestCompileError(t *testing.T) {
	tok := token.Token{Type: token.Int, Value: "0", Line: 1, Column: 5, Len: 1}
	err := fmt.Errorf("statement 1: %w", NewError(ErrDivZero, tok, "right operand is '%s'", "0"))

	kind, ok := KindOf(err)
	if !ok || kind != ErrDivZero {
		t.Errorf("KindOf() = %v, %v", kind, ok)
	}
	if got, want := err.Error(), "statement 1: divide by constant zero: right operand is '0'"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := (&CompileError{Kind: ErrTableFull}).Error(); got != "symbol table full" {
		t.Errorf("bare Error() = %q", got)
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf matched a plain error")
	}
	if got := ErrorKind(99).String(); got != "undefined error" {
		t.Errorf("ErrorKind(99) = %q", got)
	}
}

func TestDiagnostics(t *testing.T) {
	cfg := config.NewConfig()
	tok := token.Token{Type: token.Ident, Value: "abc", Line: 2, Column: 3, Len: 3}

	var nilDiag *Diagnostics
	nilDiag.SetSource(lines{})
	nilDiag.Error(errors.New("ignored"))
	nilDiag.Warn(config.WarnOverflow, tok, "ignored")

	tests := []struct {
		name string
		emit func(d *Diagnostics)
		want string
	}{
		{"CompileError", func(d *Diagnostics) {
			d.Error(NewError(ErrNotFound, tok, "'%s' was never assigned", "abc"))
		}, "in.txt:2:3: error: variable not defined: 'abc' was never assigned\n  x=abc+1\n    ^~~\n"},
		{"PlainError", func(d *Diagnostics) {
			d.Error(errors.New("read failed"))
		}, "in.txt: error: read failed\n"},
		{"EnabledWarning", func(d *Diagnostics) {
			d.Warn(config.WarnOverflow, tok, "literal '%s' overflows", "abc")
		}, "in.txt:2:3: warning: literal 'abc' overflows [-Woverflow]\n  x=abc+1\n    ^~~\n"},
		{"DisabledWarning", func(d *Diagnostics) {
			d.Warn(config.WarnNoEffect, tok, "no effect")
		}, ""},
		{"UnknownLine", func(d *Diagnostics) {
			d.Error(NewError(ErrSyntax, token.Token{Line: 9, Column: 1}, "stray"))
		}, "in.txt:9:1: error: syntax error: stray\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			d := NewDiagnostics(&buf, cfg, "in.txt", false)
			d.SetSource(lines{"y=1", "x=abc+1"})
			tt.emit(d)
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiagnosticsColor(t *testing.T) {
	var buf bytes.Buffer
	d := NewDiagnostics(&buf, config.NewConfig(), "in.txt", true)
	d.Error(errors.New("boom"))
	if want := "in.txt: \033[31merror:\033[0m boom\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
