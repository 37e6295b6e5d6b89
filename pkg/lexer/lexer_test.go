package lexer

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

func lexAll(l *Lexer) []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func tk(typ token.Type, value string) token.Token { return token.Token{Type: typ, Value: value} }

func TestNextClassifiesTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Token
	}{
		{"Assignment", "x = 12 + y\n", []token.Token{
			tk(token.Ident, "x"), tk(token.Assign, "="), tk(token.Int, "12"),
			tk(token.AddSub, "+"), tk(token.Ident, "y"), tk(token.End, ""), tk(token.EOF, ""),
		}},
		{"IncDec", "++a--b", []token.Token{
			tk(token.IncDec, "++"), tk(token.Ident, "a"), tk(token.IncDec, "--"), tk(token.Ident, "b"), tk(token.EOF, ""),
		}},
		{"SignNotRepeated", "+-", []token.Token{
			tk(token.AddSub, "+"), tk(token.AddSub, "-"), tk(token.EOF, ""),
		}},
		{"Operators", "a&b|c^d*e/f", []token.Token{
			tk(token.Ident, "a"), tk(token.Bitwise, "&"), tk(token.Ident, "b"), tk(token.Bitwise, "|"),
			tk(token.Ident, "c"), tk(token.Bitwise, "^"), tk(token.Ident, "d"), tk(token.MulDiv, "*"),
			tk(token.Ident, "e"), tk(token.MulDiv, "/"), tk(token.Ident, "f"), tk(token.EOF, ""),
		}},
		{"Parens", "(-_v1)", []token.Token{
			tk(token.LParen, "("), tk(token.AddSub, "-"), tk(token.Ident, "_v1"), tk(token.RParen, ")"), tk(token.EOF, ""),
		}},
		{"DigitsBeforeLetters", "12ab", []token.Token{
			tk(token.Int, "12"), tk(token.Ident, "ab"), tk(token.EOF, ""),
		}},
		{"Unknown", "\t$ ", []token.Token{
			tk(token.Unknown, "$"), tk(token.EOF, ""),
		}},
		{"Empty", "", []token.Token{tk(token.EOF, "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lexAll(NewLexer(strings.NewReader(tt.input), config.NewConfig(), nil))
			opt := cmpopts.IgnoreFields(token.Token{}, "Line", "Column", "Len")
			if diff := cmp.Diff(tt.want, got, opt); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPositions(t *testing.T) {
	l := NewLexer(strings.NewReader("x\n  yy"), config.NewConfig(), nil)
	got := lexAll(l)
	want := []token.Token{
		{Type: token.Ident, Value: "x", Line: 1, Column: 1, Len: 1},
		{Type: token.End, Line: 1, Column: 2, Len: 1},
		{Type: token.Ident, Value: "yy", Line: 2, Column: 3, Len: 2},
		{Type: token.EOF, Line: 2, Column: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	if line, ok := l.Line(1); !ok || line != "x" {
		t.Errorf("Line(1) = %q, %v", line, ok)
	}
	if line, ok := l.Line(2); !ok || line != "  yy" {
		t.Errorf("Line(2) = %q, %v", line, ok)
	}
	if _, ok := l.Line(3); ok {
		t.Error("Line(3) should not exist")
	}
}

// The lexer must hand back a statement's newline without waiting for the
// next line to arrive.
func TestStopsAtNewline(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	go pw.Write([]byte("x=1\n"))

	l := NewLexer(pr, config.NewConfig(), nil)
	for _, want := range []token.Type{token.Ident, token.Assign, token.Int, token.End} {
		if got := l.Next(); got.Type != want {
			t.Fatalf("got %s, want %s", got.Type, want)
		}
	}
}

func TestReadError(t *testing.T) {
	boom := errors.New("boom")
	l := NewLexer(iotest.ErrReader(boom), config.NewConfig(), nil)
	if tok := l.Next(); tok.Type != token.EOF {
		t.Fatalf("got %s, want end-of-stream", tok.Type)
	}
	if !errors.Is(l.Err(), boom) {
		t.Errorf("Err() = %v, want %v", l.Err(), boom)
	}
}

func TestOverflowWarning(t *testing.T) {
	tests := []struct {
		literal string
		warn    bool
	}{
		{"2147483647", false},
		{"0002147483647", false},
		{"2147483648", true},
		{"99999999999", true},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := config.NewConfig()
			l := NewLexer(strings.NewReader(tt.literal), cfg, util.NewDiagnostics(&buf, cfg, "in", false))
			l.Next()
			if got := strings.Contains(buf.String(), "[-Woverflow]"); got != tt.warn {
				t.Errorf("warned = %v, want %v; output %q", got, tt.warn, buf.String())
			}
		})
	}
}
