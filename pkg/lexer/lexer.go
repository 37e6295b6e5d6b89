package lexer

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

// Lexer reads runes lazily from its input: it never consumes more than the
// rune it needs to finish the current token, so a statement can be compiled
// before the next line has been typed.
type Lexer struct {
	r      *bufio.Reader
	line   int
	column int
	lines  []string
	cur    strings.Builder
	err    error
	cfg    *config.Config
	diag   *util.Diagnostics
}

func NewLexer(r io.Reader, cfg *config.Config, diag *util.Diagnostics) *Lexer {
	l := &Lexer{r: bufio.NewReader(r), line: 1, column: 1, cfg: cfg, diag: diag}
	diag.SetSource(l)
	return l
}

// Err returns the first read error other than io.EOF, if any.
func (l *Lexer) Err() error { return l.err }

// Line returns the text of line n (1-based) as read so far, without its newline.
func (l *Lexer) Line(n int) (string, bool) {
	switch {
	case n >= 1 && n <= len(l.lines):
		return l.lines[n-1], true
	case n == len(l.lines)+1:
		return l.cur.String(), true
	}
	return "", false
}

func (l *Lexer) Next() token.Token {
	for {
		ch, ok := l.peek()
		if !ok || (ch != ' ' && ch != '\t') {
			break
		}
		l.advance()
	}
	startCol, startLine := l.column, l.line

	ch, ok := l.peek()
	if !ok {
		return l.makeToken(token.EOF, "", startCol, startLine)
	}

	switch {
	case isDigit(ch):
		return l.number(startCol, startLine)
	case ch == '+' || ch == '-':
		l.advance()
		if next, ok := l.peek(); ok && next == ch {
			l.advance()
			return l.makeToken(token.IncDec, string([]rune{ch, ch}), startCol, startLine)
		}
		return l.makeToken(token.AddSub, string(ch), startCol, startLine)
	case ch == '&' || ch == '|' || ch == '^':
		l.advance()
		return l.makeToken(token.Bitwise, string(ch), startCol, startLine)
	case ch == '*' || ch == '/':
		l.advance()
		return l.makeToken(token.MulDiv, string(ch), startCol, startLine)
	case ch == '\n':
		tok := l.makeToken(token.End, "", startCol, startLine)
		tok.Len = 1
		l.advance()
		return tok
	case ch == '=':
		l.advance()
		return l.makeToken(token.Assign, "=", startCol, startLine)
	case ch == '(':
		l.advance()
		return l.makeToken(token.LParen, "(", startCol, startLine)
	case ch == ')':
		l.advance()
		return l.makeToken(token.RParen, ")", startCol, startLine)
	case unicode.IsLetter(ch) || ch == '_':
		return l.identifier(startCol, startLine)
	}

	l.advance()
	return l.makeToken(token.Unknown, string(ch), startCol, startLine)
}

func (l *Lexer) peek() (rune, bool) {
	if l.err != nil {
		return 0, false
	}
	ch, _, err := l.r.ReadRune()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			l.err = err
		}
		return 0, false
	}
	_ = l.r.UnreadRune()
	return ch, true
}

func (l *Lexer) advance() rune {
	ch, _, err := l.r.ReadRune()
	if err != nil {
		return 0
	}
	if ch == '\n' {
		l.lines = append(l.lines, l.cur.String())
		l.cur.Reset()
		l.line++
		l.column = 1
	} else {
		l.cur.WriteRune(ch)
		l.column++
	}
	return ch
}

func (l *Lexer) makeToken(tokType token.Type, value string, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value,
		Line: startLine, Column: startCol, Len: len([]rune(value)),
	}
}

func (l *Lexer) number(startCol, startLine int) token.Token {
	var sb strings.Builder
	for {
		ch, ok := l.peek()
		if !ok || !isDigit(ch) {
			break
		}
		sb.WriteRune(l.advance())
	}
	tok := l.makeToken(token.Int, sb.String(), startCol, startLine)
	if !fitsWord(tok.Value) {
		l.diag.Warn(config.WarnOverflow, tok, "Integer constant overflow: %s", tok.Value)
	}
	return tok
}

func (l *Lexer) identifier(startCol, startLine int) token.Token {
	var sb strings.Builder
	for {
		ch, ok := l.peek()
		if !ok || !(unicode.IsLetter(ch) || isDigit(ch) || ch == '_') {
			break
		}
		sb.WriteRune(l.advance())
	}
	return l.makeToken(token.Ident, sb.String(), startCol, startLine)
}

func isDigit(ch rune) bool { return ch >= '0' && ch <= '9' }

// fitsWord reports whether a run of decimal digits fits a signed 32-bit word.
func fitsWord(digits string) bool {
	digits = strings.TrimLeft(digits, "0")
	const max = "2147483647"
	if len(digits) != len(max) {
		return len(digits) < len(max)
	}
	return digits <= max
}
