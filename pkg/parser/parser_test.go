package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/lexer"
	"github.com/xplshn/exprc/pkg/util"
)

func newParser(src string, cfg *config.Config) *Parser {
	return NewParser(lexer.NewLexer(strings.NewReader(src), cfg, nil), cfg, nil)
}

func TestParseStatementTrees(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Precedence", "x=1+2*3\n", "(= x (+ 1 (* 2 3)))"},
		{"LeftAssociative", "a-b-c\n", "(- (- a b) c)"},
		{"BitwiseSharesAdditiveLevel", "a|b+c&d\n", "(& (+ (| a b) c) d)"},
		{"MulDivLeftAssociative", "a/b*c\n", "(* (/ a b) c)"},
		{"UnaryMinusIdent", "-x\n", "(- 0 x)"},
		{"UnaryMinusInt", "-5\n", "(- 0 5)"},
		{"UnaryPlusParen", "+(a*2)\n", "(+ 0 (* a 2))"},
		{"Increment", "++v\n", "(= v (+ v 1))"},
		{"Decrement", "--v\n", "(= v (- v 1))"},
		{"ChainedAssignment", "x=y=3\n", "(= x (= y 3))"},
		{"Parenthesized", "(a+b)*c\n", "(* (+ a b) c)"},
		{"AssignmentInsideParens", "3+(x=2)\n", "(+ 3 (= x 2))"},
		{"SkipsUnknownCharacters", "x = 4 $ + 1\n", "(= x (+ 4 1))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := newParser(tt.input, config.NewConfig()).ParseStatement()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if stmt.Kind != StmtExpr {
				t.Fatalf("kind = %d, want StmtExpr", stmt.Kind)
			}
			if diff := cmp.Diff(tt.want, stmt.Expr.String()); diff != "" {
				t.Errorf("tree mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStatementErrors(t *testing.T) {
	strict := config.NewConfig()
	strict.SetFeature(config.FeatSkipUnknown, false)

	tests := []struct {
		name  string
		input string
		cfg   *config.Config
		want  util.ErrorKind
	}{
		{"UnclosedParen", "(1+2\n", nil, util.ErrMisParen},
		{"UnclosedSignedParen", "-(a\n", nil, util.ErrMisParen},
		{"SignWithoutOperand", "-*\n", nil, util.ErrNotNumID},
		{"IncrementLiteral", "++3\n", nil, util.ErrNotNumID},
		{"LeadingOperator", "*\n", nil, util.ErrNotNumID},
		{"MissingRightOperand", "1+\n", nil, util.ErrNotNumID},
		{"TwoOperands", "1 2\n", nil, util.ErrSyntax},
		{"StrayCloseParen", "1)\n", nil, util.ErrSyntax},
		{"MissingNewline", "x=5", nil, util.ErrSyntax},
		{"UnknownNotSkipped", "x = $\n", strict, util.ErrNotNumID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if cfg == nil {
				cfg = config.NewConfig()
			}
			_, err := newParser(tt.input, cfg).ParseStatement()
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind, ok := util.KindOf(err); !ok || kind != tt.want {
				t.Errorf("kind = %v (ok=%v), want %v; err: %v", kind, ok, tt.want, err)
			}
		})
	}
}

func TestStatementKinds(t *testing.T) {
	p := newParser("\nx=1\n", config.NewConfig())
	var got []StmtKind
	for {
		stmt, err := p.ParseStatement()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, stmt.Kind)
		if stmt.Kind == StmtEOF {
			break
		}
	}
	if diff := cmp.Diff([]StmtKind{StmtEmpty, StmtExpr, StmtEOF}, got); diff != "" {
		t.Errorf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := newParser("x=(1\n", config.NewConfig()).ParseStatement()
	var ce *util.CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want a CompileError", err)
	}
	if ce.Tok.Line != 1 || ce.Tok.Column != 5 {
		t.Errorf("position = %d:%d, want 1:5", ce.Tok.Line, ce.Tok.Column)
	}
}
