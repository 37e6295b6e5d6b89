package ast

import (
	"math"
	"testing"

	"github.com/xplshn/exprc/pkg/token"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		op   string
		l, r int32
		want int32
		ok   bool
	}{
		{"Add", "+", 2, 3, 5, true},
		{"Sub", "-", 2, 3, -1, true},
		{"Mul", "*", -4, 3, -12, true},
		{"DivTruncates", "/", 7, 2, 3, true},
		{"DivTruncatesTowardZero", "/", -7, 2, -3, true},
		{"DivByZero", "/", 1, 0, 0, false},
		{"And", "&", 12, 10, 8, true},
		{"Or", "|", 12, 10, 14, true},
		{"Xor", "^", 12, 10, 6, true},
		{"AddWraps", "+", math.MaxInt32, 1, math.MinInt32, true},
		{"MulWraps", "*", 65536, 65536, 0, true},
		{"MinDivMinusOne", "/", math.MinInt32, -1, math.MinInt32, true},
		{"UnknownOp", "%", 1, 1, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Fold(tt.op, tt.l, tt.r)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Fold(%q, %d, %d) = %d, %v; want %d, %v", tt.op, tt.l, tt.r, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		text string
		want int32
	}{
		{"0", 0},
		{"007", 7},
		{"-5", -5},
		{"2147483647", math.MaxInt32},
		{"2147483648", math.MinInt32},
		{"-2147483648", math.MinInt32},
		{"4294967296", 0},
	}
	for _, tt := range tests {
		if got := ParseInt(tt.text); got != tt.want {
			t.Errorf("ParseInt(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFindAssignment(t *testing.T) {
	var tok token.Token
	x := NewAssign(tok, NewIdent(tok, "x"), NewNumber(tok, "2"))
	y := NewAssign(tok, NewIdent(tok, "y"), NewNumber(tok, "1"))

	tests := []struct {
		name string
		root *Node
		want *Node
	}{
		{"Nil", nil, nil},
		{"Root", x, x},
		{"RightChild", NewBinaryOp(tok, "+", NewNumber(tok, "3"), x), x},
		{"DeepRightSpine", NewBinaryOp(tok, "*", NewIdent(tok, "a"), NewBinaryOp(tok, "-", NewIdent(tok, "b"), x)), x},
		{"LeftChildIgnored", NewBinaryOp(tok, "+", y, NewNumber(tok, "3")), nil},
		{"NoAssignment", NewBinaryOp(tok, "+", NewNumber(tok, "3"), NewNumber(tok, "4")), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindAssignment(tt.root); got != tt.want {
				t.Errorf("FindAssignment(%s) = %s, want %s", tt.root, got, tt.want)
			}
		})
	}
}

func TestNodeTypes(t *testing.T) {
	var tok token.Token
	for op, want := range map[string]NodeType{"+": AddSub, "-": AddSub, "*": MulDiv, "/": MulDiv, "&": Bitwise, "|": Bitwise, "^": Bitwise} {
		n := NewBinaryOp(tok, op, NewNumber(tok, "1"), NewNumber(tok, "2"))
		if n.Type != want || !n.IsBinaryOp() {
			t.Errorf("op %q: type %d, want %d", op, n.Type, want)
		}
	}
	if NewIdent(tok, "x").IsBinaryOp() {
		t.Error("identifier reported as operator")
	}
}
