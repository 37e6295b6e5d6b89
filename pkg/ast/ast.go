// Package ast defines the expression trees built by the parser and consumed
// by the code generator
package ast

import (
	"strconv"
	"strings"

	"github.com/xplshn/exprc/pkg/token"
)

// NodeType defines the kind of a node in the AST
type NodeType int

const (
	Number NodeType = iota
	Ident
	Assign
	AddSub
	MulDiv
	Bitwise
)

// Node represents a node in the Abstract Syntax Tree
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

// --- Node Data Structs ---
type NumberNode struct{ Text string }
type IdentNode struct{ Name string }
type AssignNode struct{ Lhs, Rhs *Node }
type BinaryOpNode struct {
	Op          string
	Left, Right *Node
}

// --- Node Constructors ---

func NewNumber(tok token.Token, text string) *Node {
	return &Node{Type: Number, Tok: tok, Data: NumberNode{Text: text}}
}
func NewIdent(tok token.Token, name string) *Node {
	return &Node{Type: Ident, Tok: tok, Data: IdentNode{Name: name}}
}
func NewAssign(tok token.Token, lhs, rhs *Node) *Node {
	return &Node{Type: Assign, Tok: tok, Data: AssignNode{Lhs: lhs, Rhs: rhs}}
}

// NewBinaryOp builds an operator node; the node type follows the operator's class.
func NewBinaryOp(tok token.Token, op string, left, right *Node) *Node {
	return &Node{Type: OpClass(op), Tok: tok, Data: BinaryOpNode{Op: op, Left: left, Right: right}}
}

// OpClass maps an operator symbol to its node type.
func OpClass(op string) NodeType {
	switch op {
	case "*", "/":
		return MulDiv
	case "&", "|", "^":
		return Bitwise
	default:
		return AddSub
	}
}

// IsBinaryOp reports whether the node is an operator node.
func (n *Node) IsBinaryOp() bool {
	return n.Type == AddSub || n.Type == MulDiv || n.Type == Bitwise
}

// FindAssignment walks right children from root and returns the first
// assignment it meets, or nil. Only assignments on this right spine are
// compiled.
func FindAssignment(root *Node) *Node {
	for n := root; n != nil; {
		switch d := n.Data.(type) {
		case AssignNode:
			return n
		case BinaryOpNode:
			n = d.Right
		default:
			return nil
		}
	}
	return nil
}

// ParseInt converts literal text (digits, optionally with a leading '-') to a
// machine word, wrapping on overflow.
func ParseInt(text string) int32 {
	neg := strings.HasPrefix(text, "-")
	if neg {
		text = text[1:]
	}
	var v uint32
	for _, ch := range text {
		if ch < '0' || ch > '9' {
			break
		}
		v = v*10 + uint32(ch-'0')
	}
	if neg {
		return -int32(v)
	}
	return int32(v)
}

// FormatInt renders a machine word as literal text.
func FormatInt(v int32) string { return strconv.FormatInt(int64(v), 10) }

// Fold evaluates l op r with 32-bit two's-complement semantics. ok is false
// for division by zero or an unknown operator.
func Fold(op string, l, r int32) (res int32, ok bool) {
	switch op {
	case "+": return l + r, true
	case "-": return l - r, true
	case "*": return l * r, true
	case "&": return l & r, true
	case "|": return l | r, true
	case "^": return l ^ r, true
	case "/":
		if r == 0 {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

// String renders the tree as an s-expression, e.g. (= x (+ x 1)).
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch d := n.Data.(type) {
	case NumberNode:
		return d.Text
	case IdentNode:
		return d.Name
	case AssignNode:
		return "(= " + d.Lhs.String() + " " + d.Rhs.String() + ")"
	case BinaryOpNode:
		return "(" + d.Op + " " + d.Left.String() + " " + d.Right.String() + ")"
	}
	return "<invalid>"
}
