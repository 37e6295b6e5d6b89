package ir

import (
	"fmt"
	"strconv"
)

type Op int

const (
	OpMov Op = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpXor
	OpExit
)

var opNames = [...]string{
	OpMov: "MOV", OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL",
	OpDiv: "DIV", OpAnd: "AND", OpOr: "OR", OpXor: "XOR", OpExit: "EXIT",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "OP" + strconv.Itoa(int(o))
}

// OpFor maps an operator symbol to its arithmetic opcode.
func OpFor(symbol string) (Op, bool) {
	switch symbol {
	case "+": return OpAdd, true
	case "-": return OpSub, true
	case "*": return OpMul, true
	case "/": return OpDiv, true
	case "&": return OpAnd, true
	case "|": return OpOr, true
	case "^": return OpXor, true
	}
	return OpMov, false
}

type OperandKind int

const (
	KindNone OperandKind = iota
	KindReg
	KindMem
	KindImm
)

// Operand is a register, a memory address or an immediate. Immediates keep
// their literal text so it is emitted exactly as written.
type Operand struct {
	Kind OperandKind
	Reg  int
	Addr int
	Imm  string
}

func Reg(i int) Operand       { return Operand{Kind: KindReg, Reg: i} }
func Mem(addr int) Operand    { return Operand{Kind: KindMem, Addr: addr} }
func Imm(text string) Operand { return Operand{Kind: KindImm, Imm: text} }

func (o Operand) IsReg() bool { return o.Kind == KindReg }
func (o Operand) IsImm() bool { return o.Kind == KindImm }

func (o Operand) String() string {
	switch o.Kind {
	case KindReg:
		return "r" + strconv.Itoa(o.Reg)
	case KindMem:
		return "[" + strconv.Itoa(o.Addr) + "]"
	case KindImm:
		return o.Imm
	}
	return ""
}

type Instruction struct {
	Op   Op
	Dst  Operand
	Src  Operand
	Code int // exit status for OpExit
}

func (i *Instruction) String() string {
	if i.Op == OpExit {
		return fmt.Sprintf("EXIT %d", i.Code)
	}
	return fmt.Sprintf("%s %s %s", i.Op, i.Dst, i.Src)
}

// Program is the instruction stream of one session.
type Program struct {
	Instructions []*Instruction
	WordSize     int
	NumRegs      int
	MemSize      int
}

func NewProgram(wordSize, numRegs, memSize int) *Program {
	return &Program{WordSize: wordSize, NumRegs: numRegs, MemSize: memSize}
}

func (p *Program) Emit(op Op, dst, src Operand) {
	p.Instructions = append(p.Instructions, &Instruction{Op: op, Dst: dst, Src: src})
}

func (p *Program) Exit(code int) {
	p.Instructions = append(p.Instructions, &Instruction{Op: OpExit, Code: code})
}

// Terminated reports whether the program already ends in an EXIT.
func (p *Program) Terminated() bool {
	n := len(p.Instructions)
	return n > 0 && p.Instructions[n-1].Op == OpExit
}

// Lines renders instructions [from:] in the text format.
func (p *Program) Lines(from int) []string {
	if from < 0 {
		from = 0
	}
	var lines []string
	for _, instr := range p.Instructions[min(from, len(p.Instructions)):] {
		lines = append(lines, instr.String())
	}
	return lines
}
