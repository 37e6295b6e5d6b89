package vm

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xplshn/exprc/pkg/ast"
	"github.com/xplshn/exprc/pkg/ir"
)

var (
	ErrDivideByZero = errors.New("division by zero")
	ErrBadAddress   = errors.New("memory address out of range")
	ErrBadOperand   = errors.New("invalid operand")
)

// Machine is the abstract target: a register file of 32-bit words and a
// zeroed, byte-addressed little-endian memory.
type Machine struct {
	Regs     []int32
	Mem      []byte
	wordSize int
}

func New(numRegs, memSize, wordSize int) *Machine {
	return &Machine{Regs: make([]int32, numRegs), Mem: make([]byte, memSize), wordSize: wordSize}
}

// ForProgram sizes a fresh machine from the program's parameters.
func ForProgram(prog *ir.Program) *Machine {
	return New(prog.NumRegs, prog.MemSize, prog.WordSize)
}

// Load reads the word at addr.
func (m *Machine) Load(addr int) (int32, error) {
	if addr < 0 || addr+m.wordSize > len(m.Mem) || m.wordSize != 4 {
		return 0, fmt.Errorf("load [%d]: %w", addr, ErrBadAddress)
	}
	return int32(binary.LittleEndian.Uint32(m.Mem[addr:])), nil
}

// Store writes v at addr.
func (m *Machine) Store(addr int, v int32) error {
	if addr < 0 || addr+m.wordSize > len(m.Mem) || m.wordSize != 4 {
		return fmt.Errorf("store [%d]: %w", addr, ErrBadAddress)
	}
	binary.LittleEndian.PutUint32(m.Mem[addr:], uint32(v))
	return nil
}

func (m *Machine) read(o ir.Operand) (int32, error) {
	switch o.Kind {
	case ir.KindReg:
		if o.Reg < 0 || o.Reg >= len(m.Regs) {
			return 0, fmt.Errorf("r%d: %w", o.Reg, ErrBadOperand)
		}
		return m.Regs[o.Reg], nil
	case ir.KindMem:
		return m.Load(o.Addr)
	case ir.KindImm:
		return ast.ParseInt(o.Imm), nil
	}
	return 0, fmt.Errorf("empty source: %w", ErrBadOperand)
}

func (m *Machine) write(o ir.Operand, v int32) error {
	switch o.Kind {
	case ir.KindReg:
		if o.Reg < 0 || o.Reg >= len(m.Regs) {
			return fmt.Errorf("r%d: %w", o.Reg, ErrBadOperand)
		}
		m.Regs[o.Reg] = v
		return nil
	case ir.KindMem:
		return m.Store(o.Addr, v)
	}
	return fmt.Errorf("cannot write to '%s': %w", o, ErrBadOperand)
}

// Run executes prog from the first instruction until EXIT and returns the
// exit code. A program that falls off the end exits with 0.
func (m *Machine) Run(prog *ir.Program) (int, error) {
	for pc, instr := range prog.Instructions {
		if instr.Op == ir.OpExit {
			return instr.Code, nil
		}
		if err := m.step(instr); err != nil {
			return 1, fmt.Errorf("vm: instruction %d '%s': %w", pc, instr, err)
		}
	}
	return 0, nil
}

func (m *Machine) step(instr *ir.Instruction) error {
	src, err := m.read(instr.Src)
	if err != nil {
		return err
	}
	if instr.Op == ir.OpMov {
		return m.write(instr.Dst, src)
	}

	if !instr.Dst.IsReg() {
		return fmt.Errorf("arithmetic destination must be a register: %w", ErrBadOperand)
	}
	dst, err := m.read(instr.Dst)
	if err != nil {
		return err
	}

	var res int32
	switch instr.Op {
	case ir.OpAdd: res = dst + src
	case ir.OpSub: res = dst - src
	case ir.OpMul: res = dst * src
	case ir.OpAnd: res = dst & src
	case ir.OpOr: res = dst | src
	case ir.OpXor: res = dst ^ src
	case ir.OpDiv:
		if src == 0 {
			return ErrDivideByZero
		}
		res = dst / src
	default:
		return fmt.Errorf("unknown opcode %s: %w", instr.Op, ErrBadOperand)
	}
	return m.write(instr.Dst, res)
}
