package vm

import (
	"errors"
	"testing"

	"github.com/xplshn/exprc/pkg/ir"
)

func TestRun(t *testing.T) {
	prog := ir.NewProgram(4, 8, 64)
	prog.Emit(ir.OpMov, ir.Reg(3), ir.Imm("-9"))
	prog.Emit(ir.OpMov, ir.Mem(12), ir.Reg(3))
	prog.Emit(ir.OpMov, ir.Reg(0), ir.Mem(12))
	prog.Emit(ir.OpMov, ir.Reg(4), ir.Imm("2"))
	prog.Emit(ir.OpDiv, ir.Reg(0), ir.Reg(4))
	prog.Emit(ir.OpMul, ir.Reg(4), ir.Imm("3"))
	prog.Emit(ir.OpXor, ir.Reg(4), ir.Imm("5"))
	prog.Exit(0)
	prog.Emit(ir.OpMov, ir.Reg(0), ir.Imm("99"))

	m := ForProgram(prog)
	code, err := m.Run(prog)
	if err != nil || code != 0 {
		t.Fatalf("Run() = %d, %v", code, err)
	}
	if m.Regs[0] != -4 {
		t.Errorf("r0 = %d, want -4", m.Regs[0])
	}
	if m.Regs[4] != 3 {
		t.Errorf("r4 = %d, want 3", m.Regs[4])
	}
	if v, _ := m.Load(12); v != -9 {
		t.Errorf("[12] = %d, want -9", v)
	}
}

func TestExitCode(t *testing.T) {
	prog := ir.NewProgram(4, 8, 64)
	prog.Exit(1)
	if code, err := ForProgram(prog).Run(prog); code != 1 || err != nil {
		t.Errorf("Run() = %d, %v; want 1, nil", code, err)
	}

	empty := ir.NewProgram(4, 8, 64)
	if code, err := ForProgram(empty).Run(empty); code != 0 || err != nil {
		t.Errorf("Run() on empty program = %d, %v; want 0, nil", code, err)
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		instr []ir.Instruction
		want  error
	}{
		{"DivideByZero", []ir.Instruction{
			{Op: ir.OpMov, Dst: ir.Reg(3), Src: ir.Imm("0")},
			{Op: ir.OpDiv, Dst: ir.Reg(0), Src: ir.Reg(3)},
		}, ErrDivideByZero},
		{"LoadOutOfRange", []ir.Instruction{
			{Op: ir.OpMov, Dst: ir.Reg(0), Src: ir.Mem(64)},
		}, ErrBadAddress},
		{"StoreStraddlesEnd", []ir.Instruction{
			{Op: ir.OpMov, Dst: ir.Mem(62), Src: ir.Reg(0)},
		}, ErrBadAddress},
		{"NoSuchRegister", []ir.Instruction{
			{Op: ir.OpMov, Dst: ir.Reg(8), Src: ir.Imm("1")},
		}, ErrBadOperand},
		{"ArithmeticIntoMemory", []ir.Instruction{
			{Op: ir.OpAdd, Dst: ir.Mem(0), Src: ir.Imm("1")},
		}, ErrBadOperand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := ir.NewProgram(4, 8, 64)
			for i := range tt.instr {
				prog.Instructions = append(prog.Instructions, &tt.instr[i])
			}
			_, err := ForProgram(prog).Run(prog)
			if !errors.Is(err, tt.want) {
				t.Errorf("Run() error = %v, want %v", err, tt.want)
			}
		})
	}
}
