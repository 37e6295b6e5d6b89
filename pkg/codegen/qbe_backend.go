package codegen

import (
	"fmt"
	"strings"

	"github.com/xplshn/exprc/pkg/ast"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/ir"
)

// qbeBackend lowers the abstract machine program to QBE IL: machine memory
// becomes the $mem data block, each register a temporary, and EXIT prints
// x, y and z before returning the exit code from $main.
type qbeBackend struct {
	out       *strings.Builder
	prog      *ir.Program
	cfg       *config.Config
	addrCount int
}

func NewQBEBackend() Backend { return &qbeBackend{} }

// GenerateIR returns the QBE IL for prog without assembling it.
func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	var sb strings.Builder
	b.out, b.prog, b.cfg, b.addrCount = &sb, prog, cfg, 0

	if err := b.gen(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (b *qbeBackend) gen() error {
	memSize := b.prog.MemSize
	if memSize <= 0 {
		memSize = b.cfg.MemorySize()
	}
	fmt.Fprintf(b.out, "data $mem = align %d { z %d }\n", b.prog.WordSize, memSize)
	fmt.Fprintf(b.out, "data $fmt = { b %q, b 0 }\n\n", b.exitFormat())

	b.out.WriteString("export function w $main() {\n@start\n")
	for i := 0; i < b.prog.NumRegs; i++ {
		fmt.Fprintf(b.out, "\t%%r%d =w copy 0\n", i)
	}
	last := len(b.prog.Instructions) - 1
	for i, instr := range b.prog.Instructions {
		if err := b.genInstr(instr); err != nil {
			return err
		}
		// QBE blocks must end in a jump; code after an EXIT needs a fresh
		// (unreachable) block.
		if instr.Op == ir.OpExit && i != last {
			b.addrCount++
			fmt.Fprintf(b.out, "@after%d\n", b.addrCount)
		}
	}
	if !b.prog.Terminated() {
		b.genExit(0)
	}
	b.out.WriteString("}\n")
	return nil
}

func (b *qbeBackend) exitFormat() string {
	var parts []string
	for _, name := range b.cfg.Reserved {
		parts = append(parts, name+"=%d")
	}
	return strings.Join(parts, " ") + "\n"
}

func (b *qbeBackend) genInstr(instr *ir.Instruction) error {
	switch instr.Op {
	case ir.OpExit:
		b.genExit(instr.Code)
		return nil
	case ir.OpMov:
		if instr.Dst.Kind == ir.KindMem {
			addr := b.address(instr.Dst.Addr)
			fmt.Fprintf(b.out, "\tstorew %s, %s\n", b.formatValue(instr.Src), addr)
			return nil
		}
		if instr.Src.Kind == ir.KindMem {
			addr := b.address(instr.Src.Addr)
			fmt.Fprintf(b.out, "\t%s =w loadw %s\n", b.formatValue(instr.Dst), addr)
			return nil
		}
		fmt.Fprintf(b.out, "\t%s =w copy %s\n", b.formatValue(instr.Dst), b.formatValue(instr.Src))
		return nil
	}

	opStr, ok := b.formatOp(instr.Op)
	if !ok || !instr.Dst.IsReg() {
		return fmt.Errorf("qbe: cannot lower '%s'", instr)
	}
	dst := b.formatValue(instr.Dst)
	fmt.Fprintf(b.out, "\t%s =w %s %s, %s\n", dst, opStr, dst, b.formatValue(instr.Src))
	return nil
}

func (b *qbeBackend) genExit(code int) {
	var args []string
	for i := range b.cfg.Reserved {
		args = append(args, fmt.Sprintf("w %%r%d", i))
	}
	fmt.Fprintf(b.out, "\tcall $printf(l $fmt, ..., %s)\n", strings.Join(args, ", "))
	fmt.Fprintf(b.out, "\tret %d\n", code)
}

func (b *qbeBackend) address(offset int) string {
	b.addrCount++
	name := fmt.Sprintf("%%a%d", b.addrCount)
	fmt.Fprintf(b.out, "\t%s =l add $mem, %d\n", name, offset)
	return name
}

func (b *qbeBackend) formatValue(o ir.Operand) string {
	switch o.Kind {
	case ir.KindReg:
		return fmt.Sprintf("%%r%d", o.Reg)
	case ir.KindImm:
		return ast.FormatInt(ast.ParseInt(o.Imm))
	}
	return o.String()
}

func (b *qbeBackend) formatOp(op ir.Op) (string, bool) {
	switch op {
	case ir.OpAdd: return "add", true
	case ir.OpSub: return "sub", true
	case ir.OpMul: return "mul", true
	case ir.OpDiv: return "div", true
	case ir.OpAnd: return "and", true
	case ir.OpOr: return "or", true
	case ir.OpXor: return "xor", true
	}
	return "", false
}
