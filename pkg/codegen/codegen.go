package codegen

import (
	"github.com/xplshn/exprc/pkg/ast"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/ir"
	"github.com/xplshn/exprc/pkg/regpool"
	"github.com/xplshn/exprc/pkg/symtab"
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

// Context is the generator state that survives across statements: the
// symbol table, the register pool and whether the prologue went out yet.
type Context struct {
	prog         *ir.Program
	syms         *symtab.Table
	regs         *regpool.Pool
	prologueDone bool
	cfg          *config.Config
	diag         *util.Diagnostics
}

func NewContext(cfg *config.Config, prog *ir.Program, diag *util.Diagnostics) *Context {
	return &Context{
		prog: prog,
		syms: symtab.New(cfg.Reserved, cfg.TableSize, cfg.WordSize),
		regs: regpool.New(cfg.NumRegs, len(cfg.Reserved)),
		cfg:  cfg,
		diag: diag,
	}
}

func (ctx *Context) Symbols() *symtab.Table { return ctx.syms }
func (ctx *Context) Registers() *regpool.Pool { return ctx.regs }
func (ctx *Context) Program() *ir.Program    { return ctx.prog }

// GenerateStatement compiles the assignment found on the right spine of
// root. Trees without one emit nothing.
func (ctx *Context) GenerateStatement(root *ast.Node) error {
	target := ast.FindAssignment(root)
	if target == nil {
		if root != nil {
			ctx.diag.Warn(config.WarnNoEffect, root.Tok, "Statement has no assignment and emits nothing")
		}
		return nil
	}
	if target != root {
		ctx.diag.Warn(config.WarnExtra, root.Tok, "Only the rightmost assignment is compiled, the enclosing expression is discarded")
	}
	_, result, err := ctx.genExpr(target)
	if err != nil {
		return err
	}
	if result.IsReg() {
		ctx.regs.Release(result.Reg)
	}
	return nil
}

// emitPrologue copies the reserved variables from memory into their registers.
func (ctx *Context) emitPrologue() {
	for i := range ctx.cfg.Reserved {
		ctx.prog.Emit(ir.OpMov, ir.Reg(i), ir.Mem(ctx.syms.Slot(i)))
	}
	ctx.prologueDone = true
}

// genExpr returns the node as it stands after generation (folded or
// collapsed) and the operand holding its value.
func (ctx *Context) genExpr(node *ast.Node) (*ast.Node, ir.Operand, error) {
	if !ctx.prologueDone {
		ctx.emitPrologue()
	}

	switch d := node.Data.(type) {
	case ast.NumberNode:
		return node, ir.Imm(d.Text), nil
	case ast.IdentNode:
		return ctx.genIdent(node, d)
	case ast.AssignNode:
		return ctx.genAssign(node, d)
	case ast.BinaryOpNode:
		return ctx.genBinaryOp(node, d)
	}
	return nil, ir.Operand{}, util.NewError(util.ErrUndefined, node.Tok, "cannot generate code for node kind %d", node.Type)
}

func (ctx *Context) resolve(tok token.Token, name string) (int, error) {
	if ctx.cfg.IsFeatureEnabled(config.FeatStrictVars) {
		if _, err := ctx.syms.Value(name); err != nil {
			return -1, withToken(err, tok)
		}
		i, _ := ctx.syms.Lookup(name)
		return i, nil
	}
	i, err := ctx.syms.LookupOrDefault(name)
	return i, withToken(err, tok)
}
