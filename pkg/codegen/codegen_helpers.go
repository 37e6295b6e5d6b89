package codegen

import (
	"github.com/xplshn/exprc/pkg/ast"
	"github.com/xplshn/exprc/pkg/ir"
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

func (ctx *Context) genIdent(node *ast.Node, d ast.IdentNode) (*ast.Node, ir.Operand, error) {
	i, err := ctx.resolve(node.Tok, d.Name)
	if err != nil {
		return nil, ir.Operand{}, err
	}
	entry := ctx.syms.Entry(i)
	if entry.Known {
		text := ast.FormatInt(entry.Value)
		return ast.NewNumber(node.Tok, text), ir.Imm(text), nil
	}
	if ctx.syms.IsReserved(i) {
		return node, ir.Reg(i), nil
	}
	r, err := ctx.reserve(node.Tok)
	if err != nil {
		return nil, ir.Operand{}, err
	}
	ctx.prog.Emit(ir.OpMov, ir.Reg(r), ir.Mem(ctx.syms.Slot(i)))
	return node, ir.Reg(r), nil
}

func (ctx *Context) genAssign(node *ast.Node, d ast.AssignNode) (*ast.Node, ir.Operand, error) {
	rhs, value, err := ctx.genExpr(d.Rhs)
	if err != nil {
		return nil, ir.Operand{}, err
	}

	name := d.Lhs.Data.(ast.IdentNode).Name
	if _, err := ctx.syms.SetValue(name, 0, false); err != nil {
		return nil, ir.Operand{}, withToken(err, d.Lhs.Tok)
	}
	i, _ := ctx.syms.Lookup(name)
	target := ast.NewIdent(d.Lhs.Tok, name)

	if value.IsReg() {
		if src, ok := rhs.Data.(ast.IdentNode); ok {
			if j, found := ctx.syms.Lookup(src.Name); found {
				if e := ctx.syms.Entry(j); e.Known {
					ctx.syms.SetValue(name, e.Value, true)
				}
			}
		}
		if ctx.syms.IsReserved(i) {
			ctx.prog.Emit(ir.OpMov, ir.Reg(i), value)
		} else {
			ctx.prog.Emit(ir.OpMov, ir.Mem(ctx.syms.Slot(i)), value)
		}
		return target, value, nil
	}

	ctx.syms.SetValue(name, ast.ParseInt(value.Imm), true)
	if ctx.syms.IsReserved(i) {
		ctx.prog.Emit(ir.OpMov, ir.Reg(i), value)
		return target, ir.Reg(i), nil
	}
	r, err := ctx.reserve(node.Tok)
	if err != nil {
		return nil, ir.Operand{}, err
	}
	ctx.prog.Emit(ir.OpMov, ir.Reg(r), value)
	ctx.prog.Emit(ir.OpMov, ir.Mem(ctx.syms.Slot(i)), ir.Reg(r))
	return target, ir.Reg(r), nil
}

func (ctx *Context) genBinaryOp(node *ast.Node, d ast.BinaryOpNode) (*ast.Node, ir.Operand, error) {
	var left, right ir.Operand
	var err error

	// A bare identifier on the left is loaded last so its register is not
	// held while the right subtree is generated.
	if d.Left.Type == ast.Ident && d.Right.Type != ast.Ident {
		if _, right, err = ctx.genExpr(d.Right); err != nil {
			return nil, ir.Operand{}, err
		}
		if _, left, err = ctx.genExpr(d.Left); err != nil {
			return nil, ir.Operand{}, err
		}
	} else {
		if _, left, err = ctx.genExpr(d.Left); err != nil {
			return nil, ir.Operand{}, err
		}
		if _, right, err = ctx.genExpr(d.Right); err != nil {
			return nil, ir.Operand{}, err
		}
	}

	op, ok := ir.OpFor(d.Op)
	if !ok {
		return nil, ir.Operand{}, util.NewError(util.ErrUndefined, node.Tok, "unknown operator '%s'", d.Op)
	}

	switch {
	case left.IsImm() && right.IsImm():
		res, ok := ast.Fold(d.Op, ast.ParseInt(left.Imm), ast.ParseInt(right.Imm))
		if !ok {
			return nil, ir.Operand{}, util.NewError(util.ErrDivZero, node.Tok, "%s / %s", left.Imm, right.Imm)
		}
		text := ast.FormatInt(res)
		return ast.NewNumber(node.Tok, text), ir.Imm(text), nil

	case left.IsImm():
		r, err := ctx.reserve(node.Tok)
		if err != nil {
			return nil, ir.Operand{}, err
		}
		ctx.prog.Emit(ir.OpMov, ir.Reg(r), left)
		ctx.prog.Emit(op, ir.Reg(r), right)
		ctx.regs.Release(right.Reg)
		return node, ir.Reg(r), nil

	case right.IsImm():
		if op == ir.OpDiv && ast.ParseInt(right.Imm) == 0 {
			return nil, ir.Operand{}, util.NewError(util.ErrDivZero, node.Tok, "%s / %s", left, right.Imm)
		}
		tmp, err := ctx.reserve(node.Tok)
		if err != nil {
			return nil, ir.Operand{}, err
		}
		ctx.prog.Emit(ir.OpMov, ir.Reg(tmp), right)
		if ctx.regs.IsReserved(left.Reg) {
			r, err := ctx.reserve(node.Tok)
			if err != nil {
				return nil, ir.Operand{}, err
			}
			ctx.prog.Emit(ir.OpMov, ir.Reg(r), left)
			ctx.prog.Emit(op, ir.Reg(r), ir.Reg(tmp))
			ctx.regs.Release(tmp)
			return node, ir.Reg(r), nil
		}
		ctx.prog.Emit(op, left, ir.Reg(tmp))
		ctx.regs.Release(tmp)
		return node, left, nil

	default:
		if ctx.regs.IsReserved(left.Reg) {
			r, err := ctx.reserve(node.Tok)
			if err != nil {
				return nil, ir.Operand{}, err
			}
			ctx.prog.Emit(ir.OpMov, ir.Reg(r), left)
			ctx.prog.Emit(op, ir.Reg(r), right)
			ctx.regs.Release(right.Reg)
			return node, ir.Reg(r), nil
		}
		ctx.prog.Emit(op, left, right)
		ctx.regs.Release(right.Reg)
		return node, left, nil
	}
}

func (ctx *Context) reserve(tok token.Token) (int, error) {
	r, err := ctx.regs.Reserve()
	return r, withToken(err, tok)
}

// withToken anchors a position-less compile error at tok.
func withToken(err error, tok token.Token) error {
	if ce, ok := err.(*util.CompileError); ok && ce.Tok.Line == 0 {
		ce.Tok = tok
	}
	return err
}
