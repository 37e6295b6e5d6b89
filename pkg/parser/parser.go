package parser

import (
	"github.com/xplshn/exprc/pkg/ast"
	"github.com/xplshn/exprc/pkg/config"
	"github.com/xplshn/exprc/pkg/lexer"
	"github.com/xplshn/exprc/pkg/token"
	"github.com/xplshn/exprc/pkg/util"
)

type StmtKind int

const (
	StmtEOF StmtKind = iota
	StmtEmpty
	StmtExpr
)

// Statement is one parsed input line.
type Statement struct {
	Kind StmtKind
	Expr *ast.Node
	Tok  token.Token
}

// Parser holds the state for the parsing process. The current token is
// fetched lazily, so nothing past a statement's newline is read until the
// next statement is requested.
type Parser struct {
	lex     *lexer.Lexer
	current token.Token
	primed  bool
	cfg     *config.Config
	diag    *util.Diagnostics
}

func NewParser(lex *lexer.Lexer, cfg *config.Config, diag *util.Diagnostics) *Parser {
	return &Parser{lex: lex, cfg: cfg, diag: diag}
}

// Parser helpers
func (p *Parser) peek() token.Token {
	if !p.primed {
		p.current = p.lex.Next()
		for p.current.Type == token.Unknown && p.cfg.IsFeatureEnabled(config.FeatSkipUnknown) {
			p.diag.Warn(config.WarnUnknownChar, p.current, "Skipping unrecognized character %s", p.current.Describe())
			p.current = p.lex.Next()
		}
		p.primed = true
	}
	return p.current
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	p.primed = false
	return tok
}

func (p *Parser) check(tokType token.Type) bool {
	return p.peek().Type == tokType
}

// ParseStatement parses one statement := EOF | END | expr END.
func (p *Parser) ParseStatement() (*Statement, error) {
	tok := p.peek()
	switch tok.Type {
	case token.EOF:
		return &Statement{Kind: StmtEOF, Tok: tok}, nil
	case token.End:
		p.advance()
		return &Statement{Kind: StmtEmpty, Tok: tok}, nil
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.check(token.End) {
		return nil, util.NewError(util.ErrSyntax, p.current, "unexpected %s after expression", p.current.Describe())
	}
	p.advance()
	return &Statement{Kind: StmtExpr, Expr: expr, Tok: tok}, nil
}

// expr := term expr_tail
// expr_tail := (ADDSUB | BITWISE) term expr_tail | nil
func (p *Parser) parseExpr() (*ast.Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.check(token.AddSub) || p.check(token.Bitwise) {
		opTok := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(opTok, opTok.Value, left, right)
	}
	return left, nil
}

// term := factor term_tail
// term_tail := MULDIV factor term_tail | nil
func (p *Parser) parseTerm() (*ast.Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.check(token.MulDiv) {
		opTok := p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryOp(opTok, opTok.Value, left, right)
	}
	return left, nil
}

func (p *Parser) parseFactor() (*ast.Node, error) {
	tok := p.peek()
	switch tok.Type {
	case token.Int:
		p.advance()
		return ast.NewNumber(tok, tok.Value), nil

	case token.Ident:
		p.advance()
		ident := ast.NewIdent(tok, tok.Value)
		if !p.check(token.Assign) {
			return ident, nil
		}
		eqTok := p.advance()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(eqTok, ident, rhs), nil

	case token.AddSub:
		// A sign applied to X is (0 op X).
		p.advance()
		zero := ast.NewNumber(tok, "0")
		operand := p.peek()
		switch operand.Type {
		case token.Int:
			p.advance()
			return ast.NewBinaryOp(tok, tok.Value, zero, ast.NewNumber(operand, operand.Value)), nil
		case token.Ident:
			p.advance()
			return ast.NewBinaryOp(tok, tok.Value, zero, ast.NewIdent(operand, operand.Value)), nil
		case token.LParen:
			inner, err := p.parseParenthesized()
			if err != nil {
				return nil, err
			}
			return ast.NewBinaryOp(tok, tok.Value, zero, inner), nil
		}
		return nil, util.NewError(util.ErrNotNumID, operand, "expected a number, identifier or '(' after '%s', got %s", tok.Value, operand.Describe())

	case token.LParen:
		return p.parseParenthesized()

	case token.IncDec:
		// ++v is v = v + 1, --v is v = v - 1.
		p.advance()
		target := p.peek()
		if target.Type != token.Ident {
			return nil, util.NewError(util.ErrNotNumID, target, "expected an identifier after '%s', got %s", tok.Value, target.Describe())
		}
		p.advance()
		op := tok.Value[:1]
		sum := ast.NewBinaryOp(tok, op, ast.NewIdent(target, target.Value), ast.NewNumber(tok, "1"))
		return ast.NewAssign(tok, ast.NewIdent(target, target.Value), sum), nil
	}

	return nil, util.NewError(util.ErrNotNumID, tok, "expected a number or identifier, got %s", tok.Describe())
}

// parseParenthesized parses '(' expr ')' with the current token on '('.
func (p *Parser) parseParenthesized() (*ast.Node, error) {
	open := p.advance()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.check(token.RParen) {
		return nil, util.NewError(util.ErrMisParen, p.current, "expected ')' to close '(' at column %d, got %s", open.Column, p.current.Describe())
	}
	p.advance()
	return expr, nil
}
