package shunting

import (
	"errors"
	"io"
	"strconv"
	"strings"
)

// Expr = num | name | Call | Neg | Add | Sub | Mul | Div | Pow | '(' Expr ')'
// Call = funcname | funcname '(' [ Expr { ',' Expr } ] ')'
// Neg = '-' Expr
// Add = Expr '+' Expr
// Sub = Expr '-' Expr
// Mul = Expr '*' Expr
// Div = Expr '/' Expr
// Pow = Expr '^' Expr
//
// Precedence and associativity come from the operator table in ops.go.

// Parse compiles an expression so it can be evaluated with any variables. The
// given options are applied in order.
func Parse(src string, opts ...ParseOption) (*Expr, error) {
	return ParseFrom(strings.NewReader(src), opts...)
}

// ParseFrom compiles an expression read from src. Parsing stops at the end of
// src, or at a whitespace rune given to StopOn, so that ParseFrom may be
// called repeatedly to parse several expressions from one source.
func ParseFrom(src io.RuneScanner, opts ...ParseOption) (*Expr, error) {
	p := parsectx{
		names: make(map[string]bool),
	}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	if p.funcs == nil {
		p.funcs = globalfuncs
	} else {
		// Only set default functions that aren't already set.
		for k, v := range globalfuncs {
			if _, ok := p.funcs[k]; !ok {
				p.funcs[k] = v
			}
		}
	}
	ps := parser{scan: lex(src), p: &p}
	if err := ps.run(); err != nil {
		return nil, err
	}
	if ps.depth != 1 {
		panic("shunting: parse left " + strconv.Itoa(ps.depth) + " values on the stack")
	}
	ex := Expr{
		code:  ps.out,
		names: make([]string, 0, len(p.names)),
		depth: ps.max,
	}
	for k := range p.names {
		ex.names = append(ex.names, k)
	}
	sortstrs(ex.names)
	return &ex, nil
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// frame is an entry on the operator stack: an operator, an open parenthesis,
// or an open function call.
type frame struct {
	// tok is the operator or open parenthesis token, or the function name
	// for a call.
	tok lexToken
	op  operator
	// fn is the function for a call frame and nil otherwise.
	fn Func
	// open is the position of the open parenthesis for a call or group.
	open int
	// seps is the number of separators seen in a call frame.
	seps int
}

func (f *frame) isOp() bool {
	return f.tok.kind == tokenOp
}

// parser is the shunting-yard state for one parse.
type parser struct {
	scan *lexer
	p    *parsectx
	// out is the output queue.
	out []instr
	// ops is the operator stack.
	ops []frame
	// depth is the stack height the output would reach if executed now, and
	// max is the most it reaches at any point.
	depth, max int
}

// emit appends an instruction to the output queue. Panics if the instruction
// would pop more values than have been pushed.
func (ps *parser) emit(in instr) {
	if ps.depth < in.pops() {
		panic("shunting: emitted " + in.op.String() + " with stack height " + strconv.Itoa(ps.depth))
	}
	ps.out = append(ps.out, in)
	ps.depth += in.effect()
	if ps.depth > ps.max {
		ps.max = ps.depth
	}
}

func (ps *parser) top() *frame {
	if len(ps.ops) == 0 {
		return nil
	}
	return &ps.ops[len(ps.ops)-1]
}

func (ps *parser) pop() frame {
	f := ps.ops[len(ps.ops)-1]
	ps.ops = ps.ops[:len(ps.ops)-1]
	return f
}

// run consumes tokens until the end of the expression. operand tracks whether
// the next token must begin an operand; otherwise it must be an operator or
// something that ends one.
func (ps *parser) run() error {
	operand := true
	for {
		ws := ps.p.wseof
		if operand {
			// Don't stop in the middle of an expression.
			ws = ""
		}
		tok, err := ps.scan.next(ws)
		if err != nil {
			return err
		}
		if operand {
			operand, err = ps.operand(tok)
		} else {
			if tok.kind == tokenEOF {
				return ps.finish()
			}
			operand, err = ps.operator(tok)
		}
		if err != nil {
			return err
		}
	}
}

// operand handles a token where an operand is expected. The result is whether
// an operand is still expected.
func (ps *parser) operand(tok lexToken) (bool, error) {
	switch tok.kind {
	case tokenNum:
		v, err := strconv.ParseFloat(tok.text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			// Out of range literals round to ±inf or zero, which we keep.
			return false, &NumberError{Col: tok.pos, Text: tok.text}
		}
		ps.emit(instr{op: opNum, val: v, name: tok.text})
		return false, nil
	case tokenIdent:
		return ps.ident(tok)
	case tokenOp:
		op := unop(tok.text)
		if op.op == opNone {
			return false, &TokenError{Col: tok.pos, Token: tok.text}
		}
		// Prefix operators have no left operand, so they never pop.
		ps.ops = append(ps.ops, frame{tok: tok, op: op})
		return true, nil
	case tokenOpen:
		ps.ops = append(ps.ops, frame{tok: tok, open: tok.pos})
		return true, nil
	case tokenClose:
		top := ps.top()
		switch {
		case top == nil:
			return false, &BracketError{Col: tok.pos}
		case top.fn != nil && top.seps == 0:
			// Niladic call, f().
			return false, ps.call(ps.pop(), 0)
		case top.isOp():
			return false, &OperatorError{Col: top.tok.pos, Operator: top.tok.text}
		default:
			return false, &EmptyExpressionError{Col: tok.pos, End: tok.text}
		}
	case tokenSep:
		if top := ps.top(); top != nil && top.isOp() {
			return false, &OperatorError{Col: top.tok.pos, Operator: top.tok.text}
		}
		return false, &SeparatorError{Col: tok.pos}
	case tokenEOF:
		top := ps.top()
		switch {
		case top == nil:
			return false, &EmptyExpressionError{Col: tok.pos}
		case top.isOp():
			return false, &OperatorError{Col: top.tok.pos, Operator: top.tok.text}
		default:
			return false, &BracketError{Col: top.open, Open: true}
		}
	default:
		panic("shunting: unknown token: " + tok.String())
	}
}

// operator handles a token where an operator is expected. The result is
// whether an operand is expected next.
func (ps *parser) operator(tok lexToken) (bool, error) {
	switch tok.kind {
	case tokenOp:
		op := binop(tok.text)
		if op.op == opNone {
			return false, &TokenError{Col: tok.pos, Token: tok.text}
		}
		for top := ps.top(); top != nil && top.isOp() && top.op.outranks(op); top = ps.top() {
			ps.apply(ps.pop())
		}
		ps.ops = append(ps.ops, frame{tok: tok, op: op})
		return true, nil
	case tokenClose:
		for top := ps.top(); top != nil; top = ps.top() {
			f := ps.pop()
			switch {
			case f.fn != nil:
				return false, ps.call(f, f.seps+1)
			case f.tok.kind == tokenOpen:
				return false, nil
			default:
				ps.apply(f)
			}
		}
		return false, &BracketError{Col: tok.pos}
	case tokenSep:
		for top := ps.top(); top != nil && top.isOp(); top = ps.top() {
			ps.apply(ps.pop())
		}
		top := ps.top()
		if top == nil || top.fn == nil {
			return false, &SeparatorError{Col: tok.pos}
		}
		top.seps++
		return true, nil
	case tokenNum, tokenIdent, tokenOpen:
		return false, &TokenError{Col: tok.pos, Token: tok.text}
	default:
		panic("shunting: unknown token: " + tok.String())
	}
}

// ident handles an identifier in operand position, which is either a variable
// or a function.
func (ps *parser) ident(tok lexToken) (bool, error) {
	fn := ps.p.funcs[tok.text]
	if fn == nil {
		ps.p.names[tok.text] = true
		ps.emit(instr{op: opVar, name: tok.text})
		return false, nil
	}
	next, err := ps.scan.next(ps.p.wseof)
	if err != nil {
		return false, err
	}
	if next.kind == tokenOpen {
		ps.ops = append(ps.ops, frame{tok: tok, fn: fn, open: next.pos})
		return true, nil
	}
	// A bare function name is a call with no arguments, e.g. pi.
	ps.scan.push(next)
	return false, ps.call(frame{tok: tok, fn: fn}, 0)
}

// call emits a call for a frame with n arguments.
func (ps *parser) call(f frame, n int) error {
	if !f.fn.CanCall(n) {
		return &CallError{Col: f.tok.pos, Func: f.tok.text, Len: n}
	}
	ps.emit(instr{op: opCall, name: f.tok.text, fn: f.fn, argc: n})
	return nil
}

// apply emits the instruction for an operator frame.
func (ps *parser) apply(f frame) {
	ps.emit(instr{op: f.op.op})
}

// finish pops every remaining operator at the end of the input.
func (ps *parser) finish() error {
	for top := ps.top(); top != nil; top = ps.top() {
		if !top.isOp() {
			return &BracketError{Col: top.open, Open: true}
		}
		ps.apply(ps.pop())
	}
	return nil
}
