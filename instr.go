package shunting

import (
	"strconv"
	"strings"
)

// instr is a single instruction of a compiled expression.
type instr struct {
	op opcode
	// val is the value of a constant.
	val float64
	// name is the variable or function name, or the literal text of a
	// constant.
	name string
	// fn is the function to call for opCall.
	fn Func
	// argc is the number of arguments to pop for opCall.
	argc int
}

type opcode int8

const (
	opNone opcode = iota

	opNum  // push val
	opVar  // push lookup(name)
	opCall // pop argc args, push fn(args)

	opNeg // negate top
	opAdd // pop r, l; push l + r
	opSub // pop r, l; push l - r
	opMul // pop r, l; push l * r
	opDiv // pop r, l; push l / r
	opPow // pop r, l; push l ^ r
)

func (op opcode) String() string {
	switch op {
	case opNone:
		return "None"
	case opNum:
		return "Num"
	case opVar:
		return "Var"
	case opCall:
		return "Call"
	case opNeg:
		return "Neg"
	case opAdd:
		return "Add"
	case opSub:
		return "Sub"
	case opMul:
		return "Mul"
	case opDiv:
		return "Div"
	case opPow:
		return "Pow"
	default:
		return "opcode(" + strconv.Itoa(int(op)) + ")"
	}
}

// effect is the change in stack height from executing the instruction.
func (in *instr) effect() int {
	switch in.op {
	case opNum, opVar:
		return 1
	case opNeg:
		return 0
	case opAdd, opSub, opMul, opDiv, opPow:
		return -1
	case opCall:
		return 1 - in.argc
	default:
		panic("shunting: invalid instruction " + in.op.String())
	}
}

// pops is the number of operands the instruction consumes.
func (in *instr) pops() int {
	switch in.op {
	case opNeg:
		return 1
	case opAdd, opSub, opMul, opDiv, opPow:
		return 2
	case opCall:
		return in.argc
	default:
		return 0
	}
}

func (in *instr) fmt(b *strings.Builder) {
	switch in.op {
	case opNum, opVar:
		b.WriteString(in.name)
	case opCall:
		b.WriteString(in.name)
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(in.argc))
	case opNeg:
		b.WriteString("neg")
	case opAdd:
		b.WriteByte('+')
	case opSub:
		b.WriteByte('-')
	case opMul:
		b.WriteByte('*')
	case opDiv:
		b.WriteByte('/')
	case opPow:
		b.WriteByte('^')
	default:
		b.WriteString("$" + in.op.String() + "$")
	}
}

// Expr is a compiled expression that can be evaluated with any set of
// variables. An Expr is immutable, so it is safe to evaluate concurrently.
type Expr struct {
	// code is the instruction sequence in postfix order.
	code []instr
	// names is the sorted list of variable names used in the expression.
	names []string
	// depth is the maximum stack height reached while evaluating code.
	depth int
}

// Vars returns the variable names used when evaluating the expression, sorted.
func (e *Expr) Vars() []string {
	return append(([]string)(nil), e.names...)
}

// Missing returns the variable names used by the expression that v does not
// define. The result is nil if v defines all of them.
func (e *Expr) Missing(v Vars) []string {
	var r []string
	for _, name := range e.names {
		if v != nil {
			if _, ok := v.Get(name); ok {
				continue
			}
		}
		r = append(r, name)
	}
	return r
}

// Len returns the number of instructions in the expression.
func (e *Expr) Len() int {
	return len(e.code)
}

// String renders the expression in postfix order, with instructions separated
// by spaces. Function calls are written as name/argc.
func (e *Expr) String() string {
	var b strings.Builder
	for i := range e.code {
		if i > 0 {
			b.WriteByte(' ')
		}
		e.code[i].fmt(&b)
	}
	return b.String()
}
